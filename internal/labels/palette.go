package labels

// FallbackColor is used for labels outside the palette.
const FallbackColor = "6B7280"

// palette holds colors as six hex digits without '#', the form the
// provider label APIs accept.
var palette = map[string]string{
	"priority:low":    "10B981",
	"priority:medium": "F59E0B",
	"priority:high":   "F97316",
	"priority:urgent": "EF4444",

	"status:to-do":       "94A3B8",
	"status:in-progress": "3B82F6",
	"status:done":        "22C55E",
	"status:planned":     "8B5CF6",
	"status:archived":    "64748B",

	"kaneo":         "6366F1",
	"bug":           "D73A4A",
	"enhancement":   "A2EEEF",
	"documentation": "0075CA",
}

// Color returns the display color for a label.
func Color(label string) string {
	if c, ok := palette[label]; ok {
		return c
	}
	return FallbackColor
}

// Entry is a palette row.
type Entry struct {
	Label string
	Color string
}

// Palette returns every known label and its color, grouped by kind.
func Palette() []Entry {
	order := []string{
		"priority:low", "priority:medium", "priority:high", "priority:urgent",
		"status:to-do", "status:in-progress", "status:done", "status:planned", "status:archived",
		"kaneo", "bug", "enhancement", "documentation",
	}
	entries := make([]Entry, 0, len(order))
	for _, label := range order {
		entries = append(entries, Entry{Label: label, Color: palette[label]})
	}
	return entries
}
