package integration

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LabelRef is a label as it appears in a webhook payload. Providers send
// either a bare string or an object carrying a name; both decode into Name.
// Anything else decodes to an empty ref.
type LabelRef struct {
	Name string
}

// UnmarshalJSON accepts "bug" and {"name": "bug", ...}.
func (l *LabelRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	l.Name = ""

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &l.Name)
	case '{':
		var obj struct {
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		// A non-string name is unusable, not malformed.
		var name string
		if json.Unmarshal(obj.Name, &name) == nil {
			l.Name = name
		}
		return nil
	default:
		return nil
	}
}

// MarshalJSON writes the ref back as a plain string.
func (l LabelRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Name)
}

// FlattenLabels reduces refs to their names in input order, dropping
// entries without a usable name. The result is never nil.
func FlattenLabels(refs []LabelRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
