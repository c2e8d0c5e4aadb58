// Package crossref finds task and issue references in branch names,
// pull request titles and descriptions, and commit messages.
package crossref

import (
	"regexp"
	"strconv"
	"strings"
)

// issueRefPattern matches issue references such as "#123" or "fixes #7".
// The leading class keeps URL fragments and HTML entities (&#39;) out.
var issueRefPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_&/#])#(\d+)\b`)

// ExtractIssueNumbers extracts all #<n> issue references from text.
// Returns a deduplicated list preserving the order of first occurrence.
func ExtractIssueNumbers(text string) []int {
	return collect(issueRefPattern.FindAllStringSubmatch(text, -1))
}

// ExtractSlugNumbers extracts <slug>-<n> task references from text, matched
// case-insensitively, so branch "KAN-42-fix-login" yields 42 for slug "kan".
func ExtractSlugNumbers(text, slug string) []int {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil
	}
	pattern := regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9])` + regexp.QuoteMeta(slug) + `-(\d+)\b`)
	return collect(pattern.FindAllStringSubmatch(text, -1))
}

func collect(matches [][]string) []int {
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var result []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}

// Refs holds the references found in a pull request or push.
type Refs struct {
	// IssueNumbers are provider issue numbers referenced as #<n>.
	IssueNumbers []int

	// TaskNumbers are board task numbers referenced as <slug>-<n>.
	TaskNumbers []int
}

// Empty reports whether no reference was found.
func (r Refs) Empty() bool {
	return len(r.IssueNumbers) == 0 && len(r.TaskNumbers) == 0
}

// MatchRefs extracts references from a branch name, title and
// description. Task references are only looked for when slug is set.
func MatchRefs(branch, title, description, slug string) Refs {
	combined := branch + " " + title + " " + description
	return Refs{
		IssueNumbers: ExtractIssueNumbers(combined),
		TaskNumbers:  ExtractSlugNumbers(combined, slug),
	}
}
