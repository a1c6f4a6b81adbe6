// Package issuekeys finds issue tracker keys in free text
package issuekeys

import (
	"regexp"
)

// Matcher supplies the key pattern of one tracker
type Matcher interface {
	KeyPattern() *regexp.Regexp

	// Key extracts the key from one match; loc is a FindAllStringSubmatchIndex entry
	Key(text string, loc []int) string
}

// PatternMatcher is a regexp Matcher; Group selects the submatch holding the key (0 for the whole match)
type PatternMatcher struct {
	Pattern *regexp.Regexp
	Group   int
}

var (
	jiraPattern    = regexp.MustCompile(`\b([A-Z]+-\d+)`)
	redminePattern = regexp.MustCompile(`\B(#\d+)`)
)

// Jira matches keys such as ABC-42
func Jira() PatternMatcher { return PatternMatcher{Pattern: jiraPattern} }

// Redmine matches keys such as #42
func Redmine() PatternMatcher { return PatternMatcher{Pattern: redminePattern} }

// Compile builds a PatternMatcher from a user supplied expression
func Compile(expr string, group int) (PatternMatcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return PatternMatcher{}, err
	}
	return PatternMatcher{Pattern: re, Group: group}, nil
}

func (m PatternMatcher) KeyPattern() *regexp.Regexp { return m.Pattern }

func (m PatternMatcher) Key(text string, loc []int) string {
	g := m.Group
	if 2*g+1 >= len(loc) || loc[2*g] < 0 {
		g = 0
	}
	return text[loc[2*g]:loc[2*g+1]]
}

// FindKeys returns every distinct key in texts, in order of first appearance
func FindKeys(m Matcher, texts ...string) []string {
	re := m.KeyPattern()
	if re == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var keys []string
	for _, text := range texts {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			k := m.Key(text, loc)
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// NormalizeKey maps a key to a storage safe identifier
func NormalizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}
