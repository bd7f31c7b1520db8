package forge

import "strings"

// commentPrefixes is the set of line prefixes Sanitize drops. A line starting
// with "*/" is already covered by "*".
var commentPrefixes = []string{"```", "//", "/*", "*"}

// Sanitize strips fence and comment lines from oracle-produced source.
//
// The filter is deliberately coarse: any line whose first non-blank characters
// look like a comment or fence marker is dropped, even if it is semantically
// meaningful (a string literal starting with "//", a wrapped multiplication).
// The policy lives in this one function so it can be revisited without
// touching the compile loop.
func Sanitize(source string) string {
	var kept []string
	for _, line := range strings.Split(source, "\n") {
		stripped := strings.TrimSpace(line)
		if hasAnyPrefix(stripped, commentPrefixes) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
