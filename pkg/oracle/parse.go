package oracle

import "strings"

// listMarkers are the characters stripped from the start of a library list
// line: bullet and numbering prefixes the model tends to add despite the
// "names only" instruction. Only the left side is trimmed so names ending in
// digits ("DHT22") survive intact.
const listMarkers = "-*0123456789. \t"

// ParseLibraryList parses a library-list oracle response into library names.
//
// The response is read line by line. Each line is trimmed of list-marker
// characters and whitespace, empty lines are discarded, and duplicates (by
// exact string) are suppressed while preserving first-seen order.
func ParseLibraryList(text string) []string {
	var libs []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), listMarkers))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		libs = append(libs, name)
	}
	return libs
}
