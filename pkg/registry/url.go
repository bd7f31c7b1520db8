package registry

import (
	"regexp"
	"strings"
)

// urlPattern matches the first scheme://non-whitespace run in free text.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// trailingJunk is the set of punctuation and bracket characters stripped from
// the end of an extracted URL. Oracle responses routinely wrap links in
// markdown emphasis or end the sentence right after the URL.
const trailingJunk = ".*_~`<>[](){}"

// ExtractFirstURL returns the first URL-like substring in text, with trailing
// punctuation stripped. Returns an empty string when no URL is present.
func ExtractFirstURL(text string) string {
	m := urlPattern.FindString(text)
	if m == "" {
		return ""
	}
	return strings.TrimRight(m, trailingJunk)
}
