package noterepo

import "strings"

// Snippet builds a short preview of content: the first 250 runes,
// split into lines with leading markdown heading/emphasis markers
// stripped, rejoined with spaces, and, when longer than 200 bytes, cut
// to its first 200 bytes followed by "...". Search and
// Linker share this helper so a note's preview looks the same no
// matter which path produced it.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) > 250 {
		runes = runes[:250]
	}

	var lines []string
	for _, line := range strings.Split(string(runes), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#")
		line = strings.TrimSpace(line)
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "*", "")
		lines = append(lines, line)
	}
	stripped := strings.Join(lines, " ")

	if len(stripped) > 200 {
		return stripped[:200] + "..."
	}
	return stripped
}
