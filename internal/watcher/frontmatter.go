package watcher

import (
	"strings"

	"github.com/adrg/frontmatter"
)

// fileMeta holds the YAML front-matter fields a watched markdown file
// can carry. Only Title is consumed today; the rest of the document
// stays as-is in the note body.
type fileMeta struct {
	Title string `yaml:"title"`
}

// extractFrontMatter parses a leading "---" YAML block out of content
// and returns its title (if any) and the remaining body. Content
// without a parseable front-matter block is returned unchanged as the
// body with an empty title.
func extractFrontMatter(content string) (title, body string) {
	var meta fileMeta
	rest, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil {
		return "", content
	}
	return meta.Title, string(rest)
}
