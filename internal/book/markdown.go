package book

import (
	"strings"

	"github.com/nerdenough/ai-storytime/internal/caption"
)

// PagesFromMarkdown rebuilds pages from caption-rewritten markdown.
// Each caption marker closes a page whose image is that caption; text after
// the last marker becomes a final page without an image. The first level-one
// heading is returned as the title and left out of page text.
func PagesFromMarkdown(md string) (string, []Page) {
	var (
		title string
		pages []Page
		buf   []string
	)

	flush := func(img *Image) {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" && img == nil {
			return
		}
		pages = append(pages, Page{Text: text, Image: img})
	}

	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if title == "" && strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			continue
		}
		if c, _, ok := caption.ParseMarker(trimmed); ok {
			flush(&Image{Caption: c, Prompt: c})
			continue
		}
		buf = append(buf, line)
	}
	flush(nil)

	return title, pages
}
