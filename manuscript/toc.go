package manuscript

import (
	"fmt"
	"io"
	"strings"
)

// TOCItem is one line of the table of contents. Depth 0 is a chapter.
type TOCItem struct {
	Depth int
	Title string
	Path  string // entry path, with #id for headings that have one
}

// TOC builds an outline of the chapters. Headings deeper than depth levels
// below the chapter's top heading are omitted; depth 0 lists chapters only.
// The heading that supplied the chapter title is not repeated.
func TOC(chapters []*Chapter, depth int) []TOCItem {
	var items []TOCItem
	for _, c := range chapters {
		items = append(items, TOCItem{Title: c.Title, Path: c.Path})
		if depth <= 0 || len(c.Headings) == 0 {
			continue
		}

		top := c.Headings[0].Level
		for _, h := range c.Headings {
			if h.Level < top {
				top = h.Level
			}
		}
		skipped := false
		for _, h := range c.Headings {
			if !skipped && h.Level == top && h.Text == c.Title {
				skipped = true
				continue
			}
			d := h.Level - top
			if d == 0 {
				d = 1
			}
			if d > depth {
				continue
			}
			p := c.Path
			if h.ID != "" {
				p += "#" + h.ID
			}
			items = append(items, TOCItem{Depth: d, Title: h.Text, Path: p})
		}
	}
	return items
}

// WriteTOC prints the outline as an indented list.
func WriteTOC(w io.Writer, items []TOCItem) error {
	for _, it := range items {
		_, err := fmt.Fprintf(w, "%s- %s (%s)\n", strings.Repeat("  ", it.Depth), it.Title, it.Path)
		if err != nil {
			return err
		}
	}
	return nil
}
