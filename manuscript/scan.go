// Package manuscript extracts chapter titles and heading outlines from the
// entries of a book by running them through pandoc.
package manuscript

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adnsv/go-pandoc"
	"github.com/adnsv/panbook/log"
	"github.com/adnsv/panbook/model"
	"golang.org/x/sync/errgroup"
)

// Chapter is what panbook knows about one entry after scanning it.
type Chapter struct {
	Index    int    // position in BuildConfig.Entry
	Path     string // entry path as written
	AbsPath  string
	Title    string
	Meta     map[string]string
	Headings []Heading
}

type Heading struct {
	Level int
	ID    string
	Text  string
}

type ScanOptions struct {
	Pandoc string // pandoc executable, defaults to "pandoc"
	Runner Runner // defaults to ExecRunner
	Jobs   int    // concurrent pandoc processes, defaults to GOMAXPROCS
}

// Scan runs `pandoc -t json` over every entry and collects titles and
// headings. The result is in entry order.
func Scan(ctx context.Context, cfg *model.BuildConfig, opts ScanOptions) ([]*Chapter, error) {
	if opts.Pandoc == "" {
		opts.Pandoc = "pandoc"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{Dir: cfg.EntryDir()}
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}

	logger := log.WithComponent("manuscript")
	chapters := make([]*Chapter, len(cfg.Entry))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i := range cfg.Entry {
		g.Go(func() error {
			fn := cfg.EntryPath(i)
			logger.Debug().Str("path", fn).Msg("running pandoc")
			jbuf, err := opts.Runner.Run(ctx, opts.Pandoc, "-t", "json", fn)
			if err != nil {
				return fmt.Errorf("pandoc error in %s: %w", cfg.Entry[i].Path, err)
			}
			c, err := parseChapter(jbuf)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.Entry[i].Path, err)
			}
			c.Index = i
			c.Path = cfg.Entry[i].Path
			c.AbsPath = fn
			c.Title = chooseTitle(c, cfg.Entry[i])
			chapters[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chapters, nil
}

func parseChapter(jbuf []byte) (*Chapter, error) {
	d, err := pandoc.NewDocument(jbuf)
	if err != nil {
		return nil, err
	}
	flow, err := d.Flow()
	if err != nil {
		return nil, err
	}

	c := &Chapter{Meta: d.ParseMeta()}
	for _, b := range flow {
		if h, ok := b.(*pandoc.Header); ok {
			c.Headings = append(c.Headings, Heading{
				Level: h.Level,
				ID:    h.Attr.Identifier,
				Text:  PlainText(h.Inlines),
			})
		}
	}
	return c, nil
}

// chooseTitle prefers the entry override, then the document metadata, then
// the first top-level heading, then the file name.
func chooseTitle(c *Chapter, e model.Entry) string {
	if e.Title != "" {
		return e.Title
	}
	if t := strings.TrimSpace(c.Meta["title"]); t != "" {
		return t
	}
	top := 0
	for _, h := range c.Headings {
		if top == 0 || h.Level < top {
			top = h.Level
		}
	}
	for _, h := range c.Headings {
		if h.Level == top {
			return h.Text
		}
	}
	fn := filepath.Base(e.Path)
	return strings.TrimSuffix(fn, filepath.Ext(fn))
}

// PlainText flattens inlines without any markup.
func PlainText(ll pandoc.InlineList) string {
	buf := &bytes.Buffer{}
	for _, l := range ll {
		switch l := l.(type) {
		case *pandoc.Space, *pandoc.SoftBreak, *pandoc.LineBreak:
			buf.WriteString(" ")
		case *pandoc.Str:
			buf.WriteString(l.Text)
		case *pandoc.Code:
			buf.WriteString(l.Text)
		case *pandoc.Formatted:
			buf.WriteString(PlainText(l.Content))
		case *pandoc.Quoted:
			q := "\""
			if l.QuoteType == "SingleQuote" {
				q = "'"
			}
			buf.WriteString(q + PlainText(l.Content) + q)
		case *pandoc.Link:
			buf.WriteString(PlainText(l.Content))
		}
	}
	return buf.String()
}
