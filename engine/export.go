package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/adnsv/go-utils/fs"
	"github.com/adnsv/panbook/log"
	"github.com/adnsv/panbook/model"
)

// DefaultConfigName is the file the engine picks up from the project root.
const DefaultConfigName = "vivliostyle.config.js"

// field order here is the order written to the engine config
type exportConfig struct {
	Title              string         `json:"title,omitempty"`
	Author             string         `json:"author,omitempty"`
	Language           string         `json:"language,omitempty"`
	ReadingProgression string         `json:"readingProgression,omitempty"`
	Size               string         `json:"size,omitempty"`
	Theme              string         `json:"theme,omitempty"`
	Entry              []any          `json:"entry"`
	EntryContext       string         `json:"entryContext"`
	Output             []exportOutput `json:"output,omitempty"`
}

type exportEntry struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
	Theme string `json:"theme,omitempty"`
}

type exportOutput struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// Export writes cfg as an engine config file located in dir. Paths are made
// relative to dir, which is where the engine resolves them from.
func Export(cfg *model.BuildConfig, dir string, w io.Writer) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	rel := func(fn string) (string, error) {
		r, err := filepath.Rel(dir, fn)
		if err != nil {
			return "", err
		}
		r = filepath.ToSlash(r)
		if !filepath.IsAbs(r) && r != "." && r[0] != '.' {
			r = "./" + r
		}
		return r, nil
	}
	theme := func(t model.ThemeRef, base string) (string, error) {
		if !t.IsLocal() {
			return t.String(), nil
		}
		return rel(filepath.Join(base, t.Name))
	}

	x := exportConfig{
		Title:              cfg.Title,
		Author:             cfg.Author,
		Language:           cfg.Language,
		ReadingProgression: cfg.ReadingProgression,
		Size:               cfg.Size,
	}
	if x.Theme, err = theme(cfg.Theme, cfg.ConfigDir); err != nil {
		return err
	}
	if x.EntryContext, err = rel(cfg.EntryDir()); err != nil {
		return err
	}
	for _, e := range cfg.Entry {
		p := filepath.ToSlash(e.Path)
		if e.Title == "" && e.Theme == nil {
			x.Entry = append(x.Entry, p)
			continue
		}
		xe := exportEntry{Path: p, Title: e.Title}
		if e.Theme != nil {
			if xe.Theme, err = theme(*e.Theme, cfg.EntryDir()); err != nil {
				return err
			}
		}
		x.Entry = append(x.Entry, xe)
	}
	for i, o := range cfg.Output {
		p, err := rel(cfg.OutputPath(i))
		if err != nil {
			return err
		}
		x.Output = append(x.Output, exportOutput{Path: p, Format: o.Format.String()})
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&x); err != nil {
		return err
	}

	src := "the book configuration"
	if cfg.ConfigPath != "" {
		src = filepath.Base(cfg.ConfigPath)
	}
	_, err = fmt.Fprintf(w, "// generated by panbook from %s, do not edit\nmodule.exports = %s", src, bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	if err == nil {
		_, err = io.WriteString(w, ";\n")
	}
	return err
}

// ExportFile writes the engine config to fn, leaving the file untouched when
// the content did not change.
func ExportFile(cfg *model.BuildConfig, fn string) error {
	fn, err := filepath.Abs(fn)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := Export(cfg, filepath.Dir(fn), buf); err != nil {
		return err
	}

	logger := log.WithComponent("engine")
	logger.Info().Str("path", fn).Msg("writing engine config")
	return fs.WriteFileIfChanged(fn, buf.Bytes())
}
