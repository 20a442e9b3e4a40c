package model

import (
	"path/filepath"
)

// BuildConfig is the book manifest handed to the publishing engine.
type BuildConfig struct {
	Title              string         `yaml:"title"`
	Author             string         `yaml:"author"`
	Language           string         `yaml:"language,omitempty"`
	ReadingProgression string         `yaml:"readingProgression,omitempty"`
	Size               string         `yaml:"size"`
	Theme              ThemeRef       `yaml:"theme"`
	Entry              []Entry        `yaml:"entry"`
	EntryContext       string         `yaml:"entryContext"`
	Output             []OutputTarget `yaml:"output"`

	// runtime helpers
	ConfigPath string `yaml:"-"` // absolute, empty when parsed from memory
	ConfigDir  string `yaml:"-"` // absolute
}

// Entry is one manuscript file. Order in BuildConfig.Entry is document order.
type Entry struct {
	Path  string    `yaml:"path"`
	Title string    `yaml:"title,omitempty"`
	Theme *ThemeRef `yaml:"theme,omitempty"`
}

type OutputTarget struct {
	Path   string `yaml:"path"`
	Format Format `yaml:"format"`
}

// EntryDir returns the absolute directory entries are resolved against.
func (cfg *BuildConfig) EntryDir() string {
	return normalizePath(cfg.ConfigDir, cfg.EntryContext)
}

// EntryPath returns the absolute path of the i-th entry.
func (cfg *BuildConfig) EntryPath(i int) string {
	return normalizePath(cfg.EntryDir(), cfg.Entry[i].Path)
}

// OutputPath returns the absolute path of the i-th output target.
func (cfg *BuildConfig) OutputPath(i int) string {
	return normalizePath(cfg.ConfigDir, cfg.Output[i].Path)
}

// EntryPaths lists the entries as given, in document order.
func (cfg *BuildConfig) EntryPaths() []string {
	ret := make([]string, len(cfg.Entry))
	for i, e := range cfg.Entry {
		ret[i] = e.Path
	}
	return ret
}

func normalizePath(refdir string, fn string) string {
	if fn == "" {
		fn = "."
	}
	if !filepath.IsAbs(fn) {
		fn = filepath.Join(refdir, fn)
	}
	return filepath.Clean(fn)
}

// LocalThemes returns the absolute paths of every theme given as a path
// instead of a package. The book theme is relative to the config directory,
// entry themes to the entry directory.
func (cfg *BuildConfig) LocalThemes() []string {
	var ret []string
	if cfg.Theme.IsLocal() {
		ret = append(ret, normalizePath(cfg.ConfigDir, cfg.Theme.Name))
	}
	for _, e := range cfg.Entry {
		if e.Theme != nil && e.Theme.IsLocal() {
			ret = append(ret, normalizePath(cfg.EntryDir(), e.Theme.Name))
		}
	}
	return ret
}
