package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adnsv/go-utils/fs"
)

var ErrNoEntries = errors.New("entry list is empty")

// FieldError describes one violated constraint of a BuildConfig.
type FieldError struct {
	Field   string // e.g. "entry[2]" or "output[1].format"
	Value   any
	Message string
	Err     error // optional sentinel
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError bundles every problem found by Validate.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	ret := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		ret[i] = fe
	}
	return ret
}

type validator struct {
	errs []FieldError
}

func (v *validator) add(field string, value any, err error, format string, args ...any) {
	v.errs = append(v.errs, FieldError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	})
}

// Validate checks the record against the filesystem. All problems are
// collected; the returned error is a *ValidationError or nil.
func Validate(cfg *BuildConfig) error {
	v := &validator{}

	if strings.TrimSpace(cfg.Title) == "" {
		v.add("title", cfg.Title, nil, "must not be empty")
	}
	if cfg.Size != "" {
		if _, err := ParsePageSize(cfg.Size); err != nil {
			v.add("size", cfg.Size, ErrInvalidPageSize, "%v", err)
		}
	}
	if !cfg.Theme.IsZero() {
		validateTheme(v, "theme", cfg.Theme, cfg.ConfigDir)
	}
	switch cfg.ReadingProgression {
	case "", "ltr", "rtl":
	default:
		v.add("readingProgression", cfg.ReadingProgression, nil, "must be ltr or rtl")
	}

	validateEntries(v, cfg)
	validateOutputs(v, cfg)

	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}

func validateTheme(v *validator, field string, t ThemeRef, dir string) {
	if t.IsLocal() {
		fn := normalizePath(dir, t.Name)
		if _, err := os.Stat(fn); err != nil {
			v.add(field, t.String(), ErrInvalidTheme, "local theme %s not found", fn)
		}
		return
	}
	if _, err := checkThemeRef(t); err != nil {
		v.add(field, t.String(), ErrInvalidTheme, "%v", err)
	}
}

func validateEntries(v *validator, cfg *BuildConfig) {
	if len(cfg.Entry) == 0 {
		v.add("entry", nil, ErrNoEntries, "at least one entry is required")
		return
	}

	dir := cfg.EntryDir()
	if err := fs.ValidateDirExists(dir); err != nil {
		v.add("entryContext", cfg.EntryContext, err, "%v", err)
		return
	}

	seen := map[string]int{}
	for i, e := range cfg.Entry {
		field := fmt.Sprintf("entry[%d]", i)
		if strings.TrimSpace(e.Path) == "" {
			v.add(field, e.Path, nil, "path must not be empty")
			continue
		}
		fn := cfg.EntryPath(i)
		if !within(dir, fn) {
			v.add(field, e.Path, nil, "resolves outside of entryContext (%s)", dir)
			continue
		}
		if j, dup := seen[fn]; dup {
			v.add(field, e.Path, nil, "duplicates entry[%d]", j)
			continue
		}
		seen[fn] = i
		if err := fs.ValidateFileExists(fn); err != nil {
			v.add(field, e.Path, err, "%v", err)
		}
		if e.Theme != nil && !e.Theme.IsZero() {
			validateTheme(v, field+".theme", *e.Theme, dir)
		}
	}
}

func validateOutputs(v *validator, cfg *BuildConfig) {
	seen := map[string]int{}
	for i, o := range cfg.Output {
		field := fmt.Sprintf("output[%d]", i)
		if strings.TrimSpace(o.Path) == "" {
			v.add(field+".path", o.Path, nil, "must not be empty")
		} else {
			fn := cfg.OutputPath(i)
			if j, dup := seen[fn]; dup {
				v.add(field+".path", o.Path, nil, "duplicates output[%d]", j)
			}
			seen[fn] = i
		}
		if !o.Format.Valid() {
			v.add(field+".format", string(o.Format), ErrUnknownFormat,
				"unknown format %q, expected one of %v", o.Format, Formats())
		}
	}
}

func within(dir, fn string) bool {
	rel, err := filepath.Rel(dir, fn)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
