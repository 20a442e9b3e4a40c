package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an artifact kind the publishing engine can produce.
type Format string

const (
	FormatPDF    = Format("pdf")
	FormatWebPub = Format("webpub")
	FormatEPUB   = Format("epub")
)

var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the recognized output formats.
func Formats() []Format {
	return []Format{FormatPDF, FormatWebPub, FormatEPUB}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return Format(s), fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatWebPub, FormatEPUB:
		return true
	}
	return false
}

func (f Format) String() string {
	return string(f)
}

// IsDir reports whether the format produces a directory instead of a file.
func (f Format) IsDir() bool {
	return f == FormatWebPub
}

// InferFormat chooses a format from the output path extension, the same way
// the engine does when a target omits it.
func InferFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".epub":
		return FormatEPUB
	default:
		return FormatWebPub
	}
}

// UnmarshalYAML accepts either a bare path or a {path, format} mapping.
func (t *OutputTarget) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		t.Path = n.Value
		t.Format = InferFormat(n.Value)
		return nil
	case yaml.MappingNode:
		if err := checkKeys(n, "path", "format"); err != nil {
			return err
		}
		type plain OutputTarget
		p := plain{}
		if err := n.Decode(&p); err != nil {
			return err
		}
		*t = OutputTarget(p)
		if t.Format == "" {
			t.Format = InferFormat(t.Path)
		} else if f, err := ParseFormat(string(t.Format)); err == nil {
			t.Format = f
		}
		return nil
	}
	return fmt.Errorf("line %d: output must be a path or a {path, format} mapping", n.Line)
}

// checkKeys rejects mapping keys outside the allowed set; nested Decode calls
// do not inherit the decoder's KnownFields setting.
func checkKeys(n *yaml.Node, allowed ...string) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		ok := false
		for _, a := range allowed {
			if k.Value == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("line %d: field %s not found, expected one of: %s",
				k.Line, k.Value, strings.Join(allowed, ", "))
		}
	}
	return nil
}
