package model

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ThemeRef points at an external style package, npm style:
// `name`, `name@constraint`, `@scope/name` or `@scope/name@constraint`.
// Local theme paths (starting with `.` or `/`) carry no version.
type ThemeRef struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

var ErrInvalidTheme = errors.New("invalid theme reference")

func ParseThemeRef(s string) (ThemeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ThemeRef{}, nil
	}
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/") {
		return ThemeRef{Name: s}, nil
	}

	// the leading '@' of a scoped package is not a version separator
	i := strings.LastIndexByte(s, '@')
	if i <= 0 {
		return checkThemeRef(ThemeRef{Name: s})
	}
	if i == len(s)-1 {
		return ThemeRef{}, fmt.Errorf("%w: %q has an empty version after '@'", ErrInvalidTheme, s)
	}
	return checkThemeRef(ThemeRef{Name: s[:i], Version: s[i+1:]})
}

func checkThemeRef(t ThemeRef) (ThemeRef, error) {
	name := t.Name
	if strings.HasPrefix(name, "@") {
		ss := strings.SplitN(name[1:], "/", 2)
		if len(ss) != 2 || ss[0] == "" || ss[1] == "" {
			return t, fmt.Errorf("%w: scoped name %q must look like @scope/name", ErrInvalidTheme, name)
		}
		name = ss[1]
	}
	if name == "" || strings.ContainsAny(name, " /\\@") {
		return t, fmt.Errorf("%w: %q", ErrInvalidTheme, t.Name)
	}
	return t, nil
}

func (t ThemeRef) IsZero() bool {
	return t.Name == ""
}

// IsLocal reports whether the theme is a path rather than a package.
func (t ThemeRef) IsLocal() bool {
	return strings.HasPrefix(t.Name, ".") || strings.HasPrefix(t.Name, "/")
}

func (t ThemeRef) String() string {
	if t.Version == "" {
		return t.Name
	}
	return t.Name + "@" + t.Version
}

// UnmarshalYAML accepts either "name@version" or a {name, version} mapping.
func (t *ThemeRef) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		r, err := ParseThemeRef(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*t = r
		return nil
	case yaml.MappingNode:
		if err := checkKeys(n, "name", "version"); err != nil {
			return err
		}
		type plain ThemeRef
		p := plain{}
		if err := n.Decode(&p); err != nil {
			return err
		}
		r, err := checkThemeRef(ThemeRef(p))
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*t = r
		return nil
	}
	return fmt.Errorf("line %d: theme must be a string or a {name, version} mapping", n.Line)
}
