package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either a bare path or a {path, title, theme} mapping.
func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*e = Entry{Path: n.Value}
		return nil
	case yaml.MappingNode:
		if err := checkKeys(n, "path", "title", "theme"); err != nil {
			return err
		}
		type plain Entry
		p := plain{}
		if err := n.Decode(&p); err != nil {
			return err
		}
		*e = Entry(p)
		return nil
	}
	return fmt.Errorf("line %d: entry must be a path or a {path, title, theme} mapping", n.Line)
}

var reOrderPrefix = regexp.MustCompile(`^(\d+)[-_. ]`)

// orderPrefix extracts the numeric chapter prefix of an entry file name, as
// in `03-escrow-project-setup.md`.
func orderPrefix(fn string) (int, bool) {
	m := reOrderPrefix.FindStringSubmatch(filepath.Base(fn))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// CheckOrder reports entries whose numeric file name prefix does not follow
// the previous numbered entry. Unnumbered entries are skipped. The result
// is advisory: entry order is always taken as written.
func CheckOrder(cfg *BuildConfig) []string {
	var warnings []string
	last, lastFN := -1, ""
	for _, e := range cfg.Entry {
		n, ok := orderPrefix(e.Path)
		if !ok {
			continue
		}
		if last >= 0 && n <= last {
			warnings = append(warnings, fmt.Sprintf("%s is listed after %s", e.Path, lastFN))
		}
		last, lastFN = n, e.Path
	}
	return warnings
}
