package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PageSize is either a named paper size or an explicit width/height pair.
type PageSize struct {
	Name   string
	Width  Length
	Height Length
}

type Length struct {
	Value float64
	Unit  string
}

var ErrInvalidPageSize = errors.New("invalid page size")

// named paper sizes understood by CSS @page (plus the JIS B series the
// engine adds)
var namedPageSizes = map[string]struct{}{
	"a3": {}, "a4": {}, "a5": {},
	"b4": {}, "b5": {},
	"jis-b4": {}, "jis-b5": {},
	"letter": {}, "legal": {}, "ledger": {},
}

var lengthUnits = []string{"mm", "cm", "in", "pt", "pc", "px", "q"}

func ParsePageSize(s string) (PageSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PageSize{}, fmt.Errorf("%w: empty", ErrInvalidPageSize)
	}
	if _, ok := namedPageSizes[strings.ToLower(s)]; ok {
		return PageSize{Name: s}, nil
	}

	ss := strings.Split(s, ",")
	if len(ss) != 2 {
		return PageSize{}, fmt.Errorf("%w: %q is neither a known paper size nor a WIDTH,HEIGHT pair", ErrInvalidPageSize, s)
	}
	w, err := parseLength(ss[0])
	if err != nil {
		return PageSize{}, fmt.Errorf("%w: width: %v", ErrInvalidPageSize, err)
	}
	h, err := parseLength(ss[1])
	if err != nil {
		return PageSize{}, fmt.Errorf("%w: height: %v", ErrInvalidPageSize, err)
	}
	return PageSize{Width: w, Height: h}, nil
}

func (ps PageSize) String() string {
	if ps.Name != "" {
		return ps.Name
	}
	return ps.Width.String() + "," + ps.Height.String()
}

// parseLength splits a size such as `148mm` into its value and unit.
func parseLength(s string) (l Length, err error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, u := range lengthUnits {
		if strings.HasSuffix(lower, u) {
			l.Unit = u
			s = s[:len(s)-len(u)]
			break
		}
	}
	if l.Unit == "" {
		return l, fmt.Errorf("missing unit in %q", s)
	}
	l.Value, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return l, fmt.Errorf("bad number %q", s)
	}
	if l.Value <= 0 {
		return l, fmt.Errorf("non-positive length %q", s)
	}
	if l.Unit == "q" {
		l.Unit = "Q"
	}
	return l, nil
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit
}
