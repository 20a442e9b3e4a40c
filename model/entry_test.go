package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOrder(t *testing.T) {
	cfg := &BuildConfig{Entry: []Entry{
		{Path: "00-index.md"},
		{Path: "01-introduction.md"},
		{Path: "cover.md"},
		{Path: "02-what-is-escrow.md"},
		{Path: "99-colophon.md"},
	}}
	assert.Empty(t, CheckOrder(cfg))

	cfg.Entry = []Entry{
		{Path: "00-index.md"},
		{Path: "02-what-is-escrow.md"},
		{Path: "01-introduction.md"},
		{Path: "99-colophon.md"},
		{Path: "08-conclusion.md"},
	}
	assert.Equal(t, []string{
		"01-introduction.md is listed after 02-what-is-escrow.md",
		"08-conclusion.md is listed after 99-colophon.md",
	}, CheckOrder(cfg))
}
