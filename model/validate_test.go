package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adnsv/go-utils/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	ret := []string{}
	for _, fe := range verr.Errors {
		ret = append(ret, fe.Field)
	}
	return ret
}

func TestValidateAcceptsCompleteProject(t *testing.T) {
	dir := solanaEscrowTree(t)
	cfg, err := LoadConfig(filepath.Join(dir, "book.yml"))
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}

func TestValidateMissingEntry(t *testing.T) {
	dir := solanaEscrowTree(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "articles", "01-introduction.md")))

	cfg, err := LoadConfig(filepath.Join(dir, "book.yml"))
	require.NoError(t, err)

	err = Validate(cfg)
	assert.Equal(t, []string{"entry[1]"}, fieldsOf(t, err))
}

func TestValidateEmptyEntries(t *testing.T) {
	cfg, err := ParseConfig(t.TempDir(), []byte("title: x\noutput: [a.pdf]\n"))
	require.NoError(t, err)

	err = Validate(cfg)
	assert.ErrorIs(t, err, ErrNoEntries)
	assert.Equal(t, []string{"entry"}, fieldsOf(t, err))
}

func TestValidateCollectsAllProblems(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a.md":   "# A",
		"outside.md": "# Outside",
	})
	src := `
title: ""
size: A9
readingProgression: ttb
entry:
  - a.md
  - a.md
  - ../outside.md
  - ""
entryContext: src
output:
  - path: out.pdf
    format: docx
  - path: ""
    format: pdf
  - out.pdf
`
	cfg, err := ParseConfig(dir, []byte(src))
	require.NoError(t, err)

	err = Validate(cfg)
	assert.Equal(t, []string{
		"title",
		"size",
		"readingProgression",
		"entry[1]",
		"entry[2]",
		"entry[3]",
		"output[0].format",
		"output[1].path",
		"output[2].path",
	}, fieldsOf(t, err))
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestValidateEntryContextNotDir(t *testing.T) {
	dir := writeTree(t, map[string]string{"articles": "not a dir"})
	cfg, err := ParseConfig(dir, []byte("title: x\nentry: [a.md]\nentryContext: articles\n"))
	require.NoError(t, err)
	err = Validate(cfg)
	assert.Equal(t, []string{"entryContext"}, fieldsOf(t, err))
	assert.ErrorIs(t, err, fs.ErrFileNotDir)
}

func TestValidateEntryContextMissing(t *testing.T) {
	cfg, err := ParseConfig(t.TempDir(), []byte("title: x\nentry: [a.md]\nentryContext: nowhere\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"entryContext"}, fieldsOf(t, Validate(cfg)))
}

func TestValidateLocalTheme(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.md": "# A"})
	cfg, err := ParseConfig(dir, []byte("title: x\ntheme: ./missing.css\nentry: [a.md]\n"))
	require.NoError(t, err)
	err = Validate(cfg)
	assert.Equal(t, []string{"theme"}, fieldsOf(t, err))
	assert.ErrorIs(t, err, ErrInvalidTheme)
}
