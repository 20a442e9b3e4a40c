package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const solanaEscrowYAML = `
title: Solana Escrow入門
author: Kouta Ozaki
size: A5
theme: "@vivliostyle/theme-techbook@^1.0.1"
entry:
  - 00-index.md
  - 01-introduction.md
  - 02-what-is-escrow.md
  - 99-colophon.md
entryContext: ./articles
output:
  - path: .dist/webpub
    format: webpub
  - path: .dist/solana-escrow-book.pdf
    format: pdf
`

// writeTree creates files (relative path -> content) below a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for fn, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(fn))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return dir
}

func solanaEscrowTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"book.yml":                      solanaEscrowYAML,
		"articles/00-index.md":          "# Solana Escrow入門\n",
		"articles/01-introduction.md":   "# はじめに\n",
		"articles/02-what-is-escrow.md": "# Escrowとは\n",
		"articles/99-colophon.md":       "# 奥付\n",
	})
}
