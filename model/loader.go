package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adnsv/go-utils/fs"
	"github.com/adnsv/panbook/log"
	"gopkg.in/yaml.v3"
)

// ConfigNames are the file names FindConfig looks for, in order.
var ConfigNames = []string{"book.yml", "book.yaml", "book.json"}

var ErrNoConfig = errors.New("no book configuration found")

// FindConfig locates the book configuration inside dir.
func FindConfig(dir string) (string, error) {
	for _, n := range ConfigNames {
		fn := filepath.Join(dir, n)
		if fs.FileExists(fn) {
			return fn, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %v)", ErrNoConfig, dir, ConfigNames)
}

// LoadConfig reads and decodes a book configuration file. Relative paths in
// the record are resolved against the file's directory.
func LoadConfig(fn string) (*BuildConfig, error) {
	fn, err := filepath.Abs(fn)
	if err != nil {
		return nil, err
	}

	logger := log.WithComponent("model")
	logger.Debug().Str("path", fn).Msg("loading book configuration")

	buf, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(filepath.Dir(fn), buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	cfg.ConfigPath = fn
	return cfg, nil
}

// ParseConfig decodes a YAML (or JSON) book configuration. Unknown fields are
// rejected.
func ParseConfig(dir string, buf []byte) (*BuildConfig, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	cfg := &BuildConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty configuration")
		}
		return nil, err
	}
	cfg.ConfigDir = dir
	return cfg, nil
}
