// Package engine hands a book configuration to the external publishing
// engine and checks that the promised artifacts were produced.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/adnsv/panbook/log"
	"github.com/adnsv/panbook/model"
)

// DefaultCommand is the engine executable used when none is configured.
const DefaultCommand = "vivliostyle"

var (
	ErrMissingArtifact = errors.New("missing engine output")
	ErrStaleArtifact   = errors.New("engine output was not updated")
)

// Runner executes the engine. Output goes straight to the user.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	x := exec.CommandContext(ctx, name, args...)
	x.Stderr = os.Stderr
	x.Stdout = os.Stdout
	x.Dir = dir
	return x.Run()
}

type Engine struct {
	Command string   // defaults to DefaultCommand
	Args    []string // extra arguments appended after the config file
	Runner  Runner   // defaults to ExecRunner
}

// Build runs `<command> build --config <configFN>` from the directory of
// configFN and verifies that every output target was (re)generated.
func (e *Engine) Build(ctx context.Context, cfg *model.BuildConfig, configFN string) error {
	cmd := e.Command
	if cmd == "" {
		cmd = DefaultCommand
	}
	r := e.Runner
	if r == nil {
		r = ExecRunner{}
	}

	configFN, err := filepath.Abs(configFN)
	if err != nil {
		return err
	}
	for i := range cfg.Output {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath(i)), 0o755); err != nil {
			return err
		}
	}

	logger := log.WithComponent("engine")
	logger.Info().Str("engine", cmd).Str("config", configFN).Msg("building")

	// filesystems with coarse timestamps may round mtimes down
	started := time.Now().Add(-2 * time.Second)

	args := append([]string{"build", "--config", configFN}, e.Args...)
	if err := r.Run(ctx, filepath.Dir(configFN), cmd, args...); err != nil {
		return fmt.Errorf("%s error: %w", cmd, err)
	}
	return Verify(cfg, started)
}

// Verify checks that every output target exists and, when since is not
// zero, that it was written at or after since. PDF and EPUB targets must be
// non-empty regular files; a web publication must be a directory holding a
// publication manifest or an index page.
func Verify(cfg *model.BuildConfig, since time.Time) error {
	logger := log.WithComponent("engine")
	var errs []error
	for i, o := range cfg.Output {
		fn := cfg.OutputPath(i)
		stamp, err := verifyArtifact(fn, o.Format)
		if err != nil {
			errs = append(errs, fmt.Errorf("output[%d] %s: %w", i, o.Path, err))
			continue
		}
		if !since.IsZero() && stamp.Before(since) {
			errs = append(errs, fmt.Errorf("output[%d] %s: %w", i, o.Path, ErrStaleArtifact))
			continue
		}
		logger.Info().Str("path", fn).Str("format", o.Format.String()).Msg("artifact ready")
	}
	return errors.Join(errs...)
}

var webpubMarkers = []string{"publication.json", "index.html"}

func verifyArtifact(fn string, f model.Format) (time.Time, error) {
	stat, err := os.Stat(fn)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrMissingArtifact
	} else if err != nil {
		return time.Time{}, err
	}

	if !f.IsDir() {
		if !stat.Mode().IsRegular() {
			return time.Time{}, fmt.Errorf("%w: not a regular file", ErrMissingArtifact)
		}
		if stat.Size() == 0 {
			return time.Time{}, fmt.Errorf("%w: empty file", ErrMissingArtifact)
		}
		return stat.ModTime(), nil
	}

	if !stat.IsDir() {
		return time.Time{}, fmt.Errorf("%w: not a directory", ErrMissingArtifact)
	}
	for _, m := range webpubMarkers {
		if ms, err := os.Stat(filepath.Join(fn, m)); err == nil && ms.Mode().IsRegular() {
			return ms.ModTime(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: no %v inside", ErrMissingArtifact, webpubMarkers)
}
