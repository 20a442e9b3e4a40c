package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adnsv/panbook/model"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rebuildLog records every configuration a watch round was run with.
type rebuildLog struct {
	mu   sync.Mutex
	cfgs []*model.BuildConfig
}

func (r *rebuildLog) add(cfg *model.BuildConfig) {
	r.mu.Lock()
	r.cfgs = append(r.cfgs, cfg)
	r.mu.Unlock()
}

func (r *rebuildLog) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cfgs)
}

func (r *rebuildLog) last() *model.BuildConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfgs[len(r.cfgs)-1]
}

func startWatch(t *testing.T, configFN string, rebuild func(context.Context, *model.BuildConfig) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, configFN, 50*time.Millisecond, rebuild) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watch did not stop")
		}
	})
}

// settled waits until no rebuild happened for a while and returns the count.
func settled(t *testing.T, r *rebuildLog) int {
	t.Helper()
	n := r.count()
	for i := 0; i < 20; i++ {
		time.Sleep(250 * time.Millisecond)
		m := r.count()
		if m == n {
			return n
		}
		n = m
	}
	t.Fatalf("rebuilds did not settle, %d so far", n)
	return n
}

func TestWatchIgnoresEngineOutput(t *testing.T) {
	dir, cfg := escrowProject(t)
	r := &rebuildLog{}

	// the engine writes intermediate html next to the manuscript and the
	// artifacts below .dist
	startWatch(t, cfg.ConfigPath, func(ctx context.Context, cfg *model.BuildConfig) error {
		r.add(cfg)
		for i := range cfg.Entry {
			fn := strings.TrimSuffix(cfg.EntryPath(i), ".md") + ".html"
			if err := os.WriteFile(fn, []byte("<html>"), 0o644); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(filepath.Join(dir, ".dist"), 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, ".dist", "solana-escrow-book.pdf"), []byte("%PDF"), 0o644)
	})

	require.Eventually(t, func() bool { return r.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, settled(t, r))

	fn := filepath.Join(dir, "articles", "01-introduction.md")
	require.NoError(t, os.WriteFile(fn, []byte("# Introduction, again\n"), 0o644))
	require.Eventually(t, func() bool { return r.count() >= 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2, settled(t, r))

	// files next to entries that are not entries do not count
	require.NoError(t, os.WriteFile(filepath.Join(dir, "articles", "notes.txt"), []byte("todo"), 0o644))
	assert.Equal(t, 2, settled(t, r))
}

func TestWatchFollowsConfigChanges(t *testing.T) {
	dir, cfg := escrowProject(t)
	r := &rebuildLog{}
	startWatch(t, cfg.ConfigPath, func(ctx context.Context, cfg *model.BuildConfig) error {
		r.add(cfg)
		return nil
	})
	require.Eventually(t, func() bool { return r.count() == 1 }, 5*time.Second, 20*time.Millisecond)

	chapters := filepath.Join(dir, "chapters")
	require.NoError(t, os.MkdirAll(chapters, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chapters, "01-start.md"), []byte("# Start\n"), 0o644))
	src := strings.Replace(escrowYAML, "./articles", "./chapters", 1)
	src = strings.Replace(src, "  - 00-index.md\n  - 01-introduction.md\n  - 99-colophon.md\n", "  - 01-start.md\n", 1)
	require.NoError(t, os.WriteFile(cfg.ConfigPath, []byte(src), 0o644))

	require.Eventually(t, func() bool {
		return r.count() >= 2 && r.last().EntryContext == "./chapters"
	}, 5*time.Second, 20*time.Millisecond)
	n := settled(t, r)

	require.NoError(t, os.WriteFile(filepath.Join(chapters, "01-start.md"), []byte("# Start over\n"), 0o644))
	require.Eventually(t, func() bool { return r.count() > n }, 5*time.Second, 20*time.Millisecond)
	n = settled(t, r)

	// the old entry directory is no longer watched
	require.NoError(t, os.WriteFile(filepath.Join(dir, "articles", "01-introduction.md"), []byte("# Old\n"), 0o644))
	assert.Equal(t, n, settled(t, r))
}

func TestWatchSetTracksConfig(t *testing.T) {
	dir, cfg := escrowProject(t)
	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	ws := &watchSet{watcher: w, dirs: map[string]struct{}{}}
	ws.update(cfg, true)

	dirs := ws.watchedDirs()
	sort.Strings(dirs)
	assert.Equal(t, []string{dir, filepath.Join(dir, "articles")}, dirs)
	assert.True(t, ws.relevant(cfg.ConfigPath))
	assert.True(t, ws.relevant(filepath.Join(dir, "articles", "00-index.md")))
	assert.False(t, ws.relevant(filepath.Join(dir, "articles", "00-index.html")))
	assert.False(t, ws.relevant(filepath.Join(dir, DefaultConfigName)))

	themes := filepath.Join(dir, "themes", "book")
	require.NoError(t, os.MkdirAll(themes, 0o755))
	cfg.Theme = model.ThemeRef{Name: "./themes/book"}
	ws.update(cfg, true)
	assert.True(t, ws.relevant(filepath.Join(themes, "theme.css")))
	assert.Contains(t, ws.watchedDirs(), themes)

	ws.update(cfg, false)
	assert.Equal(t, []string{dir}, ws.watchedDirs())
	assert.False(t, ws.relevant(filepath.Join(dir, "articles", "00-index.md")))
}
