package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adnsv/panbook/log"
	"github.com/adnsv/panbook/model"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before rebuilding.
const DefaultDebounce = 300 * time.Millisecond

// Watch loads the configuration in configFN, calls rebuild, and repeats
// whenever the configuration file, an entry or a local theme changes, until
// ctx is cancelled. Other files in the watched directories, such as the
// engine's intermediate output, are ignored.
//
// The configuration is reloaded each round and the watched set follows it.
// A configuration that fails to load skips the rebuild; only the
// configuration file is watched until it loads again. Rebuild errors are
// logged, not returned.
func Watch(ctx context.Context, configFN string, debounce time.Duration, rebuild func(context.Context, *model.BuildConfig) error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	configFN, err := filepath.Abs(configFN)
	if err != nil {
		return err
	}
	logger := log.WithComponent("watch")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	ws := &watchSet{watcher: w, dirs: map[string]struct{}{}}

	round := func() {
		cfg, err := model.LoadConfig(configFN)
		if err != nil {
			logger.Error().Err(err).Msg("cannot load configuration, waiting for changes")
			ws.update(&model.BuildConfig{ConfigPath: configFN, ConfigDir: filepath.Dir(configFN)}, false)
			return
		}
		ws.update(cfg, true)
		if err := rebuild(ctx, cfg); err != nil {
			logger.Error().Err(err).Msg("rebuild failed")
		}
	}

	round()

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !ws.relevant(ev.Name) {
				continue
			}
			logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			logger.Info().Msg("rebuilding")
			round()
		}
	}
}

// watchSet tracks the directories registered with fsnotify and the files
// inside them that trigger a rebuild.
type watchSet struct {
	watcher *fsnotify.Watcher
	dirs    map[string]struct{}
	files   map[string]struct{}
	trees   []string // local theme directories, anything below them counts
}

func (ws *watchSet) update(cfg *model.BuildConfig, loaded bool) {
	ws.files = map[string]struct{}{cfg.ConfigPath: {}}
	ws.trees = nil
	if loaded {
		for i := range cfg.Entry {
			ws.files[cfg.EntryPath(i)] = struct{}{}
		}
		for _, t := range cfg.LocalThemes() {
			ws.files[t] = struct{}{}
			if stat, err := os.Stat(t); err == nil && stat.IsDir() {
				ws.trees = append(ws.trees, t)
			}
		}
	}

	want := map[string]struct{}{}
	for fn := range ws.files {
		want[filepath.Dir(fn)] = struct{}{}
	}
	for _, t := range ws.trees {
		want[t] = struct{}{}
	}

	logger := log.WithComponent("watch")
	for d := range ws.dirs {
		if _, ok := want[d]; !ok {
			ws.watcher.Remove(d)
			delete(ws.dirs, d)
			logger.Debug().Str("dir", d).Msg("no longer watching")
		}
	}
	for d := range want {
		if _, ok := ws.dirs[d]; ok {
			continue
		}
		if err := ws.watcher.Add(d); err != nil {
			// retried on the next round
			logger.Warn().Err(err).Str("dir", d).Msg("cannot watch")
			continue
		}
		ws.dirs[d] = struct{}{}
		logger.Debug().Str("dir", d).Msg("watching")
	}
}

func (ws *watchSet) relevant(fn string) bool {
	fn = filepath.Clean(fn)
	if _, ok := ws.files[fn]; ok {
		return true
	}
	for _, t := range ws.trees {
		if strings.HasPrefix(fn, t+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// watchedDirs lists the registered directories.
func (ws *watchSet) watchedDirs() []string {
	ret := make([]string, 0, len(ws.dirs))
	for d := range ws.dirs {
		ret = append(ret, d)
	}
	return ret
}
