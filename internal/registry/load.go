package registry

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/fsutil"
)

// Load creates a registry backed by the given paths and reads it once.
func Load(ctx context.Context, loader config.Loader, paths []string, opts ...Option) (*Registry, error) {
	r := &Registry{loader: loader, paths: append([]string(nil), paths...), stat: os.Stat}
	for _, opt := range opts {
		opt(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload builds a new registry for path using the receiver's loader and
// options. The receiver keeps serving its own snapshot.
func (r *Registry) Reload(ctx context.Context, path string) (*Registry, error) {
	r.mu.Lock()
	loader, hook := r.loader, r.onReload
	r.mu.Unlock()

	if loader == nil {
		return nil, fmt.Errorf("registry has no loader to reload %s", path)
	}
	return Load(ctx, loader, []string{path}, WithReloadHook(hook))
}

// Refresh forces a re-read of the backing store.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loader == nil {
		return nil
	}
	return r.loadLocked(ctx)
}

func (r *Registry) loadLocked(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	modTime, err := r.latestModTime()
	if err != nil {
		return err
	}

	m, err := r.loader.Load(ctx, r.paths...)
	if err != nil {
		return fmt.Errorf("failed to load language registry: %w", err)
	}

	r.current = m
	r.modTime = modTime
	r.reloads++
	logger.Debug("Language registry loaded.", "languages", len(m.Languages), "reloads", r.reloads)

	if r.onReload != nil {
		r.onReload(m)
	}
	return nil
}

// latestModTime returns the newest modification time among the backing
// paths, their .hcl files, and the directories holding them.
func (r *Registry) latestModTime() (time.Time, error) {
	var latest time.Time
	bump := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}

	for _, path := range r.paths {
		info, err := r.stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return time.Time{}, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		bump(info.ModTime())
		if !info.IsDir() {
			continue
		}

		files, err := fsutil.FindFiles(path, ".hcl")
		if err != nil {
			return time.Time{}, err
		}
		for _, f := range files {
			fi, err := r.stat(f)
			if err != nil {
				continue
			}
			bump(fi.ModTime())
		}
	}
	return latest, nil
}
