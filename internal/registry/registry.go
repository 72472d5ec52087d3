package registry

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/model"
)

// Registry is a reloadable table of language definitions plus settings.
type Registry struct {
	mu sync.Mutex

	loader  config.Loader
	paths   []string
	current *config.Model
	modTime time.Time
	reloads int

	onReload func(*config.Model)
	stat     func(string) (fs.FileInfo, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithReloadHook registers a callback invoked after every successful load,
// including the initial one.
func WithReloadHook(fn func(*config.Model)) Option {
	return func(r *Registry) { r.onReload = fn }
}

// New creates a static registry around an already materialized model. It
// has no backing store and never reloads.
func New(m *config.Model, opts ...Option) *Registry {
	r := &Registry{current: m, stat: os.Stat}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the current model, reloading it first when the backing
// files changed. A failed reload keeps serving the previous model.
func (r *Registry) Snapshot(ctx context.Context) *config.Model {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loader == nil {
		return r.current
	}

	latest, err := r.latestModTime()
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Registry staleness check failed, serving cached definitions.", "error", err)
		return r.current
	}
	if !latest.After(r.modTime) {
		return r.current
	}

	if err := r.loadLocked(ctx); err != nil {
		ctxlog.FromContext(ctx).Error("Registry reload failed, serving previous definitions.", "error", err)
	}
	return r.current
}

// Lookup finds the definition for a block language key.
func (r *Registry) Lookup(ctx context.Context, language string) (*model.LanguageDefinition, bool) {
	return r.Snapshot(ctx).Lookup(language)
}

// Settings returns the current settings snapshot.
func (r *Registry) Settings(ctx context.Context) model.Settings {
	return r.Snapshot(ctx).Settings
}

// ReloadCount reports how many times the backing store has been read.
func (r *Registry) ReloadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads
}

// Paths returns the backing paths, or nil for a static registry.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
