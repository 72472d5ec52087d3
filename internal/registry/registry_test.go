package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/stretchr/testify/require"
)

// countingLoader returns a fresh model per call and records every call.
type countingLoader struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (l *countingLoader) Load(_ context.Context, paths ...string) (*config.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.fail {
		return nil, errors.New("boom")
	}
	m := config.NewModel()
	m.Languages["python"] = &model.LanguageDefinition{Name: "python", Command: "python3", Extension: ".py"}
	m.Settings.TimeoutMs = 1000 * l.calls
	return m, nil
}

func (l *countingLoader) LoadVariables(context.Context, string) (model.Variables, error) {
	return nil, nil
}

func (l *countingLoader) setFail(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = v
}

func writeRegistryFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "languages.hcl")
	require.NoError(t, os.WriteFile(path, []byte("# languages"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))
	return path
}

func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	ts := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestSnapshot_DoesNotReloadWhenUnchanged(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	loader := &countingLoader{}
	path := writeRegistryFile(t)
	reg, err := Load(context.Background(), loader, []string{path})
	require.NoError(t, err)

	// --- Act ---
	first := reg.Snapshot(context.Background())
	second := reg.Snapshot(context.Background())

	// --- Assert ---
	require.Same(t, first, second)
	require.Equal(t, 1, reg.ReloadCount())
	require.Equal(t, 1, loader.calls)
}

func TestSnapshot_ReloadsWhenFileChanges(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	loader := &countingLoader{}
	path := writeRegistryFile(t)
	var hooked []*config.Model
	reg, err := Load(context.Background(), loader, []string{path}, WithReloadHook(func(m *config.Model) {
		hooked = append(hooked, m)
	}))
	require.NoError(t, err)

	// --- Act ---
	touch(t, path, time.Minute)
	settings := reg.Settings(context.Background())

	// --- Assert ---
	require.Equal(t, 2, reg.ReloadCount())
	require.Equal(t, 2000, settings.TimeoutMs)
	require.Len(t, hooked, 2)
}

func TestSnapshot_FailedReloadKeepsPrevious(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	path := writeRegistryFile(t)
	reg, err := Load(context.Background(), loader, []string{path})
	require.NoError(t, err)
	before := reg.Snapshot(context.Background())

	loader.setFail(true)
	touch(t, path, time.Minute)
	after := reg.Snapshot(context.Background())

	require.Same(t, before, after)
	require.Equal(t, 1, reg.ReloadCount())
}

func TestReload_ReturnsNewRegistry(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	reg, err := Load(context.Background(), loader, []string{writeRegistryFile(t)})
	require.NoError(t, err)

	otherPath := writeRegistryFile(t)
	next, err := reg.Reload(context.Background(), otherPath)

	require.NoError(t, err)
	require.NotSame(t, reg, next)
	require.Equal(t, []string{otherPath}, next.Paths())
	require.Equal(t, 1000, reg.Settings(context.Background()).TimeoutMs)
	require.Equal(t, 2000, next.Settings(context.Background()).TimeoutMs)
}

func TestStaticRegistry(t *testing.T) {
	t.Parallel()

	reg := New(config.Default())

	def, ok := reg.Lookup(context.Background(), "CPP")
	require.True(t, ok)
	require.Equal(t, "cpp", def.Name)

	def, ok = reg.Lookup(context.Background(), "python:helpers")
	require.True(t, ok)
	require.Equal(t, "python", def.Name)

	_, ok = reg.Lookup(context.Background(), "cobol")
	require.False(t, ok)

	require.NoError(t, reg.Refresh(context.Background()))
	require.Equal(t, 0, reg.ReloadCount())

	_, err := reg.Reload(context.Background(), "x.hcl")
	require.Error(t, err)
}

func TestAvailability(t *testing.T) {
	t.Parallel()

	reg := New(config.Default())

	avail := reg.Availability(context.Background(), func(cmd string) bool { return cmd == "python3" })

	require.True(t, avail["python"])
	require.False(t, avail["cpp"])
	require.True(t, avail["markdown"], "passthrough languages need no command")
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	reg, err := Load(context.Background(), loader, []string{writeRegistryFile(t)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := reg.Lookup(context.Background(), "python"); !ok {
				t.Error("python should be configured")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, reg.ReloadCount())
}
