package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/polyglot/internal/extractor"
	"github.com/specialistvlad/polyglot/internal/hcl_adapter"
	"github.com/specialistvlad/polyglot/internal/testutil"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	cfg.LogLevel = "debug"
	if cfg.TempRoot == "" {
		cfg.TempRoot = t.TempDir()
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	testutil.LogOnFailure(t, logs)
	out := &bytes.Buffer{}
	return NewApp(out, logs, validated, hcl_adapter.NewLoader(), hcl_adapter.NewConverter()), out
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
		check   func(t *testing.T, c *Config)
	}{
		{name: "run is default", cfg: Config{DocumentPath: "doc.txt"}, check: func(t *testing.T, c *Config) {
			require.Equal(t, ModeRun, c.Mode)
		}},
		{name: "run needs document", cfg: Config{Mode: "run"}, wantErr: "document path is required"},
		{name: "extract needs document", cfg: Config{Mode: "EXTRACT"}, wantErr: "document path is required"},
		{name: "serve default addr", cfg: Config{Mode: "serve"}, check: func(t *testing.T, c *Config) {
			require.Equal(t, DefaultAddr, c.Addr)
		}},
		{name: "mcp", cfg: Config{Mode: "mcp"}},
		{name: "unknown mode", cfg: Config{Mode: "bogus"}, wantErr: "unknown mode"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, c)
			}
		})
	}
}

func TestNewConfig_ReportStoresExclusive(t *testing.T) {
	t.Parallel()

	cfg := Config{Mode: "serve", ReportDir: "reports"}
	cfg.S3.Endpoint = "localhost:9000"

	_, err := NewConfig(cfg)

	require.ErrorContains(t, err, "mutually exclusive")
}

func TestNewConfig_ProgressOptions(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{Mode: ModeMCP, ProgressNamespace: "runs", ProgressQueueSize: 4, ProgressInsecure: true})
	require.NoError(t, err)
	require.Equal(t, "/runs", cfg.ProgressNamespace)

	a := &App{config: cfg}
	require.Len(t, a.socketOptions(), 3)
	require.Empty(t, (&App{config: &Config{}}).socketOptions())

	_, err = NewConfig(Config{Mode: ModeMCP, ProgressQueueSize: -1})
	require.Error(t, err)
}

func TestNewApp_PanicsOnBadConfig(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{"langs.hcl": `language "x" {`})

	require.Panics(t, func() {
		newTestApp(t, Config{Mode: ModeMCP, ConfigPaths: []string{dir}})
	})
}

func TestRun_Extract(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"doc.txt": "intro\n@{python}\nprint(1)\n@{end python}\n@{bash}\nls",
	})
	a, out := newTestApp(t, Config{Mode: ModeExtract, DocumentPath: filepath.Join(dir, "doc.txt")})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	var res extractor.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Blocks["python"], 1)
	require.Equal(t, "print(1)", res.Blocks["python"][0].Code)
	require.Len(t, res.Unterminated, 1)
}

func TestRun_MissingDocument(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t, Config{Mode: ModeRun, DocumentPath: filepath.Join(t.TempDir(), "nope.txt")})

	err := a.Run(context.Background())

	require.ErrorContains(t, err, "failed to read document")
}

func TestRun_ProcessDocumentWithShell(t *testing.T) {
	testutil.RequireShell(t)
	t.Parallel()

	// --- Arrange ---
	doc := strings.Join([]string{
		"Report",
		"@{sh}",
		`echo "w=$width"`,
		`echo "HOST:area=12"`,
		"@{end sh}",
		"between",
		"@{sh}",
		`echo "a=$area"`,
		"@{end sh}",
	}, "\n")
	dir := testutil.WriteFiles(t, map[string]string{
		"langs/sh.hcl": testutil.ShellRegistryHCL,
		"vars.hcl":     "width = 3\n",
		"doc.txt":      doc,
	})
	reports := filepath.Join(dir, "reports")
	a, out := newTestApp(t, Config{
		Mode:          ModeRun,
		DocumentPath:  filepath.Join(dir, "doc.txt"),
		ConfigPaths:   []string{filepath.Join(dir, "langs")},
		VariablesPath: filepath.Join(dir, "vars.hcl"),
		ReportDir:     reports,
	})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "Report\nw=3\nbetween\na=12\n", out.String())

	entries, err := a.History().List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	stored, err := os.ReadDir(filepath.Join(reports, "reports"))
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestRun_FailedBlockIsReported(t *testing.T) {
	testutil.RequireShell(t)
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"langs.hcl": testutil.ShellRegistryHCL,
		"doc.txt":   "@{sh}\necho oops >&2; exit 3\n@{end sh}",
	})
	a, out := newTestApp(t, Config{
		Mode:          ModeRun,
		DocumentPath:  filepath.Join(dir, "doc.txt"),
		ConfigPaths:   []string{filepath.Join(dir, "langs.hcl")},
		CommentOutput: true,
	})

	err := a.Run(context.Background())

	require.True(t, errors.Is(err, ErrBlocksFailed))
	require.Equal(t, "# Error: oops\n", out.String())
}
