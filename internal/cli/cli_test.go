package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/specialistvlad/polyglot/internal/app"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestParse_Run(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-config", "a.hcl, langs/", "-vars", "v.hcl", "-comment-output", "-log-level", "DEBUG", "doc.txt"}

	// --- Act ---
	cfg, exit, err := parse(args, &bytes.Buffer{}, env(nil))

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, exit)
	require.Equal(t, app.ModeRun, cfg.Mode)
	require.Equal(t, "doc.txt", cfg.DocumentPath)
	require.Equal(t, []string{"a.hcl", "langs/"}, cfg.ConfigPaths)
	require.Equal(t, "v.hcl", cfg.VariablesPath)
	require.True(t, cfg.CommentOutput)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestParse_EnvDefaults(t *testing.T) {
	t.Parallel()

	getenv := env(map[string]string{
		EnvHistoryDSN:  "postgres://localhost/db",
		EnvS3Endpoint:  "localhost:9000",
		EnvS3Bucket:    "reports",
		EnvS3AccessKey: "key",
		EnvS3SecretKey: "secret",
		EnvS3UseSSL:    "true",
		EnvProgressURL: "http://localhost:3000/socket.io/",
	})

	cfg, _, err := parse([]string{"-mode", "serve", "-s3-bucket", "override"}, &bytes.Buffer{}, getenv)

	require.NoError(t, err)
	require.Equal(t, app.ModeServe, cfg.Mode)
	require.Equal(t, app.DefaultAddr, cfg.Addr)
	require.Equal(t, "postgres://localhost/db", cfg.HistoryDSN)
	require.Equal(t, "localhost:9000", cfg.S3.Endpoint)
	require.Equal(t, "override", cfg.S3.Bucket)
	require.Equal(t, "key", cfg.S3.AccessKey)
	require.True(t, cfg.S3.UseSSL)
	require.Equal(t, "http://localhost:3000/socket.io/", cfg.ProgressURL)
}

func TestParse_ProgressOptions(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	getenv := env(map[string]string{
		EnvProgressURL:       "https://progress.local/socket.io/",
		EnvProgressNamespace: "runs",
		EnvProgressInsecure:  "true",
	})

	// --- Act ---
	cfg, _, err := parse([]string{"-progress-queue", "32", "d.txt"}, &bytes.Buffer{}, getenv)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "/runs", cfg.ProgressNamespace)
	require.Equal(t, 32, cfg.ProgressQueueSize)
	require.True(t, cfg.ProgressInsecure)
}

func TestParse_NoDocumentPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, exit, err := parse(nil, out, env(nil))

	require.NoError(t, err)
	require.True(t, exit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_MCPNeedsNoDocument(t *testing.T) {
	t.Parallel()

	cfg, exit, err := parse([]string{"-mode", "mcp"}, &bytes.Buffer{}, env(nil))

	require.NoError(t, err)
	require.False(t, exit)
	require.Equal(t, app.ModeMCP, cfg.Mode)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{name: "bad log format", args: []string{"-log-format", "xml", "d.txt"}, want: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "loud", "d.txt"}, want: "invalid log-level"},
		{name: "unknown flag", args: []string{"-nope"}, want: "flag provided but not defined"},
		{name: "unknown mode", args: []string{"-mode", "daemon"}, want: "unknown mode"},
		{name: "bad ssl flag", args: []string{"d.txt"}, env: map[string]string{EnvS3UseSSL: "maybe"}, want: EnvS3UseSSL},
		{name: "bad insecure flag", args: []string{"d.txt"}, env: map[string]string{EnvProgressInsecure: "maybe"}, want: EnvProgressInsecure},
		{name: "negative queue", args: []string{"-progress-queue", "-1", "d.txt"}, want: "progress queue size"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := parse(tc.args, &bytes.Buffer{}, env(tc.env))

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			require.Equal(t, 2, exitErr.Code)
			require.Contains(t, exitErr.Message, tc.want)
		})
	}
}
