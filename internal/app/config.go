package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/polyglot/internal/artifact"
)

// Run modes.
const (
	ModeRun     = "run"
	ModeExtract = "extract"
	ModeServe   = "serve"
	ModeMCP     = "mcp"
)

// DefaultAddr is the listen address of the API server.
const DefaultAddr = ":8080"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Mode          string
	DocumentPath  string
	ConfigPaths   []string // hcl files or directories with language definitions
	VariablesPath string
	TempRoot      string
	CommentOutput bool

	Addr      string
	LogFormat string
	LogLevel  string

	HistoryDSN  string
	ReportDir   string
	S3          artifact.S3Config
	ProgressURL string
	Version     string

	ProgressNamespace string // socket.io namespace, "/" when empty
	ProgressQueueSize int    // pending progress events before dropping
	ProgressInsecure  bool   // skip TLS verification of the progress server
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = ModeRun
	}

	switch cfg.Mode {
	case ModeRun, ModeExtract:
		if cfg.DocumentPath == "" {
			return nil, fmt.Errorf("a document path is required in %s mode", cfg.Mode)
		}
	case ModeServe:
		if cfg.Addr == "" {
			cfg.Addr = DefaultAddr
		}
	case ModeMCP:
	default:
		return nil, fmt.Errorf("unknown mode %q: must be one of run, extract, serve, mcp", cfg.Mode)
	}

	if cfg.ProgressQueueSize < 0 {
		return nil, fmt.Errorf("progress queue size must not be negative, got %d", cfg.ProgressQueueSize)
	}
	if cfg.ProgressNamespace != "" && !strings.HasPrefix(cfg.ProgressNamespace, "/") {
		cfg.ProgressNamespace = "/" + cfg.ProgressNamespace
	}

	if cfg.ReportDir != "" && cfg.S3.Endpoint != "" {
		return nil, errors.New("report-dir and s3-endpoint are mutually exclusive")
	}
	return &cfg, nil
}
