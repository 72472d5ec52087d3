package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/polyglot/internal/app"
	"github.com/specialistvlad/polyglot/internal/artifact"
)

// Environment variables that provide flag defaults.
const (
	EnvHistoryDSN  = "POLYGLOT_HISTORY_DSN"
	EnvS3Endpoint  = "POLYGLOT_S3_ENDPOINT"
	EnvS3Bucket    = "POLYGLOT_S3_BUCKET"
	EnvS3Region    = "POLYGLOT_S3_REGION"
	EnvS3AccessKey = "POLYGLOT_S3_ACCESS_KEY"
	EnvS3SecretKey = "POLYGLOT_S3_SECRET_KEY"
	EnvS3UseSSL    = "POLYGLOT_S3_USE_SSL"
	EnvProgressURL = "POLYGLOT_PROGRESS_URL"

	EnvProgressNamespace = "POLYGLOT_PROGRESS_NAMESPACE"
	EnvProgressInsecure  = "POLYGLOT_PROGRESS_INSECURE"
)

// Version is reported by the MCP server.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return parse(args, output, os.Getenv)
}

func parse(args []string, output io.Writer, getenv func(string) string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("polyglot", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Polyglot - run the code blocks embedded in a document.

Usage:
  polyglot [options] [DOCUMENT]

Arguments:
  DOCUMENT
    Path to a text document containing @{language} ... @{end language} blocks.
    Required in run and extract modes.

Modes:
  run      execute every block and print the resulting document (default)
  extract  print the blocks found in the document as JSON
  serve    start the HTTP API
  mcp      serve MCP tools on stdin/stdout

Options:
`)
		flagSet.PrintDefaults()
	}

	modeFlag := flagSet.String("mode", app.ModeRun, "Run mode. Options: 'run', 'extract', 'serve', 'mcp'.")
	docFlag := flagSet.String("document", "", "Path to the document.")
	dFlag := flagSet.String("d", "", "Path to the document (shorthand).")
	configFlag := flagSet.String("config", "", "Comma-separated .hcl files or directories with language definitions. Built-in languages are used when empty.")
	varsFlag := flagSet.String("vars", "", "Path to an .hcl or .json file with host variables.")
	addrFlag := flagSet.String("addr", app.DefaultAddr, "Listen address in serve mode.")
	commentFlag := flagSet.Bool("comment-output", false, "Prefix output lines with the language comment marker.")
	tempRootFlag := flagSet.String("temp-root", "", "Directory holding the temp directory. Defaults to the system temp dir.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	historyFlag := flagSet.String("history-dsn", getenv(EnvHistoryDSN), "Postgres DSN for execution history. In-memory when empty.")
	reportDirFlag := flagSet.String("report-dir", "", "Directory to write JSON reports to.")
	s3EndpointFlag := flagSet.String("s3-endpoint", getenv(EnvS3Endpoint), "S3-compatible endpoint for reports.")
	s3BucketFlag := flagSet.String("s3-bucket", getenv(EnvS3Bucket), "Bucket for reports.")
	progressFlag := flagSet.String("progress-url", getenv(EnvProgressURL), "socket.io URL that receives progress events.")
	namespaceFlag := flagSet.String("progress-namespace", getenv(EnvProgressNamespace), "socket.io namespace for progress events.")
	queueFlag := flagSet.Int("progress-queue", 0, "Pending progress events kept before new ones are dropped. 0 uses the default.")
	insecureFlag := flagSet.Bool("progress-insecure", false, "Skip TLS certificate checks of the progress server.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *docFlag != "" {
		path = *docFlag
	} else if *dFlag != "" {
		path = *dFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	mode := strings.ToLower(*modeFlag)
	if path == "" && (mode == app.ModeRun || mode == app.ModeExtract) {
		slog.Debug("No document provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	useSSL := false
	if raw := getenv(EnvS3UseSSL); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid %s: %v", EnvS3UseSSL, err)}
		}
		useSSL = v
	}

	insecure := *insecureFlag
	if raw := getenv(EnvProgressInsecure); raw != "" && !insecure {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid %s: %v", EnvProgressInsecure, err)}
		}
		insecure = v
	}

	config, err := app.NewConfig(app.Config{
		Mode:          mode,
		DocumentPath:  path,
		ConfigPaths:   splitList(*configFlag),
		VariablesPath: *varsFlag,
		TempRoot:      *tempRootFlag,
		CommentOutput: *commentFlag,
		Addr:          *addrFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		HistoryDSN:    *historyFlag,
		ReportDir:     *reportDirFlag,
		S3: artifact.S3Config{
			Endpoint:  *s3EndpointFlag,
			Bucket:    *s3BucketFlag,
			Region:    getenv(EnvS3Region),
			AccessKey: getenv(EnvS3AccessKey),
			SecretKey: getenv(EnvS3SecretKey),
			UseSSL:    useSSL,
		},
		ProgressURL:       *progressFlag,
		ProgressNamespace: *namespaceFlag,
		ProgressQueueSize: *queueFlag,
		ProgressInsecure:  insecure,
		Version:           Version,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "mode", config.Mode)
	return config, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
