package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/fsutil"
	"github.com/specialistvlad/polyglot/internal/model"
)

// ErrNoConfigFiles is returned when none of the given paths holds an .hcl file.
var ErrNoConfigFiles = errors.New("no registry files found")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Settings  []*Settings `hcl:"settings,block"`
	Languages []*Language `hcl:"language,block"`
	Remain    hcl.Body    `hcl:",remain"`
}

// Load parses every .hcl file reachable from paths and merges their
// `settings` and `language` blocks into one model. Later files override
// earlier ones for the same language name.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoConfigFiles, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	cfg := config.NewModel()
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, s := range root.Settings {
			if err := l.translateSettings(ctx, s, &cfg.Settings); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
		for _, lang := range root.Languages {
			def := l.translateLanguage(lang)
			if _, exists := cfg.Languages[def.Name]; exists {
				logger.Debug("Language redefined, later definition wins.", "language", def.Name, "file", file)
			}
			cfg.Languages[def.Name] = def
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "languages", len(cfg.Languages), "timeout_ms", cfg.Settings.TimeoutMs)
	return cfg, nil
}

// LoadVariables reads host variables from an HCL (or HCL-JSON) file whose
// top-level attributes are the variable names.
func (l *Loader) LoadVariables(ctx context.Context, path string) (model.Variables, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if filepath.Ext(path) == ".json" {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse variables file %s: %w", path, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("variables file %s must only contain attributes: %w", path, diags)
	}

	vars := make(model.Variables, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for variable '%s' in %s: %w", name, path, diags)
		}
		vars[name] = val
	}

	logger.Debug("Host variables loaded.", "path", path, "count", len(vars))
	return vars, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		files, err := fsutil.FindFiles(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return allFiles, nil
}
