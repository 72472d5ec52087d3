package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/process"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// sourceFile is a written temp source and how to dispose of it.
type sourceFile struct {
	dir  string
	path string
	keep bool
}

func (s sourceFile) cleanup() {
	if !s.keep {
		_ = os.Remove(s.path)
	}
}

func (s sourceFile) binaryPath(token string) string {
	return filepath.Join(s.dir, "block_"+token+process.ExecutableSuffix)
}

// TempDir resolves the directory source files are written to.
func (o *Orchestrator) TempDir(settings model.Settings) string {
	dir := settings.TempDirectory
	if dir == "" {
		dir = model.DefaultTempDirectory
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	root := o.tempRoot
	if root == "" {
		root = os.TempDir()
	}
	return filepath.Join(root, dir)
}

// writeSource writes the job's code. Module-qualified blocks are written as
// {module}{ext} and kept so sibling blocks can import them; all others get a
// unique name and are removed after the call.
func (o *Orchestrator) writeSource(j job) (sourceFile, error) {
	dir := o.TempDir(j.settings)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sourceFile{}, fmt.Errorf("failed to create temp directory %s: %w", dir, err)
	}

	src := sourceFile{dir: dir}
	if module := model.ModuleName(j.block.Language); module != "" {
		src.path = filepath.Join(dir, unsafeFileChars.ReplaceAllString(module, "_")+j.def.Extension)
		src.keep = true
	} else {
		src.path = filepath.Join(dir, "block_"+o.newToken()+j.def.Extension)
	}

	if err := os.WriteFile(src.path, []byte(j.code), 0o644); err != nil {
		return sourceFile{}, fmt.Errorf("failed to write source file %s: %w", src.path, err)
	}
	return src, nil
}

// expandArgs splits a shell-style argument template into words and then
// substitutes placeholders inside each word, so paths never need quoting.
func expandArgs(tmpl string, placeholders map[string]string) ([]string, error) {
	words, err := shellwords.Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("invalid argument template %q: %w", tmpl, err)
	}

	pairs := make([]string, 0, len(placeholders)*2)
	for k, v := range placeholders {
		pairs = append(pairs, k, v)
	}
	r := strings.NewReplacer(pairs...)
	for i, w := range words {
		words[i] = r.Replace(w)
	}
	return words, nil
}

// Cleanup removes the temp directory and everything written to it.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	dir := o.TempDir(o.languages.Settings(ctx))
	ctxlog.FromContext(ctx).Debug("Removing temp directory.", "dir", dir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", dir, err)
	}
	return nil
}
