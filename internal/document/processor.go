// Package document runs every code block of a document and replaces each
// block with its rendered result.
package document

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/extractor"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/orchestrator"
	"github.com/zclconf/go-cty/cty"
)

// DefaultCommentPrefix marks output lines in plain-text mode when the
// language has no comment prefix of its own.
const DefaultCommentPrefix = "'"

const exportPatternCacheSize = 16

// plainNumber matches decimal literals only: no hex, no NaN or Inf.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var exportPatterns = mustPatternCache()

func mustPatternCache() *lru.Cache[string, *regexp.Regexp] {
	c, err := lru.New[string, *regexp.Regexp](exportPatternCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

func exportPattern(prefix string) *regexp.Regexp {
	if re, ok := exportPatterns.Get(prefix); ok {
		return re
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\w+)=(.+)$`)
	exportPatterns.Add(prefix, re)
	return re
}

// Languages provides the registry snapshot used for one pass.
type Languages interface {
	Snapshot(ctx context.Context) *config.Model
}

// Executor runs a single block.
type Executor interface {
	Execute(ctx context.Context, block model.CodeBlock, vars model.Variables, onProgress orchestrator.ProgressFunc) model.ExecutionResult
}

// BlockReport is the outcome of one executed block.
type BlockReport struct {
	Block    model.CodeBlock       `json:"block"`
	Result   model.ExecutionResult `json:"result"`
	Duration time.Duration         `json:"duration"`
}

// Report is the outcome of processing a whole document.
type Report struct {
	Document    string                    `json:"document"`
	Blocks      []BlockReport             `json:"blocks"`
	Exported    map[string]string         `json:"exported,omitempty"`
	Diagnostics []model.UnterminatedBlock `json:"diagnostics,omitempty"`
}

// Processor executes documents block by block in document order.
type Processor struct {
	languages Languages
	executor  Executor

	// CommentOutput prefixes rendered lines with the language comment prefix.
	CommentOutput bool

	// OnBlock is called after every executed block.
	OnBlock func(ctx context.Context, r BlockReport)

	// OnProgress receives runner progress for the block being executed.
	OnProgress func(block model.CodeBlock, message string)
}

// NewProcessor creates a processor.
func NewProcessor(languages Languages, executor Executor) *Processor {
	return &Processor{languages: languages, executor: executor}
}

// Process runs all blocks in text. Variables exported by a block are visible
// to the blocks after it when the registry allows variable sharing.
func (p *Processor) Process(ctx context.Context, text string, vars model.Variables) Report {
	snapshot := p.languages.Snapshot(ctx)
	report := Report{Exported: make(map[string]string)}
	scope := vars.Merge(nil)

	report.Document = p.process(ctx, snapshot, text, &scope, &report)
	if len(report.Exported) == 0 {
		report.Exported = nil
	}

	ctxlog.FromContext(ctx).Debug("Document processed.", "blocks", len(report.Blocks), "exported", len(report.Exported), "unterminated", len(report.Diagnostics))
	return report
}

func (p *Processor) process(ctx context.Context, snapshot *config.Model, text string, scope *model.Variables, report *Report) string {
	res := extractor.New(snapshot).ExtractWithDiagnostics(text)
	report.Diagnostics = append(report.Diagnostics, res.Unterminated...)

	var blocks []model.CodeBlock
	for _, list := range res.Blocks {
		blocks = append(blocks, list...)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].StartLine < blocks[j].StartLine })

	lines := strings.Split(text, "\n")
	var out []string
	cursor := 0
	for _, block := range blocks {
		out = append(out, lines[cursor:block.StartLine]...)
		cursor = block.EndLine + 1

		def, _ := snapshot.Lookup(block.Language)
		if def != nil && def.Container {
			inner := p.process(ctx, snapshot, block.Code, scope, report)
			out = append(out, block.StartDirectiveRaw, inner, def.EndMarker())
			continue
		}

		out = append(out, p.runBlock(ctx, snapshot, block, def, scope, report))
	}
	out = append(out, lines[cursor:]...)
	return strings.Join(out, "\n")
}

func (p *Processor) runBlock(ctx context.Context, snapshot *config.Model, block model.CodeBlock, def *model.LanguageDefinition, scope *model.Variables, report *Report) string {
	var progress orchestrator.ProgressFunc
	if p.OnProgress != nil {
		progress = func(msg string) { p.OnProgress(block, msg) }
	}

	ctx = ctxlog.With(ctx, "language", block.Language, "line", block.StartLine+1)
	started := time.Now()
	result := p.executor.Execute(ctx, block, *scope, progress)
	br := BlockReport{Block: block, Result: result, Duration: time.Since(started)}

	if result.Success {
		exported, cleaned := ExtractExports(result.Output, snapshot.Settings.ExportPrefix)
		br.Result.Output = cleaned
		for name, raw := range exported {
			report.Exported[name] = raw
		}
		if snapshot.Settings.ShareVariables && len(exported) > 0 {
			*scope = scope.Merge(ExportedVariables(exported))
		}
	}

	report.Blocks = append(report.Blocks, br)
	if p.OnBlock != nil {
		p.OnBlock(ctx, br)
	}

	rendered := br.Result.DisplayOutput()
	if p.CommentOutput && !br.Result.IsHTMLOutput() {
		rendered = commentLines(rendered, def)
	}
	return rendered
}

// ExtractExports finds `{prefix}name=value` lines in output. It returns the
// exported values and the output with those lines removed.
func ExtractExports(output, prefix string) (map[string]string, string) {
	if prefix == "" {
		return nil, output
	}
	re := exportPattern(prefix)

	exported := make(map[string]string)
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		if m := re.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			exported[m[1]] = strings.TrimSpace(m[2])
			continue
		}
		kept = append(kept, line)
	}
	return exported, strings.Join(kept, "\n")
}

// ExportedVariables converts exported raw values into host variables:
// finite decimal numbers become cty numbers, anything else a string.
func ExportedVariables(exported map[string]string) model.Variables {
	vars := make(model.Variables, len(exported))
	for name, raw := range exported {
		if f, ok := parseNumber(raw); ok {
			vars[name] = cty.NumberFloatVal(f)
			continue
		}
		vars[name] = cty.StringVal(raw)
	}
	return vars
}

func parseNumber(raw string) (float64, bool) {
	if !plainNumber.MatchString(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func commentLines(text string, def *model.LanguageDefinition) string {
	prefix := DefaultCommentPrefix
	if def != nil && def.CommentPrefix != "" {
		prefix = def.CommentPrefix
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + " " + l
	}
	return strings.Join(lines, "\n")
}
