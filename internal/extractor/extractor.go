package extractor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/specialistvlad/polyglot/internal/model"
	"golang.org/x/text/cases"
)

// Source provides the language definitions to match against.
type Source interface {
	Definitions() []*model.LanguageDefinition
}

// Result is the full outcome of one extraction pass.
type Result struct {
	Blocks       map[string][]model.CodeBlock `json:"blocks"`
	Unterminated []model.UnterminatedBlock    `json:"diagnostics,omitempty"`
}

// Extractor matches directives for a fixed set of languages.
type Extractor struct {
	matchers []matcher
}

type matcher struct {
	def   *model.LanguageDefinition
	start string
	end   string
}

// marker is a directive recognized on one line.
type marker struct {
	m      *matcher
	module string
}

// openBlock is the state of the block being accumulated.
type openBlock struct {
	m      *matcher
	key    string
	module string
	start  int
	raw    string
	depth  int
	lines  []string
}

// New builds an extractor for the languages in src.
func New(src Source) *Extractor {
	fold := cases.Fold()
	defs := src.Definitions()
	e := &Extractor{matchers: make([]matcher, 0, len(defs))}
	for _, def := range defs {
		e.matchers = append(e.matchers, matcher{
			def:   def,
			start: fold.String(strings.TrimSuffix(def.StartMarker(), "}")),
			end:   fold.String(strings.TrimSuffix(def.EndMarker(), "}")),
		})
	}
	// Longest prefix first keeps matching deterministic.
	sort.SliceStable(e.matchers, func(i, j int) bool {
		return len(e.matchers[i].start) > len(e.matchers[j].start)
	})
	return e
}

// Extract scans text and returns the blocks grouped by language key, each
// list in document order.
func (e *Extractor) Extract(text string) map[string][]model.CodeBlock {
	return e.ExtractWithDiagnostics(text).Blocks
}

// ExtractWithDiagnostics is Extract plus the list of blocks left open at the
// end of the document.
func (e *Extractor) ExtractWithDiagnostics(text string) Result {
	res := Result{Blocks: make(map[string][]model.CodeBlock)}
	fold := cases.Fold()

	var cur *openBlock
	for i, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		folded := fold.String(trimmed)

		if cur == nil {
			if mk, ok := e.matchStart(folded, trimmed); ok {
				cur = &openBlock{
					m:      mk.m,
					key:    languageKey(mk),
					module: mk.module,
					start:  i,
					raw:    trimmed,
				}
			}
			continue
		}

		if cur.m.def.Container {
			switch {
			case isMarker(folded, cur.m.start):
				cur.depth++
				cur.lines = append(cur.lines, line)
			case isMarker(folded, cur.m.end) && cur.depth > 0:
				cur.depth--
				cur.lines = append(cur.lines, line)
			case isMarker(folded, cur.m.end):
				res.emit(cur, i)
				cur = nil
			default:
				cur.lines = append(cur.lines, line)
			}
			continue
		}

		if closes(cur, folded, trimmed) {
			res.emit(cur, i)
			cur = nil
			continue
		}
		cur.lines = append(cur.lines, line)
	}

	if cur != nil {
		res.Unterminated = append(res.Unterminated, model.UnterminatedBlock{
			Language:          cur.key,
			StartLine:         cur.start,
			StartDirectiveRaw: cur.raw,
		})
	}
	return res
}

// Blocks returns every block in document order regardless of language.
func (e *Extractor) Blocks(text string) []model.CodeBlock {
	var all []model.CodeBlock
	for _, blocks := range e.Extract(text) {
		all = append(all, blocks...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartLine < all[j].StartLine })
	return all
}

// HasLanguageCode reports whether any line opens a configured block.
func (e *Extractor) HasLanguageCode(text string) bool {
	fold := cases.Fold()
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if _, ok := e.matchStart(fold.String(trimmed), trimmed); ok {
			return true
		}
	}
	return false
}

// UsedLanguages returns the sorted language keys that have at least one block.
func (e *Extractor) UsedLanguages(text string) []string {
	blocks := e.Extract(text)
	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extract is a convenience wrapper around New(src).Extract(text).
func Extract(text string, src Source) map[string][]model.CodeBlock {
	return New(src).Extract(text)
}

func (r *Result) emit(b *openBlock, endLine int) {
	code := strings.TrimRight(strings.Join(b.lines, "\n"), " \t\r\n")
	r.Blocks[b.key] = append(r.Blocks[b.key], model.CodeBlock{
		Language:          b.key,
		Code:              code,
		StartLine:         b.start,
		EndLine:           endLine,
		StartDirectiveRaw: b.raw,
	})
}

func (e *Extractor) matchStart(folded, original string) (marker, bool) {
	for i := range e.matchers {
		m := &e.matchers[i]
		if !isMarker(folded, m.start) {
			continue
		}
		return marker{m: m, module: moduleSuffix(folded, original, len(m.start))}, true
	}
	return marker{}, false
}

// closes reports whether the line is the end marker of the open block. A bare
// end marker closes a module-qualified block; a qualified one must name the
// same module.
func closes(b *openBlock, folded, original string) bool {
	if !isMarker(folded, b.m.end) {
		return false
	}
	module := moduleSuffix(folded, original, len(b.m.end))
	return module == "" || strings.EqualFold(module, b.module)
}

// isMarker is the prefix-plus-boundary match shared by start and end markers.
func isMarker(line, prefix string) bool {
	if !strings.HasPrefix(line, prefix) {
		return false
	}
	rest := line[len(prefix):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return r == '}' || r == ':' || unicode.IsSpace(r)
}

// moduleSuffix extracts the `:module` qualifier following a matched prefix.
// The original spelling is kept when folding did not change the line length.
func moduleSuffix(folded, original string, prefixLen int) string {
	src := folded
	if len(original) == len(folded) {
		src = original
	}
	rest := src[prefixLen:]
	if !strings.HasPrefix(rest, ":") {
		return ""
	}
	rest = rest[1:]
	if end := strings.IndexFunc(rest, func(r rune) bool { return r == '}' || unicode.IsSpace(r) }); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func languageKey(mk marker) string {
	if mk.module == "" {
		return mk.m.def.Name
	}
	return mk.m.def.Name + ":" + mk.module
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
