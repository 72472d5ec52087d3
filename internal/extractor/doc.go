// Package extractor turns document text into per-language code blocks.
//
// Blocks are fenced by `@{name}` and `@{end name}` markers, matched
// case-insensitively. A marker only matches when the character after the
// name is `}`, `:`, whitespace or end of line, so `@{r}` never claims an
// `@{rust}` block. A `:module` qualifier (`@{ts:utils}`) yields a separate
// language key. Container languages keep nested markers as literal text.
//
// Extraction is total: stray end markers are ignored and a block that is
// never closed produces no output (see ExtractWithDiagnostics).
package extractor
