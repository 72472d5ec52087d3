// Package orchestrator executes one code block end to end.
//
// Given a block and its language definition it checks that the language is
// configured and its command resolvable, writes the (optionally variable
// injected) source to a uniquely named temp file, and dispatches on the
// language's pipeline tag: compile then run, interpret, or pass the code
// through unchanged. Every outcome is a model.ExecutionResult; nothing in
// this package panics or returns an error across its public surface.
package orchestrator
