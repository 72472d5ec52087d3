// Package registry holds the language registry: the one piece of
// process-wide mutable state in polyglot.
//
// A Registry is an explicit value created from a config.Loader and a set of
// paths. Readers take a snapshot with Snapshot; the snapshot is re-read from
// the backing files only when their modification time shows they changed
// since the last load, so readers never block on parsing unless a reload is
// actually due. Reload builds a fresh Registry for a new path and leaves the
// receiver untouched.
package registry
