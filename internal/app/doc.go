// Package app wires the language registry, the orchestrator and the optional
// storage and transport layers into one application, and runs it in the mode
// chosen on the command line.
package app
