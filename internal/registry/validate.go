package registry

import (
	"context"

	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/model"
)

// Availability reports, per language name, whether the language can run on
// this host. Passthrough languages are always available. Missing commands
// are logged as warnings but are not errors: the orchestrator reports them
// per call.
func (r *Registry) Availability(ctx context.Context, isAvailable func(command string) bool) map[string]bool {
	logger := ctxlog.FromContext(ctx)
	snapshot := r.Snapshot(ctx)

	out := make(map[string]bool, len(snapshot.Languages))
	for _, def := range snapshot.Definitions() {
		if def.EffectivePipeline() == model.PipelinePassthrough {
			out[def.Name] = true
			continue
		}
		ok := isAvailable(def.Command)
		if !ok {
			logger.Warn("Language command not found on PATH.", "language", def.Name, "command", def.Command)
		}
		out[def.Name] = ok
	}
	return out
}
