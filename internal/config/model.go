package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/polyglot/internal/model"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Model is the unified, format-agnostic representation of the registry:
// the language table plus global settings.
type Model struct {
	Languages map[string]*model.LanguageDefinition
	Settings  model.Settings
}

// NewModel returns an empty model with default settings.
func NewModel() *Model {
	return &Model{
		Languages: make(map[string]*model.LanguageDefinition),
		Settings:  model.DefaultSettings(),
	}
}

// Names returns the configured language names in sorted order.
func (m *Model) Names() []string {
	names := make([]string, 0, len(m.Languages))
	for name := range m.Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every language definition and the settings, collecting
// all problems into a single error.
func (m *Model) Validate() error {
	var errs []string

	for _, name := range m.Names() {
		def := m.Languages[name]
		if def.Extension == "" && def.EffectivePipeline() != model.PipelinePassthrough {
			errs = append(errs, fmt.Sprintf("language '%s': extension is required", name))
		}
		if !def.Pipeline.Valid() {
			errs = append(errs, fmt.Sprintf("language '%s': unknown pipeline '%s'", name, def.Pipeline))
		}
		switch def.EffectivePipeline() {
		case model.PipelineCompiled, model.PipelineInterpreted:
			if def.Command == "" {
				errs = append(errs, fmt.Sprintf("language '%s': command is required for the %s pipeline", name, def.EffectivePipeline()))
			}
		}
		if !strings.HasPrefix(def.StartMarker(), "@{") || !strings.HasSuffix(def.StartMarker(), "}") {
			errs = append(errs, fmt.Sprintf("language '%s': directive must look like @{name}", name))
		}
		if !strings.HasPrefix(def.EndMarker(), "@{end ") || !strings.HasSuffix(def.EndMarker(), "}") {
			errs = append(errs, fmt.Sprintf("language '%s': end directive must look like @{end name}", name))
		}
	}

	if m.Settings.TimeoutMs <= 0 {
		errs = append(errs, "settings: timeout_ms must be positive")
	}
	if m.Settings.MaxOutputLines < 0 {
		errs = append(errs, "settings: max_output_lines must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidConfig, strings.Join(errs, "\n- "))
	}
	return nil
}

// Definitions returns the language definitions sorted by name.
func (m *Model) Definitions() []*model.LanguageDefinition {
	defs := make([]*model.LanguageDefinition, 0, len(m.Languages))
	for _, name := range m.Names() {
		defs = append(defs, m.Languages[name])
	}
	return defs
}

// Lookup finds the definition for a block language key, ignoring any
// module qualifier and letter case.
func (m *Model) Lookup(language string) (*model.LanguageDefinition, bool) {
	base := model.BaseLanguage(language)
	if def, ok := m.Languages[base]; ok {
		return def, true
	}
	for name, def := range m.Languages {
		if strings.EqualFold(name, base) {
			return def, true
		}
	}
	return nil, false
}
