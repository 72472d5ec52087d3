// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEffectivePipeline(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		def  LanguageDefinition
		want Pipeline
	}{
		{"explicit tag wins", LanguageDefinition{Command: "g++", RequiresCompilation: true, Pipeline: PipelinePassthrough}, PipelinePassthrough},
		{"compiled flag", LanguageDefinition{Command: "g++", RequiresCompilation: true}, PipelineCompiled},
		{"interpreted", LanguageDefinition{Command: "python3"}, PipelineInterpreted},
		{"no command", LanguageDefinition{Name: "markdown"}, PipelinePassthrough},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, tc.def.EffectivePipeline())
		})
	}
}

func TestMarkers_DerivedFromName(t *testing.T) {
	t.Parallel()

	def := LanguageDefinition{Name: "python"}
	require.Equal(t, "@{python}", def.StartMarker())
	require.Equal(t, "@{end python}", def.EndMarker())

	def.StartDirective = "@{py}"
	require.Equal(t, "@{py}", def.StartMarker())
}

func TestBaseLanguageAndModule(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ts", BaseLanguage("ts:utils"))
	require.Equal(t, "utils", ModuleName("ts:utils"))
	require.Equal(t, "python", BaseLanguage("python"))
	require.Equal(t, "", ModuleName("python"))
}

func TestExecutionResult_Err(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ok := ExecutionResult{Success: true, Output: "2"}
	timedOut := Failed(FailureTimeout, "Execution timed out after 100ms")

	// --- Act & Assert ---
	require.NoError(t, ok.Err())

	err := timedOut.Err()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTimeout))
	require.False(t, errors.Is(err, ErrRun))
	require.Contains(t, err.Error(), "timed out after 100ms")
	require.Equal(t, -1, timedOut.ExitCode)
}

func TestExecutionResult_DisplayOutput(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2", ExecutionResult{Success: true, Output: "2"}.DisplayOutput())
	require.Equal(t, "Error: boom", ExecutionResult{Error: "boom", ExitCode: 1}.DisplayOutput())
	require.Equal(t, "Error: boom\npartial", ExecutionResult{Error: "boom", Output: "partial", ExitCode: 1}.DisplayOutput())
}

func TestVariables_NamesSortedAndMerge(t *testing.T) {
	t.Parallel()

	base := Variables{"b": cty.NumberIntVal(1), "a": cty.StringVal("x")}
	merged := base.Merge(Variables{"b": cty.NumberIntVal(2), "c": cty.True})

	require.Equal(t, []string{"a", "b"}, base.Names())
	require.Equal(t, []string{"a", "b", "c"}, merged.Names())
	require.True(t, merged["b"].RawEquals(cty.NumberIntVal(2)))
	require.True(t, base["b"].RawEquals(cty.NumberIntVal(1)))
}
