package mcpserver

import (
	"context"
	"testing"

	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/document"
	"github.com/specialistvlad/polyglot/internal/hcl_adapter"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/orchestrator"
	"github.com/specialistvlad/polyglot/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoExecutor struct {
	lastVars model.Variables
}

func (e *echoExecutor) Execute(_ context.Context, block model.CodeBlock, vars model.Variables, _ orchestrator.ProgressFunc) model.ExecutionResult {
	e.lastVars = vars
	return model.ExecutionResult{Success: true, Output: block.Language + ":" + block.Code}
}

func newServer(exec *echoExecutor) *Server {
	reg := registry.New(config.Default())
	return New(reg, exec, document.NewProcessor(reg, exec), hcl_adapter.NewConverter(),
		func(cmd string) bool { return cmd == "bash" }, "test")
}

func TestServer_RegistersTools(t *testing.T) {
	t.Parallel()

	require.NotNil(t, newServer(&echoExecutor{}).MCP())
}

func TestExtractBlocks(t *testing.T) {
	t.Parallel()
	s := newServer(&echoExecutor{})

	_, out, err := s.extractBlocks(context.Background(), nil, ExtractInput{Document: "@{bash}\necho hi\n@{end bash}"})

	require.NoError(t, err)
	require.Len(t, out.Blocks["bash"], 1)
	assert.Equal(t, "echo hi", out.Blocks["bash"][0].Code)
	assert.Empty(t, out.Diagnostics)
}

func TestExecuteCode(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	exec := &echoExecutor{}
	s := newServer(exec)

	// --- Act ---
	_, out, err := s.executeCode(context.Background(), nil, ExecuteInput{
		Language:  "python",
		Code:      "print(a)",
		Variables: map[string]any{"a": 1.5, "b": "text"},
	})

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, out.Result.Success)
	assert.Equal(t, "python:print(a)", out.Result.Output)
	assert.Equal(t, []string{"a", "b"}, exec.lastVars.Names())

	_, _, err = s.executeCode(context.Background(), nil, ExecuteInput{Code: "x"})
	assert.Error(t, err)
}

func TestProcessDocument(t *testing.T) {
	t.Parallel()
	s := newServer(&echoExecutor{})

	_, out, err := s.processDocument(context.Background(), nil, ProcessInput{
		Document:      "head\n@{bash}\nls\n@{end bash}",
		CommentOutput: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "head\n# bash:ls", out.Report.Document)
	assert.False(t, s.processor.CommentOutput)
}

func TestListLanguages(t *testing.T) {
	t.Parallel()
	s := newServer(&echoExecutor{})

	_, out, err := s.listLanguages(context.Background(), nil, ListLanguagesInput{})

	require.NoError(t, err)
	got := map[string]LanguageInfo{}
	for _, l := range out.Languages {
		got[l.Name] = l
	}
	assert.True(t, got["bash"].Available)
	assert.False(t, got["python"].Available)
	assert.Equal(t, model.PipelinePassthrough, got["markdown"].Pipeline)
}
