// Package mcpserver exposes extraction and execution as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/document"
	"github.com/specialistvlad/polyglot/internal/extractor"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/orchestrator"
)

const serverName = "polyglot"

// Languages is the registry view the tools need.
type Languages interface {
	Snapshot(ctx context.Context) *config.Model
	Availability(ctx context.Context, isAvailable func(command string) bool) map[string]bool
}

// Executor runs a single block.
type Executor interface {
	Execute(ctx context.Context, block model.CodeBlock, vars model.Variables, onProgress orchestrator.ProgressFunc) model.ExecutionResult
}

// Server wires the tools to the execution stack.
type Server struct {
	languages   Languages
	executor    Executor
	processor   *document.Processor
	converter   config.Converter
	isAvailable func(command string) bool
	version     string
}

// New creates the tool server. isAvailable may be nil, in which case every
// language is reported as available.
func New(languages Languages, executor Executor, processor *document.Processor, converter config.Converter, isAvailable func(string) bool, version string) *Server {
	if isAvailable == nil {
		isAvailable = func(string) bool { return true }
	}
	return &Server{
		languages:   languages,
		executor:    executor,
		processor:   processor,
		converter:   converter,
		isAvailable: isAvailable,
		version:     version,
	}
}

// MCP builds the protocol server with all tools registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: s.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_blocks",
		Description: "Extract fenced @{language} code blocks from a document, grouped by language.",
	}, s.extractBlocks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "execute_code",
		Description: "Run a snippet in a configured language and return its output.",
	}, s.executeCode)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_document",
		Description: "Run every code block of a document and return the document with each block replaced by its output.",
	}, s.processDocument)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_languages",
		Description: "List configured languages and whether they can run on this host.",
	}, s.listLanguages)

	return server
}

// Run serves the tools over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	ctxlog.FromContext(ctx).Info("🔧 MCP server listening on stdio")
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

type ExtractInput struct {
	Document string `json:"document" jsonschema:"the document text containing code blocks"`
}

type ExtractOutput struct {
	Blocks      map[string][]model.CodeBlock `json:"blocks"`
	Diagnostics []model.UnterminatedBlock    `json:"diagnostics,omitempty"`
}

func (s *Server) extractBlocks(ctx context.Context, _ *mcp.CallToolRequest, in ExtractInput) (*mcp.CallToolResult, ExtractOutput, error) {
	res := extractor.New(s.languages.Snapshot(ctx)).ExtractWithDiagnostics(in.Document)
	return nil, ExtractOutput{Blocks: res.Blocks, Diagnostics: res.Unterminated}, nil
}

type ExecuteInput struct {
	Language  string         `json:"language" jsonschema:"configured language name, optionally with a :module suffix"`
	Code      string         `json:"code" jsonschema:"source code to run"`
	Variables map[string]any `json:"variables,omitempty" jsonschema:"host variables injected before the code"`
}

type ExecuteOutput struct {
	Result model.ExecutionResult `json:"result"`
}

func (s *Server) executeCode(ctx context.Context, _ *mcp.CallToolRequest, in ExecuteInput) (*mcp.CallToolResult, ExecuteOutput, error) {
	if in.Language == "" {
		return nil, ExecuteOutput{}, fmt.Errorf("language is required")
	}
	vars, err := s.variables(in.Variables)
	if err != nil {
		return nil, ExecuteOutput{}, err
	}
	result := s.executor.Execute(ctx, model.CodeBlock{Language: in.Language, Code: in.Code}, vars, nil)
	return nil, ExecuteOutput{Result: result}, nil
}

type ProcessInput struct {
	Document      string         `json:"document" jsonschema:"the document text containing code blocks"`
	Variables     map[string]any `json:"variables,omitempty" jsonschema:"host variables injected into every block"`
	CommentOutput bool           `json:"comment_output,omitempty" jsonschema:"prefix output lines with the language comment marker"`
}

type ProcessOutput struct {
	Report document.Report `json:"report"`
}

func (s *Server) processDocument(ctx context.Context, _ *mcp.CallToolRequest, in ProcessInput) (*mcp.CallToolResult, ProcessOutput, error) {
	vars, err := s.variables(in.Variables)
	if err != nil {
		return nil, ProcessOutput{}, err
	}
	p := *s.processor
	p.CommentOutput = in.CommentOutput
	return nil, ProcessOutput{Report: p.Process(ctx, in.Document, vars)}, nil
}

type ListLanguagesInput struct{}

type LanguageInfo struct {
	Name      string         `json:"name"`
	Pipeline  model.Pipeline `json:"pipeline"`
	Available bool           `json:"available"`
}

type ListLanguagesOutput struct {
	Languages []LanguageInfo `json:"languages"`
}

func (s *Server) listLanguages(ctx context.Context, _ *mcp.CallToolRequest, _ ListLanguagesInput) (*mcp.CallToolResult, ListLanguagesOutput, error) {
	available := s.languages.Availability(ctx, s.isAvailable)
	var out ListLanguagesOutput
	for _, def := range s.languages.Snapshot(ctx).Definitions() {
		out.Languages = append(out.Languages, LanguageInfo{
			Name:      def.Name,
			Pipeline:  def.EffectivePipeline(),
			Available: available[def.Name],
		})
	}
	return nil, out, nil
}

func (s *Server) variables(in map[string]any) (model.Variables, error) {
	vars, err := s.converter.VariablesFromMap(in)
	if err != nil {
		return nil, fmt.Errorf("invalid variables: %w", err)
	}
	return vars, nil
}
