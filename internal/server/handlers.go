package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/document"
	"github.com/specialistvlad/polyglot/internal/extractor"
	"github.com/specialistvlad/polyglot/internal/model"
)

const defaultHistoryLimit = 50

type languageInfo struct {
	Name      string         `json:"name"`
	Command   string         `json:"command,omitempty"`
	Extension string         `json:"extension,omitempty"`
	Pipeline  model.Pipeline `json:"pipeline"`
	Container bool           `json:"container,omitempty"`
	Available bool           `json:"available"`
}

type extractRequest struct {
	Document string `json:"document"`
}

type extractResponse struct {
	Blocks      map[string][]model.CodeBlock `json:"blocks"`
	Diagnostics []model.UnterminatedBlock    `json:"diagnostics,omitempty"`
}

type executeRequest struct {
	Language  string          `json:"language" binding:"required"`
	Code      string          `json:"code"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

type processRequest struct {
	Document      string          `json:"document"`
	Variables     json.RawMessage `json:"variables,omitempty"`
	CommentOutput bool            `json:"comment_output,omitempty"`
}

type processResponse struct {
	document.Report
	Location string `json:"location,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	ctxlog.FromContext(c.Request.Context()).Debug("Health check endpoint hit.", "remote_addr", c.Request.RemoteAddr)
	c.String(http.StatusOK, "OK\n")
}

func (s *Server) listLanguages(c *gin.Context) {
	ctx := c.Request.Context()
	snapshot := s.languages.Snapshot(ctx)
	available := s.languages.Availability(ctx, s.isAvailable)

	out := make([]languageInfo, 0, len(snapshot.Languages))
	for _, def := range snapshot.Definitions() {
		out = append(out, languageInfo{
			Name:      def.Name,
			Command:   def.Command,
			Extension: def.Extension,
			Pipeline:  def.EffectivePipeline(),
			Container: def.Container,
			Available: available[def.Name],
		})
	}
	c.JSON(http.StatusOK, gin.H{"languages": out})
}

func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	snapshot := s.languages.Snapshot(c.Request.Context())
	res := extractor.New(snapshot).ExtractWithDiagnostics(req.Document)
	c.JSON(http.StatusOK, extractResponse{Blocks: res.Blocks, Diagnostics: res.Unterminated})
}

func (s *Server) execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language is required"})
		return
	}
	vars, err := s.variables(req.Variables)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	block := model.CodeBlock{Language: req.Language, Code: req.Code}
	started := time.Now()
	result := s.executor.Execute(ctx, block, vars, s.progressFor(block, nil))
	s.record(ctx, block, result, time.Since(started))

	c.JSON(http.StatusOK, result)
}

func (s *Server) process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	vars, err := s.variables(req.Variables)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	p := *s.processor
	p.CommentOutput = req.CommentOutput
	resp := processResponse{Report: p.Process(ctx, req.Document, vars)}

	if s.reports != nil {
		data, err := json.MarshalIndent(resp.Report, "", "  ")
		if err == nil {
			resp.Location, err = s.reports.Put(ctx, fmt.Sprintf("reports/%s.json", uuid.NewString()), "application/json", data)
		}
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to store report.", "error", err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}

	entries, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}
	if entries == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// variables decodes an optional JSON object of host variables.
func (s *Server) variables(raw json.RawMessage) (model.Variables, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	vars, err := s.converter.VariablesFromJSON(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid variables: %w", err)
	}
	return vars, nil
}
