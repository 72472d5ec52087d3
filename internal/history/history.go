// Package history records executed blocks so recent runs can be listed.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/polyglot/internal/model"
)

// DefaultCapacity bounds the in-memory history.
const DefaultCapacity = 500

// Entry is one executed block.
type Entry struct {
	ID        string            `json:"id"`
	Language  string            `json:"language"`
	StartLine int               `json:"start_line"`
	Success   bool              `json:"success"`
	ExitCode  int               `json:"exit_code"`
	Kind      model.FailureKind `json:"kind,omitempty"`
	Duration  time.Duration     `json:"duration"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists entries. List returns the newest entries first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

// NewEntry builds an entry for a finished block.
func NewEntry(block model.CodeBlock, result model.ExecutionResult, d time.Duration) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Language:  block.Language,
		StartLine: block.StartLine,
		Success:   result.Success,
		ExitCode:  result.ExitCode,
		Kind:      result.Kind,
		Duration:  d,
		CreatedAt: time.Now().UTC(),
	}
}

func normalize(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}
