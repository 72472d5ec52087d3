// Package progress distributes execution progress to interested listeners.
package progress

import "github.com/specialistvlad/polyglot/internal/model"

// Func receives progress messages such as "Running... 120ms".
type Func func(message string)

// Fanout returns a Func that forwards every message to each non-nil fn.
// It returns nil when there is nothing to forward to.
func Fanout(fns ...Func) Func {
	var live []Func
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(message string) {
		for _, fn := range live {
			fn(message)
		}
	}
}

// Event is the payload published for a block.
type Event struct {
	Language  string                 `json:"language"`
	StartLine int                    `json:"start_line"`
	Message   string                 `json:"message,omitempty"`
	Result    *model.ExecutionResult `json:"result,omitempty"`
}
