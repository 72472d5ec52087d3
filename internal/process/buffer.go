package process

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// lineBuffer is an io.Writer that keeps at most max complete lines.
type lineBuffer struct {
	mu        sync.Mutex
	b         strings.Builder
	lines     int
	max       int
	truncated bool
}

func newLineBuffer(max int) *lineBuffer {
	return &lineBuffer{max: max}
}

func (l *lineBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(p)
	for len(p) > 0 {
		if l.max > 0 && l.lines >= l.max {
			l.truncated = true
			break
		}
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			l.b.Write(p)
			break
		}
		l.b.Write(p[:i+1])
		l.lines++
		p = p[i+1:]
	}
	return n, nil
}

func (l *lineBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.truncated {
		return l.b.String()
	}
	return fmt.Sprintf("%s\n... output truncated after %d lines", strings.TrimRight(l.b.String(), "\r\n"), l.max)
}
