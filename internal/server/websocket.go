package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/model"
)

const wsWriteWait = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type wsFrame struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message,omitempty"`
	Result  *model.ExecutionResult `json:"result,omitempty"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(f wsFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(f)
}

// executeWS reads one execute request and streams progress frames followed
// by a result frame. Closing the socket early cancels the execution.
func (s *Server) executeWS(c *gin.Context) {
	logger := ctxlog.FromContext(c.Request.Context())
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("Websocket upgrade failed.", "error", err)
		return
	}
	defer conn.Close()
	ws := &wsConn{conn: conn}

	var req executeRequest
	if err := conn.ReadJSON(&req); err != nil || req.Language == "" {
		_ = ws.send(wsFrame{Type: "error", Message: "expected an execute request with a language"})
		return
	}
	vars, err := s.variables(req.Variables)
	if err != nil {
		_ = ws.send(wsFrame{Type: "error", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	block := model.CodeBlock{Language: req.Language, Code: req.Code}
	started := time.Now()
	result := s.executor.Execute(ctx, block, vars, s.progressFor(block, func(msg string) {
		_ = ws.send(wsFrame{Type: "progress", Message: msg})
	}))
	s.record(ctx, block, result, time.Since(started))

	if err := ws.send(wsFrame{Type: "result", Result: &result}); err != nil {
		logger.Debug("Failed to send websocket result.", "error", err)
		return
	}
	ws.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
	ws.mu.Unlock()
}
