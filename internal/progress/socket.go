package progress

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	EventProgress = "progress"
	EventResult   = "result"

	defaultQueueSize = 256
)

type emitFunc func(event string, data any)

type outgoing struct {
	event string
	data  Event
}

// SocketPublisher emits progress and result events to a socket.io namespace.
// Publishing never blocks: events are queued and dropped when the queue is full.
type SocketPublisher struct {
	queue   chan outgoing
	dropped atomic.Int64
	done    chan struct{}

	closeOnce sync.Once
	closeFn   func()
}

// SocketOption tunes a SocketPublisher.
type SocketOption func(*socketConfig)

type socketConfig struct {
	namespace          string
	queueSize          int
	insecureSkipVerify bool
}

// WithNamespace selects the socket.io namespace. The default is "/".
func WithNamespace(ns string) SocketOption {
	return func(c *socketConfig) { c.namespace = ns }
}

// WithQueueSize bounds the number of pending events.
func WithQueueSize(n int) SocketOption {
	return func(c *socketConfig) { c.queueSize = n }
}

// WithInsecureSkipVerify disables TLS certificate checks.
func WithInsecureSkipVerify() SocketOption {
	return func(c *socketConfig) { c.insecureSkipVerify = true }
}

func newSocketConfig(opts ...SocketOption) socketConfig {
	cfg := socketConfig{namespace: "/", queueSize: defaultQueueSize}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.namespace == "" {
		cfg.namespace = "/"
	}
	return cfg
}

// DialSocket connects to rawURL in the background and returns a publisher.
func DialSocket(ctx context.Context, rawURL string, opts ...SocketOption) (*SocketPublisher, error) {
	cfg := newSocketConfig(opts...)
	logger := ctxlog.FromContext(ctx).With("component", "progress", "url", rawURL, "namespace", cfg.namespace)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse progress URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("progress URL %q must include scheme and host", rawURL)
	}

	sockOpts := socket.DefaultOptions()
	if parsed.Path != "" {
		sockOpts.SetPath(parsed.Path)
	}
	if cfg.insecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), sockOpts)
	io := manager.Socket(cfg.namespace, sockOpts)

	var connected atomic.Bool
	io.On(types.EventName("connect"), func(...any) {
		connected.Store(true)
		logger.Info("🔌 Progress socket connected", "sid", io.Id())
	})
	io.On(types.EventName("disconnect"), func(...any) {
		connected.Store(false)
		logger.Debug("Progress socket disconnected")
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Warn("Progress socket connection failed", "error", errs)
	})

	emit := func(event string, data any) {
		if !connected.Load() {
			return
		}
		io.Emit(event, data)
	}
	p := newSocketPublisher(emit, cfg.queueSize, func() { io.Disconnect() })
	io.Connect()
	return p, nil
}

func newSocketPublisher(emit emitFunc, queueSize int, closeFn func()) *SocketPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	p := &SocketPublisher{
		queue:   make(chan outgoing, queueSize),
		done:    make(chan struct{}),
		closeFn: closeFn,
	}
	go func() {
		defer close(p.done)
		for msg := range p.queue {
			emit(msg.event, msg.data)
		}
	}()
	return p
}

func (p *SocketPublisher) publish(event string, data Event) {
	select {
	case p.queue <- outgoing{event: event, data: data}:
	default:
		p.dropped.Add(1)
	}
}

// Progress returns a Func publishing messages for block.
func (p *SocketPublisher) Progress(block model.CodeBlock) Func {
	return func(message string) {
		p.publish(EventProgress, Event{Language: block.Language, StartLine: block.StartLine, Message: message})
	}
}

// Result publishes the final result of block.
func (p *SocketPublisher) Result(block model.CodeBlock, result model.ExecutionResult) {
	p.publish(EventResult, Event{Language: block.Language, StartLine: block.StartLine, Result: &result})
}

// Dropped reports how many events were discarded because the queue was full.
func (p *SocketPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close flushes queued events and disconnects. It must not be called
// concurrently with Progress or Result.
func (p *SocketPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		<-p.done
		if p.closeFn != nil {
			p.closeFn()
		}
	})
}
