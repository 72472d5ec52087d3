package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFanout(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var a, b []string
	fn := Fanout(func(m string) { a = append(a, m) }, nil, func(m string) { b = append(b, m) })

	// --- Act ---
	fn("Running... 50ms")
	fn("Running... 100ms")

	// --- Assert ---
	require.Equal(t, []string{"Running... 50ms", "Running... 100ms"}, a)
	require.Equal(t, a, b)
}

func TestFanout_Degenerate(t *testing.T) {
	t.Parallel()

	require.Nil(t, Fanout())
	require.Nil(t, Fanout(nil, nil))

	var got string
	single := Fanout(nil, func(m string) { got = m })
	single("x")
	require.Equal(t, "x", got)
}

type recordedEmit struct {
	event string
	data  Event
}

func TestSocketPublisher_EmitsInOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var (
		mu     sync.Mutex
		got    []recordedEmit
		closed bool
	)
	emit := func(event string, data any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, recordedEmit{event: event, data: data.(Event)})
	}
	p := newSocketPublisher(emit, 8, func() { closed = true })
	block := model.CodeBlock{Language: "python", StartLine: 3}

	// --- Act ---
	progress := p.Progress(block)
	progress("Running... 50ms")
	p.Result(block, model.ExecutionResult{Success: true, Output: "ok"})
	p.Close()
	p.Close()

	// --- Assert ---
	require.True(t, closed)
	require.Len(t, got, 2)
	require.Equal(t, EventProgress, got[0].event)
	require.Equal(t, "Running... 50ms", got[0].data.Message)
	require.Equal(t, 3, got[0].data.StartLine)
	require.Equal(t, EventResult, got[1].event)
	require.Equal(t, "ok", got[1].data.Result.Output)
	require.Zero(t, p.Dropped())
}

func TestSocketPublisher_DropsWhenFull(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	emit := func(string, any) { <-release }
	p := newSocketPublisher(emit, 1, nil)
	fn := p.Progress(model.CodeBlock{Language: "r"})

	// The first event is taken by the emit loop and blocks there, the second
	// fills the queue, the rest are dropped.
	for i := 0; i < 10; i++ {
		fn("tick")
	}

	require.GreaterOrEqual(t, p.Dropped(), int64(8))
	close(release)
	p.Close()
}

func TestDialSocket_RejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := DialSocket(context.Background(), "not a url")
	require.Error(t, err)
}

func TestSocketOptions(t *testing.T) {
	t.Parallel()

	def := newSocketConfig()
	require.Equal(t, socketConfig{namespace: "/", queueSize: defaultQueueSize}, def)

	cfg := newSocketConfig(WithNamespace("/runs"), WithQueueSize(8), WithInsecureSkipVerify())
	require.Equal(t, socketConfig{namespace: "/runs", queueSize: 8, insecureSkipVerify: true}, cfg)

	require.Equal(t, "/", newSocketConfig(WithNamespace("")).namespace)
}
