// internal/monitor/monitor_test.go
package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------
// Fake port
// ----------------------

type fakePort struct {
	data   chan []byte
	once   sync.Once
	closed chan struct{}
}

func newFakePort() *fakePort {
	return &fakePort{
		data:   make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	select {
	case chunk := <-p.data:
		return copy(b, chunk), nil
	case <-p.closed:
		return 0, io.EOF
	}
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) send(s string) { p.data <- []byte(s) }

func openerFor(p Port) Opener {
	return func() (Port, error) { return p, nil }
}

func recv(t *testing.T, out <-chan string, within time.Duration) string {
	t.Helper()
	select {
	case s := <-out:
		return s
	case <-time.After(within):
		t.Fatal("no record emitted")
		return ""
	}
}

// ----------------------
// Segmenter
// ----------------------

func TestSegmenter_AllTerminators(t *testing.T) {
	var s Segmenter
	units := s.Write([]byte("a\r\nb\nc\rd"))
	assert.Equal(t, []string{"a", "b", "c"}, units)
	assert.Equal(t, 1, s.Pending())

	units = s.Write([]byte("e\n\n\r\n"))
	assert.Equal(t, []string{"de"}, units)

	_, ok := s.Flush()
	assert.False(t, ok)
}

func TestSegmenter_FlushPartial(t *testing.T) {
	var s Segmenter
	assert.Empty(t, s.Write([]byte("##ATS1|2|3")))
	u, ok := s.Flush()
	require.True(t, ok)
	assert.Equal(t, "##ATS1|2|3", u)
	assert.Zero(t, s.Pending())
}

// ----------------------
// Monitor
// ----------------------

func TestMonitor_ConnectFailureStaysDisconnected(t *testing.T) {
	m := New(func() (Port, error) { return nil, errors.New("no such port") }, 0, zerolog.Nop())

	err := m.Start(context.Background(), make(chan string))
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, Disconnected, m.State())
}

func TestMonitor_StateMachine(t *testing.T) {
	p := newFakePort()
	m := New(openerFor(p), time.Second, zerolog.Nop())

	require.NoError(t, m.Connect())
	assert.Equal(t, Connected, m.State())

	out := make(chan string, 4)
	require.NoError(t, m.Start(context.Background(), out))
	assert.Equal(t, Monitoring, m.State())
	assert.ErrorIs(t, m.Start(context.Background(), out), ErrAlreadyRunning)

	m.Stop()
	assert.Equal(t, Disconnected, m.State())
	m.Stop()
	assert.Equal(t, Disconnected, m.State())
}

func TestMonitor_StopWhenOnlyConnected(t *testing.T) {
	p := newFakePort()
	m := New(openerFor(p), time.Second, zerolog.Nop())
	require.NoError(t, m.Connect())

	m.Stop()
	assert.Equal(t, Disconnected, m.State())
	select {
	case <-p.closed:
	default:
		t.Fatal("port not closed")
	}
}

func TestMonitor_SplitsLinesAcrossChunks(t *testing.T) {
	p := newFakePort()
	m := New(openerFor(p), time.Second, zerolog.Nop())
	out := make(chan string, 4)
	require.NoError(t, m.Start(context.Background(), out))
	defer m.Stop()

	p.send("##ATS542912923728|8669")
	p.send("88074133496|286019876543210##\r\n##second##\n")

	assert.Equal(t, "##ATS542912923728|866988074133496|286019876543210##", recv(t, out, time.Second))
	assert.Equal(t, "##second##", recv(t, out, time.Second))
}

func TestMonitor_FlushesAfterSilence(t *testing.T) {
	p := newFakePort()
	m := New(openerFor(p), 50*time.Millisecond, zerolog.Nop())
	out := make(chan string, 4)
	require.NoError(t, m.Start(context.Background(), out))
	defer m.Stop()

	p.send("##ATS1|2")
	time.Sleep(20 * time.Millisecond)
	p.send("|3##")

	assert.Equal(t, "##ATS1|2|3##", recv(t, out, time.Second))

	select {
	case extra := <-out:
		t.Fatalf("unexpected second unit %q", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestMonitor_ReadErrorDisconnects(t *testing.T) {
	p := newFakePort()
	m := New(openerFor(p), time.Second, zerolog.Nop())
	require.NoError(t, m.Start(context.Background(), make(chan string)))

	_ = p.Close()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not exit")
	}
	assert.Equal(t, Disconnected, m.State())
}

func TestMonitor_ContextCancelStops(t *testing.T) {
	p := newFakePort()
	m := New(openerFor(p), time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx, make(chan string)))

	cancel()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not exit")
	}
	assert.Equal(t, Disconnected, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "monitoring", Monitoring.String())
}
