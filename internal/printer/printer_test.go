// internal/printer/printer_test.go
package printer

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------
// Fakes
// ----------------------

type fakeTransport struct {
	mu      sync.Mutex
	fail    map[string]string // endpoint -> failing step
	written map[string][]byte
	opened  []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		fail:    make(map[string]string),
		written: make(map[string][]byte),
	}
}

func (f *fakeTransport) Open(endpoint string) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, endpoint)
	if f.fail[endpoint] == "open" {
		return nil, stepErr("open", endpoint, errors.New("offline"))
	}
	return &fakeConn{t: f, endpoint: endpoint}, nil
}

type fakeConn struct {
	t        *fakeTransport
	endpoint string
	buf      []byte
	closed   bool
}

func (c *fakeConn) step(name string) error {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.t.fail[c.endpoint] == name {
		return stepErr(name, c.endpoint, errors.New("injected"))
	}
	return nil
}

func (c *fakeConn) BeginJob(string) (string, error) {
	if err := c.step("begin"); err != nil {
		return "", err
	}
	return "job-1", nil
}

func (c *fakeConn) Write(p []byte) error {
	if err := c.step("write"); err != nil {
		return err
	}
	c.buf = append(c.buf, p...)
	return nil
}

func (c *fakeConn) EndJob() error {
	if err := c.step("end"); err != nil {
		return err
	}
	c.t.mu.Lock()
	c.t.written[c.endpoint] = c.buf
	c.t.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveDispatch(role string, ok bool, _ time.Duration) {
	r := "fail"
	if ok {
		r = "ok"
	}
	o.calls = append(o.calls, role+":"+r)
}

// ----------------------
// Dispatcher
// ----------------------

func TestDispatch_WritesProgram(t *testing.T) {
	ft := newFakeTransport()
	d := NewDispatcher(ft, zerolog.Nop())

	ok := d.Dispatch("tcp://zebra:9100", "^XA^XZ")
	assert.True(t, ok)
	assert.Equal(t, "^XA^XZ", string(ft.written["tcp://zebra:9100"]))
}

func TestDispatch_FailureAtAnyStepReturnsFalse(t *testing.T) {
	for _, step := range []string{"open", "begin", "write", "end"} {
		t.Run(step, func(t *testing.T) {
			ft := newFakeTransport()
			ft.fail["ep"] = step
			d := NewDispatcher(ft, zerolog.Nop())
			assert.False(t, d.Dispatch("ep", "^XA^XZ"))
		})
	}
}

func TestDispatchPair_PrimaryFailureDoesNotBlockSecondary(t *testing.T) {
	ft := newFakeTransport()
	ft.fail["zebra"] = "open"
	obs := &recordingObserver{}
	d := NewDispatcher(ft, zerolog.Nop())
	d.SetObserver(obs)

	out := d.DispatchPair("zebra", "^XA^XZ", "xprinter", "CLS\r\nPRINT 1\r\n", true)

	assert.False(t, out.Primary)
	assert.Equal(t, OK, out.Secondary)
	assert.Equal(t, "CLS\r\nPRINT 1\r\n", string(ft.written["xprinter"]))
	assert.Equal(t, []string{"primary:fail", "pcb:ok"}, obs.calls)
}

func TestDispatchPair_SecondaryDisabledOrAbsent(t *testing.T) {
	ft := newFakeTransport()
	d := NewDispatcher(ft, zerolog.Nop())

	out := d.DispatchPair("zebra", "^XA^XZ", "xprinter", "PCB", false)
	assert.True(t, out.Primary)
	assert.Equal(t, NotAttempted, out.Secondary)

	out = d.DispatchPair("zebra", "^XA^XZ", "", "PCB", true)
	assert.Equal(t, NotAttempted, out.Secondary)
	assert.Equal(t, []string{"zebra", "zebra"}, ft.opened)
}

func TestDispatchPair_SecondaryFailureReported(t *testing.T) {
	ft := newFakeTransport()
	ft.fail["xprinter"] = "write"
	d := NewDispatcher(ft, zerolog.Nop())

	out := d.DispatchPair("zebra", "^XA^XZ", "xprinter", "PCB", true)
	assert.True(t, out.Primary)
	assert.Equal(t, Failed, out.Secondary)
	assert.Equal(t, "^XA^XZ", string(out.Sent))
}

func TestDispatchPair_PrimaryUnconfigured(t *testing.T) {
	ft := newFakeTransport()
	d := NewDispatcher(ft, zerolog.Nop())

	out := d.DispatchPair("", "^XA^XZ", "", "", false)
	assert.False(t, out.Primary)
	assert.Nil(t, out.Sent)
	assert.Empty(t, ft.opened)
}

func TestDispatcher_DebugSimulatesAndCaptures(t *testing.T) {
	ft := newFakeTransport()
	d := NewDispatcher(ft, zerolog.Nop())
	d.SetDebug(true)

	out := d.DispatchPair("zebra", "^XA^FDone^XZ", "xprinter", "PCB", true)
	assert.True(t, out.Primary)
	assert.Equal(t, OK, out.Secondary)
	assert.Empty(t, ft.opened)

	p, ok := d.LastProgram("zebra")
	require.True(t, ok)
	assert.Equal(t, "^XA^FDone^XZ", p)
}

func TestSecondaryResult_String(t *testing.T) {
	assert.Equal(t, "NotAttempted", NotAttempted.String())
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "Failed", Failed.String())
}

// ----------------------
// Transports
// ----------------------

func TestSplitEndpoint(t *testing.T) {
	cases := []struct {
		in, scheme, target string
	}{
		{"tcp://192.168.1.50:9100", SchemeTCP, "192.168.1.50:9100"},
		{"TCP://zebra", SchemeTCP, "zebra"},
		{"file:///dev/usb/lp0", SchemeFile, "/dev/usb/lp0"},
		{"lp://Zebra_GC420T", SchemeLP, "Zebra_GC420T"},
	}
	for _, c := range cases {
		scheme, target, err := SplitEndpoint(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.scheme, scheme, c.in)
		assert.Equal(t, c.target, target, c.in)
	}

	for _, bad := range []string{"", "zebra", "tcp://"} {
		_, _, err := SplitEndpoint(bad)
		assert.ErrorIs(t, err, ErrTransport, bad)
	}
}

func TestMux_UnsupportedScheme(t *testing.T) {
	m := NewMux(time.Second)
	_, err := m.Open("usb://zebra")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDeviceTransport_AppendsJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	d := NewDispatcher(NewMux(time.Second), zerolog.Nop())

	require.True(t, d.Dispatch("file://"+path, "^XA^XZ"))
	require.True(t, d.Dispatch("file://"+path, "SIZE 40 mm"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "^XA^XZSIZE 40 mm", string(data))
}

func TestDeviceTransport_JobOrder(t *testing.T) {
	c, err := DeviceTransport{}.Open(filepath.Join(t.TempDir(), "lp0"))
	require.NoError(t, err)
	defer c.Close()

	assert.ErrorIs(t, c.Write([]byte("x")), ErrTransport)
	_, err = c.BeginJob("a")
	require.NoError(t, err)
	_, err = c.BeginJob("b")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestTCPTransport_SendsRawBytes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			got <- nil
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		got <- b
	}()

	d := NewDispatcher(NewMux(time.Second), zerolog.Nop())
	require.True(t, d.Dispatch("tcp://"+ln.Addr().String(), "^XA^FD542912923728^FS^XZ"))

	select {
	case b := <-got:
		assert.Equal(t, "^XA^FD542912923728^FS^XZ", string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("printer socket received nothing")
	}
}

func TestTCPTransport_RefusedIsFalse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	d := NewDispatcher(NewMux(200*time.Millisecond), zerolog.Nop())
	assert.False(t, d.Dispatch("tcp://"+addr, "^XA^XZ"))
}
