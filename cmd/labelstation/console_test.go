// cmd/labelstation/console_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/labelstation/internal/frame"
	"github.com/tamzrod/labelstation/internal/label"
	"github.com/tamzrod/labelstation/internal/pipeline"
	"github.com/tamzrod/labelstation/internal/printer"
	"github.com/tamzrod/labelstation/internal/sequence"
	"github.com/tamzrod/labelstation/internal/store"
)

const testFrame = "##ATS542912923728|866988074133496|286019876543210|8991101200003204510|AA:BB:CC:DD:EE:FF##"

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()

	records, err := store.NewCSVLog(filepath.Join(t.TempDir(), "devices.csv"))
	require.NoError(t, err)

	tmpl, err := label.ParseTemplate(label.DefaultZPL)
	require.NoError(t, err)

	disp := printer.NewDispatcher(printer.NewMux(time.Second), zerolog.Nop())
	disp.SetDebug(true)

	p, err := pipeline.New(pipeline.Config{PrimaryEndpoint: "tcp://127.0.0.1:9100"}, pipeline.Deps{
		Parser:     frame.NewParser(),
		Allocator:  sequence.New(60000),
		Template:   tmpl,
		Dispatcher: disp,
		Log:        records,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	q := pipeline.NewQueue(p)
	out := &bytes.Buffer{}
	return &console{p: p, q: q, r: pipeline.NewRunner(p, q, pipeline.ModeQueue), out: out}, out
}

// startRunner runs the producer and consumer the way main does and
// returns the results seen by OnDevice handlers on the consumer goroutine.
func startRunner(t *testing.T, c *console) <-chan pipeline.Result {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c.ctx = ctx

	got := make(chan pipeline.Result, 4)
	c.r.OnDevice(func(r pipeline.Result) { got <- r })

	events := make(chan pipeline.Event)
	go c.r.Run(ctx, make(chan string), events)
	go c.r.Consume(ctx, events)
	return got
}

func waitResult(t *testing.T, got <-chan pipeline.Result) pipeline.Result {
	t.Helper()
	select {
	case r := <-got:
		return r
	case <-time.After(time.Second):
		t.Fatal("printed result never reached the consumer")
		return pipeline.Result{}
	}
}

func enqueue(t *testing.T, c *console) pipeline.Entry {
	t.Helper()
	recs := c.p.Parse(testFrame)
	require.Len(t, recs, 1)
	return c.q.Enqueue(recs[0])
}

func TestConsole_Help(t *testing.T) {
	c, out := newTestConsole(t)
	require.NoError(t, c.exec("help"))
	assert.Contains(t, out.String(), "print <n> [stc]")
}

func TestConsole_BlankLineIgnored(t *testing.T) {
	c, out := newTestConsole(t)
	require.NoError(t, c.exec("   "))
	assert.Empty(t, out.String())
}

func TestConsole_UnknownCommand(t *testing.T) {
	c, _ := newTestConsole(t)
	assert.ErrorContains(t, c.exec("reboot"), "unknown command")
}

func TestConsole_ListAndPrint(t *testing.T) {
	c, out := newTestConsole(t)

	require.NoError(t, c.exec("list"))
	assert.Contains(t, out.String(), "queue empty")

	e := enqueue(t, c)
	assert.Equal(t, 60000, e.STC)

	out.Reset()
	require.NoError(t, c.exec("list"))
	assert.Contains(t, out.String(), "542912923728")
	assert.Contains(t, out.String(), pipeline.EntryPending)

	got := startRunner(t, c)

	require.NoError(t, c.exec("print 1"))
	res := waitResult(t, got)
	assert.Equal(t, 60000, res.STC)
	assert.Equal(t, store.StatusPrinted, res.Status)
	assert.Equal(t, pipeline.EntryPrinted, c.q.Pending()[0].Status)
}

func TestConsole_PrintCustomSTC(t *testing.T) {
	c, _ := newTestConsole(t)
	enqueue(t, c)

	got := startRunner(t, c)

	require.NoError(t, c.exec("print 1 12345"))
	assert.Equal(t, 12345, waitResult(t, got).STC)
	assert.Equal(t, 12345, c.q.Pending()[0].STC)
}

func TestConsole_PrintAfterRunnerStopped(t *testing.T) {
	c, _ := newTestConsole(t)
	enqueue(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan pipeline.Event)
	cancel()
	c.r.Run(ctx, make(chan string), events)

	err := c.exec("print 1")
	assert.ErrorIs(t, err, pipeline.ErrRunnerStopped)
	assert.Equal(t, pipeline.EntryPrinted, c.q.Pending()[0].Status)
}

func TestConsole_PrintBadArgs(t *testing.T) {
	c, _ := newTestConsole(t)
	enqueue(t, c)

	assert.True(t, errors.Is(c.exec("print"), errUsage))
	assert.ErrorContains(t, c.exec("print x"), "bad index")
	assert.ErrorContains(t, c.exec("print 1 0"), "bad stc")
	assert.ErrorIs(t, c.exec("print 2"), pipeline.ErrNoSuchEntry)
	assert.ErrorIs(t, c.exec("print 0"), pipeline.ErrNoSuchEntry)
}

func TestConsole_Clear(t *testing.T) {
	c, _ := newTestConsole(t)
	enqueue(t, c)
	enqueue(t, c)
	require.Equal(t, 2, c.q.Len())

	require.NoError(t, c.exec("clear"))
	assert.Equal(t, 0, c.q.Len())
}

func TestConsole_STC(t *testing.T) {
	c, _ := newTestConsole(t)

	require.NoError(t, c.exec("stc 70000"))
	assert.Equal(t, 70000, c.p.NextSTC())

	assert.Error(t, c.exec("stc -5"))
	assert.Error(t, c.exec("stc"))
	assert.Equal(t, 70000, c.p.NextSTC())
}

func TestConsole_AutoIncrement(t *testing.T) {
	c, _ := newTestConsole(t)

	require.NoError(t, c.exec("auto off"))
	assert.False(t, c.p.AutoIncrement())

	a := enqueue(t, c)
	b := enqueue(t, c)
	assert.Equal(t, a.STC, b.STC)

	require.NoError(t, c.exec("auto ON"))
	assert.True(t, c.p.AutoIncrement())

	assert.ErrorIs(t, c.exec("auto maybe"), errUsage)
}

func TestConsole_PCBWithoutEndpoint(t *testing.T) {
	c, _ := newTestConsole(t)

	assert.ErrorContains(t, c.exec("pcb on"), "no pcb printer configured")
	assert.False(t, c.p.PCBEnabled())
	require.NoError(t, c.exec("pcb off"))
}

func TestConsole_Mode(t *testing.T) {
	c, _ := newTestConsole(t)

	require.NoError(t, c.exec("mode auto"))
	assert.Equal(t, pipeline.ModeAuto, c.r.Mode())

	assert.ErrorIs(t, c.exec("mode fast"), errUsage)
	assert.Equal(t, pipeline.ModeAuto, c.r.Mode())
}

func TestConsole_Stats(t *testing.T) {
	c, out := newTestConsole(t)
	enqueue(t, c)

	require.NoError(t, c.exec("stats"))
	assert.Contains(t, out.String(), "next_stc=60001")
	assert.Contains(t, out.String(), "queued=1")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		res  pipeline.Result
		want uint16
	}{
		{"printed", pipeline.Result{Primary: true, Secondary: printer.OK}, 0},
		{"pcb skipped", pipeline.Result{Primary: true, Secondary: printer.NotAttempted}, 0},
		{"template", pipeline.Result{Err: &label.TemplateError{Fields: []string{"SERIAL"}, Err: errors.New("missing")}}, 2},
		{"generic", pipeline.Result{Err: errors.New("boom")}, 1},
		{"primary", pipeline.Result{Secondary: printer.OK}, 3},
		{"pcb", pipeline.Result{Primary: true, Secondary: printer.Failed}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.res))
		})
	}
}
