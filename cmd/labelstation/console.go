// cmd/labelstation/console.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tamzrod/labelstation/internal/pipeline"
)

var errUsage = errors.New("usage")

// console is the operator command surface for queue mode. Printed
// results go back through the runner so handlers see them in order.
type console struct {
	ctx context.Context
	p   *pipeline.Pipeline
	q   *pipeline.Queue
	r   *pipeline.Runner
	out io.Writer
}

const consoleHelp = `commands:
  list                 show queued devices
  print <n> [stc]      print queue entry n (1-based), optionally with a custom STC
  clear                drop every queued device
  stc <value>          set the next STC
  auto on|off          toggle STC auto-increment
  pcb on|off           toggle the PCB printer
  mode auto|queue      switch processing mode
  stats                show counters`

// run reads commands from in until EOF or ctx ends.
func (c *console) run(ctx context.Context, in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := c.exec(sc.Text()); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *console) exec(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)

	case "list":
		entries := c.q.Pending()
		if len(entries) == 0 {
			fmt.Fprintln(c.out, "queue empty")
			return nil
		}
		for i, e := range entries {
			fmt.Fprintf(c.out, "%3d  %-8s stc=%d serial=%s imei=%s queued=%s\n",
				i+1, e.Status, e.STC, e.Record.SerialNumber, e.Record.IMEI, e.QueuedAt.Format("15:04:05"))
		}

	case "print":
		if len(args) < 2 {
			return fmt.Errorf("%w: print <n> [stc]", errUsage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad index %q", args[1])
		}
		custom := 0
		if len(args) > 2 {
			if custom, err = strconv.Atoi(args[2]); err != nil || custom <= 0 {
				return fmt.Errorf("bad stc %q", args[2])
			}
		}
		res, err := c.q.Print(n-1, custom)
		if err != nil {
			return err
		}
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		if err := c.r.Submit(ctx, res); err != nil {
			return fmt.Errorf("print %d done (%s) but not reported: %w", n, res.Status, err)
		}

	case "clear":
		c.q.Clear()
		fmt.Fprintln(c.out, "queue cleared")

	case "stc":
		if len(args) != 2 {
			return fmt.Errorf("%w: stc <value>", errUsage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v <= 0 {
			return fmt.Errorf("bad stc %q", args[1])
		}
		c.p.SetSTC(v)
		fmt.Fprintf(c.out, "next stc %d\n", v)

	case "auto":
		on, err := onOff(args)
		if err != nil {
			return err
		}
		c.p.SetAutoIncrement(on)
		fmt.Fprintf(c.out, "auto-increment %s\n", args[1])

	case "pcb":
		on, err := onOff(args)
		if err != nil {
			return err
		}
		c.p.SetPCBEnabled(on)
		if on && !c.p.PCBEnabled() {
			return errors.New("no pcb printer configured")
		}
		fmt.Fprintf(c.out, "pcb printing %s\n", args[1])

	case "mode":
		if len(args) != 2 || (args[1] != string(pipeline.ModeAuto) && args[1] != string(pipeline.ModeQueue)) {
			return fmt.Errorf("%w: mode auto|queue", errUsage)
		}
		c.r.SetMode(pipeline.Mode(args[1]))
		fmt.Fprintf(c.out, "mode %s\n", args[1])

	case "stats":
		fmt.Fprintf(c.out, "%s next_stc=%d queued=%d\n", c.p.Stats(), c.p.NextSTC(), c.q.Len())

	default:
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
	return nil
}

func onOff(args []string) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: %s on|off", errUsage, args[0])
	}
	switch strings.ToLower(args[1]) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s on|off", errUsage, args[0])
}
