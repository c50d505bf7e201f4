// cmd/labelstation/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/labelstation/internal/config"
	"github.com/tamzrod/labelstation/internal/events"
	"github.com/tamzrod/labelstation/internal/label"
	"github.com/tamzrod/labelstation/internal/metrics"
	"github.com/tamzrod/labelstation/internal/monitor"
	"github.com/tamzrod/labelstation/internal/pipeline"
	"github.com/tamzrod/labelstation/internal/printer"
	"github.com/tamzrod/labelstation/internal/status"
	"github.com/tamzrod/labelstation/internal/store"
)

func main() {
	var (
		cfgPath   = flag.String("config", "labelstation.yaml", "path to the YAML configuration")
		listPorts = flag.Bool("list-ports", false, "list serial ports and exit")
		testData  = flag.String("test-data", "", "process one frame through the full pipeline and exit")
		debug     = flag.Bool("debug", false, "simulate printers and log at debug level")
		check     = flag.Bool("validate", false, "validate the configuration and exit")
	)
	flag.Parse()

	if *listPorts {
		ports, err := monitor.ListPorts()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *debug {
		cfg.Printers.Debug = true
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	if *check {
		fmt.Println("config OK")
		return
	}

	logger, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer closeLog()

	a, err := build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.close()

	if *testData != "" {
		code := runTestData(a, *testData)
		a.close()
		closeLog()
		os.Exit(code)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a); err != nil {
		logger.Error().Err(err).Msg("station stopped")
		a.close()
		closeLog()
		os.Exit(1)
	}
	logger.Info().Msg("station stopped")
}

// runTestData processes one frame and reports the outcome. Exit code 1
// when nothing parsed or the primary label did not print.
func runTestData(a *app, frame string) int {
	results := a.pipeline.HandleLine(frame)
	if len(results) == 0 {
		fmt.Println("no device parsed")
		return 1
	}

	code := 0
	for _, res := range results {
		fmt.Printf("serial=%s stc=%d status=%s pcb=%s archive=%s\n",
			res.Record.SerialNumber, res.STC, res.Status, res.Secondary, res.ArchiveFile)
		if res.Status != store.StatusPrinted {
			code = 1
		}
		if a.dispatcher.Debug() {
			if p, ok := a.dispatcher.LastProgram(a.cfg.Printers.Primary.Endpoint); ok {
				fmt.Println(p)
			}
		}
	}
	return code
}

func run(ctx context.Context, a *app) error {
	lines := make(chan string, 16)
	evs := make(chan pipeline.Event, 16)

	// --------------------
	// Consumers of finalized records
	// --------------------

	a.runner.OnDevice(func(res pipeline.Result) {
		fmt.Printf("[%s] serial=%s stc=%d pcb=%s\n", res.Status, res.Record.SerialNumber, res.STC, res.Secondary)
		if err := a.publisher.Publish(ctx, events.NewDeviceEvent(a.cfg.Status.StationName, res)); err != nil {
			a.log.Warn().Err(err).Msg("device event publish failed")
		}
	})
	a.runner.OnQueued(func(e pipeline.Entry) {
		fmt.Printf("[queued #%d] serial=%s stc=%d (print %d to confirm)\n", a.queue.Len(), e.Record.SerialNumber, e.STC, a.queue.Len())
	})

	// --------------------
	// Producer: serial monitor
	// --------------------

	if err := a.monitor.Start(ctx, lines); err != nil {
		a.metrics.SetMonitorState(int(monitor.Disconnected))
		return err
	}
	a.metrics.SetMonitorState(int(monitor.Monitoring))
	a.log.Info().
		Int("next_stc", a.pipeline.NextSTC()).
		Str("mode", string(a.runner.Mode())).
		Bool("debug_printers", a.dispatcher.Debug()).
		Msg("station ready")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.runner.Run(gctx, lines, evs)
		return nil
	})

	g.Go(func() error {
		return a.orchestrate(gctx, evs)
	})

	if a.cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(a.cfg.Metrics.Listen, a.cfg.Metrics.Path, a.metrics.Registry(), a.healthy, a.log.With().Str("component", "metrics").Logger())
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.monitor.Stop()
		a.metrics.SetMonitorState(int(monitor.Disconnected))
		return nil
	})

	if a.runner.Mode() == pipeline.ModeQueue {
		c := &console{ctx: gctx, p: a.pipeline, q: a.queue, r: a.runner, out: os.Stdout}
		fmt.Println(consoleHelp)
		// stdin reads cannot be interrupted; the goroutine dies with the process
		go c.run(gctx, os.Stdin)
	}

	return g.Wait()
}

func (a *app) healthy() error {
	if st := a.monitor.State(); st != monitor.Monitoring {
		return fmt.Errorf("serial monitor %s", st)
	}
	return nil
}

var errMonitorStopped = errors.New("serial monitor stopped; restart required")

// orchestrate drains pipeline events on one goroutine, owns the status
// snapshot and ticks seconds-in-error at 1 Hz.
func (a *app) orchestrate(ctx context.Context, evs <-chan pipeline.Event) error {
	var snap status.Snapshot
	snap.Health = status.HealthUnknown

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert) if enabled.
	a.writeStatus(snap, "start")

	monitorDone := a.monitor.Done()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-evs:
			if !ok {
				return nil
			}
			a.runner.Dispatch(ev)
			if ev.Queued {
				continue
			}

			stats := a.pipeline.Stats()
			snap.Printed = uint32(stats.SuccessfulPrints)
			snap.Failed = uint32(stats.FailedPrints)
			snap.ParseErrors = uint32(stats.ParseErrors)
			snap.LastSTC = uint32(ev.Result.STC)

			code := errorCode(ev.Result)
			if code == status.ErrorNone {
				// Recovery / OK
				snap.Health = status.HealthOK
				snap.LastErrorCode = status.ErrorNone
				snap.SecondsInError = 0
			} else {
				// NOTE: seconds_in_error increments on the 1Hz ticker only.
				snap.Health = status.HealthError
				snap.LastErrorCode = code
			}
			a.writeStatus(snap, "record")

		case <-monitorDone:
			monitorDone = nil
			if ctx.Err() != nil {
				return nil
			}
			a.metrics.SetMonitorState(int(monitor.Disconnected))
			snap.Health = status.HealthDisconnected
			snap.LastErrorCode = status.ErrorSerial
			a.writeStatus(snap, "disconnect")
			return errMonitorStopped

		case <-secTicker.C:
			// Tick 1 Hz while not OK.
			if snap.Health != status.HealthOK && snap.Health != status.HealthUnknown && snap.SecondsInError < 65535 {
				snap.SecondsInError++
				a.writeStatus(snap, "tick")
			}
		}
	}
}

func (a *app) writeStatus(s status.Snapshot, reason string) {
	if a.status == nil {
		return
	}
	if err := a.status.WriteStatus(s); err != nil {
		a.log.Warn().Err(err).Str("reason", reason).Msg("status write failed")
	}
}

// errorCode maps a record outcome onto the status block error code.
func errorCode(res pipeline.Result) uint16 {
	var te *label.TemplateError
	switch {
	case errors.As(res.Err, &te):
		return status.ErrorTemplate
	case res.Err != nil:
		return status.ErrorGeneric
	case !res.Primary:
		return status.ErrorPrimaryPrinter
	case res.Secondary == printer.Failed:
		return status.ErrorPCBPrinter
	}
	return status.ErrorNone
}
