// cmd/labelstation/app.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/labelstation/internal/config"
	"github.com/tamzrod/labelstation/internal/events"
	"github.com/tamzrod/labelstation/internal/frame"
	"github.com/tamzrod/labelstation/internal/label"
	"github.com/tamzrod/labelstation/internal/metrics"
	"github.com/tamzrod/labelstation/internal/monitor"
	"github.com/tamzrod/labelstation/internal/pipeline"
	"github.com/tamzrod/labelstation/internal/printer"
	"github.com/tamzrod/labelstation/internal/sequence"
	"github.com/tamzrod/labelstation/internal/store"
	"github.com/tamzrod/labelstation/internal/writer"
	wmodbus "github.com/tamzrod/labelstation/internal/writer/modbus"
)

// app holds every wired component of one station.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	metrics    *metrics.Collector
	dispatcher *printer.Dispatcher
	records    *store.CSVLog
	pipeline   *pipeline.Pipeline
	queue      *pipeline.Queue
	runner     *pipeline.Runner
	monitor    *monitor.Monitor

	status    *writer.StatusWriter // nil when disabled
	publisher events.Publisher

	closers []func()
}

func build(cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New(), publisher: events.Nop{}}

	// ---- persistence ----
	records, err := store.NewCSVLog(cfg.Storage.CSVPath)
	if err != nil {
		return nil, err
	}
	a.records = records

	archive, err := store.NewArchive(cfg.Storage.ArchiveDir, cfg.Storage.ArchiveExt)
	if err != nil {
		return nil, err
	}

	// ---- template ----
	tmpl, err := loadTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}

	// ---- printers ----
	a.dispatcher = printer.NewDispatcher(
		printer.NewMux(time.Duration(cfg.Printers.TimeoutMs)*time.Millisecond),
		log.With().Str("component", "printer").Logger(),
	)
	a.dispatcher.SetDebug(cfg.Printers.Debug)
	a.dispatcher.SetObserver(a.metrics)

	// ---- sequence ----
	alloc := sequence.Recover(records, cfg.Sequence.InitialSTC, log.With().Str("component", "sequence").Logger())
	alloc.SetAutoIncrement(*cfg.Sequence.AutoIncrement)

	// ---- pipeline ----
	parser := frame.NewParser(
		frame.WithVendorPrefixes(cfg.Parser.VendorPrefixes),
		frame.WithLogger(log.With().Str("component", "parser").Logger()),
	)

	a.pipeline, err = pipeline.New(pipeline.Config{
		PrimaryEndpoint: cfg.Printers.Primary.Endpoint,
		PCBEndpoint:     cfg.Printers.PCB.Endpoint,
		PCBEnabled:      cfg.Printers.PCBEnabled(),
		Stream:          cfg.Parser.Mode == "stream",
	}, pipeline.Deps{
		Parser:     parser,
		Allocator:  alloc,
		Template:   tmpl,
		Dispatcher: a.dispatcher,
		Log:        records,
		Archive:    archive,
		Metrics:    a.metrics,
		Logger:     log.With().Str("component", "pipeline").Logger(),
	})
	if err != nil {
		return nil, err
	}
	a.queue = pipeline.NewQueue(a.pipeline)
	a.runner = pipeline.NewRunner(a.pipeline, a.queue, pipeline.Mode(cfg.Mode))

	// ---- serial ----
	a.monitor = monitor.New(
		monitor.SerialOpener(monitor.SerialConfig{
			Port:        cfg.Serial.Port,
			BaudRate:    cfg.Serial.BaudRate,
			DataBits:    cfg.Serial.DataBits,
			StopBits:    cfg.Serial.StopBits,
			Parity:      cfg.Serial.Parity,
			ReadTimeout: time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond,
		}),
		time.Duration(cfg.Serial.FlushTimeoutMs)*time.Millisecond,
		log.With().Str("component", "monitor").Str("port", cfg.Serial.Port).Logger(),
	)

	// ---- status block (optional) ----
	if cfg.Status.Enabled() {
		cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: cfg.Status.Endpoint,
			Timeout:  time.Duration(cfg.Status.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("status client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = cli.Close() })

		a.status, err = writer.NewStatusWriter(writer.StatusPlan{
			Endpoint:    cfg.Status.Endpoint,
			UnitID:      cfg.Status.UnitID,
			BaseSlot:    cfg.Status.BaseSlot,
			StationName: cfg.Status.StationName,
		}, cli)
		if err != nil {
			return nil, err
		}
	}

	// ---- events (optional) ----
	if cfg.Events.Enabled() {
		pub, err := events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.Subject, "labelstation", log.With().Str("component", "events").Logger())
		if err != nil {
			return nil, err
		}
		a.publisher = pub
		a.closers = append(a.closers, func() { _ = pub.Close() })
	}

	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func loadTemplate(cfg config.TemplateConfig) (*label.Template, error) {
	src := label.DefaultZPL
	if cfg.Path != "" {
		b, err := os.ReadFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("template: %w", err)
		}
		src = string(b)
	}

	if cfg.Strict != nil && !*cfg.Strict {
		return label.NewTemplate(src), nil
	}
	return label.ParseTemplate(src)
}
