// internal/events/nats.go
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes DeviceEvents as JSON on one subject.
type NATSPublisher struct {
	nc      conn
	subject string
	log     zerolog.Logger
}

// ConnectNATS dials url. The connection keeps retrying in the background
// so a broker outage at startup never blocks printing.
func ConnectNATS(url, subject, name string, log zerolog.Logger) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: nats connect %s: %w", url, err)
	}
	return newNATSPublisher(nc, subject, log), nil
}

func newNATSPublisher(nc conn, subject string, log zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject, log: log}
}

// Publish sends ev. The context only gates the call; nats publishes are buffered.
func (p *NATSPublisher) Publish(ctx context.Context, ev DeviceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", p.subject, err)
	}
	p.log.Debug().Str("subject", p.subject).Str("serial", ev.Serial).Int("stc", ev.STC).Msg("device event published")
	return nil
}

// Subject returns the publish subject.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
