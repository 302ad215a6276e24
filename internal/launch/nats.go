package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"signalconfig/internal/config"

	"github.com/nats-io/nats.go"
)

const defaultStreamMaxAge = 7 * 24 * time.Hour

// NATSPublisher publishes launch events into a JetStream stream.
// Params: NATS connection and publish subject settings.
// Returns: publisher implementation for nats mode.
type NATSPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewNATSPublisher connects, ensures the launch stream, and returns a publisher.
// Params: launch config section.
// Returns: initialized publisher or setup error.
func NewNATSPublisher(cfg config.LaunchConfig) (*NATSPublisher, error) {
	nc, js, err := openLaunchJetStream(cfg)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, js: js, subject: cfg.Subject}, nil
}

// Publish sends one event; the event ID doubles as the JetStream message ID.
// Params: context and event payload.
// Returns: publish error.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal launch event: %w", err)
	}
	msg := nats.NewMsg(p.subject)
	msg.Data = body
	if id := strings.TrimSpace(event.ID); id != "" {
		msg.Header.Set(nats.MsgIdHdr, id)
	}
	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish launch event: %w", err)
	}
	return nil
}

// Close closes publisher NATS connection.
// Params: none.
// Returns: nil after connection close.
func (p *NATSPublisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	p.nc.Close()
	return nil
}

// ensureStream ensures one JetStream stream exists with provided options.
// Params: JetStream context and stream settings.
// Returns: stream create/lookup error.
func ensureStream(js nats.JetStreamContext, streamName, subject string, maxAge time.Duration) error {
	if _, err := js.StreamInfo(streamName); err == nil {
		return nil
	} else if err != nats.ErrStreamNotFound && !strings.Contains(strings.ToLower(err.Error()), "stream not found") {
		return fmt.Errorf("stream info %q: %w", streamName, err)
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    maxAge,
	})
	if err != nil {
		return fmt.Errorf("create stream %q: %w", streamName, err)
	}
	return nil
}

// openLaunchJetStream opens connection/JetStream and ensures the launch stream exists.
// Params: launch config with URLs and stream/subject names.
// Returns: opened NATS connection, JetStream context, and setup error.
func openLaunchJetStream(cfg config.LaunchConfig) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(strings.Join(cfg.URL, ","))
	if err != nil {
		return nil, nil, fmt.Errorf("connect launch nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream init for launches: %w", err)
	}
	maxAge := cfg.MaxAge()
	if maxAge <= 0 {
		maxAge = defaultStreamMaxAge
	}
	if err := ensureStream(js, cfg.Stream, cfg.Subject, maxAge); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, js, nil
}
