package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casualjim/evctx/events"
	"github.com/casualjim/evctx/pkg/slogx"
	"github.com/casualjim/evctx/pkg/uuidx"
	"github.com/nats-io/nats.go"
)

// Subscription is a live NATS subscription feeding a Collector.
type Subscription struct {
	id      string
	subject string
	sub     *nats.Subscription
	logger  *slog.Logger
	done    chan struct{}
	once    sync.Once
}

// SubscribeNATS absorbs every event published on subject into c. Payloads
// are decoded with events.DecodeBatch, so a message may carry one event, a
// JSON array or JSON lines. The subscription ends when ctx is done or
// Unsubscribe is called.
func SubscribeNATS(ctx context.Context, nc *nats.Conn, subject string, r events.Resolver, c *Collector) (*Subscription, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection is required")
	}
	if c == nil {
		return nil, fmt.Errorf("collector is required")
	}

	s := &Subscription{
		id:      uuidx.New().String(),
		subject: subject,
		logger:  c.logger.With(slog.String("subject", subject)),
		done:    make(chan struct{}),
	}
	nsub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		evs, err := events.DecodeBatch(msg.Data, r)
		if err != nil {
			s.logger.Error("failed to decode events", slogx.Error(err))
			return
		}

		c.Absorb(evs...)

		if msg.Reply != "" {
			if nerr := msg.Ack(); nerr != nil {
				s.logger.Error("failed to ack message", slogx.Error(nerr))
				return
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = nsub

	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe()
		case <-s.done:
		}
	}()
	return s, nil
}

// ID returns the identity of the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Subject returns the NATS subject the subscription listens on.
func (s *Subscription) Subject() string {
	return s.subject
}

// Unsubscribe stops the delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Error("failed to unsubscribe", slogx.Error(err), slog.String("subscription", s.id))
		}
	})
}

// PublishNATS publishes evs on subject as a single JSON array.
func PublishNATS(nc *nats.Conn, subject string, evs ...*events.Event) error {
	data, err := events.EncodeBatch(evs)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nc.Publish(subject, data)
}
