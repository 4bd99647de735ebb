// Package events forwards committed contract events to a message broker
// where oracle nodes and other consumers pick them up.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/resilience"
)

// Publisher sends a message to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Nop discards every message. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }

// Guarded wraps a Publisher with a circuit breaker so a broker outage fails
// fast instead of stalling every request.
type Guarded struct {
	next    Publisher
	breaker *resilience.Breaker
}

// NewGuarded returns p protected by b.
func NewGuarded(p Publisher, b *resilience.Breaker) *Guarded {
	return &Guarded{next: p, breaker: b}
}

func (g *Guarded) Publish(ctx context.Context, subject string, data []byte) error {
	return g.breaker.Execute(func() error { return g.next.Publish(ctx, subject, data) })
}

func (g *Guarded) Close() error { return g.next.Close() }

// Subject returns the broker subject for a stored event. OracleRequest
// events are routed by job spec id so a node can subscribe to its jobs only.
func Subject(ev domain.Event, specID string) string {
	name := strings.ToLower(ev.Name)
	if specID != "" {
		return fmt.Sprintf("oracle.requests.%s", strings.TrimPrefix(specID, "0x"))
	}
	return "contract.events." + name
}

// Envelope is the message body published for a stored event.
type Envelope struct {
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	Name      string          `json:"name"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Forward publishes each event. Failures are logged and counted by the
// caller's metrics hook; they never undo the committed state.
func Forward(ctx context.Context, p Publisher, evs []domain.Event, specID func(domain.Event) string, onResult func(error)) {
	for _, ev := range evs {
		body, err := json.Marshal(Envelope{
			ID:        ev.EventID,
			Seq:       ev.Seq,
			Name:      ev.Name,
			RequestID: ev.RequestID,
			Payload:   json.RawMessage(ev.Payload),
		})
		if err == nil {
			err = p.Publish(ctx, Subject(ev, specID(ev)), body)
		}
		if err != nil {
			log.Warn().Err(err).Str("event", ev.Name).Uint64("seq", ev.Seq).Msg("event publish failed")
		}
		if onResult != nil {
			onResult(err)
		}
	}
}
