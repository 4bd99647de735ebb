package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// StreamName is the JetStream stream holding contract events.
const StreamName = "RENTAL"

// NATS publishes to a JetStream stream.
type NATS struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// ConnectNATS connects to url and ensures the stream exists.
func ConnectNATS(ctx context.Context, url string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("rentald"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"oracle.requests.>", "contract.events.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	log.Info().Str("url", url).Str("stream", StreamName).Msg("nats connected")
	return &NATS{nc: nc, js: js}, nil
}

// Publish sends data to subject and waits for the stream ack.
func (n *NATS) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}
