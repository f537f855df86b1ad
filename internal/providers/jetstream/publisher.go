// Package jetstream implements the transfer notification publisher on NATS
// JetStream.
package jetstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/logger"
	"github.com/chainscope/evm-token-indexer/internal/messaging"
	"github.com/chainscope/evm-token-indexer/internal/metrics"
)

// Config holds the configuration for the NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc   adapter.NatsConn
	js   adapter.JetStream
	json adapter.JSON
}

// NewPublisher connects to NATS and ensures the transfer stream exists
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{"transfers.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	return &publisher{
		nc:   nc,
		js:   js,
		json: jsonAdapter,
	}, nil
}

// PublishTransfer publishes one transfer notification. The transfer id is
// set as the message id so redelivered batches dedup on the broker.
func (p *publisher) PublishTransfer(ctx context.Context, event *messaging.TransferEvent) error {
	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer event: %w", err)
	}

	subject := buildSubject(event)

	_, err = p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.TransferID))
	if err != nil {
		return fmt.Errorf("failed to publish transfer event: %w", err)
	}

	metrics.TransfersPublished.WithLabelValues(event.Standard).Inc()

	return nil
}

// buildSubject constructs the NATS subject for the event.
// Format: transfers.{standard}.{transfer_type}
// e.g., transfers.erc20.mint, transfers.erc1155.transfer
func buildSubject(event *messaging.TransferEvent) string {
	return fmt.Sprintf("transfers.%s.%s", event.Standard, strings.ToLower(event.TransferType))
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
