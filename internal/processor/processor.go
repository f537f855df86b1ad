// Package processor orchestrates batch processing: decode, prefetch,
// resolve, flush. Each batch runs on a fresh set of caches, so no state
// leaks between batches.
package processor

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/decode"
	"github.com/chainscope/evm-token-indexer/internal/domain"
	"github.com/chainscope/evm-token-indexer/internal/enrich"
	"github.com/chainscope/evm-token-indexer/internal/ids"
	"github.com/chainscope/evm-token-indexer/internal/logger"
	"github.com/chainscope/evm-token-indexer/internal/messaging"
	"github.com/chainscope/evm-token-indexer/internal/metrics"
	"github.com/chainscope/evm-token-indexer/internal/resolver"
	"github.com/chainscope/evm-token-indexer/internal/source"
	"github.com/chainscope/evm-token-indexer/internal/store"
	"github.com/chainscope/evm-token-indexer/internal/uow"
)

// State is the lifecycle phase of one batch
type State string

const (
	StateInit        State = "INIT"
	StatePrefetching State = "PREFETCHING"
	StateProcessing  State = "PROCESSING"
	StateFlushing    State = "FLUSHING"
	StateDone        State = "DONE"
)

// BatchProcessor processes one fetched batch to completion
//
//go:generate mockgen -source=processor.go -destination=../mocks/processor.go -package=mocks -mock_names=BatchProcessor=MockBatchProcessor
type BatchProcessor interface {
	// ProcessBatch decodes, resolves and flushes one batch. A per-event
	// resolver failure skips the event; a prefetch or flush failure aborts
	// the whole batch.
	ProcessBatch(ctx context.Context, batch *source.Batch) error
}

type processor struct {
	store     store.Store
	enricher  enrich.Enricher
	publisher messaging.Publisher
	json      adapter.JSON
	clock     adapter.Clock
}

// NewProcessor creates a batch processor. publisher may be nil to disable
// transfer notifications.
func NewProcessor(s store.Store, enricher enrich.Enricher, publisher messaging.Publisher, jsonAdapter adapter.JSON, clock adapter.Clock) BatchProcessor {
	return &processor{
		store:     s,
		enricher:  enricher,
		publisher: publisher,
		json:      jsonAdapter,
		clock:     clock,
	}
}

// decodedEvent pairs a decoded payload with its chain coordinates
type decodedEvent struct {
	ctx     domain.EventContext
	decoded *decode.Decoded
}

func (p *processor) ProcessBatch(ctx context.Context, batch *source.Batch) error {
	batchID := ulid.Make().String()

	logger.DebugCtx(ctx, "starting batch",
		zap.String("batchID", batchID),
		zap.String("state", string(StateInit)),
		zap.Uint64("fromBlock", batch.FromBlock),
		zap.Uint64("toBlock", batch.ToBlock),
		zap.Int("events", batch.EventCount()))

	caches := uow.NewCaches(p.store)
	res := resolver.NewResolver(caches, p.enricher, p.json)

	// Decode once up front; decode misses are counted and dropped here so
	// the later phases only see well-formed events
	setState(ctx, batchID, StatePrefetching)
	events := make([]decodedEvent, 0, batch.EventCount())
	for _, block := range batch.Blocks {
		for _, event := range block.Events {
			decoded, ok := decode.TryDecode(event.Log)
			if !ok {
				metrics.DecodeMisses.Inc()
				logger.DebugCtx(ctx, "log matches no known event shape",
					zap.String("batchID", batchID),
					zap.String("eventID", event.ID),
					zap.String("contract", event.Log.Address.Hex()))
				continue
			}

			evt := domain.EventContext{
				EventID:         event.ID,
				EventIndex:      event.Index,
				BlockNumber:     block.Number,
				Timestamp:       block.Timestamp,
				TxHash:          event.Log.TxHash.Hex(),
				ContractAddress: event.Log.Address.Hex(),
			}
			events = append(events, decodedEvent{ctx: evt, decoded: decoded})

			if err := res.CollectPrefetchIDs(evt, decoded); err != nil {
				metrics.BatchFailures.Inc()
				return fmt.Errorf("failed to collect prefetch ids for event %s: %w", event.ID, err)
			}
		}
	}

	if err := caches.PrefetchAll(ctx); err != nil {
		metrics.BatchFailures.Inc()
		return fmt.Errorf("failed to prefetch batch %s: %w", batchID, err)
	}

	// Resolve in chain order. A failing event is logged and skipped; the
	// batch carries on.
	setState(ctx, batchID, StateProcessing)
	notifications := make([]messaging.TransferEvent, 0, len(events))
	for _, event := range events {
		if err := res.Resolve(ctx, event.ctx, event.decoded); err != nil {
			metrics.EventErrors.WithLabelValues(string(event.decoded.Kind)).Inc()
			logger.ErrorCtx(ctx, "failed to resolve event, skipping",
				zap.String("batchID", batchID),
				zap.String("eventID", event.ctx.EventID),
				zap.String("kind", string(event.decoded.Kind)),
				zap.Error(err))
			continue
		}
		metrics.EventsProcessed.WithLabelValues(string(event.decoded.Kind)).Inc()
		notifications = append(notifications, buildNotifications(event.ctx, event.decoded)...)
	}

	setState(ctx, batchID, StateFlushing)
	flushStart := p.clock.Now()
	if err := caches.FlushAll(ctx); err != nil {
		metrics.BatchFailures.Inc()
		return fmt.Errorf("failed to flush batch %s: %w", batchID, err)
	}
	metrics.FlushDuration.Observe(p.clock.Since(flushStart).Seconds())

	setState(ctx, batchID, StateDone)
	metrics.BatchesProcessed.Inc()
	metrics.LastIndexedBlock.Set(float64(batch.ToBlock))

	// Notifications go out only for committed data. Publishing is
	// best-effort: the broker dedups on transfer id if the batch reruns.
	if p.publisher != nil {
		for i := range notifications {
			if err := p.publisher.PublishTransfer(ctx, &notifications[i]); err != nil {
				logger.WarnCtx(ctx, "failed to publish transfer notification",
					zap.String("batchID", batchID),
					zap.String("transferID", notifications[i].TransferID),
					zap.Error(err))
			}
		}
	}

	logger.DebugCtx(ctx, "batch done",
		zap.String("batchID", batchID),
		zap.String("state", string(StateDone)),
		zap.Int("resolvedEvents", len(events)),
		zap.Int("notifications", len(notifications)))

	return nil
}

func setState(ctx context.Context, batchID string, next State) {
	logger.DebugCtx(ctx, "batch state transition",
		zap.String("batchID", batchID),
		zap.String("state", string(next)))
}

// buildNotifications derives the outbound transfer notifications of one
// resolved event. URI events produce none.
func buildNotifications(evt domain.EventContext, decoded *decode.Decoded) []messaging.TransferEvent {
	base := messaging.TransferEvent{
		ContractAddress: domain.NormalizeAddress(evt.ContractAddress),
		BlockNumber:     evt.BlockNumber,
		TxHash:          evt.TxHash,
		Timestamp:       evt.Timestamp,
	}

	switch decoded.Kind {
	case decode.KindERC20Transfer:
		payload := decoded.ERC20Transfer
		event := base
		event.TransferID = ids.FtTransfer(evt.EventID)
		event.Standard = string(domain.StandardERC20)
		event.TransferType = transferTypeLabel(payload.From, payload.To)
		event.TokenID = ids.FToken(evt.ContractAddress)
		event.From = ids.Account(payload.From)
		event.To = ids.Account(payload.To)
		event.Amount = payload.Value.String()
		return []messaging.TransferEvent{event}

	case decode.KindERC721Transfer:
		payload := decoded.ERC721Transfer
		event := base
		event.TransferID = ids.NftTransfer(evt.EventID, payload.TokenID.String())
		event.Standard = string(domain.StandardERC721)
		event.TransferType = transferTypeLabel(payload.From, payload.To)
		event.TokenID = ids.NFToken(evt.ContractAddress, payload.TokenID.String())
		event.From = ids.Account(payload.From)
		event.To = ids.Account(payload.To)
		event.Amount = "1"
		return []messaging.TransferEvent{event}

	case decode.KindERC1155TransferSingle:
		payload := decoded.ERC1155TransferSingle
		event := base
		event.TransferID = ids.NftTransfer(evt.EventID, payload.ID.String())
		event.Standard = string(domain.StandardERC1155)
		event.TransferType = transferTypeLabel(payload.From, payload.To)
		event.TokenID = ids.NFToken(evt.ContractAddress, payload.ID.String())
		event.From = ids.Account(payload.From)
		event.To = ids.Account(payload.To)
		event.Amount = payload.Value.String()
		return []messaging.TransferEvent{event}

	case decode.KindERC1155TransferBatch:
		payload := decoded.ERC1155TransferBatch
		events := make([]messaging.TransferEvent, 0, len(payload.IDs))
		for i, tokenID := range payload.IDs {
			event := base
			event.TransferID = ids.NftTransfer(evt.EventID, tokenID.String())
			event.Standard = string(domain.StandardERC1155)
			event.TransferType = transferTypeLabel(payload.From, payload.To)
			event.TokenID = ids.NFToken(evt.ContractAddress, tokenID.String())
			event.From = ids.Account(payload.From)
			event.To = ids.Account(payload.To)
			event.Amount = payload.Values[i].String()
			events = append(events, event)
		}
		return events
	}

	return nil
}

func transferTypeLabel(from string, to string) string {
	return string(domain.ClassifyTransfer(from, to))
}
