package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/logger"
	"github.com/chainscope/evm-token-indexer/internal/source"
	"github.com/chainscope/evm-token-indexer/internal/store"
)

// RunnerConfig holds the batch loop configuration
type RunnerConfig struct {
	// Network names the chain for cursor bookkeeping (e.g. "ethereum")
	Network string
	// BatchSize is the maximum block span of one batch
	BatchSize uint64
	// PollInterval is the wait between head checks when caught up
	PollInterval time.Duration
	// StartBlock is where indexing begins when no cursor exists yet
	StartBlock uint64
	// Confirmations is how many blocks behind head the runner stays to
	// avoid processing blocks that may still reorg
	Confirmations uint64
}

// Runner drives the batch loop: read cursor, fetch a block range, process
// it, advance the cursor. The cursor only moves after a successful flush,
// so a crash replays the last range and the upserts absorb the rerun.
type Runner struct {
	source    source.Source
	cursor    store.CursorStore
	processor BatchProcessor
	clock     adapter.Clock
	cfg       RunnerConfig
}

// NewRunner creates a batch loop runner
func NewRunner(src source.Source, cursor store.CursorStore, proc BatchProcessor, clock adapter.Clock, cfg RunnerConfig) *Runner {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 12 * time.Second
	}

	return &Runner{
		source:    src,
		cursor:    cursor,
		processor: proc,
		clock:     clock,
		cfg:       cfg,
	}
}

// Run loops until the context is canceled
func (r *Runner) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "starting batch runner",
		zap.String("network", r.cfg.Network),
		zap.Uint64("batchSize", r.cfg.BatchSize),
		zap.Duration("pollInterval", r.cfg.PollInterval))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		processed, err := r.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.ErrorCtx(ctx, "batch iteration failed", zap.Error(err))
		}

		if err != nil || !processed {
			if !r.sleep(ctx) {
				return nil
			}
		}
	}
}

// RunOnce executes a single iteration. It returns false when the runner is
// caught up with the chain head and there is nothing to process.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	cursor, err := r.cursor.GetBlockCursor(ctx, r.cfg.Network)
	if err != nil {
		return false, err
	}

	from := cursor + 1
	if cursor == 0 && r.cfg.StartBlock > from {
		from = r.cfg.StartBlock
	}

	latest, err := r.source.LatestBlock(ctx)
	if err != nil {
		return false, err
	}

	head := latest
	if r.cfg.Confirmations < head {
		head -= r.cfg.Confirmations
	} else {
		head = 0
	}

	if from > head {
		return false, nil
	}

	to := from + r.cfg.BatchSize - 1
	if to > head {
		to = head
	}

	batch, err := r.source.FetchBatch(ctx, from, to)
	if err != nil {
		return false, err
	}

	if err := r.processor.ProcessBatch(ctx, batch); err != nil {
		return false, err
	}

	if err := r.cursor.SetBlockCursor(ctx, r.cfg.Network, to); err != nil {
		return false, err
	}

	logger.InfoCtx(ctx, "batch committed",
		zap.String("network", r.cfg.Network),
		zap.Uint64("fromBlock", from),
		zap.Uint64("toBlock", to),
		zap.Int("events", batch.EventCount()))

	return true, nil
}

func (r *Runner) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(r.cfg.PollInterval):
		return true
	}
}
