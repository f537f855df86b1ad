// Package source fetches token event logs from the chain and shapes them
// into batches: blocks in ascending order, events in log-index order within
// each block.
package source

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/decode"
	"github.com/chainscope/evm-token-indexer/internal/logger"
)

// DefaultMaxRetries bounds the retry attempts of one RPC call
const DefaultMaxRetries = 5

// Event is one raw log together with its deterministic id
type Event struct {
	// ID is the zero-padded "<block>-<logIndex>" event id
	ID string
	// Index is the position of the log within its block
	Index uint32
	// Log is the raw chain log
	Log coretypes.Log
}

// Block groups the events of one block with its timestamp
type Block struct {
	Number    uint64
	Timestamp time.Time
	Events    []Event
}

// Batch is one contiguous block range ready for processing. Blocks are
// ascending; blocks without matching logs are omitted.
type Batch struct {
	FromBlock uint64
	ToBlock   uint64
	Blocks    []Block
}

// EventCount returns the total number of events across the batch
func (b *Batch) EventCount() int {
	count := 0
	for _, block := range b.Blocks {
		count += len(block.Events)
	}
	return count
}

// EventID derives the deterministic event id from the log coordinates. The
// zero padding keeps lexicographic and chain order identical.
func EventID(blockNumber uint64, logIndex uint) string {
	return fmt.Sprintf("%010d-%06d", blockNumber, logIndex)
}

// Source defines the chain access the batch runner needs
//
//go:generate mockgen -source=source.go -destination=../mocks/source.go -package=mocks -mock_names=Source=MockSource
type Source interface {
	// FetchBatch fetches all token event logs in [fromBlock, toBlock]
	FetchBatch(ctx context.Context, fromBlock uint64, toBlock uint64) (*Batch, error)
	// LatestBlock returns the current chain head number
	LatestBlock(ctx context.Context) (uint64, error)
}

// Config holds the chain source configuration
type Config struct {
	// MaxRetries bounds the retry attempts of one RPC call
	MaxRetries uint64
}

type ethSource struct {
	client     adapter.EthClient
	maxRetries uint64
}

// NewEthSource creates a chain source on the given client
func NewEthSource(client adapter.EthClient, cfg Config) Source {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	return &ethSource{
		client:     client,
		maxRetries: maxRetries,
	}
}

// FetchBatch fetches all token event logs in the range and orders them into
// blocks ascending, events by log index ascending
func (s *ethSource) FetchBatch(ctx context.Context, fromBlock uint64, toBlock uint64) (*Batch, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Topics:    [][]common.Hash{decode.KnownTopics()},
	}

	var logs []coretypes.Log
	err := s.retry(ctx, func() error {
		var err error
		logs, err = s.client.FilterLogs(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs for blocks %d-%d: %w", fromBlock, toBlock, err)
	}

	byBlock := make(map[uint64][]coretypes.Log)
	for _, vLog := range logs {
		if vLog.Removed {
			logger.WarnCtx(ctx, "skipping removed log",
				zap.Uint64("blockNumber", vLog.BlockNumber),
				zap.Uint("logIndex", vLog.Index))
			continue
		}
		byBlock[vLog.BlockNumber] = append(byBlock[vLog.BlockNumber], vLog)
	}

	blockNumbers := make([]uint64, 0, len(byBlock))
	for number := range byBlock {
		blockNumbers = append(blockNumbers, number)
	}
	sort.Slice(blockNumbers, func(i, j int) bool { return blockNumbers[i] < blockNumbers[j] })

	batch := &Batch{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Blocks:    make([]Block, 0, len(blockNumbers)),
	}

	for _, number := range blockNumbers {
		timestamp, err := s.blockTimestamp(ctx, number)
		if err != nil {
			return nil, err
		}

		blockLogs := byBlock[number]
		sort.Slice(blockLogs, func(i, j int) bool { return blockLogs[i].Index < blockLogs[j].Index })

		events := make([]Event, 0, len(blockLogs))
		for _, vLog := range blockLogs {
			events = append(events, Event{
				ID:    EventID(vLog.BlockNumber, vLog.Index),
				Index: uint32(vLog.Index),
				Log:   vLog,
			})
		}

		batch.Blocks = append(batch.Blocks, Block{
			Number:    number,
			Timestamp: timestamp,
			Events:    events,
		})
	}

	return batch, nil
}

// LatestBlock returns the current chain head number
func (s *ethSource) LatestBlock(ctx context.Context) (uint64, error) {
	var latest uint64
	err := s.retry(ctx, func() error {
		var err error
		latest, err = s.client.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return latest, nil
}

func (s *ethSource) blockTimestamp(ctx context.Context, number uint64) (time.Time, error) {
	var header *coretypes.Header
	err := s.retry(ctx, func() error {
		var err error
		header, err = s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		return err
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get header of block %d: %w", number, err)
	}

	return time.Unix(int64(header.Time), 0).UTC(), nil
}

func (s *ethSource) retry(ctx context.Context, operation func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	return backoff.Retry(operation, policy)
}
