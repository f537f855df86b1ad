package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/chainscope/evm-token-indexer/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving block cursors.
// The cursor is advanced only after a batch has flushed, so a restart resumes
// from the last committed block.
type CursorStore interface {
	// GetBlockCursor retrieves the last committed block number for a network
	GetBlockCursor(ctx context.Context, network string) (uint64, error)
	// SetBlockCursor stores the last committed block number for a network
	SetBlockCursor(ctx context.Context, network string, blockNumber uint64) error
}

type cursorStore struct {
	db *gorm.DB
}

// NewCursorStore creates a new cursor store
func NewCursorStore(db *gorm.DB) CursorStore {
	return &cursorStore{db: db}
}

// GetBlockCursor retrieves the last committed block number for a network
func (s *cursorStore) GetBlockCursor(ctx context.Context, network string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", network)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // Return 0 if no cursor exists
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last committed block number for a network
func (s *cursorStore) SetBlockCursor(ctx context.Context, network string, blockNumber uint64) error {
	key := fmt.Sprintf("block_cursor:%s", network)
	value := strconv.FormatUint(blockNumber, 10)

	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
