// Package storetest provides an in-memory Store used by tests that exercise
// the batch pipeline without a database.
package storetest

import (
	"context"
	"sync"

	"github.com/chainscope/evm-token-indexer/internal/store"
	"github.com/chainscope/evm-token-indexer/internal/store/schema"
)

// MemRepo is an in-memory Repo implementation. It records call counts so
// tests can assert how often the pipeline hit the store.
type MemRepo[T any] struct {
	mu   sync.Mutex
	idOf func(*T) string

	Rows map[string]*T
	// GetCalls counts Get invocations per id
	GetCalls map[string]int
	// FindCalls counts Find invocations
	FindCalls int
	// SaveCalls counts Save invocations
	SaveCalls int
	// SaveErr, when set, is returned by every Save
	SaveErr error
}

// NewMemRepo creates an empty in-memory repo keyed by idOf
func NewMemRepo[T any](idOf func(*T) string) *MemRepo[T] {
	return &MemRepo[T]{
		idOf:     idOf,
		Rows:     make(map[string]*T),
		GetCalls: make(map[string]int),
	}
}

// Get returns the stored entity or nil when absent
func (r *MemRepo[T]) Get(_ context.Context, id string, _ ...string) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.GetCalls[id]++
	if entity, ok := r.Rows[id]; ok {
		return entity, nil
	}
	return nil, nil
}

// Find returns the stored entities for the given ids, skipping missing ones
func (r *MemRepo[T]) Find(_ context.Context, ids []string, _ ...string) ([]*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.FindCalls++
	var result []*T
	for _, id := range ids {
		if entity, ok := r.Rows[id]; ok {
			result = append(result, entity)
		}
	}
	return result, nil
}

// Save upserts the given entities
func (r *MemRepo[T]) Save(_ context.Context, entities []*T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.SaveCalls++
	if r.SaveErr != nil {
		return r.SaveErr
	}
	for _, entity := range entities {
		r.Rows[r.idOf(entity)] = entity
	}
	return nil
}

// MemStore is an in-memory store.Store
type MemStore struct {
	AccountRepo            *MemRepo[schema.Account]
	FTokenRepo             *MemRepo[schema.FToken]
	NFTokenRepo            *MemRepo[schema.NFToken]
	CollectionRepo         *MemRepo[schema.Collection]
	FtTransferRepo         *MemRepo[schema.FtTransfer]
	NftTransferRepo        *MemRepo[schema.NftTransfer]
	AccountFtTransferRepo  *MemRepo[schema.AccountFtTransfer]
	AccountNftTransferRepo *MemRepo[schema.AccountNftTransfer]
	FtBalanceRepo          *MemRepo[schema.AccountFtBalance]
	UriUpdateRepo          *MemRepo[schema.UriUpdateAction]

	mu      sync.Mutex
	cursors map[string]uint64
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		AccountRepo:            NewMemRepo(func(e *schema.Account) string { return e.ID }),
		FTokenRepo:             NewMemRepo(func(e *schema.FToken) string { return e.ID }),
		NFTokenRepo:            NewMemRepo(func(e *schema.NFToken) string { return e.ID }),
		CollectionRepo:         NewMemRepo(func(e *schema.Collection) string { return e.ID }),
		FtTransferRepo:         NewMemRepo(func(e *schema.FtTransfer) string { return e.ID }),
		NftTransferRepo:        NewMemRepo(func(e *schema.NftTransfer) string { return e.ID }),
		AccountFtTransferRepo:  NewMemRepo(func(e *schema.AccountFtTransfer) string { return e.ID }),
		AccountNftTransferRepo: NewMemRepo(func(e *schema.AccountNftTransfer) string { return e.ID }),
		FtBalanceRepo:          NewMemRepo(func(e *schema.AccountFtBalance) string { return e.ID }),
		UriUpdateRepo:          NewMemRepo(func(e *schema.UriUpdateAction) string { return e.ID }),
		cursors:                make(map[string]uint64),
	}
}

func (s *MemStore) Accounts() store.Repo[schema.Account]         { return s.AccountRepo }
func (s *MemStore) FTokens() store.Repo[schema.FToken]           { return s.FTokenRepo }
func (s *MemStore) NFTokens() store.Repo[schema.NFToken]         { return s.NFTokenRepo }
func (s *MemStore) Collections() store.Repo[schema.Collection]   { return s.CollectionRepo }
func (s *MemStore) FtTransfers() store.Repo[schema.FtTransfer]   { return s.FtTransferRepo }
func (s *MemStore) NftTransfers() store.Repo[schema.NftTransfer] { return s.NftTransferRepo }
func (s *MemStore) AccountFtTransfers() store.Repo[schema.AccountFtTransfer] {
	return s.AccountFtTransferRepo
}
func (s *MemStore) AccountNftTransfers() store.Repo[schema.AccountNftTransfer] {
	return s.AccountNftTransferRepo
}
func (s *MemStore) FtBalances() store.Repo[schema.AccountFtBalance] { return s.FtBalanceRepo }
func (s *MemStore) UriUpdates() store.Repo[schema.UriUpdateAction]  { return s.UriUpdateRepo }

// GetBlockCursor returns the stored cursor, zero when absent
func (s *MemStore) GetBlockCursor(_ context.Context, network string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[network], nil
}

// SetBlockCursor stores the cursor for a network
func (s *MemStore) SetBlockCursor(_ context.Context, network string, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[network] = blockNumber
	return nil
}
