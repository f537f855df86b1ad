package store

import (
	"context"

	"github.com/chainscope/evm-token-indexer/internal/store/schema"
)

// FindChunkSize caps the number of ids per bulk find query. Bulk lookups
// are split into chunks of this size to keep IN clauses bounded.
const FindChunkSize = 1000

// Repo defines the durable-store operations for one entity kind.
// Entities are keyed by their deterministic string id.
type Repo[T any] interface {
	// Get retrieves a single entity by id, returning nil when absent
	Get(ctx context.Context, id string, preloads ...string) (*T, error)
	// Find retrieves entities for the given ids, chunking the query as needed.
	// Missing ids are simply absent from the result.
	Find(ctx context.Context, ids []string, preloads ...string) ([]*T, error)
	// Save bulk-upserts the given entities in batches
	Save(ctx context.Context, entities []*T) error
}

// Store defines the interface for database operations
type Store interface {
	Accounts() Repo[schema.Account]
	FTokens() Repo[schema.FToken]
	NFTokens() Repo[schema.NFToken]
	Collections() Repo[schema.Collection]
	FtTransfers() Repo[schema.FtTransfer]
	NftTransfers() Repo[schema.NftTransfer]
	AccountFtTransfers() Repo[schema.AccountFtTransfer]
	AccountNftTransfers() Repo[schema.AccountNftTransfer]
	FtBalances() Repo[schema.AccountFtBalance]
	UriUpdates() Repo[schema.UriUpdateAction]

	CursorStore
}
