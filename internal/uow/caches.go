package uow

import (
	"context"
	"fmt"

	"github.com/chainscope/evm-token-indexer/internal/store"
	"github.com/chainscope/evm-token-indexer/internal/store/schema"
)

// Caches aggregates one unit-of-work cache per entity kind for a single
// batch. A new instance is created per batch; instances are never reused
// after FlushAll.
type Caches struct {
	Accounts            *Cache[schema.Account]
	Collections         *Cache[schema.Collection]
	FTokens             *Cache[schema.FToken]
	NFTokens            *Cache[schema.NFToken]
	FtBalances          *Cache[schema.AccountFtBalance]
	FtTransfers         *Cache[schema.FtTransfer]
	NftTransfers        *Cache[schema.NftTransfer]
	AccountFtTransfers  *Cache[schema.AccountFtTransfer]
	AccountNftTransfers *Cache[schema.AccountNftTransfer]
	UriUpdates          *Cache[schema.UriUpdateAction]
}

// NewCaches binds a fresh set of caches to the durable store
func NewCaches(s store.Store) *Caches {
	return &Caches{
		Accounts:            NewCache(s.Accounts(), func(e *schema.Account) string { return e.ID }),
		Collections:         NewCache(s.Collections(), func(e *schema.Collection) string { return e.ID }),
		FTokens:             NewCache(s.FTokens(), func(e *schema.FToken) string { return e.ID }),
		NFTokens:            NewCache(s.NFTokens(), func(e *schema.NFToken) string { return e.ID }),
		FtBalances:          NewCache(s.FtBalances(), func(e *schema.AccountFtBalance) string { return e.ID }),
		FtTransfers:         NewCache(s.FtTransfers(), func(e *schema.FtTransfer) string { return e.ID }),
		NftTransfers:        NewCache(s.NftTransfers(), func(e *schema.NftTransfer) string { return e.ID }),
		AccountFtTransfers:  NewCache(s.AccountFtTransfers(), func(e *schema.AccountFtTransfer) string { return e.ID }),
		AccountNftTransfers: NewCache(s.AccountNftTransfers(), func(e *schema.AccountNftTransfer) string { return e.ID }),
		UriUpdates:          NewCache(s.UriUpdates(), func(e *schema.UriUpdateAction) string { return e.ID }),
	}
}

// PrefetchAll bulk-loads the accumulated prefetch ids of every cache
func (c *Caches) PrefetchAll(ctx context.Context) error {
	if err := c.Accounts.PrefetchAll(ctx); err != nil {
		return fmt.Errorf("failed to prefetch accounts: %w", err)
	}
	if err := c.Collections.PrefetchAll(ctx); err != nil {
		return fmt.Errorf("failed to prefetch collections: %w", err)
	}
	if err := c.FTokens.PrefetchAll(ctx); err != nil {
		return fmt.Errorf("failed to prefetch ft tokens: %w", err)
	}
	if err := c.NFTokens.PrefetchAll(ctx); err != nil {
		return fmt.Errorf("failed to prefetch nf tokens: %w", err)
	}
	if err := c.FtBalances.PrefetchAll(ctx); err != nil {
		return fmt.Errorf("failed to prefetch ft balances: %w", err)
	}
	return nil
}

// FlushAll persists every cache in a fixed deterministic order. Parent
// entities flush before the rows that reference them so foreign keys are
// satisfied within one batch.
func (c *Caches) FlushAll(ctx context.Context) error {
	steps := []struct {
		name  string
		flush func(context.Context) error
	}{
		{"accounts", c.Accounts.FlushAll},
		{"collections", c.Collections.FlushAll},
		{"ft_tokens", c.FTokens.FlushAll},
		{"nf_tokens", c.NFTokens.FlushAll},
		{"ft_balances", c.FtBalances.FlushAll},
		{"ft_transfers", c.FtTransfers.FlushAll},
		{"nft_transfers", c.NftTransfers.FlushAll},
		{"account_ft_transfers", c.AccountFtTransfers.FlushAll},
		{"account_nft_transfers", c.AccountNftTransfers.FlushAll},
		{"uri_update_actions", c.UriUpdates.FlushAll},
	}

	for _, step := range steps {
		if err := step.flush(ctx); err != nil {
			return fmt.Errorf("failed to flush %s: %w", step.name, err)
		}
	}

	return nil
}
