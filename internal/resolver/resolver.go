// Package resolver materializes decoded token events into entities held in
// the batch caches. Resolvers never write to the durable store directly;
// everything they touch is persisted by the batch flush.
package resolver

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/decode"
	"github.com/chainscope/evm-token-indexer/internal/domain"
	"github.com/chainscope/evm-token-indexer/internal/enrich"
	"github.com/chainscope/evm-token-indexer/internal/ids"
	"github.com/chainscope/evm-token-indexer/internal/logger"
	"github.com/chainscope/evm-token-indexer/internal/store/schema"
	"github.com/chainscope/evm-token-indexer/internal/types"
	"github.com/chainscope/evm-token-indexer/internal/uow"
)

// Resolver applies decoded events to one batch's caches
type Resolver struct {
	caches   *uow.Caches
	enricher enrich.Enricher
	json     adapter.JSON
}

// NewResolver creates a resolver bound to one batch's caches
func NewResolver(caches *uow.Caches, enricher enrich.Enricher, json adapter.JSON) *Resolver {
	return &Resolver{
		caches:   caches,
		enricher: enricher,
		json:     json,
	}
}

// Resolve dispatches a decoded event to its handler
func (r *Resolver) Resolve(ctx context.Context, evt domain.EventContext, decoded *decode.Decoded) error {
	switch decoded.Kind {
	case decode.KindERC20Transfer:
		return r.ResolveERC20Transfer(ctx, evt, decoded.ERC20Transfer)
	case decode.KindERC721Transfer:
		return r.ResolveERC721Transfer(ctx, evt, decoded.ERC721Transfer)
	case decode.KindERC1155TransferSingle:
		return r.ResolveERC1155TransferSingle(ctx, evt, decoded.ERC1155TransferSingle)
	case decode.KindERC1155TransferBatch:
		return r.ResolveERC1155TransferBatch(ctx, evt, decoded.ERC1155TransferBatch)
	case decode.KindERC1155URI:
		return r.ResolveERC1155URI(ctx, evt, decoded.ERC1155URI)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownEventShape, decoded.Kind)
	}
}

// CollectPrefetchIDs registers every id the event will touch so the batch
// prefetch can bulk-load them in one round trip per entity kind
func (r *Resolver) CollectPrefetchIDs(evt domain.EventContext, decoded *decode.Decoded) error {
	switch decoded.Kind {
	case decode.KindERC20Transfer:
		payload := decoded.ERC20Transfer
		fromID := ids.Account(payload.From)
		toID := ids.Account(payload.To)
		tokenID := ids.FToken(evt.ContractAddress)
		if err := r.caches.Accounts.AddPrefetchIDs(fromID, toID); err != nil {
			return err
		}
		if err := r.caches.FTokens.AddPrefetchIDs(tokenID); err != nil {
			return err
		}
		balanceIDs := make([]string, 0, 2)
		if !domain.IsZeroAddress(payload.From) {
			balanceIDs = append(balanceIDs, ids.AccountBalance(fromID, tokenID))
		}
		if !domain.IsZeroAddress(payload.To) {
			balanceIDs = append(balanceIDs, ids.AccountBalance(toID, tokenID))
		}
		if len(balanceIDs) > 0 {
			if err := r.caches.FtBalances.AddPrefetchIDs(balanceIDs...); err != nil {
				return err
			}
		}

	case decode.KindERC721Transfer:
		payload := decoded.ERC721Transfer
		if err := r.caches.Accounts.AddPrefetchIDs(ids.Account(payload.From), ids.Account(payload.To)); err != nil {
			return err
		}
		if err := r.caches.Collections.AddPrefetchIDs(ids.Collection(evt.ContractAddress)); err != nil {
			return err
		}
		if err := r.caches.NFTokens.AddPrefetchIDs(ids.NFToken(evt.ContractAddress, payload.TokenID.String())); err != nil {
			return err
		}

	case decode.KindERC1155TransferSingle:
		payload := decoded.ERC1155TransferSingle
		if err := r.caches.Accounts.AddPrefetchIDs(ids.Account(payload.From), ids.Account(payload.To), ids.Account(payload.Operator)); err != nil {
			return err
		}
		if err := r.caches.Collections.AddPrefetchIDs(ids.Collection(evt.ContractAddress)); err != nil {
			return err
		}
		if err := r.caches.NFTokens.AddPrefetchIDs(ids.NFToken(evt.ContractAddress, payload.ID.String())); err != nil {
			return err
		}

	case decode.KindERC1155TransferBatch:
		payload := decoded.ERC1155TransferBatch
		if err := r.caches.Accounts.AddPrefetchIDs(ids.Account(payload.From), ids.Account(payload.To), ids.Account(payload.Operator)); err != nil {
			return err
		}
		if err := r.caches.Collections.AddPrefetchIDs(ids.Collection(evt.ContractAddress)); err != nil {
			return err
		}
		tokenIDs := make([]string, 0, len(payload.IDs))
		for _, tokenID := range payload.IDs {
			tokenIDs = append(tokenIDs, ids.NFToken(evt.ContractAddress, tokenID.String()))
		}
		if err := r.caches.NFTokens.AddPrefetchIDs(tokenIDs...); err != nil {
			return err
		}

	case decode.KindERC1155URI:
		payload := decoded.ERC1155URI
		if err := r.caches.NFTokens.AddPrefetchIDs(ids.NFToken(evt.ContractAddress, payload.ID.String())); err != nil {
			return err
		}
	}

	return nil
}

// ResolveERC20Transfer materializes a fungible transfer: accounts, token,
// running balances, the transfer row and its account join rows
func (r *Resolver) ResolveERC20Transfer(ctx context.Context, evt domain.EventContext, payload *decode.ERC20Transfer) error {
	from, err := r.ensureAccount(ctx, payload.From)
	if err != nil {
		return err
	}
	to, err := r.ensureAccount(ctx, payload.To)
	if err != nil {
		return err
	}
	token, err := r.ensureFToken(ctx, evt)
	if err != nil {
		return err
	}

	if !domain.IsZeroAddress(from.ID) {
		if err := r.applyFtBalanceDelta(ctx, evt, from.ID, token.ID, new(big.Int).Neg(payload.Value)); err != nil {
			return err
		}
	}
	if !domain.IsZeroAddress(to.ID) {
		if err := r.applyFtBalanceDelta(ctx, evt, to.ID, token.ID, payload.Value); err != nil {
			return err
		}
	}

	raw, err := r.marshalRaw(payload)
	if err != nil {
		return err
	}

	transfer := &schema.FtTransfer{
		ID:            ids.FtTransfer(evt.EventID),
		TokenID:       token.ID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        payload.Value.String(),
		TransferType:  schema.TransferType(domain.ClassifyTransfer(from.ID, to.ID)),
		BlockNumber:   evt.BlockNumber,
		EventIndex:    evt.EventIndex,
		TxHash:        evt.TxHash,
		Timestamp:     evt.Timestamp,
		Raw:           raw,
	}
	if err := r.caches.FtTransfers.Add(transfer); err != nil {
		return err
	}

	if err := r.caches.AccountFtTransfers.Add(&schema.AccountFtTransfer{
		ID:         ids.AccountTransfer(from.ID, transfer.ID),
		AccountID:  from.ID,
		TransferID: transfer.ID,
		Direction:  schema.DirectionFrom,
	}); err != nil {
		return err
	}
	if err := r.caches.AccountFtTransfers.Add(&schema.AccountFtTransfer{
		ID:         ids.AccountTransfer(to.ID, transfer.ID),
		AccountID:  to.ID,
		TransferID: transfer.ID,
		Direction:  schema.DirectionTo,
	}); err != nil {
		return err
	}

	recordActivity(from, to)

	return nil
}

// ResolveERC721Transfer materializes a single-token NFT transfer
func (r *Resolver) ResolveERC721Transfer(ctx context.Context, evt domain.EventContext, payload *decode.ERC721Transfer) error {
	from, err := r.ensureAccount(ctx, payload.From)
	if err != nil {
		return err
	}
	to, err := r.ensureAccount(ctx, payload.To)
	if err != nil {
		return err
	}

	raw, err := r.marshalRaw(payload)
	if err != nil {
		return err
	}

	return r.resolveNftMovement(ctx, evt, nftMovement{
		standard: domain.StandardERC721,
		nativeID: payload.TokenID,
		from:     from,
		to:       to,
		amount:   big.NewInt(1),
		raw:      raw,
	})
}

// ResolveERC1155TransferSingle materializes one multi-token transfer
func (r *Resolver) ResolveERC1155TransferSingle(ctx context.Context, evt domain.EventContext, payload *decode.ERC1155TransferSingle) error {
	from, err := r.ensureAccount(ctx, payload.From)
	if err != nil {
		return err
	}
	to, err := r.ensureAccount(ctx, payload.To)
	if err != nil {
		return err
	}
	operator, err := r.ensureAccount(ctx, payload.Operator)
	if err != nil {
		return err
	}

	raw, err := r.marshalRaw(payload)
	if err != nil {
		return err
	}

	return r.resolveNftMovement(ctx, evt, nftMovement{
		standard: domain.StandardERC1155,
		nativeID: payload.ID,
		from:     from,
		to:       to,
		operator: operator,
		amount:   payload.Value,
		raw:      raw,
	})
}

// ResolveERC1155TransferBatch fans a batch event out into one logical
// transfer per (id, value) pair, all sharing the event id prefix
func (r *Resolver) ResolveERC1155TransferBatch(ctx context.Context, evt domain.EventContext, payload *decode.ERC1155TransferBatch) error {
	if len(payload.IDs) != len(payload.Values) {
		return fmt.Errorf("batch event %s: %d ids but %d values", evt.EventID, len(payload.IDs), len(payload.Values))
	}

	from, err := r.ensureAccount(ctx, payload.From)
	if err != nil {
		return err
	}
	to, err := r.ensureAccount(ctx, payload.To)
	if err != nil {
		return err
	}
	operator, err := r.ensureAccount(ctx, payload.Operator)
	if err != nil {
		return err
	}

	raw, err := r.marshalRaw(payload)
	if err != nil {
		return err
	}

	for i, tokenID := range payload.IDs {
		err := r.resolveNftMovement(ctx, evt, nftMovement{
			standard: domain.StandardERC1155,
			nativeID: tokenID,
			from:     from,
			to:       to,
			operator: operator,
			amount:   payload.Values[i],
			isBatch:  true,
			raw:      raw,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// ResolveERC1155URI records a uri change for an already-indexed token. A URI
// event for a token the pipeline has never seen is an error: there is no
// transfer to anchor the token row on.
func (r *Resolver) ResolveERC1155URI(ctx context.Context, evt domain.EventContext, payload *decode.ERC1155URI) error {
	tokenID := ids.NFToken(evt.ContractAddress, payload.ID.String())

	token, err := r.caches.NFTokens.Get(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to get token %s: %w", tokenID, err)
	}
	if token == nil {
		return fmt.Errorf("uri event %s references token %s: %w", evt.EventID, tokenID, domain.ErrTokenNotFound)
	}

	action := &schema.UriUpdateAction{
		ID:          ids.UriUpdate(evt.EventID),
		TokenID:     token.ID,
		OldURI:      token.URI,
		NewURI:      payload.Value,
		BlockNumber: evt.BlockNumber,
		TxHash:      evt.TxHash,
		Timestamp:   evt.Timestamp,
	}
	if err := r.caches.UriUpdates.Add(action); err != nil {
		return err
	}

	token.URI = enrich.Sanitize(payload.Value)

	return nil
}

// nftMovement is one logical NFT transfer, shared between the ERC721 path
// and both ERC1155 paths
type nftMovement struct {
	standard domain.Standard
	nativeID *big.Int
	from     *schema.Account
	to       *schema.Account
	operator *schema.Account
	amount   *big.Int
	isBatch  bool
	raw      datatypes.JSON
}

func (r *Resolver) resolveNftMovement(ctx context.Context, evt domain.EventContext, mv nftMovement) error {
	collection, err := r.ensureCollection(ctx, evt, mv.standard)
	if err != nil {
		return err
	}
	token, err := r.ensureNFToken(ctx, evt, mv.standard, mv.nativeID, collection.ID)
	if err != nil {
		return err
	}

	transferType := domain.ClassifyTransfer(mv.from.ID, mv.to.ID)

	switch transferType {
	case domain.TransferTypeMint:
		updated, err := types.AddNumeric(token.Amount, mv.amount.String())
		if err != nil {
			return fmt.Errorf("failed to update amount of token %s: %w", token.ID, err)
		}
		token.Amount = updated
	case domain.TransferTypeBurn:
		updated, err := types.SubNumeric(token.Amount, mv.amount.String())
		if err != nil {
			return fmt.Errorf("failed to update amount of token %s: %w", token.ID, err)
		}
		token.Amount = updated
	case domain.TransferTypeTransfer:
		// A plain transfer of a token first seen mid-history: adopt the
		// observed amount as the supply baseline
		if !types.IsPositiveNumeric(token.Amount) {
			token.Amount = mv.amount.String()
		}
	}

	if mv.standard == domain.StandardERC721 {
		token.Burned = transferType == domain.TransferTypeBurn
		if token.Burned {
			token.CurrentOwner = nil
		} else {
			token.CurrentOwner = &mv.to.ID
		}
	} else {
		token.Burned = !types.IsPositiveNumeric(token.Amount)
	}

	var operatorID *string
	if mv.operator != nil {
		operatorID = &mv.operator.ID
	}

	transfer := &schema.NftTransfer{
		ID:                ids.NftTransfer(evt.EventID, mv.nativeID.String()),
		TokenID:           token.ID,
		FromAccountID:     mv.from.ID,
		ToAccountID:       mv.to.ID,
		OperatorAccountID: operatorID,
		Amount:            mv.amount.String(),
		TransferType:      schema.TransferType(transferType),
		IsBatch:           mv.isBatch,
		BlockNumber:       evt.BlockNumber,
		EventIndex:        evt.EventIndex,
		TxHash:            evt.TxHash,
		Timestamp:         evt.Timestamp,
		Raw:               mv.raw,
	}
	if err := r.caches.NftTransfers.Add(transfer); err != nil {
		return err
	}

	if err := r.caches.AccountNftTransfers.Add(&schema.AccountNftTransfer{
		ID:         ids.AccountTransfer(mv.from.ID, transfer.ID),
		AccountID:  mv.from.ID,
		TransferID: transfer.ID,
		Direction:  schema.DirectionFrom,
	}); err != nil {
		return err
	}
	if err := r.caches.AccountNftTransfers.Add(&schema.AccountNftTransfer{
		ID:         ids.AccountTransfer(mv.to.ID, transfer.ID),
		AccountID:  mv.to.ID,
		TransferID: transfer.ID,
		Direction:  schema.DirectionTo,
	}); err != nil {
		return err
	}
	// The operator join row is skipped when the operator is already an
	// endpoint: both rows would share an id
	if mv.operator != nil && mv.operator.ID != mv.from.ID && mv.operator.ID != mv.to.ID {
		if err := r.caches.AccountNftTransfers.Add(&schema.AccountNftTransfer{
			ID:         ids.AccountTransfer(mv.operator.ID, transfer.ID),
			AccountID:  mv.operator.ID,
			TransferID: transfer.ID,
			Direction:  schema.DirectionOperator,
		}); err != nil {
			return err
		}
	}

	recordActivity(mv.from, mv.to)

	return nil
}

// ensureAccount returns the account for the address, creating it in the
// cache on first sight. The zero address gets a row like any other.
func (r *Resolver) ensureAccount(ctx context.Context, address string) (*schema.Account, error) {
	id := ids.Account(address)

	account, err := r.caches.Accounts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	if account == nil {
		account = &schema.Account{ID: id}
		if err := r.caches.Accounts.Add(account); err != nil {
			return nil, err
		}
	}

	return account, nil
}

// ensureFToken returns the fungible token for the emitting contract,
// enriching on first sight. Existing rows with missing name or symbol are
// re-enriched; decimals is never patched after creation.
func (r *Resolver) ensureFToken(ctx context.Context, evt domain.EventContext) (*schema.FToken, error) {
	id := ids.FToken(evt.ContractAddress)

	token, err := r.caches.FTokens.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ft token %s: %w", id, err)
	}

	if token == nil {
		details := r.enricher.ReadDetails(ctx, evt.ContractAddress, domain.StandardERC20, evt.BlockNumber, nil)
		token = &schema.FToken{
			ID:              id,
			ContractAddress: id,
			Standard:        schema.StandardERC20,
			Name:            details.Name,
			Symbol:          details.Symbol,
			Decimals:        details.Decimals,
		}
		if err := r.caches.FTokens.Add(token); err != nil {
			return nil, err
		}
		return token, nil
	}

	if types.StringNilOrEmpty(token.Name) || types.StringNilOrEmpty(token.Symbol) {
		details := r.enricher.ReadDetails(ctx, evt.ContractAddress, domain.StandardERC20, evt.BlockNumber, nil)
		if types.StringNilOrEmpty(token.Name) {
			token.Name = details.Name
		}
		if types.StringNilOrEmpty(token.Symbol) {
			token.Symbol = details.Symbol
		}
	}

	return token, nil
}

// ensureCollection returns the collection for the emitting contract,
// enriching on first sight
func (r *Resolver) ensureCollection(ctx context.Context, evt domain.EventContext, standard domain.Standard) (*schema.Collection, error) {
	id := ids.Collection(evt.ContractAddress)

	collection, err := r.caches.Collections.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %s: %w", id, err)
	}

	if collection == nil {
		details := r.enricher.ReadDetails(ctx, evt.ContractAddress, standard, evt.BlockNumber, nil)
		collection = &schema.Collection{
			ID:              id,
			ContractAddress: id,
			CollectionType:  schema.Standard(standard),
			Name:            details.Name,
			Symbol:          details.Symbol,
			CreatedBlock:    evt.BlockNumber,
			CreatedTime:     evt.Timestamp,
		}
		if err := r.caches.Collections.Add(collection); err != nil {
			return nil, err
		}
		return collection, nil
	}

	if types.StringNilOrEmpty(collection.Name) || types.StringNilOrEmpty(collection.Symbol) {
		details := r.enricher.ReadDetails(ctx, evt.ContractAddress, standard, evt.BlockNumber, nil)
		if types.StringNilOrEmpty(collection.Name) {
			collection.Name = details.Name
		}
		if types.StringNilOrEmpty(collection.Symbol) {
			collection.Symbol = details.Symbol
		}
	}

	return collection, nil
}

// ensureNFToken returns the NFT row for (contract, native id), enriching on
// first sight. The uri read is attempted at creation only; later changes
// arrive through URI events.
func (r *Resolver) ensureNFToken(ctx context.Context, evt domain.EventContext, standard domain.Standard, nativeID *big.Int, collectionID string) (*schema.NFToken, error) {
	native := nativeID.String()
	id := ids.NFToken(evt.ContractAddress, native)

	token, err := r.caches.NFTokens.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get nf token %s: %w", id, err)
	}
	if token != nil {
		return token, nil
	}

	details := r.enricher.ReadDetails(ctx, evt.ContractAddress, standard, evt.BlockNumber, nativeID)
	token = &schema.NFToken{
		ID:              id,
		NativeID:        native,
		ContractAddress: domain.NormalizeAddress(evt.ContractAddress),
		Standard:        schema.Standard(standard),
		Name:            details.Name,
		Symbol:          details.Symbol,
		URI:             details.URI,
		Amount:          "0",
		CollectionID:    collectionID,
	}
	if err := r.caches.NFTokens.Add(token); err != nil {
		return nil, err
	}

	return token, nil
}

// applyFtBalanceDelta adjusts the running balance of one account in one
// token. A balance row first seen mid-history is seeded from a live
// balanceOf read at the block before the event; when that read fails the
// row is seeded at zero and the running balance becomes delta-only.
func (r *Resolver) applyFtBalanceDelta(ctx context.Context, evt domain.EventContext, accountID string, tokenID string, delta *big.Int) error {
	id := ids.AccountBalance(accountID, tokenID)

	balance, err := r.caches.FtBalances.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get balance %s: %w", id, err)
	}

	if balance == nil {
		seed := "0"
		height := evt.BlockNumber
		if height > 0 {
			height--
		}
		live, err := r.enricher.ERC20Balance(ctx, evt.ContractAddress, accountID, height)
		if err != nil {
			logger.WarnCtx(ctx, "balance bootstrap read failed, seeding zero",
				zap.String("account", accountID),
				zap.String("token", tokenID),
				zap.Uint64("blockHeight", height),
				zap.Error(err))
		} else {
			seed = live.String()
		}

		balance = &schema.AccountFtBalance{
			ID:        id,
			AccountID: accountID,
			TokenID:   tokenID,
			Balance:   seed,
		}
		if err := r.caches.FtBalances.Add(balance); err != nil {
			return err
		}
	}

	updated, err := types.AddNumeric(balance.Balance, delta.String())
	if err != nil {
		return fmt.Errorf("failed to update balance %s: %w", id, err)
	}
	balance.Balance = updated

	return nil
}

func (r *Resolver) marshalRaw(payload interface{}) (datatypes.JSON, error) {
	data, err := r.json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return datatypes.JSON(data), nil
}

func recordActivity(from *schema.Account, to *schema.Account) {
	from.TotalSent++
	from.TotalTransfers++
	to.TotalReceived++
	to.TotalTransfers++
}
