// Package messaging defines the outbound notification contract of the
// indexer. Downstream consumers receive one message per materialized
// transfer, keyed by the deterministic transfer id for broker-side dedup.
package messaging

import (
	"context"
	"time"
)

// TransferEvent is the notification published for one materialized transfer
type TransferEvent struct {
	// TransferID is the deterministic transfer row id
	TransferID string `json:"transfer_id"`
	// Standard is the token standard of the contract (erc20, erc721, erc1155)
	Standard string `json:"standard"`
	// TransferType is the mint/burn/transfer classification
	TransferType string `json:"transfer_type"`
	// ContractAddress is the emitting contract
	ContractAddress string `json:"contract_address"`
	// TokenID is the token row id the transfer moved
	TokenID string `json:"token_id"`
	// From and To are the endpoint account ids
	From string `json:"from"`
	To   string `json:"to"`
	// Amount is the transferred quantity as a decimal string
	Amount string `json:"amount"`
	// BlockNumber and TxHash locate the source log on chain
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	// Timestamp is the block timestamp
	Timestamp time.Time `json:"timestamp"`
}

// Publisher defines the interface for publishing transfer notifications
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishTransfer publishes one transfer notification
	PublishTransfer(ctx context.Context, event *TransferEvent) error
	// Close closes the connection
	Close()
}
