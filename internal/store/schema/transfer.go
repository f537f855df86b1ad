package schema

import (
	"time"

	"gorm.io/datatypes"
)

// TransferType classifies a transfer by its endpoints
type TransferType string

const (
	TransferTypeMint     TransferType = "MINT"
	TransferTypeBurn     TransferType = "BURN"
	TransferTypeTransfer TransferType = "TRANSFER"
)

// FtTransfer represents the ft_transfers table - one row per ERC20 Transfer event
type FtTransfer struct {
	// ID is the event id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TokenID references the fungible token the transfer moved
	TokenID string `gorm:"column:token_id;not null;type:text;index"`
	// FromAccountID and ToAccountID are the transfer endpoints (zero address included)
	FromAccountID string `gorm:"column:from_account_id;not null;type:text;index"`
	ToAccountID   string `gorm:"column:to_account_id;not null;type:text;index"`
	// Amount is the transferred quantity as a decimal string
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// TransferType is the mint/burn/transfer classification
	TransferType TransferType `gorm:"column:transfer_type;not null;type:text"`
	// BlockNumber, EventIndex and TxHash locate the source log on chain
	BlockNumber uint64 `gorm:"column:block_number;not null;index"`
	EventIndex  uint32 `gorm:"column:event_index;not null"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;index"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:timestamp;not null;index"`
	// Raw preserves the decoded event payload for traceability
	Raw       datatypes.JSON `gorm:"column:raw;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now()"`

	// Associations
	Token *FToken `gorm:"foreignKey:TokenID"`
}

// TableName specifies the table name for the FtTransfer model
func (FtTransfer) TableName() string {
	return "ft_transfers"
}

// NftTransfer represents the nft_transfers table - one row per logical NFT
// transfer. An ERC1155 TransferBatch event produces one row per (id, value)
// pair, all sharing the event id prefix.
type NftTransfer struct {
	// ID is the event id plus the native token id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TokenID references the non-fungible token the transfer moved
	TokenID string `gorm:"column:token_id;not null;type:text;index"`
	// FromAccountID and ToAccountID are the transfer endpoints
	FromAccountID string `gorm:"column:from_account_id;not null;type:text;index"`
	ToAccountID   string `gorm:"column:to_account_id;not null;type:text;index"`
	// OperatorAccountID is the ERC1155 operator that initiated the transfer (nil for ERC721)
	OperatorAccountID *string `gorm:"column:operator_account_id;type:text;index"`
	// Amount is the transferred quantity as a decimal string (1 for ERC721)
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// TransferType is the mint/burn/transfer classification
	TransferType TransferType `gorm:"column:transfer_type;not null;type:text"`
	// IsBatch marks rows fanned out from an ERC1155 TransferBatch event
	IsBatch bool `gorm:"column:is_batch;not null;default:false"`
	// BlockNumber, EventIndex and TxHash locate the source log on chain
	BlockNumber uint64 `gorm:"column:block_number;not null;index"`
	EventIndex  uint32 `gorm:"column:event_index;not null"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;index"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:timestamp;not null;index"`
	// Raw preserves the decoded event payload for traceability
	Raw       datatypes.JSON `gorm:"column:raw;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now()"`

	// Associations
	Token *NFToken `gorm:"foreignKey:TokenID"`
}

// TableName specifies the table name for the NftTransfer model
func (NftTransfer) TableName() string {
	return "nft_transfers"
}
