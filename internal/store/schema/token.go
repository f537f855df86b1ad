package schema

import (
	"time"
)

// Standard represents the token standard/contract type
type Standard string

const (
	// StandardERC20 represents Ethereum ERC-20 fungible tokens
	StandardERC20 Standard = "erc20"
	// StandardERC721 represents Ethereum ERC-721 non-fungible tokens
	StandardERC721 Standard = "erc721"
	// StandardERC1155 represents Ethereum ERC-1155 multi-token standard
	StandardERC1155 Standard = "erc1155"
)

// FToken represents the ft_tokens table - one row per fungible token contract
type FToken struct {
	// ID is the EIP-55 checksum contract address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ContractAddress is the blockchain address of the token contract
	ContractAddress string `gorm:"column:contract_address;not null;type:text;index"`
	// Standard identifies the token contract type
	Standard Standard `gorm:"column:standard;not null;type:text"`
	// Name is the contract-reported token name (nil when the read failed)
	Name *string `gorm:"column:name;type:text"`
	// Symbol is the contract-reported ticker symbol (nil when the read failed)
	Symbol *string `gorm:"column:symbol;type:text"`
	// Decimals is the contract-reported decimal count (nil when the read failed)
	Decimals *uint8 `gorm:"column:decimals"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the FToken model
func (FToken) TableName() string {
	return "ft_tokens"
}

// NFToken represents the nf_tokens table - one row per (contract, native id)
type NFToken struct {
	// ID is the composite short-address + native token id key
	ID string `gorm:"column:id;primaryKey;type:text"`
	// NativeID is the token ID within the contract (string to support very large numbers)
	NativeID string `gorm:"column:native_id;not null;type:text;index:idx_nf_tokens_contract_native,priority:2"`
	// ContractAddress is the blockchain address of the token contract
	ContractAddress string `gorm:"column:contract_address;not null;type:text;index:idx_nf_tokens_contract_native,priority:1"`
	// Standard identifies the token contract type (erc721, erc1155)
	Standard Standard `gorm:"column:standard;not null;type:text"`
	// Name is the contract-reported token name (nil when the read failed)
	Name *string `gorm:"column:name;type:text"`
	// Symbol is the contract-reported ticker symbol (nil when the read failed)
	Symbol *string `gorm:"column:symbol;type:text"`
	// URI is the token metadata URI, kept current by URI events
	URI *string `gorm:"column:uri;type:text"`
	// CurrentOwner is the owning account id (nil for multi-owner ERC1155 tokens)
	CurrentOwner *string `gorm:"column:current_owner;type:text;index"`
	// Amount is the running supply as a decimal string, meaningful for ERC1155
	Amount string `gorm:"column:amount;not null;type:numeric(78,0);default:0"`
	// Burned indicates whether the token has been permanently destroyed
	Burned bool `gorm:"column:burned;not null;default:false"`
	// CollectionID references the collection this token belongs to
	CollectionID string `gorm:"column:collection_id;not null;type:text;index"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Collection *Collection       `gorm:"foreignKey:CollectionID"`
	Transfers  []NftTransfer     `gorm:"foreignKey:TokenID;constraint:OnDelete:CASCADE"`
	UriUpdates []UriUpdateAction `gorm:"foreignKey:TokenID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the NFToken model
func (NFToken) TableName() string {
	return "nf_tokens"
}
