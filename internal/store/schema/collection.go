package schema

import (
	"time"
)

// Collection represents the collections table - one row per NFT contract
type Collection struct {
	// ID is the EIP-55 checksum contract address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ContractAddress is the blockchain address of the contract
	ContractAddress string `gorm:"column:contract_address;not null;type:text"`
	// CollectionType identifies the NFT standard backing the collection (erc721, erc1155)
	CollectionType Standard `gorm:"column:collection_type;not null;type:text"`
	// Name is the contract-reported collection name (nil when the read failed)
	Name *string `gorm:"column:name;type:text"`
	// Symbol is the contract-reported symbol (nil when the read failed)
	Symbol *string `gorm:"column:symbol;type:text"`
	// CreatedBlock is the block at which the collection was first seen
	CreatedBlock uint64 `gorm:"column:created_block;not null"`
	// CreatedTime is the timestamp of that block
	CreatedTime time.Time `gorm:"column:created_time;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
