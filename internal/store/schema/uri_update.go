package schema

import (
	"time"
)

// UriUpdateAction represents the uri_update_actions table - an append-only
// audit trail of URI changes observed through ERC1155 URI events
type UriUpdateAction struct {
	// ID is the event id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TokenID references the NFT whose uri changed
	TokenID string `gorm:"column:token_id;not null;type:text;index"`
	// OldURI is the uri before the event (nil when none was recorded)
	OldURI *string `gorm:"column:old_uri;type:text"`
	// NewURI is the uri carried by the event
	NewURI string `gorm:"column:new_uri;not null;type:text"`
	// BlockNumber and TxHash locate the source log on chain
	BlockNumber uint64 `gorm:"column:block_number;not null"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the UriUpdateAction model
func (UriUpdateAction) TableName() string {
	return "uri_update_actions"
}
