package schema

import (
	"time"
)

// Account represents the accounts table - one row per chain address that has
// ever appeared on either side of an indexed transfer
type Account struct {
	// ID is the EIP-55 checksum address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TotalSent counts transfers where this account was the sender
	TotalSent uint64 `gorm:"column:total_sent;not null;default:0"`
	// TotalReceived counts transfers where this account was the receiver
	TotalReceived uint64 `gorm:"column:total_received;not null;default:0"`
	// TotalTransfers counts every transfer this account participated in
	TotalTransfers uint64 `gorm:"column:total_transfers;not null;default:0"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	FtBalances  []AccountFtBalance  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	FtTransfers []AccountFtTransfer `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
