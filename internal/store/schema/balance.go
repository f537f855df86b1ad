package schema

import (
	"time"
)

// Direction describes how an account participated in a transfer
type Direction string

const (
	DirectionFrom     Direction = "From"
	DirectionTo       Direction = "To"
	DirectionOperator Direction = "Operator"
)

// AccountFtTransfer represents the account_ft_transfers table - the join
// between an account and a fungible transfer, one row per side
type AccountFtTransfer struct {
	ID         string    `gorm:"column:id;primaryKey;type:text"`
	AccountID  string    `gorm:"column:account_id;not null;type:text;index"`
	TransferID string    `gorm:"column:transfer_id;not null;type:text;index"`
	Direction  Direction `gorm:"column:direction;not null;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the AccountFtTransfer model
func (AccountFtTransfer) TableName() string {
	return "account_ft_transfers"
}

// AccountNftTransfer represents the account_nft_transfers table
type AccountNftTransfer struct {
	ID         string    `gorm:"column:id;primaryKey;type:text"`
	AccountID  string    `gorm:"column:account_id;not null;type:text;index"`
	TransferID string    `gorm:"column:transfer_id;not null;type:text;index"`
	Direction  Direction `gorm:"column:direction;not null;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the AccountNftTransfer model
func (AccountNftTransfer) TableName() string {
	return "account_nft_transfers"
}

// AccountFtBalance represents the account_ft_balances table - the running
// fungible balance of one account in one token, updated incrementally
type AccountFtBalance struct {
	// ID is the account id plus the token id
	ID        string `gorm:"column:id;primaryKey;type:text"`
	AccountID string `gorm:"column:account_id;not null;type:text;index"`
	TokenID   string `gorm:"column:token_id;not null;type:text;index"`
	// Balance is the running quantity as a decimal string. It can go
	// negative when the bootstrap balance read failed mid-history.
	Balance   string    `gorm:"column:balance;not null;type:numeric(78,0);default:0"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the AccountFtBalance model
func (AccountFtBalance) TableName() string {
	return "account_ft_balances"
}
