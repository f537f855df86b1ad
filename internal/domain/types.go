package domain

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Standard represents the token contract standard
type Standard string

const (
	StandardERC20   Standard = "erc20"
	StandardERC721  Standard = "erc721"
	StandardERC1155 Standard = "erc1155"
)

// IsFungible reports whether the standard tracks fungible quantities
func (s Standard) IsFungible() bool {
	return s == StandardERC20
}

// TransferType classifies a transfer event by its endpoints
type TransferType string

const (
	TransferTypeMint     TransferType = "MINT"
	TransferTypeBurn     TransferType = "BURN"
	TransferTypeTransfer TransferType = "TRANSFER"
)

// Direction describes how an account participates in a transfer
type Direction string

const (
	DirectionFrom     Direction = "From"
	DirectionTo       Direction = "To"
	DirectionOperator Direction = "Operator"
)

// EventContext carries the chain coordinates shared by every decoded event
// in a batch: where the log was emitted and when.
type EventContext struct {
	EventID         string
	EventIndex      uint32
	BlockNumber     uint64
	Timestamp       time.Time
	TxHash          string
	ContractAddress string
}

// ClassifyTransfer determines the transfer type based on from/to addresses.
// A transfer from the zero address to a real account is a mint, a transfer
// from a real account to the zero address is a burn, everything else
// (including the degenerate zero-to-zero case) is a plain transfer.
func ClassifyTransfer(from string, to string) TransferType {
	if IsZeroAddress(from) && !IsZeroAddress(to) {
		return TransferTypeMint
	}
	if IsZeroAddress(to) && !IsZeroAddress(from) {
		return TransferTypeBurn
	}
	return TransferTypeTransfer
}

// IsZeroAddress reports whether the address is empty or the EVM zero address
func IsZeroAddress(address string) bool {
	return address == "" || strings.EqualFold(address, ZeroAddress)
}

// NormalizeAddress normalizes a hex address to its EIP-55 checksum form
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
