// Package ids derives the deterministic string ids used as primary keys
// across the store. Every function is pure: the same natural key always
// yields the same id, which is what makes batch reprocessing idempotent.
package ids

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainscope/evm-token-indexer/internal/domain"
)

// separator joins composite id components. Address components are hex and
// native token ids are decimal, so the separator cannot occur inside either.
const separator = "-"

// Account returns the id for an account: the EIP-55 checksum address
func Account(address string) string {
	return domain.NormalizeAddress(address)
}

// FToken returns the id for a fungible token: the contract address
func FToken(contractAddress string) string {
	return domain.NormalizeAddress(contractAddress)
}

// NFToken returns the id for a non-fungible token, combining a shortened
// contract address with the chain-native token id
func NFToken(contractAddress string, nativeTokenID string) string {
	return ShortAddress(contractAddress) + separator + nativeTokenID
}

// Collection returns the id for an NFT collection: the contract address
func Collection(contractAddress string) string {
	return domain.NormalizeAddress(contractAddress)
}

// FtTransfer returns the id for a fungible transfer: the event id
func FtTransfer(eventID string) string {
	return eventID
}

// NftTransfer returns the id for a non-fungible transfer. The native token
// id is appended because one ERC1155 batch event fans out into one logical
// transfer per token, all sharing the event id.
func NftTransfer(eventID string, nativeTokenID string) string {
	return eventID + separator + nativeTokenID
}

// AccountTransfer returns the id for an account-transfer join row
func AccountTransfer(accountID string, transferID string) string {
	return accountID + separator + transferID
}

// AccountBalance returns the id for an account-token balance row
func AccountBalance(accountID string, tokenID string) string {
	return accountID + separator + tokenID
}

// UriUpdate returns the id for a uri update audit row: the event id
func UriUpdate(eventID string) string {
	return eventID
}

// ShortAddress bounds key length for composite ids: first and last six
// hex characters of the checksummed address.
func ShortAddress(address string) string {
	hex := common.HexToAddress(address).Hex()
	// "0x" + first six + last six of the 40 hex chars
	return hex[:8] + hex[len(hex)-6:]
}
