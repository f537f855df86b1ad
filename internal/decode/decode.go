// Package decode turns raw EVM logs into typed token-standard events.
// Each shape has a pure TryDecode function returning ok=false on mismatch;
// candidates sharing a topic hash are tried in a fixed order instead of
// relying on decode errors for control flow.
package decode

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event topic signatures
var (
	// TransferTopic is shared by ERC20 and ERC721: the signatures are
	// identical, the standards differ only in which argument is indexed
	TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	TransferSingleTopic = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
	TransferBatchTopic  = crypto.Keccak256Hash([]byte("TransferBatch(address,address,address,uint256[],uint256[])"))
	URITopic            = crypto.Keccak256Hash([]byte("URI(string,uint256)"))
)

// Kind identifies the decoded event variant
type Kind string

const (
	KindERC20Transfer         Kind = "erc20_transfer"
	KindERC721Transfer        Kind = "erc721_transfer"
	KindERC1155TransferSingle Kind = "erc1155_transfer_single"
	KindERC1155TransferBatch  Kind = "erc1155_transfer_batch"
	KindERC1155URI            Kind = "erc1155_uri"
)

// ERC20Transfer is the payload of an ERC20 Transfer event
type ERC20Transfer struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *big.Int `json:"value"`
}

// ERC721Transfer is the payload of an ERC721 Transfer event
type ERC721Transfer struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	TokenID *big.Int `json:"token_id"`
}

// ERC1155TransferSingle is the payload of an ERC1155 TransferSingle event
type ERC1155TransferSingle struct {
	Operator string   `json:"operator"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	ID       *big.Int `json:"id"`
	Value    *big.Int `json:"value"`
}

// ERC1155TransferBatch is the payload of an ERC1155 TransferBatch event
type ERC1155TransferBatch struct {
	Operator string     `json:"operator"`
	From     string     `json:"from"`
	To       string     `json:"to"`
	IDs      []*big.Int `json:"ids"`
	Values   []*big.Int `json:"values"`
}

// ERC1155URI is the payload of an ERC1155 URI event
type ERC1155URI struct {
	Value string   `json:"value"`
	ID    *big.Int `json:"id"`
}

// Decoded is the tagged variant produced by TryDecode. Exactly one payload
// pointer is non-nil, matching Kind.
type Decoded struct {
	Kind Kind

	ERC20Transfer         *ERC20Transfer
	ERC721Transfer        *ERC721Transfer
	ERC1155TransferSingle *ERC1155TransferSingle
	ERC1155TransferBatch  *ERC1155TransferBatch
	ERC1155URI            *ERC1155URI
}

// batchArguments describes the TransferBatch data segment (uint256[], uint256[])
var batchArguments = func() abi.Arguments {
	arrayType, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "ids", Type: arrayType},
		{Name: "values", Type: arrayType},
	}
}()

// uriArguments describes the URI data segment (string)
var uriArguments = func() abi.Arguments {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "value", Type: stringType},
	}
}()

// TryDecode attempts every known event shape against the log, in a fixed
// order. For the shared Transfer topic the ERC20 shape is tried before the
// ERC721 shape, preserving the disambiguation order of the upstream
// detection. Returns ok=false when no shape matches.
func TryDecode(vLog types.Log) (*Decoded, bool) {
	if len(vLog.Topics) == 0 {
		return nil, false
	}

	switch vLog.Topics[0] {
	case TransferTopic:
		if payload, ok := TryDecodeERC20Transfer(vLog); ok {
			return &Decoded{Kind: KindERC20Transfer, ERC20Transfer: payload}, true
		}
		if payload, ok := TryDecodeERC721Transfer(vLog); ok {
			return &Decoded{Kind: KindERC721Transfer, ERC721Transfer: payload}, true
		}
	case TransferSingleTopic:
		if payload, ok := TryDecodeERC1155TransferSingle(vLog); ok {
			return &Decoded{Kind: KindERC1155TransferSingle, ERC1155TransferSingle: payload}, true
		}
	case TransferBatchTopic:
		if payload, ok := TryDecodeERC1155TransferBatch(vLog); ok {
			return &Decoded{Kind: KindERC1155TransferBatch, ERC1155TransferBatch: payload}, true
		}
	case URITopic:
		if payload, ok := TryDecodeERC1155URI(vLog); ok {
			return &Decoded{Kind: KindERC1155URI, ERC1155URI: payload}, true
		}
	}

	return nil, false
}

// TryDecodeERC20Transfer decodes an ERC20 Transfer: two indexed addresses,
// value in the data segment
func TryDecodeERC20Transfer(vLog types.Log) (*ERC20Transfer, bool) {
	if len(vLog.Topics) != 3 || vLog.Topics[0] != TransferTopic {
		return nil, false
	}
	if len(vLog.Data) != 32 {
		return nil, false
	}

	return &ERC20Transfer{
		From:  topicAddress(vLog.Topics[1]),
		To:    topicAddress(vLog.Topics[2]),
		Value: new(big.Int).SetBytes(vLog.Data),
	}, true
}

// TryDecodeERC721Transfer decodes an ERC721 Transfer: all three arguments
// indexed, empty data segment
func TryDecodeERC721Transfer(vLog types.Log) (*ERC721Transfer, bool) {
	if len(vLog.Topics) != 4 || vLog.Topics[0] != TransferTopic {
		return nil, false
	}

	return &ERC721Transfer{
		From:    topicAddress(vLog.Topics[1]),
		To:      topicAddress(vLog.Topics[2]),
		TokenID: vLog.Topics[3].Big(),
	}, true
}

// TryDecodeERC1155TransferSingle decodes a TransferSingle: operator/from/to
// indexed, id and value packed in the data segment
func TryDecodeERC1155TransferSingle(vLog types.Log) (*ERC1155TransferSingle, bool) {
	if len(vLog.Topics) != 4 || vLog.Topics[0] != TransferSingleTopic {
		return nil, false
	}
	if len(vLog.Data) != 64 {
		return nil, false
	}

	return &ERC1155TransferSingle{
		Operator: topicAddress(vLog.Topics[1]),
		From:     topicAddress(vLog.Topics[2]),
		To:       topicAddress(vLog.Topics[3]),
		ID:       new(big.Int).SetBytes(vLog.Data[0:32]),
		Value:    new(big.Int).SetBytes(vLog.Data[32:64]),
	}, true
}

// TryDecodeERC1155TransferBatch decodes a TransferBatch: operator/from/to
// indexed, dynamic id and value arrays in the data segment
func TryDecodeERC1155TransferBatch(vLog types.Log) (*ERC1155TransferBatch, bool) {
	if len(vLog.Topics) != 4 || vLog.Topics[0] != TransferBatchTopic {
		return nil, false
	}

	values, err := batchArguments.Unpack(vLog.Data)
	if err != nil || len(values) != 2 {
		return nil, false
	}

	tokenIDs, ok := values[0].([]*big.Int)
	if !ok {
		return nil, false
	}
	amounts, ok := values[1].([]*big.Int)
	if !ok {
		return nil, false
	}
	if len(tokenIDs) != len(amounts) {
		return nil, false
	}

	return &ERC1155TransferBatch{
		Operator: topicAddress(vLog.Topics[1]),
		From:     topicAddress(vLog.Topics[2]),
		To:       topicAddress(vLog.Topics[3]),
		IDs:      tokenIDs,
		Values:   amounts,
	}, true
}

// TryDecodeERC1155URI decodes a URI event: the token id indexed, the uri
// string in the data segment
func TryDecodeERC1155URI(vLog types.Log) (*ERC1155URI, bool) {
	if len(vLog.Topics) != 2 || vLog.Topics[0] != URITopic {
		return nil, false
	}

	values, err := uriArguments.Unpack(vLog.Data)
	if err != nil || len(values) != 1 {
		return nil, false
	}

	uri, ok := values[0].(string)
	if !ok {
		return nil, false
	}

	return &ERC1155URI{
		Value: uri,
		ID:    vLog.Topics[1].Big(),
	}, true
}

// KnownTopics lists every topic signature the pipeline indexes, in the form
// a log filter query expects.
func KnownTopics() []common.Hash {
	return []common.Hash{
		TransferTopic,
		TransferSingleTopic,
		TransferBatchTopic,
		URITopic,
	}
}

func topicAddress(topic common.Hash) string {
	return common.BytesToAddress(topic.Bytes()[12:]).Hex()
}
