package decode

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFrom     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTo       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testOperator = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func uint256Topic(v int64) common.Hash {
	return common.BigToHash(big.NewInt(v))
}

func erc20TransferLog(value int64) types.Log {
	return types.Log{
		Topics: []common.Hash{TransferTopic, addressTopic(testFrom), addressTopic(testTo)},
		Data:   common.BigToHash(big.NewInt(value)).Bytes(),
	}
}

func erc721TransferLog(tokenID int64) types.Log {
	return types.Log{
		Topics: []common.Hash{TransferTopic, addressTopic(testFrom), addressTopic(testTo), uint256Topic(tokenID)},
	}
}

func TestTryDecodeERC20Transfer(t *testing.T) {
	decoded, ok := TryDecode(erc20TransferLog(1000))
	require.True(t, ok)
	assert.Equal(t, KindERC20Transfer, decoded.Kind)
	require.NotNil(t, decoded.ERC20Transfer)
	assert.Equal(t, testFrom.Hex(), decoded.ERC20Transfer.From)
	assert.Equal(t, testTo.Hex(), decoded.ERC20Transfer.To)
	assert.Equal(t, int64(1000), decoded.ERC20Transfer.Value.Int64())
}

func TestTransferTopicFallsBackToERC721(t *testing.T) {
	// Same topic hash as ERC20, but the token id is indexed: the ERC20
	// shape must fail and the ERC721 shape must match
	decoded, ok := TryDecode(erc721TransferLog(42))
	require.True(t, ok)
	assert.Equal(t, KindERC721Transfer, decoded.Kind)
	require.NotNil(t, decoded.ERC721Transfer)
	assert.Nil(t, decoded.ERC20Transfer)
	assert.Equal(t, int64(42), decoded.ERC721Transfer.TokenID.Int64())
}

func TestTransferTopicNeitherShape(t *testing.T) {
	// Transfer topic with a malformed data segment matches neither shape
	vLog := types.Log{
		Topics: []common.Hash{TransferTopic, addressTopic(testFrom), addressTopic(testTo)},
		Data:   []byte{0x01, 0x02},
	}
	_, ok := TryDecode(vLog)
	assert.False(t, ok)
}

func TestTryDecodeERC1155TransferSingle(t *testing.T) {
	data := append(
		common.BigToHash(big.NewInt(7)).Bytes(),
		common.BigToHash(big.NewInt(3)).Bytes()...,
	)
	vLog := types.Log{
		Topics: []common.Hash{TransferSingleTopic, addressTopic(testOperator), addressTopic(testFrom), addressTopic(testTo)},
		Data:   data,
	}

	decoded, ok := TryDecode(vLog)
	require.True(t, ok)
	assert.Equal(t, KindERC1155TransferSingle, decoded.Kind)
	payload := decoded.ERC1155TransferSingle
	require.NotNil(t, payload)
	assert.Equal(t, testOperator.Hex(), payload.Operator)
	assert.Equal(t, int64(7), payload.ID.Int64())
	assert.Equal(t, int64(3), payload.Value.Int64())
}

func TestTryDecodeERC1155TransferBatch(t *testing.T) {
	data, err := batchArguments.Pack(
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		[]*big.Int{big.NewInt(5), big.NewInt(7)},
	)
	require.NoError(t, err)

	vLog := types.Log{
		Topics: []common.Hash{TransferBatchTopic, addressTopic(testOperator), addressTopic(testFrom), addressTopic(testTo)},
		Data:   data,
	}

	decoded, ok := TryDecode(vLog)
	require.True(t, ok)
	assert.Equal(t, KindERC1155TransferBatch, decoded.Kind)
	payload := decoded.ERC1155TransferBatch
	require.NotNil(t, payload)
	require.Len(t, payload.IDs, 2)
	require.Len(t, payload.Values, 2)
	assert.Equal(t, int64(2), payload.IDs[1].Int64())
	assert.Equal(t, int64(7), payload.Values[1].Int64())
}

func TestTryDecodeERC1155URI(t *testing.T) {
	data, err := uriArguments.Pack("ipfs://QmNewHash/7.json")
	require.NoError(t, err)

	vLog := types.Log{
		Topics: []common.Hash{URITopic, uint256Topic(7)},
		Data:   data,
	}

	decoded, ok := TryDecode(vLog)
	require.True(t, ok)
	assert.Equal(t, KindERC1155URI, decoded.Kind)
	require.NotNil(t, decoded.ERC1155URI)
	assert.Equal(t, "ipfs://QmNewHash/7.json", decoded.ERC1155URI.Value)
	assert.Equal(t, int64(7), decoded.ERC1155URI.ID.Int64())
}

func TestTryDecodeUnknownTopic(t *testing.T) {
	vLog := types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	}
	_, ok := TryDecode(vLog)
	assert.False(t, ok)
}

func TestTryDecodeNoTopics(t *testing.T) {
	_, ok := TryDecode(types.Log{})
	assert.False(t, ok)
}
