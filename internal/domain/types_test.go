package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTransfer(t *testing.T) {
	validAddress := "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1"
	validAddress2 := "0x396343362be2A4dA1cE0C1C210945346fb82Aa49"

	tests := []struct {
		name     string
		from     string
		to       string
		expected TransferType
	}{
		{
			name:     "mint - zero from",
			from:     ZeroAddress,
			to:       validAddress,
			expected: TransferTypeMint,
		},
		{
			name:     "mint - empty from",
			from:     "",
			to:       validAddress,
			expected: TransferTypeMint,
		},
		{
			name:     "burn - zero to",
			from:     validAddress,
			to:       ZeroAddress,
			expected: TransferTypeBurn,
		},
		{
			name:     "burn - empty to",
			from:     validAddress,
			to:       "",
			expected: TransferTypeBurn,
		},
		{
			name:     "transfer - both endpoints valid",
			from:     validAddress,
			to:       validAddress2,
			expected: TransferTypeTransfer,
		},
		{
			name:     "transfer when both endpoints are zero",
			from:     ZeroAddress,
			to:       ZeroAddress,
			expected: TransferTypeTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyTransfer(tt.from, tt.to)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsZeroAddress(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected bool
	}{
		{
			name:     "zero address",
			address:  ZeroAddress,
			expected: true,
		},
		{
			name:     "zero address uppercase hex",
			address:  "0x0000000000000000000000000000000000000000",
			expected: true,
		},
		{
			name:     "empty address",
			address:  "",
			expected: true,
		},
		{
			name:     "non-zero address",
			address:  "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsZeroAddress(tt.address)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected string
	}{
		{
			name:     "lowercase address",
			address:  "0x396343362be2a4da1ce0c1c210945346fb82aa49",
			expected: "0x396343362be2A4dA1cE0C1C210945346fb82Aa49",
		},
		{
			name:     "already checksummed address",
			address:  "0x396343362be2A4dA1cE0C1C210945346fb82Aa49",
			expected: "0x396343362be2A4dA1cE0C1C210945346fb82Aa49",
		},
		{
			name:     "zero address",
			address:  ZeroAddress,
			expected: ZeroAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeAddress(tt.address)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStandard_IsFungible(t *testing.T) {
	assert.True(t, StandardERC20.IsFungible())
	assert.False(t, StandardERC721.IsFungible())
	assert.False(t, StandardERC1155.IsFungible())
}
