// Package enrich performs best-effort metadata reads against token
// contracts. Every field is read independently with its own timeout; a
// failing or misbehaving contract degrades that field to nil instead of
// failing the caller.
package enrich

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/domain"
)

// DefaultCallTimeout bounds a single contract read
const DefaultCallTimeout = 5 * time.Second

// sentinelPattern matches the numeric-dot-hex garbage some misbehaving
// contracts return from name()/symbol(); such values persist as nil.
var sentinelPattern = regexp.MustCompile(`^[0-9]{10}\.[0-9a-fA-F]{4}$`)

// Minimal per-method ABIs, following the read-call pattern of the RPC layer
const (
	nameABI     = `[{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}]`
	symbolABI   = `[{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}]`
	decimalsABI = `[{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}]`
	uriABI      = `[{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"uri","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}]`
	tokenURIABI = `[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}]`
	balanceABI  = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`
)

// Details holds the enrichment read results. Nil fields failed or do not
// apply to the standard.
type Details struct {
	Name     *string
	Symbol   *string
	Decimals *uint8
	URI      *string
}

// Enricher defines the contract enrichment operations used by the resolvers
//
//go:generate mockgen -source=enrich.go -destination=../mocks/enrich.go -package=mocks -mock_names=Enricher=MockEnricher
type Enricher interface {
	// ReadDetails reads name/symbol/decimals/uri at the given block height.
	// decimals is only attempted for fungible standards; uri is only
	// attempted when a token id is supplied.
	ReadDetails(ctx context.Context, contractAddress string, standard domain.Standard, blockHeight uint64, tokenID *big.Int) Details

	// ERC20Balance reads balanceOf(account) at the given block height
	ERC20Balance(ctx context.Context, contractAddress string, account string, blockHeight uint64) (*big.Int, error)
}

// Config holds the enrichment service configuration
type Config struct {
	// CallTimeout bounds each individual contract read
	CallTimeout time.Duration
	// MaxConcurrentReads sizes the shared worker pool for field reads
	MaxConcurrentReads int
}

type service struct {
	client  adapter.EthClient
	timeout time.Duration
	pool    pond.Pool
}

// NewService creates a contract enrichment service on the given client
func NewService(client adapter.EthClient, cfg Config) Enricher {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	workers := cfg.MaxConcurrentReads
	if workers <= 0 {
		workers = 8
	}

	return &service{
		client:  client,
		timeout: timeout,
		pool:    pond.NewPool(workers),
	}
}

// ReadDetails reads the metadata fields in parallel. Field reads are
// independent: one timing out or reverting never blocks the others.
func (s *service) ReadDetails(ctx context.Context, contractAddress string, standard domain.Standard, blockHeight uint64, tokenID *big.Int) Details {
	var details Details

	group := s.pool.NewGroup()

	group.Submit(func() {
		if name, err := s.callString(ctx, contractAddress, nameABI, "name", blockHeight); err == nil {
			details.Name = Sanitize(name)
		}
	})

	group.Submit(func() {
		if symbol, err := s.callString(ctx, contractAddress, symbolABI, "symbol", blockHeight); err == nil {
			details.Symbol = Sanitize(symbol)
		}
	})

	if standard.IsFungible() {
		group.Submit(func() {
			if decimals, err := s.callDecimals(ctx, contractAddress, blockHeight); err == nil {
				details.Decimals = &decimals
			}
		})
	}

	if tokenID != nil {
		group.Submit(func() {
			details.URI = s.readURI(ctx, contractAddress, blockHeight, tokenID)
		})
	}

	_ = group.Wait()

	return details
}

// readURI tries uri(id) first, then tokenURI(id). Only one of the two is
// expected to exist per standard.
func (s *service) readURI(ctx context.Context, contractAddress string, blockHeight uint64, tokenID *big.Int) *string {
	if uri, err := s.callString(ctx, contractAddress, uriABI, "uri", blockHeight, tokenID); err == nil {
		if sanitized := Sanitize(uri); sanitized != nil {
			return sanitized
		}
	}
	if uri, err := s.callString(ctx, contractAddress, tokenURIABI, "tokenURI", blockHeight, tokenID); err == nil {
		return Sanitize(uri)
	}
	return nil
}

// ERC20Balance reads balanceOf(account) at the given block height
func (s *service) ERC20Balance(ctx context.Context, contractAddress string, account string, blockHeight uint64) (*big.Int, error) {
	parsed, err := abi.JSON(strings.NewReader(balanceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse balanceOf ABI: %w", err)
	}

	data, err := parsed.Pack("balanceOf", common.HexToAddress(account))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	result, err := s.call(ctx, contractAddress, data, blockHeight)
	if err != nil {
		return nil, err
	}

	var balance *big.Int
	if err := parsed.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}

	return balance, nil
}

// callString executes a view method returning a single string
func (s *service) callString(ctx context.Context, contractAddress string, abiJSON string, method string, blockHeight uint64, args ...interface{}) (string, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s ABI: %w", method, err)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := s.call(ctx, contractAddress, data, blockHeight)
	if err != nil {
		return "", err
	}

	var value string
	if err := parsed.UnpackIntoInterface(&value, method, result); err != nil {
		return "", fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	return value, nil
}

// callDecimals executes decimals() returning a uint8
func (s *service) callDecimals(ctx context.Context, contractAddress string, blockHeight uint64) (uint8, error) {
	parsed, err := abi.JSON(strings.NewReader(decimalsABI))
	if err != nil {
		return 0, fmt.Errorf("failed to parse decimals ABI: %w", err)
	}

	data, err := parsed.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to pack decimals call: %w", err)
	}

	result, err := s.call(ctx, contractAddress, data, blockHeight)
	if err != nil {
		return 0, err
	}

	var decimals uint8
	if err := parsed.UnpackIntoInterface(&decimals, "decimals", result); err != nil {
		return 0, fmt.Errorf("failed to unpack decimals result: %w", err)
	}

	return decimals, nil
}

// call performs the raw eth_call at a pinned block height with the per-call
// timeout applied
func (s *service) call(ctx context.Context, contractAddress string, data []byte, blockHeight uint64) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	address := common.HexToAddress(contractAddress)
	msg := ethereum.CallMsg{
		To:   &address,
		Data: data,
	}

	var blockNumber *big.Int
	if blockHeight > 0 {
		blockNumber = new(big.Int).SetUint64(blockHeight)
	}

	result, err := s.client.CallContract(callCtx, msg, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	return result, nil
}

// Sanitize normalizes a contract-reported string: null bytes are stripped
// (null-padded fixed-length returns must not reach storage) and empty or
// sentinel-matching results map to nil.
func Sanitize(value string) *string {
	cleaned := strings.ReplaceAll(value, "\x00", "")
	if cleaned == "" {
		return nil
	}
	if sentinelPattern.MatchString(cleaned) {
		return nil
	}
	return &cleaned
}
