// Package erc20 implements the MetadataReader port via eth_call, with the
// asset registry consulted first and results cached in-process.
package erc20

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/steffenpharai/dexpricer/business/pricing/app"
	"github.com/steffenpharai/dexpricer/internal/apperror"
	"github.com/steffenpharai/dexpricer/internal/asset"
	"github.com/steffenpharai/dexpricer/internal/logger"
)

// Ensure Reader implements the MetadataReader port.
var _ app.MetadataReader = (*Reader)(nil)

type metadata struct {
	decimals uint8
	symbol   string
}

// Reader looks up ERC20 decimals and symbol.
type Reader struct {
	caller  ethereum.ContractCaller
	abi     abi.ABI
	chainID uint64

	registry *asset.Registry
	log      logger.LoggerInterface

	mu    sync.RWMutex
	cache map[common.Address]metadata
}

// NewReader creates a metadata reader for the given chain.
func NewReader(caller ethereum.ContractCaller, registry *asset.Registry, chainID uint64, log logger.LoggerInterface) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(MetadataABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}

	return &Reader{
		caller:   caller,
		abi:      parsedABI,
		chainID:  chainID,
		registry: registry,
		log:      log,
		cache:    make(map[common.Address]metadata),
	}, nil
}

// Decimals returns the token's decimal count.
func (r *Reader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	if a, ok := r.registry.GetToken(r.chainID, token); ok {
		return a.Decimals(), nil
	}

	md, err := r.fetch(ctx, token)
	if err != nil {
		return 0, err
	}
	return md.decimals, nil
}

// Symbol returns the token's ticker symbol.
func (r *Reader) Symbol(ctx context.Context, token common.Address) (string, error) {
	if a, ok := r.registry.GetToken(r.chainID, token); ok {
		return a.Symbol(), nil
	}

	md, err := r.fetch(ctx, token)
	if err != nil {
		return "", err
	}
	return md.symbol, nil
}

func (r *Reader) fetch(ctx context.Context, token common.Address) (metadata, error) {
	r.mu.RLock()
	md, ok := r.cache[token]
	r.mu.RUnlock()
	if ok {
		return md, nil
	}

	decimals, err := r.callUint8(ctx, token, "decimals")
	if err != nil {
		return metadata{}, apperror.Wrap(err, apperror.CodeMetadataFetchFailed,
			fmt.Sprintf("decimals() on %s", token.Hex()))
	}

	symbol, err := r.callString(ctx, token, "symbol")
	if err != nil {
		// Some tokens expose no readable symbol; that must not block pricing.
		r.log.Debug(ctx, "symbol() failed, using address prefix",
			"token", token.Hex(), "error", err.Error())
		symbol = token.Hex()[:10]
	}

	md = metadata{decimals: decimals, symbol: symbol}

	r.mu.Lock()
	r.cache[token] = md
	r.mu.Unlock()

	return md, nil
}

func (r *Reader) call(ctx context.Context, token common.Address, method string) ([]interface{}, error) {
	callData, err := r.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	result, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, err
	}

	return r.abi.Unpack(method, result)
}

func (r *Reader) callUint8(ctx context.Context, token common.Address, method string) (uint8, error) {
	outputs, err := r.call(ctx, token, method)
	if err != nil {
		return 0, err
	}
	if len(outputs) != 1 {
		return 0, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	v, ok := outputs[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%s returned %T, want uint8", method, outputs[0])
	}
	return v, nil
}

func (r *Reader) callString(ctx context.Context, token common.Address, method string) (string, error) {
	outputs, err := r.call(ctx, token, method)
	if err != nil {
		return "", err
	}
	if len(outputs) != 1 {
		return "", fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	v, ok := outputs[0].(string)
	if !ok {
		return "", fmt.Errorf("%s returned %T, want string", method, outputs[0])
	}
	return v, nil
}
