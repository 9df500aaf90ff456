package erc20

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steffenpharai/dexpricer/internal/apperror"
	"github.com/steffenpharai/dexpricer/internal/asset"
	"github.com/steffenpharai/dexpricer/internal/logger"
)

var unknownToken = common.HexToAddress("0x00000000000000000000000000000000000000ff")

// metadataCaller answers decimals() and symbol() calls by selector.
type metadataCaller struct {
	t        *testing.T
	decimals uint8
	symbol   string

	decimalsErr error
	symbolErr   error

	calls int
}

func (m *metadataCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.calls++

	parsed, err := abi.JSON(strings.NewReader(MetadataABI))
	require.NoError(m.t, err)

	decimalsCall, err := parsed.Pack("decimals")
	require.NoError(m.t, err)
	symbolCall, err := parsed.Pack("symbol")
	require.NoError(m.t, err)

	switch {
	case bytes.Equal(msg.Data, decimalsCall):
		if m.decimalsErr != nil {
			return nil, m.decimalsErr
		}
		return parsed.Methods["decimals"].Outputs.Pack(m.decimals)
	case bytes.Equal(msg.Data, symbolCall):
		if m.symbolErr != nil {
			return nil, m.symbolErr
		}
		return parsed.Methods["symbol"].Outputs.Pack(m.symbol)
	default:
		m.t.Fatalf("unexpected call data: %x", msg.Data)
		return nil, nil
	}
}

func newTestReader(t *testing.T, caller ethereum.ContractCaller) *Reader {
	t.Helper()

	r, err := NewReader(caller, asset.DefaultRegistry(), asset.ChainIDBase,
		logger.New(io.Discard, logger.LevelError, "test"))
	require.NoError(t, err)
	return r
}

func TestReader_RegistryHit(t *testing.T) {
	caller := &metadataCaller{t: t}
	reader := newTestReader(t, caller)

	// WETH is in the registry; no RPC call should happen.
	decimals, err := reader.Decimals(context.Background(), asset.AddrWETHBase)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	symbol, err := reader.Symbol(context.Background(), asset.AddrWETHBase)
	require.NoError(t, err)
	assert.Equal(t, "WETH", symbol)

	assert.Zero(t, caller.calls)
}

func TestReader_FetchesAndCaches(t *testing.T) {
	caller := &metadataCaller{t: t, decimals: 8, symbol: "FOO"}
	reader := newTestReader(t, caller)

	decimals, err := reader.Decimals(context.Background(), unknownToken)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), decimals)

	symbol, err := reader.Symbol(context.Background(), unknownToken)
	require.NoError(t, err)
	assert.Equal(t, "FOO", symbol)

	// decimals() + symbol() once; the second lookup comes from the cache.
	assert.Equal(t, 2, caller.calls)
}

func TestReader_DecimalsFailure(t *testing.T) {
	caller := &metadataCaller{t: t, decimalsErr: errors.New("execution reverted")}
	reader := newTestReader(t, caller)

	_, err := reader.Decimals(context.Background(), unknownToken)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeMetadataFetchFailed), "got %v", err)
}

func TestReader_SymbolFallsBackToAddress(t *testing.T) {
	caller := &metadataCaller{t: t, decimals: 6, symbolErr: errors.New("execution reverted")}
	reader := newTestReader(t, caller)

	symbol, err := reader.Symbol(context.Background(), unknownToken)
	require.NoError(t, err)
	assert.Equal(t, unknownToken.Hex()[:10], symbol)
}
