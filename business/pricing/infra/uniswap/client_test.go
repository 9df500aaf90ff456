package uniswap

import (
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

	"github.com/steffenpharai/dexpricer/business/pricing/domain"
	"github.com/steffenpharai/dexpricer/internal/apperror"
	"github.com/steffenpharai/dexpricer/internal/config"
	"github.com/steffenpharai/dexpricer/internal/logger"
)

var (
	testTokenIn  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testTokenOut = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// fakeCaller scripts eth_call responses.
type fakeCaller struct {
	fn    func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	calls int
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	return f.fn(ctx, msg)
}

// revertError mimics the error geth's rpc package returns for a contract
// revert carrying revert data.
type revertError struct{}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorData() interface{} { return "0x" }

func newTestClient(t *testing.T, caller ethereum.ContractCaller) *Client {
	t.Helper()

	c, err := NewClient(caller, config.PricingConfig{
		QuoterAddress: "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a",
	}, logger.New(io.Discard, logger.LevelError, "test"))
	require.NoError(t, err)
	return c
}

// packQuoterOutput encodes a quoteExactInput return payload the way the
// contract would.
func packQuoterOutput(t *testing.T, amountOut *big.Int) []byte {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	require.NoError(t, err)

	data, err := parsed.Methods["quoteExactInput"].Outputs.Pack(
		amountOut,
		[]*big.Int{},
		[]uint32{},
		big.NewInt(80_000),
	)
	require.NoError(t, err)
	return data
}

func testPath(t *testing.T) domain.SwapPath {
	t.Helper()
	path, err := domain.SingleHop(testTokenIn, testTokenOut, domain.FeeTier030)
	require.NoError(t, err)
	return path
}

func TestQuote_Success(t *testing.T) {
	want := big.NewInt(2_500000)
	caller := &fakeCaller{fn: func(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
		require.NotNil(t, msg.To)
		assert.Equal(t, "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a", msg.To.Hex())
		// 4-byte selector, then the ABI-encoded (path, amountIn) arguments.
		assert.Greater(t, len(msg.Data), 4)
		return packQuoterOutput(t, want), nil
	}}

	client := newTestClient(t, caller)

	out, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
	require.NoError(t, err)
	assert.Zero(t, want.Cmp(out))
}

func TestQuote_ZeroOutputIsNotAnError(t *testing.T) {
	caller := &fakeCaller{fn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
		return packQuoterOutput(t, big.NewInt(0)), nil
	}}

	client := newTestClient(t, caller)

	out, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
	require.NoError(t, err)
	assert.Zero(t, out.Sign())
}

func TestQuote_InvalidAmountIn(t *testing.T) {
	client := newTestClient(t, &fakeCaller{fn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
		t.Fatal("caller must not be reached")
		return nil, nil
	}})

	_, err := client.Quote(context.Background(), testPath(t), big.NewInt(0))
	require.Error(t, err)

	_, err = client.Quote(context.Background(), testPath(t), nil)
	require.Error(t, err)
}

func TestQuote_RevertMapsToQuoteReverted(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"with_revert_data", &revertError{}},
		{"bare_message", errors.New("execution reverted: Unexpected error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &fakeCaller{fn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
				return nil, tt.err
			}}
			client := newTestClient(t, caller)

			_, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeQuoteReverted), "got %v", err)
		})
	}
}

func TestQuote_DeadlineMapsToTimeout(t *testing.T) {
	caller := &fakeCaller{fn: func(ctx context.Context, _ ethereum.CallMsg) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}}
	client := newTestClient(t, caller)

	_, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuoteTimeout), "got %v", err)
}

func TestQuote_TransportErrorMapsToConnectionFailed(t *testing.T) {
	caller := &fakeCaller{fn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	client := newTestClient(t, caller)

	_, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConnectionFailed), "got %v", err)
}

func TestQuote_GarbageResponseMapsToDecodeFailed(t *testing.T) {
	caller := &fakeCaller{fn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
		return []byte{0x01, 0x02, 0x03}, nil
	}}
	client := newTestClient(t, caller)

	_, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDecodeFailed), "got %v", err)
}

func TestQuote_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	caller := &fakeCaller{fn: func(context.Context, ethereum.CallMsg) ([]byte, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	client := newTestClient(t, caller)

	for i := 0; i < 5; i++ {
		_, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
		require.Error(t, err)
	}

	before := caller.calls
	_, err := client.Quote(context.Background(), testPath(t), big.NewInt(1e18))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConnectionFailed), "got %v", err)
	assert.Equal(t, before, caller.calls, "open breaker must not reach the caller")
}
