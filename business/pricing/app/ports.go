// Package app contains the price resolution service and its port definitions.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/steffenpharai/dexpricer/business/pricing/domain"
)

// QuoteClient issues one read-only simulated-swap call per (path, amountIn)
// pair. One blocking round trip, no state mutation, no retries: retry policy
// belongs to the caller. A returned amountOut of zero is a normal
// no-liquidity result, never an error. Implementations must honor the
// context deadline and fail with a timeout code rather than block.
type QuoteClient interface {
	Quote(ctx context.Context, path domain.SwapPath, amountIn *big.Int) (*big.Int, error)
}

// MetadataReader looks up ERC20 token metadata.
type MetadataReader interface {
	Decimals(ctx context.Context, token common.Address) (uint8, error)
	Symbol(ctx context.Context, token common.Address) (string, error)
}
