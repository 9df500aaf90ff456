// Package domain contains the core domain types for price discovery.
package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/steffenpharai/dexpricer/internal/apperror"
)

// Fee tiers in Uniswap V3 (in hundredths of a bip)
const (
	FeeTier001 uint32 = 100   // 0.01%
	FeeTier005 uint32 = 500   // 0.05%
	FeeTier030 uint32 = 3000  // 0.30%
	FeeTier100 uint32 = 10000 // 1.00%
)

const (
	feeBytes = 3
	hopBytes = common.AddressLength + feeBytes // 23
	maxFee   = 1<<24 - 1                       // fee is a uint24 on the wire
)

// SwapPath is an ordered route through one or more pools: token addresses
// interleaved with pool fee tiers. Invariant: len(tokens) == len(fees)+1 and
// at least two tokens. Construct via NewSwapPath; a constructed path always
// encodes successfully.
type SwapPath struct {
	tokens []common.Address
	fees   []uint32
}

// NewSwapPath validates and builds a SwapPath.
func NewSwapPath(tokens []common.Address, fees []uint32) (SwapPath, error) {
	if len(tokens) < 2 {
		return SwapPath{}, apperror.New(apperror.CodeInvalidPath,
			apperror.WithContext(fmt.Sprintf("need at least 2 tokens, got %d", len(tokens))))
	}
	if len(tokens) != len(fees)+1 {
		return SwapPath{}, apperror.New(apperror.CodeInvalidPath,
			apperror.WithContext(fmt.Sprintf("%d tokens require %d fees, got %d",
				len(tokens), len(tokens)-1, len(fees))))
	}
	for i, fee := range fees {
		if fee > maxFee {
			return SwapPath{}, apperror.New(apperror.CodeInvalidPath,
				apperror.WithContext(fmt.Sprintf("fee %d at hop %d exceeds uint24", fee, i)))
		}
	}

	p := SwapPath{
		tokens: make([]common.Address, len(tokens)),
		fees:   make([]uint32, len(fees)),
	}
	copy(p.tokens, tokens)
	copy(p.fees, fees)
	return p, nil
}

// SingleHop builds the common one-pool path tokenIn -> tokenOut.
func SingleHop(tokenIn, tokenOut common.Address, fee uint32) (SwapPath, error) {
	return NewSwapPath([]common.Address{tokenIn, tokenOut}, []uint32{fee})
}

// Encode serializes the path into the quoter wire layout: the first token's
// 20 raw bytes, then for each hop a 3-byte big-endian fee followed by the
// next token's 20 bytes. Output length is exactly 20 + 23*hops.
func (p SwapPath) Encode() []byte {
	buf := make([]byte, 0, common.AddressLength+hopBytes*len(p.fees))
	buf = append(buf, p.tokens[0].Bytes()...)
	for i, fee := range p.fees {
		buf = append(buf, byte(fee>>16), byte(fee>>8), byte(fee))
		buf = append(buf, p.tokens[i+1].Bytes()...)
	}
	return buf
}

// Hops returns the number of pools the path crosses.
func (p SwapPath) Hops() int {
	return len(p.fees)
}

// TokenIn returns the input token address.
func (p SwapPath) TokenIn() common.Address {
	return p.tokens[0]
}

// TokenOut returns the final output token address.
func (p SwapPath) TokenOut() common.Address {
	return p.tokens[len(p.tokens)-1]
}

// Fees returns a copy of the fee tiers along the path.
func (p SwapPath) Fees() []uint32 {
	fees := make([]uint32, len(p.fees))
	copy(fees, p.fees)
	return fees
}

// String renders the route as "0xabc… -(3000)-> 0xdef…".
func (p SwapPath) String() string {
	var sb strings.Builder
	sb.WriteString(p.tokens[0].Hex())
	for i, fee := range p.fees {
		fmt.Fprintf(&sb, " -(%d)-> %s", fee, p.tokens[i+1].Hex())
	}
	return sb.String()
}
