package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/steffenpharai/dexpricer/internal/asset"
)

// QuoteToken is a pricing intermediary candidate: a token with deep
// liquidity against most others. Stable quote tokens have USD price 1.0
// by definition. FeeTiers is the ordered list of pool tiers to try for
// this candidate; an empty list falls back to the resolver's global list.
type QuoteToken struct {
	Asset    *asset.Asset
	Stable   bool
	FeeTiers []uint32
}

// Hop records one pool traversal used to derive a price, for provenance.
type Hop struct {
	Quote   *asset.Asset
	FeeTier uint32
	// AmountOut is the human-scale output observed for the probed input.
	AmountOut decimal.Decimal
}

// PriceQuote is the in-memory result of a successful resolution. It is
// consumed by a higher layer (caching, response formatting) and never
// persisted here.
type PriceQuote struct {
	Token     *asset.Asset
	Price     asset.Price // token priced in USD
	Route     []Hop       // quote-token chain that produced the price
	Timestamp time.Time
}

// NewPriceQuote builds a PriceQuote for token at the given USD rate.
func NewPriceQuote(token *asset.Asset, usd decimal.Decimal, route []Hop) *PriceQuote {
	return &PriceQuote{
		Token:     token,
		Price:     asset.NewPriceNow(token, asset.USD, usd),
		Route:     route,
		Timestamp: time.Now(),
	}
}

// PriceUSD returns the USD rate.
func (q *PriceQuote) PriceUSD() decimal.Decimal {
	return q.Price.Rate()
}

// Via returns the symbols of the quote tokens along the provenance chain.
func (q *PriceQuote) Via() []string {
	via := make([]string, len(q.Route))
	for i, hop := range q.Route {
		via[i] = hop.Quote.Symbol()
	}
	return via
}
