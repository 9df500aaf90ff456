package domain

// Resolution is the typed outcome of a resolve call. Unpriced is a
// successful terminal result, distinct from any error: every candidate
// pool reported zero liquidity, which confirms the absence of a price
// rather than a failure to look one up.
type Resolution struct {
	quote *PriceQuote
}

// Priced wraps a successful PriceQuote.
func Priced(q *PriceQuote) Resolution {
	if q == nil {
		panic("pricing: nil quote in priced resolution")
	}
	return Resolution{quote: q}
}

// Unpriced is the no-liquidity terminal result.
func Unpriced() Resolution {
	return Resolution{}
}

// IsPriced reports whether a price was found.
func (r Resolution) IsPriced() bool {
	return r.quote != nil
}

// Quote returns the price quote, or nil when unpriced.
func (r Resolution) Quote() *PriceQuote {
	return r.quote
}
