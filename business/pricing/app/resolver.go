package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steffenpharai/dexpricer/business/pricing/domain"
	"github.com/steffenpharai/dexpricer/internal/apperror"
	"github.com/steffenpharai/dexpricer/internal/asset"
	"github.com/steffenpharai/dexpricer/internal/logger"
)

const (
	tracerName = "resolver"
	meterName  = "resolver"
)

// resolverMetrics holds OTEL metric instruments.
type resolverMetrics struct {
	resolutionsTotal  metric.Int64Counter
	unpricedTotal     metric.Int64Counter
	resolutionLatency metric.Float64Histogram
}

// ResolverConfig carries the resolution policy, injected at construction so
// several chains/policies can coexist in one process.
type ResolverConfig struct {
	ChainID uint64

	// Candidates is the ordered quote-token fallback chain.
	Candidates []domain.QuoteToken

	// FeeTiersToTry is the global tier order for candidates that don't
	// declare their own.
	FeeTiersToTry []uint32

	// QuoteTimeout bounds each individual quoter call.
	QuoteTimeout time.Duration
}

// Resolver derives a token's USD price from on-chain swap quotes. It walks
// the candidate quote tokens in priority order, probing one whole unit of
// the target token against each; a non-stable candidate's own USD price is
// resolved against stable candidates only, so the recursion is structurally
// bounded at depth 1 even if the quote-token configuration is cyclic.
//
// Resolver holds no mutable state across calls: Resolve calls for different
// tokens are safe to run concurrently.
type Resolver struct {
	client   QuoteClient
	meta     MetadataReader
	registry *asset.Registry
	cfg      ResolverConfig

	log     logger.LoggerInterface
	tracer  trace.Tracer
	metrics *resolverMetrics
}

// NewResolver creates a Resolver with the given ports and policy.
func NewResolver(client QuoteClient, meta MetadataReader, registry *asset.Registry, cfg ResolverConfig, log logger.LoggerInterface) (*Resolver, error) {
	if client == nil {
		return nil, apperror.New(apperror.CodeRequiredField, apperror.WithContext("quote client"))
	}
	if len(cfg.Candidates) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("no quote-token candidates"))
	}
	if len(cfg.FeeTiersToTry) == 0 {
		cfg.FeeTiersToTry = []uint32{domain.FeeTier005, domain.FeeTier030, domain.FeeTier100}
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = 5 * time.Second
	}

	r := &Resolver{
		client:   client,
		meta:     meta,
		registry: registry,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *Resolver) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &resolverMetrics{}

	r.metrics.resolutionsTotal, err = meter.Int64Counter(
		"price_resolutions_total",
		metric.WithDescription("Total price resolution attempts"),
	)
	if err != nil {
		return err
	}

	r.metrics.unpricedTotal, err = meter.Int64Counter(
		"price_resolutions_unpriced_total",
		metric.WithDescription("Resolutions that exhausted every candidate with zero liquidity"),
	)
	if err != nil {
		return err
	}

	r.metrics.resolutionLatency, err = meter.Float64Histogram(
		"price_resolution_latency_ms",
		metric.WithDescription("Price resolution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ResolveAddress resolves the USD price of the token at addr, fetching its
// metadata from the registry or, failing that, from the chain.
func (r *Resolver) ResolveAddress(ctx context.Context, addr common.Address) (domain.Resolution, error) {
	token, err := r.lookupToken(ctx, addr)
	if err != nil {
		return domain.Resolution{}, err
	}
	return r.Resolve(ctx, token)
}

func (r *Resolver) lookupToken(ctx context.Context, addr common.Address) (*asset.Asset, error) {
	// The zero address is never an ERC20 contract; token AssetIDs reject it.
	if addr == (common.Address{}) {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("zero address is not a token"))
	}
	if a, ok := r.registry.GetToken(r.cfg.ChainID, addr); ok {
		return a, nil
	}
	if r.meta == nil {
		return nil, apperror.New(apperror.CodeMetadataFetchFailed,
			apperror.WithContext(fmt.Sprintf("unknown token %s and no metadata reader", addr.Hex())))
	}

	decimals, err := r.meta.Decimals(ctx, addr)
	if err != nil {
		return nil, err
	}
	symbol, err := r.meta.Symbol(ctx, addr)
	if err != nil || symbol == "" {
		// Symbol is display-only; an unreadable one must not block pricing.
		symbol = addr.Hex()[:10]
	}

	return r.registry.Ensure(asset.MustNewToken(r.cfg.ChainID, addr, symbol, symbol, decimals)), nil
}

// Resolve derives token's USD price. The returned Resolution is Unpriced
// when every candidate pool reports zero liquidity; errors are returned only
// for genuine call failures (transport, timeout, malformed results) and
// propagate undecorated, with no retries here.
func (r *Resolver) Resolve(ctx context.Context, token *asset.Asset) (domain.Resolution, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.resolve",
		trace.WithAttributes(
			attribute.String("token", token.Address().Hex()),
			attribute.String("symbol", token.Symbol()),
		),
	)
	defer span.End()

	start := time.Now()
	r.metrics.resolutionsTotal.Add(ctx, 1)
	defer func() {
		r.metrics.resolutionLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	// Price one whole unit of the target.
	amountIn := asset.OneUnit(token).Raw()

	// Sub-resolutions of non-stable candidates are memoized for the duration
	// of this top-level call.
	memo := make(map[common.Address]stableResult)

	for _, cand := range r.cfg.Candidates {
		if cand.Asset.Address() == token.Address() {
			span.AddEvent("skip_self_pairing")
			continue
		}

		out, tier, err := r.probe(ctx, token.Address(), cand, amountIn)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return domain.Resolution{}, err
		}
		if out == nil {
			continue // no liquidity against this candidate
		}

		humanOut := decimal.NewFromBigInt(out, -int32(cand.Asset.Decimals()))

		if cand.Stable {
			quote := domain.NewPriceQuote(token, humanOut, []domain.Hop{
				{Quote: cand.Asset, FeeTier: tier, AmountOut: humanOut},
			})
			r.observePriced(ctx, span, quote)
			return domain.Priced(quote), nil
		}

		sub, found, err := r.stablePrice(ctx, cand, memo)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return domain.Resolution{}, err
		}
		if !found {
			// The intermediary itself has no USD price; keep falling back.
			span.AddEvent("candidate_unpriced",
				trace.WithAttributes(attribute.String("candidate", cand.Asset.Symbol())))
			continue
		}

		quote := domain.NewPriceQuote(token, humanOut.Mul(sub.price), []domain.Hop{
			{Quote: cand.Asset, FeeTier: tier, AmountOut: humanOut},
			{Quote: sub.stable, FeeTier: sub.tier, AmountOut: sub.price},
		})
		r.observePriced(ctx, span, quote)
		return domain.Priced(quote), nil
	}

	r.metrics.unpricedTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "unpriced")
	r.log.Info(ctx, "token unpriced, all candidates exhausted",
		"token", token.Address().Hex(),
		"symbol", token.Symbol(),
	)
	return domain.Unpriced(), nil
}

func (r *Resolver) observePriced(ctx context.Context, span trace.Span, q *domain.PriceQuote) {
	span.SetAttributes(
		attribute.String("price_usd", q.PriceUSD().String()),
		attribute.StringSlice("via", q.Via()),
	)
	span.SetStatus(codes.Ok, "priced")
	r.log.Info(ctx, "token priced",
		"token", q.Token.Address().Hex(),
		"symbol", q.Token.Symbol(),
		"price_usd", q.PriceUSD().String(),
		"via", q.Via(),
	)
}

// probe quotes one whole-unit swap of tokenIn into the candidate, trying its
// fee tiers in order and short-circuiting on the first nonzero output.
// Returns (nil, 0, nil) when no tier has liquidity: the tier must exactly
// match the tier the pool was created with, so a miss at one tier is a
// legitimate zero even when a pool exists at another. A quoter revert is
// treated the same way: it signals no pool for that path/fee. All other
// errors are returned as-is.
func (r *Resolver) probe(ctx context.Context, tokenIn common.Address, cand domain.QuoteToken, amountIn *big.Int) (*big.Int, uint32, error) {
	tiers := cand.FeeTiers
	if len(tiers) == 0 {
		tiers = r.cfg.FeeTiersToTry
	}

	for _, tier := range tiers {
		path, err := domain.SingleHop(tokenIn, cand.Asset.Address(), tier)
		if err != nil {
			return nil, 0, err
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.QuoteTimeout)
		out, err := r.client.Quote(callCtx, path, amountIn)
		cancel()

		if err != nil {
			if apperror.HasCode(err, apperror.CodeQuoteReverted) {
				r.log.Debug(ctx, "quoter reverted, no pool at tier",
					"path", path.String(), "fee_tier", tier)
				continue
			}
			return nil, 0, err
		}
		if out.Sign() == 0 {
			r.log.Debug(ctx, "zero liquidity at tier",
				"path", path.String(), "fee_tier", tier)
			continue
		}
		return out, tier, nil
	}
	return nil, 0, nil
}

// stableResult caches the outcome of pricing a non-stable candidate against
// the stable set within one top-level Resolve call.
type stableResult struct {
	price  decimal.Decimal
	stable *asset.Asset
	tier   uint32
	found  bool
}

// stablePrice resolves a non-stable quote token's own USD price using stable
// candidates only. This is the depth-1 bound: it never recurses further, so
// a quote-token configuration that references itself cannot loop.
func (r *Resolver) stablePrice(ctx context.Context, cand domain.QuoteToken, memo map[common.Address]stableResult) (stableResult, bool, error) {
	if res, ok := memo[cand.Asset.Address()]; ok {
		return res, res.found, nil
	}

	amountIn := asset.OneUnit(cand.Asset).Raw()

	for _, s := range r.cfg.Candidates {
		if !s.Stable || s.Asset.Address() == cand.Asset.Address() {
			continue
		}

		out, tier, err := r.probe(ctx, cand.Asset.Address(), s, amountIn)
		if err != nil {
			return stableResult{}, false, err
		}
		if out == nil {
			continue
		}

		res := stableResult{
			price:  decimal.NewFromBigInt(out, -int32(s.Asset.Decimals())),
			stable: s.Asset,
			tier:   tier,
			found:  true,
		}
		memo[cand.Asset.Address()] = res
		return res, true, nil
	}

	memo[cand.Asset.Address()] = stableResult{}
	return stableResult{}, false, nil
}
