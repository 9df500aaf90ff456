// Package uniswap implements the QuoteClient port against the Uniswap V3
// QuoterV2 contract.
package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steffenpharai/dexpricer/business/pricing/app"
	"github.com/steffenpharai/dexpricer/business/pricing/domain"
	"github.com/steffenpharai/dexpricer/internal/apperror"
	"github.com/steffenpharai/dexpricer/internal/circuitbreaker"
	"github.com/steffenpharai/dexpricer/internal/config"
	"github.com/steffenpharai/dexpricer/internal/logger"
	"github.com/steffenpharai/dexpricer/internal/ratelimit"
)

const (
	tracerName = "uniswap"
	meterName  = "uniswap"
)

// Ensure Client implements the QuoteClient port.
var _ app.QuoteClient = (*Client)(nil)

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Client issues read-only quoteExactInput calls. Each Quote is one blocking
// eth_call round trip; the context deadline is the only timeout, and no
// retries happen here.
type Client struct {
	caller    ethereum.ContractCaller
	quoter    common.Address
	quoterABI abi.ABI

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	log     logger.LoggerInterface

	tracer  trace.Tracer
	metrics *clientMetrics
}

// NewClient creates a QuoterV2 client.
func NewClient(caller ethereum.ContractCaller, cfg config.PricingConfig, log logger.LoggerInterface) (*Client, error) {
	parsedABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}

	limiter := ratelimit.Unlimited()
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	c := &Client{
		caller:    caller,
		quoter:    cfg.QuoterAddressHex(),
		quoterABI: parsedABI,
		limiter:   limiter,
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("uniswap-quoter")),
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	c.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	c.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Quote simulates swapping amountIn along path and returns the raw output
// amount. Zero is a valid no-liquidity result, not an error.
func (c *Client) Quote(ctx context.Context, path domain.SwapPath, amountIn *big.Int) (*big.Int, error) {
	ctx, span := c.tracer.Start(ctx, "uniswap.quote_exact_input",
		trace.WithAttributes(
			attribute.String("path", path.String()),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountIn must be positive"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.wrapCallError(err, path)
	}

	start := time.Now()
	c.metrics.quotesTotal.Add(ctx, 1)

	callData, err := c.quoterABI.Pack("quoteExactInput", path.Encode(), amountIn)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := c.cb.Execute(func() ([]byte, error) {
		return c.caller.CallContract(ctx, ethereum.CallMsg{
			To:   &c.quoter,
			Data: callData,
		}, nil)
	})

	c.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		c.metrics.quoteErrors.Add(ctx, 1)
		wrapped := c.wrapCallError(err, path)
		span.SetStatus(codes.Error, wrapped.Error())
		return nil, wrapped
	}

	amountOut, err := c.decodeAmountOut(result)
	if err != nil {
		c.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	span.SetStatus(codes.Ok, "quote received")

	c.log.Debug(ctx, "uniswap quote",
		"path", path.String(),
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
	)

	return amountOut, nil
}

func (c *Client) decodeAmountOut(result []byte) (*big.Int, error) {
	outputs, err := c.quoterABI.Unpack("quoteExactInput", result)
	if err != nil {
		return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithCause(err))
	}

	if len(outputs) < 4 {
		return nil, apperror.New(apperror.CodeDecodeFailed,
			apperror.WithContext(fmt.Sprintf("unexpected output length: %d", len(outputs))))
	}

	amountOut, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeDecodeFailed,
			apperror.WithContext(fmt.Sprintf("amountOut has type %T", outputs[0])))
	}

	return amountOut, nil
}

// wrapCallError maps transport failures onto the error taxonomy: deadline ->
// timeout, contract revert -> reverted (a per-path negative signal), open
// breaker and everything else -> connection failure.
func (c *Client) wrapCallError(err error, path domain.SwapPath) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperror.New(apperror.CodeQuoteTimeout,
			apperror.WithCause(err),
			apperror.WithContext(path.String()))
	case isRevert(err):
		return apperror.New(apperror.CodeQuoteReverted,
			apperror.WithCause(err),
			apperror.WithContext(path.String()))
	case circuitbreaker.IsOpen(err):
		return apperror.New(apperror.CodeConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("circuit breaker open"))
	default:
		return apperror.New(apperror.CodeConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(path.String()))
	}
}

// isRevert reports whether err is a contract revert rather than a transport
// failure. Nodes attach revert data via rpc.DataError; some providers only
// return the bare message.
func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
