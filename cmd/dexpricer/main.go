// Package main is the entry point for the dexpricer CLI: it resolves the
// USD price of the token addresses given as arguments and prints a JSON
// report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/steffenpharai/dexpricer/business/pricing"
	"github.com/steffenpharai/dexpricer/business/pricing/domain"
	"github.com/steffenpharai/dexpricer/internal/apm"
	"github.com/steffenpharai/dexpricer/internal/apperror"
	"github.com/steffenpharai/dexpricer/internal/config"
	"github.com/steffenpharai/dexpricer/internal/health"
	"github.com/steffenpharai/dexpricer/internal/logger"
	"github.com/steffenpharai/dexpricer/internal/metrics"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	retries := flag.Uint("retries", 3, "Max attempts per token for transient RPC failures")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dexpricer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: dexpricer [flags] <token-address> [token-address...]")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *retries, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type reportHop struct {
	Quote   string `json:"quote"`
	FeeTier uint32 `json:"fee_tier"`
}

type report struct {
	Address  string      `json:"address"`
	Symbol   string      `json:"symbol,omitempty"`
	Status   string      `json:"status"` // priced | unpriced | error
	PriceUSD string      `json:"price_usd,omitempty"`
	Route    []reportHop `json:"route,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func run(ctx context.Context, configPath string, retries uint, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addrs := make([]common.Address, 0, len(args))
	for _, arg := range args {
		if !common.IsHexAddress(arg) {
			return fmt.Errorf("not a token address: %s", arg)
		}
		addrs = append(addrs, common.HexToAddress(arg))
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name)
	defer func() { _ = log.Sync() }()

	log.Info(ctx, "starting dexpricer",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Ethereum.ChainID,
	)

	if cfg.Telemetry.Enabled {
		exporter := apm.ExporterConsole
		if cfg.Telemetry.OTLPEndpoint != "" {
			exporter = apm.ExporterOTLP
		}

		traceProvider, err := apm.NewTraceProvider(ctx, apm.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Exporter:     exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = traceProvider.Stop(shutdownCtx)
		}()

		meterProvider, err := metrics.NewMeterProvider(ctx, metrics.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Prometheus:   true,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = meterProvider.Shutdown(shutdownCtx)
		}()

		go func() {
			if err := metrics.ServePrometheusMetrics(cfg.Telemetry.PrometheusPort); err != nil {
				log.Warn(ctx, "metrics endpoint stopped", "error", err)
			}
		}()
	}

	client, err := ethclient.DialContext(ctx, cfg.Ethereum.HTTPURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC node: %w", err)
	}
	defer client.Close()

	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version)
	healthServer.RegisterCheck("rpc", func(ctx context.Context) (bool, string) {
		if _, err := client.ChainID(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	healthServer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Stop(shutdownCtx)
	}()

	resolver, err := pricing.New(cfg, client, log)
	if err != nil {
		return fmt.Errorf("failed to build resolver: %w", err)
	}

	// Resolutions for different tokens are independent; run them in parallel.
	reports := make([]report, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		g.Go(func() error {
			reports[i] = resolveOne(gctx, resolver, log, addr, retries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return err
	}

	for _, rep := range reports {
		if rep.Status == "error" {
			return fmt.Errorf("failed to resolve %s: %s", rep.Address, rep.Error)
		}
	}
	return nil
}

// resolveOne resolves a single token, retrying transient failures with
// exponential backoff. Retry policy lives here, at the caller: the core
// never retries on its own.
func resolveOne(ctx context.Context, resolver interface {
	ResolveAddress(ctx context.Context, addr common.Address) (domain.Resolution, error)
}, log logger.LoggerInterface, addr common.Address, retries uint) report {
	operation := func() (domain.Resolution, error) {
		res, err := resolver.ResolveAddress(ctx, addr)
		if err != nil {
			switch apperror.GetCode(err) {
			case apperror.CodeConnectionFailed, apperror.CodeQuoteTimeout:
				return domain.Resolution{}, err // transient, retry
			default:
				return domain.Resolution{}, backoff.Permanent(err)
			}
		}
		return res, nil
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(retries),
	)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			log.Error(ctx, "price resolution failed", "token", addr.Hex(), "details", appErr.ToLog())
		} else {
			log.Error(ctx, "price resolution failed", "token", addr.Hex(), "error", err.Error())
		}
		return report{
			Address: addr.Hex(),
			Status:  "error",
			Error:   err.Error(),
		}
	}

	if !res.IsPriced() {
		// Unpriced is a confirmed absence of liquidity, not a failure.
		return report{
			Address: addr.Hex(),
			Status:  "unpriced",
		}
	}

	quote := res.Quote()
	route := make([]reportHop, len(quote.Route))
	for i, hop := range quote.Route {
		route[i] = reportHop{Quote: hop.Quote.Symbol(), FeeTier: hop.FeeTier}
	}

	return report{
		Address:  addr.Hex(),
		Symbol:   quote.Token.Symbol(),
		Status:   "priced",
		PriceUSD: quote.PriceUSD().String(),
		Route:    route,
	}
}
