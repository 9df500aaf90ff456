// Package pricing wires the price-discovery components together.
package pricing

import (
	"github.com/ethereum/go-ethereum"

	"github.com/steffenpharai/dexpricer/business/pricing/app"
	"github.com/steffenpharai/dexpricer/business/pricing/domain"
	"github.com/steffenpharai/dexpricer/business/pricing/infra/erc20"
	"github.com/steffenpharai/dexpricer/business/pricing/infra/uniswap"
	"github.com/steffenpharai/dexpricer/internal/asset"
	"github.com/steffenpharai/dexpricer/internal/config"
	"github.com/steffenpharai/dexpricer/internal/logger"
)

// New builds a Resolver from configuration: quote-token candidates are
// registered in the asset registry, and the quoter client and metadata
// reader share the given contract caller (typically an ethclient.Client).
func New(cfg *config.Config, caller ethereum.ContractCaller, log logger.LoggerInterface) (*app.Resolver, error) {
	registry := asset.DefaultRegistry()

	candidates := make([]domain.QuoteToken, 0, len(cfg.Pricing.QuoteTokens))
	for _, qt := range cfg.Pricing.QuoteTokens {
		name := qt.Name
		if name == "" {
			name = qt.Symbol
		}
		a := registry.Ensure(asset.MustNewToken(cfg.Ethereum.ChainID, qt.AddressHex(), qt.Symbol, name, qt.Decimals))
		candidates = append(candidates, domain.QuoteToken{
			Asset:    a,
			Stable:   qt.Stable,
			FeeTiers: qt.FeeTiers,
		})
	}

	quoteClient, err := uniswap.NewClient(caller, cfg.Pricing, log)
	if err != nil {
		return nil, err
	}

	reader, err := erc20.NewReader(caller, registry, cfg.Ethereum.ChainID, log)
	if err != nil {
		return nil, err
	}

	return app.NewResolver(quoteClient, reader, registry, app.ResolverConfig{
		ChainID:       cfg.Ethereum.ChainID,
		Candidates:    candidates,
		FeeTiersToTry: cfg.Pricing.FeeTiersToTry,
		QuoteTimeout:  cfg.Pricing.QuoteTimeout,
	}, log)
}
