package scooper

import (
	"context"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"dust-scooper-go/internal/jupiter"
	"dust-scooper-go/internal/price"
	"dust-scooper-go/internal/registry"
)

// ResolveObserver receives discovery events as they happen. Asset
// registration always precedes the asset's other events; implementations
// must tolerate quote, swap and price events arriving in any order
// relative to each other.
type ResolveObserver interface {
	OnAsset(id string, balance TokenBalance)
	OnQuote(id string, quote *jupiter.QuoteResponse)
	OnSwap(id string, swap *jupiter.SwapInstructionsResponse)
	OnPrice(id string, usd decimal.Decimal)
	OnError(id string, err error)
}

// ResolverConfig contains resolver policy
type ResolverConfig struct {
	TargetMint     string
	SlippageBps    int
	PlatformFeeBps int
	FeeAccount     string
}

// Resolver drives discovery: scan the wallet, then enrich each holding
// with a quote, a swap instruction bundle and a USD valuation.
type Resolver struct {
	scanner *Scanner
	swaps   *jupiter.Client
	prices  *price.Client
	config  ResolverConfig
	logger  *logrus.Logger
}

// NewResolver creates a new resolver
func NewResolver(scanner *Scanner, swaps *jupiter.Client, prices *price.Client, config ResolverConfig, logger *logrus.Logger) *Resolver {
	return &Resolver{
		scanner: scanner,
		swaps:   swaps,
		prices:  prices,
		config:  config,
		logger:  logger,
	}
}

// FindQuotes scans the wallet and reports every catalog-known holding to
// the observer, then attaches quotes, swap bundles and valuations.
// Enrichment failures are per-asset: they are reported and the run
// continues. Only the scan itself is fatal.
func (r *Resolver) FindQuotes(ctx context.Context, owner solanago.PublicKey, tokens map[string]*registry.TokenInfo, forbidden map[string]bool, observer ResolveObserver) error {
	holdings, err := r.scanner.Scan(ctx, owner, tokens, forbidden)
	if err != nil {
		return fmt.Errorf("wallet scan failed: %w", err)
	}

	for _, holding := range holdings {
		id := holding.Token.Address
		observer.OnAsset(id, holding)

		if holding.Balance.Sign() > 0 {
			r.resolveSwap(ctx, owner, holding, observer)
			r.resolvePrice(ctx, holding, observer)
		}
	}

	return nil
}

func (r *Resolver) resolveSwap(ctx context.Context, owner solanago.PublicKey, holding TokenBalance, observer ResolveObserver) {
	id := holding.Token.Address

	quote, err := r.swaps.Quote(ctx, jupiter.QuoteRequest{
		InputMint:      id,
		OutputMint:     r.config.TargetMint,
		Amount:         holding.Balance,
		SlippageBps:    r.config.SlippageBps,
		PlatformFeeBps: r.config.PlatformFeeBps,
	})
	if err != nil {
		r.logger.WithError(err).WithField("symbol", holding.Token.Symbol).Debug("No route for asset")
		observer.OnError(id, fmt.Errorf("no quote for %s: %w", holding.Token.Symbol, err))
		return
	}
	observer.OnQuote(id, quote)

	// A swap bundle is only requested once a quote exists
	swap, err := r.swaps.SwapInstructions(ctx, jupiter.SwapRequest{
		UserPublicKey: owner.String(),
		QuoteResponse: quote,
		FeeAccount:    r.config.FeeAccount,
	})
	if err != nil {
		observer.OnError(id, fmt.Errorf("no swap instructions for %s: %w", holding.Token.Symbol, err))
		return
	}
	observer.OnSwap(id, swap)
}

func (r *Resolver) resolvePrice(ctx context.Context, holding TokenBalance, observer ResolveObserver) {
	id := holding.Token.Address

	usd, err := r.prices.USDValue(ctx, id, holding.Balance, holding.Token.Decimals)
	if err != nil {
		observer.OnError(id, fmt.Errorf("no valuation for %s: %w", holding.Token.Symbol, err))
		return
	}
	observer.OnPrice(id, usd)
}
