package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"dust-scooper-go/internal/config"
	"dust-scooper-go/internal/jupiter"
	"dust-scooper-go/internal/logger"
	"dust-scooper-go/internal/price"
	"dust-scooper-go/internal/registry"
	"dust-scooper-go/internal/scooper"
	"dust-scooper-go/internal/solana"
	"dust-scooper-go/internal/wallet"
)

const Version = "1.0.0"

// CLI flags
var (
	configFile = flag.String("config", "", "Path to config file")
	network    = flag.String("network", "", "Network to use (mainnet/devnet)")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")

	ownerKey  = flag.String("owner", "", "Wallet address to scan (read-only, overrides configured key)")
	selectAll = flag.Bool("all", false, "Select every eligible asset")
	maxUSD    = flag.Float64("max-usd", 0, "Only auto-select assets worth at most this many USD (0 = no limit)")
	dryRun    = flag.Bool("dry-run", false, "Plan and report without signing or sending")
	assumeYes = flag.Bool("yes", false, "Skip the interactive confirmation prompt")
)

// App wires the scooper components together for one CLI run
type App struct {
	config      *config.Config
	logger      *logger.Logger
	sweepLogger *logger.SweepLogger
	rpc         *solana.Client
	wallet      *wallet.Wallet
	registry    *registry.Client
	resolver    *scooper.Resolver
	planner     *scooper.Planner
	assets      *scooper.AssetList
	tokenCache  map[string]*registry.TokenInfo
	forbidden   map[string]bool
	owner       solanago.PublicKey
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyCliOverrides(cfg)

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
		SweepLogDir: cfg.Logging.SweepLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(fmt.Sprintf("🛑 Received signal: %v", sig))
		cancel()
	}()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if err := app.Run(ctx); err != nil {
		log.WithError(err).Fatal("Scooper run failed")
	}
}

func applyCliOverrides(cfg *config.Config) {
	if *network != "" {
		cfg.Network = *network
		cfg.RPCUrl = config.GetRPCEndpoint(*network)
		cfg.WSUrl = config.GetWSEndpoint(*network)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
}

// NewApp builds every component. -owner scans an arbitrary address
// without a signing key, which limits the run to -dry-run.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	sweepLogger, err := logger.NewSweepLogger(cfg.Logging.SweepLogDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep logger: %w", err)
	}

	rpc := solana.NewClient(solana.ClientConfig{
		Endpoint: cfg.RPCUrl,
		APIKey:   cfg.RPCAPIKey,
		Timeout:  cfg.GetHTTPTimeout(),
	}, log.Logger)

	app := &App{
		config:      cfg,
		logger:      log,
		sweepLogger: sweepLogger,
		rpc:         rpc,
		registry: registry.NewClient(registry.ClientConfig{
			AllURL:    cfg.Registry.AllURL,
			StrictURL: cfg.Registry.StrictURL,
			Timeout:   cfg.GetHTTPTimeout(),
		}, log.Logger),
	}

	if *ownerKey != "" {
		app.owner, err = solanago.PublicKeyFromBase58(*ownerKey)
		if err != nil {
			return nil, fmt.Errorf("invalid -owner address: %w", err)
		}
	} else {
		app.wallet, err = wallet.NewWallet(wallet.WalletConfig{
			PrivateKey: cfg.PrivateKey,
			Mnemonic:   cfg.Mnemonic,
		}, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		app.owner = app.wallet.PublicKey()
	}

	if !*dryRun && app.wallet == nil {
		return nil, fmt.Errorf("a signing wallet is required unless -dry-run is set")
	}

	tokens, err := app.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := tokens[cfg.Scoop.TargetMint]
	if !ok {
		return nil, fmt.Errorf("target mint %s is not in the token catalog", cfg.Scoop.TargetMint)
	}
	app.forbidden = cfg.ForbiddenSet(target.Symbol)
	app.assets = scooper.NewAssetList(app.forbidden)

	prices := price.NewClient(price.ClientConfig{
		BaseURL: cfg.Price.BaseURL,
		Timeout: cfg.GetHTTPTimeout(),
	}, log.Logger)

	swaps := jupiter.NewClient(jupiter.ClientConfig{
		BaseURL: cfg.Jupiter.BaseURL,
		Timeout: cfg.GetHTTPTimeout(),
	}, log.Logger)

	scanner := scooper.NewScanner(rpc, log.Logger)
	app.resolver = scooper.NewResolver(scanner, swaps, prices, scooper.ResolverConfig{
		TargetMint:     cfg.Scoop.TargetMint,
		SlippageBps:    cfg.Scoop.SlippageBps,
		PlatformFeeBps: cfg.Jupiter.PlatformFeeBps,
		FeeAccount:     cfg.Jupiter.FeeAccount,
	}, log.Logger)

	app.planner, err = scooper.NewPlanner(rpc, prices, scooper.PlannerConfig{
		Target:        target,
		FeeTargets:    cfg.Scoop.FeeTargets,
		BurnThreshold: decimal.NewFromFloat(cfg.Scoop.BurnThresholdUSD),
		Forbidden:     app.forbidden,
	}, app.owner, log.Logger)
	if err != nil {
		return nil, err
	}

	app.tokenCache = tokens
	return app, nil
}

// Run executes one scan-resolve-sweep cycle
func (a *App) Run(ctx context.Context) error {
	a.logger.Info(fmt.Sprintf("🧹 Dust Scooper v%s (wallet %s)", Version, a.owner))

	observer := &loggingObserver{assets: a.assets, logger: a.logger}
	if err := a.resolver.FindQuotes(ctx, a.owner, a.tokenCache, a.forbidden, observer); err != nil {
		return err
	}

	if a.assets.Len() == 0 {
		a.logger.Info("✨ No dust found, wallet is clean")
		return nil
	}

	a.applySelection()
	a.printTable()

	checked := a.assets.CheckedAssets()
	if len(checked) == 0 {
		a.logger.Info("Nothing selected, exiting")
		return nil
	}

	if *dryRun {
		a.logger.WithField("selected", len(checked)).Info("🔍 Dry run, stopping before signing")
		return nil
	}

	if !*assumeYes && !confirm(fmt.Sprintf("Scoop %d assets into %s?", len(checked), a.config.Scoop.TargetMint)) {
		a.logger.Info("Aborted by user")
		return nil
	}

	ws := solana.NewWSClient(a.config.WSUrl, a.logger.Logger)
	var confirmer scooper.Confirmer
	if err := ws.Connect(); err != nil {
		a.logger.WithError(err).Warn("WebSocket unavailable, falling back to status polling")
	} else {
		confirmer = ws
		defer ws.Close()
	}

	sweeper := scooper.NewSweeper(a.rpc, confirmer, a.wallet, a.planner,
		a.config.GetConfirmTimeout(), a.logger.Logger)

	if err := sweeper.Sweep(ctx, checked, observer); err != nil {
		return err
	}

	a.printSummary()
	return nil
}

// applySelection realizes the CLI selection policy: -all checks every
// eligible asset, optionally capped by -max-usd.
func (a *App) applySelection() {
	if !*selectAll {
		return
	}
	a.assets.SelectAll(true)
	if *maxUSD <= 0 {
		return
	}
	limit := decimal.NewFromFloat(*maxUSD)
	for _, state := range a.assets.Snapshot() {
		if state.USDValue != nil && state.USDValue.GreaterThan(limit) {
			_ = a.assets.SetChecked(state.ID(), false)
		}
	}
}

func (a *App) printTable() {
	fmt.Println()
	fmt.Printf("%-12s %-20s %14s %12s %8s %8s %s\n",
		"SYMBOL", "NAME", "BALANCE", "USD", "QUOTE", "STRICT", "SELECTED")
	fmt.Println(strings.Repeat("-", 90))

	for _, state := range a.assets.Snapshot() {
		token := state.Asset.Token
		usd := "?"
		if state.USDValue != nil {
			usd = "$" + state.USDValue.StringFixed(4)
		}
		quoted := "-"
		if state.Quote != nil {
			quoted = "yes"
		}
		strict := "-"
		if token.Strict {
			strict = "yes"
		}
		selected := "-"
		if state.Checked {
			selected = "[x]"
		} else if a.forbidden[token.Symbol] {
			selected = "n/a"
		}
		fmt.Printf("%-12s %-20s %14s %12s %8s %8s %s\n",
			truncate(token.Symbol, 12), truncate(token.Name, 20),
			state.Asset.Balance.String(), usd, quoted, strict, selected)
	}
	fmt.Println()
}

func (a *App) printSummary() {
	scooped, failed := 0, 0
	valueUSD := decimal.Zero

	for _, state := range a.assets.Snapshot() {
		if state.Status == "" {
			continue
		}

		entry := logger.SweepLog{
			Timestamp:    time.Now(),
			Mint:         state.ID(),
			TokenName:    state.Asset.Token.Name,
			TokenSymbol:  state.Asset.Token.Symbol,
			Balance:      state.Asset.Balance.String(),
			Status:       state.Status,
			Signature:    state.TxID,
			ErrorMessage: state.LastError,
		}
		if state.Quote != nil {
			entry.SwapOut = state.Quote.OutAmount
		}
		if err := a.sweepLogger.LogSweep(entry); err != nil {
			a.logger.WithError(err).Warn("Failed to write sweep log entry")
		}
		a.logger.LogSweepOutcome(state.ID(), state.Asset.Token.Symbol, state.Status, state.TxID)

		switch state.Status {
		case scooper.StatusScooped:
			scooped++
			if state.USDValue != nil {
				valueUSD = valueUSD.Add(*state.USDValue)
			}
		case scooper.StatusError:
			failed++
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"scooped":   scooped,
		"failed":    failed,
		"value_usd": valueUSD.StringFixed(4),
	}).Info("🧹 Sweep complete")
}

// loggingObserver records events into the asset list and narrates them
type loggingObserver struct {
	assets *scooper.AssetList
	logger *logger.Logger
}

func (o *loggingObserver) OnAsset(id string, balance scooper.TokenBalance) {
	o.assets.OnAsset(id, balance)
	o.logger.LogAssetFound(id, balance.Token.Symbol, balance.Balance.String(), balance.ProgramID.String())
}

func (o *loggingObserver) OnQuote(id string, quote *jupiter.QuoteResponse) {
	o.assets.OnQuote(id, quote)
	o.logger.LogQuoteFound(id, quote.InAmount, quote.OutAmount)
}

func (o *loggingObserver) OnSwap(id string, swap *jupiter.SwapInstructionsResponse) {
	o.assets.OnSwap(id, swap)
}

func (o *loggingObserver) OnPrice(id string, usd decimal.Decimal) {
	o.assets.OnPrice(id, usd)
}

func (o *loggingObserver) OnState(id string, status string) {
	o.assets.OnState(id, status)
	o.logger.WithFields(map[string]interface{}{
		"asset":  id,
		"status": status,
	}).Info("Asset status changed")
}

func (o *loggingObserver) OnTxID(id string, txid string) {
	o.assets.OnTxID(id, txid)
}

func (o *loggingObserver) OnError(id string, err error) {
	o.assets.OnError(id, err)
	o.logger.WithError(err).WithField("asset", id).Warn("Asset issue")
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
