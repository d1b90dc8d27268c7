package scooper

import (
	"context"
	"fmt"
	"math/big"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"dust-scooper-go/internal/config"
	"dust-scooper-go/internal/jupiter"
	"dust-scooper-go/internal/price"
	"dust-scooper-go/internal/registry"
	solrpc "dust-scooper-go/internal/solana"
)

// PlannerConfig contains planning policy
type PlannerConfig struct {
	Target        *registry.TokenInfo
	FeeTargets    []config.FeeTarget
	BurnThreshold decimal.Decimal
	Forbidden     map[string]bool
}

// Planner assembles one versioned transaction per asset: the swap bundle
// if a route exists, leftover burn, withheld-fee harvest and account
// close where applicable, then the platform fee transfers.
type Planner struct {
	rpc        *solrpc.Client
	prices     *price.Client
	config     PlannerConfig
	wallet     solanago.PublicKey
	targetMint solanago.PublicKey
	logger     *logrus.Logger
}

// NewPlanner creates a new transaction planner
func NewPlanner(rpc *solrpc.Client, prices *price.Client, cfg PlannerConfig, wallet solanago.PublicKey, logger *logrus.Logger) (*Planner, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("planner requires a target token")
	}
	targetMint, err := solanago.PublicKeyFromBase58(cfg.Target.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid target mint %q: %w", cfg.Target.Address, err)
	}

	return &Planner{
		rpc:        rpc,
		prices:     prices,
		config:     cfg,
		wallet:     wallet,
		targetMint: targetMint,
		logger:     logger,
	}, nil
}

// BuildPlan produces the asset's reclaim transaction, or nil when the
// asset yields nothing actionable: unchecked, forbidden, or a burn
// blocked by an unknown or too-large valuation. A nil plan with a nil
// error means skip, never failure.
func (p *Planner) BuildPlan(ctx context.Context, blockhash solanago.Hash, state *AssetState) (*solanago.Transaction, error) {
	if !state.Checked {
		return nil, nil
	}
	// Forbidden tokens are rejected here too, independent of whatever
	// selection state a caller hands in.
	if p.config.Forbidden[state.Asset.Token.Symbol] {
		return nil, nil
	}

	asset := state.Asset
	swapping := state.Quote != nil && state.Swap != nil

	instructions := make([]solanago.Instruction, 0, 8)
	tables := make(map[solanago.PublicKey]solanago.PublicKeySlice)

	if swapping {
		decoded, resolved, err := p.swapInstructions(ctx, state)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, decoded...)
		tables = resolved
	}

	burnAmount, skip, err := p.burnAmount(ctx, state, swapping)
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}

	if burnAmount.Sign() > 0 {
		if !burnAmount.IsUint64() {
			return nil, fmt.Errorf("burn amount %s overflows u64", burnAmount)
		}
		instructions = append(instructions, BuildBurnInstruction(
			asset.ProgramID, asset.AccountID, mustMint(asset), p.wallet, burnAmount.Uint64()))
	}

	// Withheld transfer fees accrue on the account, not the balance, so
	// they are harvested even when there is nothing left to burn.
	if asset.IsToken2022() && !swapping {
		instructions = append(instructions, BuildHarvestWithheldInstruction(mustMint(asset), asset.AccountID))
	}

	// A swapped Token-2022 account may still carry withheld fees when the
	// swap lands, which would make an in-transaction close fail. Its rent
	// is left for a later pass.
	if !(asset.IsToken2022() && swapping) {
		instructions = append(instructions, BuildCloseAccountInstruction(
			asset.ProgramID, asset.AccountID, p.wallet, p.wallet))
	}

	if swapping {
		feeIxs, err := p.feeTransfers(state)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, feeIxs...)
	}

	if len(instructions) == 0 {
		return nil, nil
	}

	tx, err := solanago.NewTransaction(
		instructions,
		blockhash,
		solanago.TransactionPayer(p.wallet),
		solanago.TransactionAddressTables(tables),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble transaction for %s: %w", asset.Token.Symbol, err)
	}

	p.logger.WithFields(logrus.Fields{
		"symbol":       asset.Token.Symbol,
		"instructions": len(instructions),
		"swap":         swapping,
		"burn":         burnAmount.String(),
	}).Debug("Plan assembled")

	return tx, nil
}

// swapInstructions decodes the stored bundle in execution order and
// resolves its lookup tables. The routing service's cleanup instruction
// is dropped: it closes a wrapped-SOL account this flow never creates.
func (p *Planner) swapInstructions(ctx context.Context, state *AssetState) ([]solanago.Instruction, map[solanago.PublicKey]solanago.PublicKeySlice, error) {
	bundle := state.Swap

	ordered := make([]jupiter.Instruction, 0, len(bundle.ComputeBudgetInstructions)+len(bundle.SetupInstructions)+1)
	ordered = append(ordered, bundle.ComputeBudgetInstructions...)
	ordered = append(ordered, bundle.SetupInstructions...)
	ordered = append(ordered, bundle.SwapInstruction)

	decoded := make([]solanago.Instruction, 0, len(ordered))
	for _, ix := range ordered {
		instruction, err := DecodeInstruction(ix)
		if err != nil {
			return nil, nil, fmt.Errorf("swap bundle for %s: %w", state.Asset.Token.Symbol, err)
		}
		decoded = append(decoded, instruction)
	}

	tables, err := FetchLookupTables(ctx, p.rpc, bundle.AddressLookupTableAddresses)
	if err != nil {
		return nil, nil, err
	}

	return decoded, tables, nil
}

// burnAmount decides how much of the balance to burn. With a swap in the
// plan, only the unswapped remainder burns. Without one, the full
// balance burns, but only when a known valuation says it is worth less
// than the threshold; an unknown or too-large value skips the asset.
func (p *Planner) burnAmount(ctx context.Context, state *AssetState, swapping bool) (*big.Int, bool, error) {
	balance := state.Asset.Balance

	if swapping {
		inAmount, err := state.Quote.InAmountInt()
		if err != nil {
			return nil, false, err
		}
		leftover := new(big.Int).Sub(balance, inAmount)
		if leftover.Sign() < 0 {
			return nil, false, fmt.Errorf("quote for %s consumes %s of a %s balance",
				state.Asset.Token.Symbol, inAmount, balance)
		}
		return leftover, false, nil
	}

	if balance.Sign() == 0 {
		return new(big.Int), false, nil
	}

	usd := state.USDValue
	if usd == nil {
		value, err := p.prices.USDValue(ctx, state.Asset.Token.Address, balance, state.Asset.Token.Decimals)
		if err != nil {
			p.logger.WithField("symbol", state.Asset.Token.Symbol).
				Warn("Skipping burn of asset with unknown value")
			return nil, true, nil
		}
		usd = &value
	}

	if usd.GreaterThan(p.config.BurnThreshold) {
		p.logger.WithFields(logrus.Fields{
			"symbol": state.Asset.Token.Symbol,
			"usd":    usd.String(),
		}).Warn("Skipping burn of asset above value threshold")
		return nil, true, nil
	}

	return new(big.Int).Set(balance), false, nil
}

// feeTransfers builds one transfer per fee target, each cut from the
// full swap output. Targets whose share floors to zero get nothing.
func (p *Planner) feeTransfers(state *AssetState) ([]solanago.Instruction, error) {
	if len(p.config.FeeTargets) == 0 {
		return nil, nil
	}

	outAmount, err := state.Quote.OutAmountInt()
	if err != nil {
		return nil, err
	}

	source, _, err := solanago.FindAssociatedTokenAddress(p.wallet, p.targetMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive target token account: %w", err)
	}

	transfers := make([]solanago.Instruction, 0, len(p.config.FeeTargets))
	for _, target := range p.config.FeeTargets {
		share := FeeShare(outAmount, target.Percent)
		if share.Sign() == 0 {
			continue
		}
		if !share.IsUint64() {
			return nil, fmt.Errorf("fee share %s overflows u64", share)
		}
		destination, err := solanago.PublicKeyFromBase58(target.Account)
		if err != nil {
			return nil, fmt.Errorf("invalid fee account %q: %w", target.Account, err)
		}
		transfers = append(transfers, BuildTransferCheckedInstruction(
			TokenProgramID, source, p.targetMint, destination, p.wallet,
			share.Uint64(), p.config.Target.Decimals))
	}

	return transfers, nil
}

func mustMint(asset TokenBalance) solanago.PublicKey {
	return solanago.MustPublicKeyFromBase58(asset.Token.Address)
}
