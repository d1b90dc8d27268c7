package scooper

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"dust-scooper-go/internal/jupiter"
	"dust-scooper-go/internal/registry"
)

// Transaction lifecycle states for one asset
const (
	StatusScooping = "Scooping"
	StatusScooped  = "Scooped"
	StatusError    = "Error"
)

// TokenBalance is one wallet's holding of one token: the catalog entry,
// the raw base-unit balance, the owning token program and the token
// account holding the balance. Immutable after the scan.
type TokenBalance struct {
	Token     *registry.TokenInfo
	Balance   *big.Int
	ProgramID solanago.PublicKey
	AccountID solanago.PublicKey
}

// IsToken2022 reports whether the holding lives under the extended
// token program. Those accounts need fee harvesting before closing and
// must defer closing when a swap is in flight.
func (b TokenBalance) IsToken2022() bool {
	return b.ProgramID.Equals(Token2022ProgramID)
}

// AssetState tracks one holding's reclaim progress. Quote and Swap are
// attached by the resolver as they arrive; Swap is never present without
// Quote. Status moves only through the sweep lifecycle.
type AssetState struct {
	Asset     TokenBalance
	Quote     *jupiter.QuoteResponse
	Swap      *jupiter.SwapInstructionsResponse
	Checked   bool
	USDValue  *decimal.Decimal
	Status    string
	TxID      string
	LastError string
}

// ID returns the asset's identity: its mint address
func (s *AssetState) ID() string {
	return s.Asset.Token.Address
}

// AssetList is the session's asset collection. All mutation funnels
// through Update under one lock, so interleaved resolver, user and
// sweeper events can never lose writes.
type AssetList struct {
	mu        sync.RWMutex
	assets    map[string]*AssetState
	forbidden map[string]bool
}

// NewAssetList creates an empty collection. Tokens whose symbol is in
// the forbidden set can be stored and displayed but never checked.
func NewAssetList(forbidden map[string]bool) *AssetList {
	return &AssetList{
		assets:    make(map[string]*AssetState),
		forbidden: forbidden,
	}
}

// Put registers a discovered holding, replacing any previous state
func (l *AssetList) Put(id string, balance TokenBalance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets[id] = &AssetState{Asset: balance}
}

// Update applies fn to the asset under the collection lock. Returns
// false if the asset is unknown.
func (l *AssetList) Update(id string, fn func(*AssetState)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.assets[id]
	if !ok {
		return false
	}
	fn(state)
	return true
}

// Get returns a copy of the asset's state
func (l *AssetList) Get(id string) (AssetState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, ok := l.assets[id]
	if !ok {
		return AssetState{}, false
	}
	return *state, true
}

// Len returns the number of tracked assets
func (l *AssetList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.assets)
}

// Snapshot returns copies of all assets, sorted by symbol then mint
func (l *AssetList) Snapshot() []AssetState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make([]AssetState, 0, len(l.assets))
	for _, state := range l.assets {
		snapshot = append(snapshot, *state)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Asset.Token.Symbol != snapshot[j].Asset.Token.Symbol {
			return snapshot[i].Asset.Token.Symbol < snapshot[j].Asset.Token.Symbol
		}
		return snapshot[i].Asset.Token.Address < snapshot[j].Asset.Token.Address
	})
	return snapshot
}

// CheckedAssets returns copies of all checked assets
func (l *AssetList) CheckedAssets() []AssetState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	checked := make([]AssetState, 0)
	for _, state := range l.assets {
		if state.Checked {
			checked = append(checked, *state)
		}
	}
	sort.Slice(checked, func(i, j int) bool {
		return checked[i].Asset.Token.Address < checked[j].Asset.Token.Address
	})
	return checked
}

// SetChecked toggles an asset's opt-in flag. Forbidden tokens are never
// checkable, and assets already in a sweep lifecycle cannot be toggled.
func (l *AssetList) SetChecked(id string, checked bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.assets[id]
	if !ok {
		return fmt.Errorf("unknown asset %s", id)
	}
	if checked && l.forbidden[state.Asset.Token.Symbol] {
		return fmt.Errorf("token %s is not eligible for scooping", state.Asset.Token.Symbol)
	}
	if state.Status != "" {
		return fmt.Errorf("asset %s is already %s", id, state.Status)
	}
	state.Checked = checked
	return nil
}

// SelectAll checks or unchecks every eligible asset. Forbidden tokens
// and assets already in a sweep lifecycle are left untouched.
func (l *AssetList) SelectAll(checked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, state := range l.assets {
		if l.forbidden[state.Asset.Token.Symbol] || state.Status != "" {
			continue
		}
		state.Checked = checked
	}
}

// Resolver observer: record events into the collection

// OnAsset registers a discovered holding
func (l *AssetList) OnAsset(id string, balance TokenBalance) {
	l.Put(id, balance)
}

// OnQuote attaches a quote
func (l *AssetList) OnQuote(id string, quote *jupiter.QuoteResponse) {
	l.Update(id, func(state *AssetState) {
		state.Quote = quote
	})
}

// OnSwap attaches a swap instruction bundle
func (l *AssetList) OnSwap(id string, swap *jupiter.SwapInstructionsResponse) {
	l.Update(id, func(state *AssetState) {
		state.Swap = swap
	})
}

// OnPrice attaches a USD valuation
func (l *AssetList) OnPrice(id string, usd decimal.Decimal) {
	l.Update(id, func(state *AssetState) {
		state.USDValue = &usd
	})
}

// Sweep observer: record lifecycle transitions

// OnState records a lifecycle transition
func (l *AssetList) OnState(id string, status string) {
	l.Update(id, func(state *AssetState) {
		state.Status = status
	})
}

// OnTxID records a confirmed transaction's signature
func (l *AssetList) OnTxID(id string, txid string) {
	l.Update(id, func(state *AssetState) {
		state.TxID = txid
	})
}

// OnError records the most recent per-asset failure
func (l *AssetList) OnError(id string, err error) {
	l.Update(id, func(state *AssetState) {
		state.LastError = err.Error()
	})
}
