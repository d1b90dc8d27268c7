package scooper

import (
	"context"
	"fmt"
	"sync"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	solrpc "dust-scooper-go/internal/solana"
	"dust-scooper-go/internal/wallet"
	"dust-scooper-go/pkg/utils"
)

// SweepObserver receives per-asset lifecycle events during a sweep
type SweepObserver interface {
	OnState(id string, status string)
	OnTxID(id string, txid string)
	OnError(id string, err error)
}

// Confirmer waits for a signature to reach confirmed commitment
type Confirmer interface {
	WaitForSignature(ctx context.Context, signature string) error
}

// Sweeper executes the reclaim: plan every checked asset against one
// blockhash, sign the whole batch in a single wallet interaction, then
// submit and confirm each transaction independently.
type Sweeper struct {
	rpc            *solrpc.Client
	confirmer      Confirmer
	signer         *wallet.Wallet
	planner        *Planner
	logger         *logrus.Logger
	confirmTimeout time.Duration
}

// NewSweeper creates a new sweeper. confirmer may be nil, in which case
// confirmation falls back to RPC status polling.
func NewSweeper(rpc *solrpc.Client, confirmer Confirmer, signer *wallet.Wallet, planner *Planner, confirmTimeout time.Duration, logger *logrus.Logger) *Sweeper {
	if confirmTimeout == 0 {
		confirmTimeout = 90 * time.Second
	}
	return &Sweeper{
		rpc:            rpc,
		confirmer:      confirmer,
		signer:         signer,
		planner:        planner,
		logger:         logger,
		confirmTimeout: confirmTimeout,
	}
}

type plannedSweep struct {
	id string
	tx *solanago.Transaction
}

// Sweep reclaims every checked asset. Signing is all or nothing: a
// rejected batch returns an error with no asset ever entering the
// lifecycle. After signing, each transaction is submitted and confirmed
// on its own; one asset's failure never touches the others.
func (s *Sweeper) Sweep(ctx context.Context, assets []AssetState, observer SweepObserver) error {
	blockhash, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch blockhash: %w", err)
	}
	recent, err := solanago.HashFromBase58(blockhash.Blockhash)
	if err != nil {
		return fmt.Errorf("invalid blockhash %q: %w", blockhash.Blockhash, err)
	}

	planned := s.buildPlans(ctx, recent, assets, observer)
	if len(planned) == 0 {
		s.logger.Info("Nothing to sweep")
		return nil
	}

	transactions := make([]*solanago.Transaction, len(planned))
	for i := range planned {
		transactions[i] = planned[i].tx
	}
	if err := s.signer.SignAllTransactions(transactions); err != nil {
		// Batch abort: no transaction from a partially signed batch is
		// ever submitted, and no asset status changes.
		return fmt.Errorf("batch signing failed: %w", err)
	}

	s.logger.WithField("transactions", len(planned)).Info("Batch signed, submitting")

	var wg sync.WaitGroup
	for i := range planned {
		wg.Add(1)
		go func(p plannedSweep) {
			defer wg.Done()
			s.submit(ctx, p, observer)
		}(planned[i])
	}
	wg.Wait()

	return nil
}

// buildPlans runs the planner concurrently over the assets. Plan
// failures are reported per asset and drop only that asset; nil plans
// are silent skips.
func (s *Sweeper) buildPlans(ctx context.Context, blockhash solanago.Hash, assets []AssetState, observer SweepObserver) []plannedSweep {
	var mu sync.Mutex
	var wg sync.WaitGroup
	planned := make([]plannedSweep, 0, len(assets))

	for i := range assets {
		wg.Add(1)
		go func(state *AssetState) {
			defer wg.Done()

			tx, err := s.planner.BuildPlan(ctx, blockhash, state)
			if err != nil {
				s.logger.WithError(err).WithField("symbol", state.Asset.Token.Symbol).Error("Plan failed")
				observer.OnError(state.ID(), err)
				return
			}
			if tx == nil {
				return
			}

			mu.Lock()
			planned = append(planned, plannedSweep{id: state.ID(), tx: tx})
			mu.Unlock()
		}(&assets[i])
	}
	wg.Wait()

	return planned
}

func (s *Sweeper) submit(ctx context.Context, p plannedSweep, observer SweepObserver) {
	observer.OnState(p.id, StatusScooping)

	raw, err := p.tx.MarshalBinary()
	if err != nil {
		observer.OnState(p.id, StatusError)
		observer.OnError(p.id, fmt.Errorf("failed to serialize transaction: %w", err))
		return
	}

	signature, err := s.rpc.SendTransaction(ctx, utils.EncodeBase64(raw))
	if err != nil {
		observer.OnState(p.id, StatusError)
		observer.OnError(p.id, fmt.Errorf("submission failed: %w", err))
		return
	}

	s.logger.WithFields(logrus.Fields{
		"asset":     p.id,
		"signature": signature,
	}).Info("Transaction submitted")

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	if s.confirmer != nil {
		err = s.confirmer.WaitForSignature(confirmCtx, signature)
	} else {
		err = s.rpc.ConfirmTransaction(confirmCtx, signature)
	}
	if err != nil {
		observer.OnState(p.id, StatusError)
		observer.OnError(p.id, fmt.Errorf("confirmation failed for %s: %w", signature, err))
		return
	}

	observer.OnState(p.id, StatusScooped)
	observer.OnTxID(p.id, signature)
}
