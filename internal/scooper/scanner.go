package scooper

import (
	"context"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"dust-scooper-go/internal/registry"
	solrpc "dust-scooper-go/internal/solana"
)

// splTokenAccountLength is the size of the base token account layout.
// Token-2022 accounts append TLV extension data past this point.
const splTokenAccountLength = 165

// tokenAccountLayout is the fixed prefix shared by both token programs
type tokenAccountLayout struct {
	Mint                 solanago.PublicKey
	Owner                solanago.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             solanago.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       solanago.PublicKey
}

// Scanner inventories a wallet's token accounts across both token programs
type Scanner struct {
	rpc    *solrpc.Client
	logger *logrus.Logger
}

// NewScanner creates a new wallet scanner
func NewScanner(rpc *solrpc.Client, logger *logrus.Logger) *Scanner {
	return &Scanner{
		rpc:    rpc,
		logger: logger,
	}
}

// Scan enumerates the owner's token accounts under the legacy and
// extended token programs and returns the holdings that appear in the
// token catalog. Unknown mints and forbidden symbols are dropped;
// zero balances are kept so their rent can still be reclaimed.
func (s *Scanner) Scan(ctx context.Context, owner solanago.PublicKey, tokens map[string]*registry.TokenInfo, forbidden map[string]bool) ([]TokenBalance, error) {
	holdings := make([]TokenBalance, 0)
	skipped := 0

	for _, programID := range []solanago.PublicKey{TokenProgramID, Token2022ProgramID} {
		accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, owner.String(), programID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s accounts: %w", programID, err)
		}

		for _, account := range accounts {
			layout, err := decodeTokenAccount(account.Data)
			if err != nil {
				s.logger.WithError(err).WithField("account", account.Pubkey).Warn("Skipping undecodable token account")
				continue
			}

			mint := layout.Mint.String()
			token, ok := tokens[mint]
			if !ok {
				skipped++
				continue
			}
			if forbidden[token.Symbol] {
				continue
			}

			accountID, err := solanago.PublicKeyFromBase58(account.Pubkey)
			if err != nil {
				return nil, fmt.Errorf("invalid account pubkey %q: %w", account.Pubkey, err)
			}

			holdings = append(holdings, TokenBalance{
				Token:     token,
				Balance:   new(big.Int).SetUint64(layout.Amount),
				ProgramID: programID,
				AccountID: accountID,
			})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"owner":    owner.String(),
		"holdings": len(holdings),
		"unknown":  skipped,
	}).Info("Wallet scan complete")

	return holdings, nil
}

func decodeTokenAccount(data []byte) (*tokenAccountLayout, error) {
	if len(data) < splTokenAccountLength {
		return nil, fmt.Errorf("token account data too short: %d bytes", len(data))
	}

	var layout tokenAccountLayout
	decoder := bin.NewBinDecoder(data[:splTokenAccountLength])
	if err := decoder.Decode(&layout); err != nil {
		return nil, fmt.Errorf("failed to decode token account: %w", err)
	}
	return &layout, nil
}
