package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"
)

// Wallet holds the signing keypair. It implements the signing surface the
// sweeper needs: single-transaction signing and all-or-nothing batch signing.
type Wallet struct {
	account types.Account
	priv    solanago.PrivateKey
	pub     solanago.PublicKey
	logger  *logrus.Logger
}

// WalletConfig contains wallet configuration. Exactly one of PrivateKey
// (base58, 64 bytes) or Mnemonic must be set.
type WalletConfig struct {
	PrivateKey string
	Mnemonic   string
	Passphrase string
}

// NewWallet creates a wallet from a base58 private key or a BIP39 mnemonic
func NewWallet(cfg WalletConfig, logger *logrus.Logger) (*Wallet, error) {
	var account types.Account
	var err error

	switch {
	case cfg.PrivateKey != "":
		account, err = types.AccountFromBase58(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	case cfg.Mnemonic != "":
		account, err = accountFromMnemonic(cfg.Mnemonic, cfg.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("invalid mnemonic: %w", err)
		}
	default:
		return nil, fmt.Errorf("private key or mnemonic is required")
	}

	priv := solanago.PrivateKey(account.PrivateKey)

	wallet := &Wallet{
		account: account,
		priv:    priv,
		pub:     priv.PublicKey(),
		logger:  logger,
	}

	logger.WithFields(logrus.Fields{
		"public_key": wallet.pub.String(),
	}).Info("Wallet initialized")

	return wallet, nil
}

// accountFromMnemonic derives the ed25519 keypair from the BIP39 seed the
// same way solana-keygen does: ed25519 key from seed[0:32].
func accountFromMnemonic(mnemonic, passphrase string) (types.Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return types.Account{}, fmt.Errorf("mnemonic failed checksum validation")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	privateKey := ed25519.NewKeyFromSeed(seed[:32])
	return types.AccountFromBase58(base58.Encode(privateKey))
}

// Connected reports whether a signing key is available
func (w *Wallet) Connected() bool {
	return w != nil && len(w.priv) > 0
}

// PublicKey returns the wallet's public key
func (w *Wallet) PublicKey() solanago.PublicKey {
	return w.pub
}

// PublicKeyString returns the wallet's public key as base58 string
func (w *Wallet) PublicKeyString() string {
	return w.pub.String()
}

// SignTransaction signs a single transaction in place
func (w *Wallet) SignTransaction(tx *solanago.Transaction) error {
	if _, err := tx.Sign(w.signerFor); err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// SignAllTransactions signs the whole batch or none of it: the first
// failure aborts and the caller must discard every transaction in the
// slice, signed or not. There is no partial-batch submission path.
func (w *Wallet) SignAllTransactions(txs []*solanago.Transaction) error {
	for i, tx := range txs {
		if _, err := tx.Sign(w.signerFor); err != nil {
			return fmt.Errorf("failed to sign transaction %d of %d: %w", i+1, len(txs), err)
		}
	}

	w.logger.WithField("count", len(txs)).Debug("Signed transaction batch")
	return nil
}

func (w *Wallet) signerFor(key solanago.PublicKey) *solanago.PrivateKey {
	if key.Equals(w.pub) {
		return &w.priv
	}
	return nil
}
