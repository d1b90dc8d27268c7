package wallet

import (
	"crypto/ed25519"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// the standard BIP39 test mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newKeypair(t *testing.T) (ed25519.PublicKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return pub, base58.Encode(priv)
}

func TestNewWalletFromPrivateKey(t *testing.T) {
	pub, encoded := newKeypair(t)

	w, err := NewWallet(WalletConfig{PrivateKey: encoded}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}
	if !w.Connected() {
		t.Error("wallet not connected")
	}
	if w.PublicKeyString() != base58.Encode(pub) {
		t.Errorf("public key = %s, want %s", w.PublicKeyString(), base58.Encode(pub))
	}
}

func TestNewWalletFromMnemonic(t *testing.T) {
	first, err := NewWallet(WalletConfig{Mnemonic: testMnemonic}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}
	second, err := NewWallet(WalletConfig{Mnemonic: testMnemonic}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}

	// derivation must be deterministic
	if !first.PublicKey().Equals(second.PublicKey()) {
		t.Errorf("mnemonic derivation not deterministic: %s vs %s",
			first.PublicKeyString(), second.PublicKeyString())
	}

	// a passphrase changes the derived key
	third, err := NewWallet(WalletConfig{Mnemonic: testMnemonic, Passphrase: "extra"}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}
	if third.PublicKey().Equals(first.PublicKey()) {
		t.Error("passphrase did not change the derived key")
	}
}

func TestNewWalletRejectsBadInput(t *testing.T) {
	cases := []WalletConfig{
		{},
		{PrivateKey: "not-base58!!"},
		{Mnemonic: "definitely not a valid mnemonic phrase at all here twelve"},
	}
	for _, cfg := range cases {
		if _, err := NewWallet(cfg, quietLogger()); err == nil {
			t.Errorf("config %+v: expected error", cfg)
		}
	}
}

func buildTestTransaction(t *testing.T, payer solanago.PublicKey) *solanago.Transaction {
	t.Helper()
	ix := solanago.NewInstruction(
		solanago.MemoProgramID,
		solanago.AccountMetaSlice{solanago.NewAccountMeta(payer, false, true)},
		[]byte("hi"),
	)
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{ix},
		solanago.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"),
		solanago.TransactionPayer(payer),
	)
	if err != nil {
		t.Fatalf("NewTransaction error: %v", err)
	}
	return tx
}

func TestSignTransaction(t *testing.T) {
	_, encoded := newKeypair(t)
	w, err := NewWallet(WalletConfig{PrivateKey: encoded}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}

	tx := buildTestTransaction(t, w.PublicKey())
	if err := w.SignTransaction(tx); err != nil {
		t.Fatalf("SignTransaction error: %v", err)
	}
	if len(tx.Signatures) == 0 || tx.Signatures[0].IsZero() {
		t.Error("transaction not signed")
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Errorf("signature invalid: %v", err)
	}
}

func TestSignAllTransactionsAbortsOnForeignSigner(t *testing.T) {
	_, encoded := newKeypair(t)
	w, err := NewWallet(WalletConfig{PrivateKey: encoded}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}

	mine := buildTestTransaction(t, w.PublicKey())
	foreign := buildTestTransaction(t, solanago.NewWallet().PublicKey())

	if err := w.SignAllTransactions([]*solanago.Transaction{mine, foreign}); err == nil {
		t.Error("batch with a foreign signer must fail as a whole")
	}
}

func TestSignAllTransactions(t *testing.T) {
	_, encoded := newKeypair(t)
	w, err := NewWallet(WalletConfig{PrivateKey: encoded}, quietLogger())
	if err != nil {
		t.Fatalf("NewWallet error: %v", err)
	}

	batch := []*solanago.Transaction{
		buildTestTransaction(t, w.PublicKey()),
		buildTestTransaction(t, w.PublicKey()),
	}
	if err := w.SignAllTransactions(batch); err != nil {
		t.Fatalf("SignAllTransactions error: %v", err)
	}
	for i, tx := range batch {
		if err := tx.VerifySignatures(); err != nil {
			t.Errorf("transaction %d: %v", i, err)
		}
	}
}
