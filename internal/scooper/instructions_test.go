package scooper

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	solanago "github.com/gagliardetto/solana-go"

	"dust-scooper-go/internal/jupiter"
	"dust-scooper-go/pkg/utils"
)

func TestBuildBurnInstruction(t *testing.T) {
	account := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()
	owner := solanago.NewWallet().PublicKey()

	ix := BuildBurnInstruction(TokenProgramID, account, mint, owner, 123456)

	if !ix.ProgramID().Equals(TokenProgramID) {
		t.Errorf("program id = %s, want token program", ix.ProgramID())
	}

	data, err := ix.Data()
	if err != nil {
		t.Fatalf("Data() error: %v", err)
	}
	if data[0] != 8 {
		t.Errorf("opcode = %d, want 8", data[0])
	}
	if got := binary.LittleEndian.Uint64(data[1:9]); got != 123456 {
		t.Errorf("amount = %d, want 123456", got)
	}

	accounts := ix.Accounts()
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
	if !accounts[0].PublicKey.Equals(account) || !accounts[0].IsWritable || accounts[0].IsSigner {
		t.Errorf("account meta 0 wrong: %+v", accounts[0])
	}
	if !accounts[1].PublicKey.Equals(mint) || !accounts[1].IsWritable {
		t.Errorf("account meta 1 wrong: %+v", accounts[1])
	}
	if !accounts[2].PublicKey.Equals(owner) || !accounts[2].IsSigner {
		t.Errorf("account meta 2 wrong: %+v", accounts[2])
	}
}

func TestBuildCloseAccountInstruction(t *testing.T) {
	account := solanago.NewWallet().PublicKey()
	owner := solanago.NewWallet().PublicKey()

	ix := BuildCloseAccountInstruction(Token2022ProgramID, account, owner, owner)

	if !ix.ProgramID().Equals(Token2022ProgramID) {
		t.Errorf("program id = %s, want token-2022 program", ix.ProgramID())
	}

	data, _ := ix.Data()
	if len(data) != 1 || data[0] != 9 {
		t.Errorf("data = %v, want [9]", data)
	}

	accounts := ix.Accounts()
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
	if !accounts[2].IsSigner {
		t.Error("owner must be a signer")
	}
}

func TestBuildTransferCheckedInstruction(t *testing.T) {
	source := solanago.NewWallet().PublicKey()
	mint := solanago.NewWallet().PublicKey()
	dest := solanago.NewWallet().PublicKey()
	owner := solanago.NewWallet().PublicKey()

	ix := BuildTransferCheckedInstruction(TokenProgramID, source, mint, dest, owner, 1152, 5)

	data, _ := ix.Data()
	if data[0] != 12 {
		t.Errorf("opcode = %d, want 12", data[0])
	}
	if got := binary.LittleEndian.Uint64(data[1:9]); got != 1152 {
		t.Errorf("amount = %d, want 1152", got)
	}
	if data[9] != 5 {
		t.Errorf("decimals = %d, want 5", data[9])
	}

	accounts := ix.Accounts()
	if len(accounts) != 4 {
		t.Fatalf("got %d accounts, want 4", len(accounts))
	}
	if accounts[1].IsWritable {
		t.Error("mint must not be writable in transferChecked")
	}
}

func TestBuildHarvestWithheldInstruction(t *testing.T) {
	mint := solanago.NewWallet().PublicKey()
	source := solanago.NewWallet().PublicKey()

	ix := BuildHarvestWithheldInstruction(mint, source)

	if !ix.ProgramID().Equals(Token2022ProgramID) {
		t.Errorf("harvest must target the token-2022 program, got %s", ix.ProgramID())
	}

	data, _ := ix.Data()
	if !bytes.Equal(data, []byte{26, 4}) {
		t.Errorf("data = %v, want [26 4]", data)
	}

	accounts := ix.Accounts()
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	for i, meta := range accounts {
		if !meta.IsWritable {
			t.Errorf("account %d must be writable", i)
		}
		if meta.IsSigner {
			t.Errorf("account %d must not be a signer, harvest is permissionless", i)
		}
	}
}

func TestDecodeInstruction(t *testing.T) {
	program := solanago.NewWallet().PublicKey()
	acc := solanago.NewWallet().PublicKey()
	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	encoded := jupiter.Instruction{
		ProgramID: program.String(),
		Accounts: []jupiter.AccountMeta{
			{Pubkey: acc.String(), IsSigner: true, IsWritable: false},
		},
		Data: utils.EncodeBase64(payload),
	}

	ix, err := DecodeInstruction(encoded)
	if err != nil {
		t.Fatalf("DecodeInstruction error: %v", err)
	}
	if !ix.ProgramID().Equals(program) {
		t.Errorf("program id = %s, want %s", ix.ProgramID(), program)
	}
	data, _ := ix.Data()
	if !bytes.Equal(data, payload) {
		t.Errorf("data = %v, want %v", data, payload)
	}
	accounts := ix.Accounts()
	if len(accounts) != 1 || !accounts[0].IsSigner || accounts[0].IsWritable {
		t.Errorf("account metas wrong: %+v", accounts)
	}
}

func TestDecodeInstructionRejectsBadInput(t *testing.T) {
	_, err := DecodeInstruction(jupiter.Instruction{ProgramID: "not-base58!!"})
	if err == nil {
		t.Error("expected error for invalid program id")
	}

	_, err = DecodeInstruction(jupiter.Instruction{
		ProgramID: solanago.NewWallet().PublicKey().String(),
		Data:      "%%%not base64%%%",
	})
	if err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestDecodeLookupTableAddresses(t *testing.T) {
	first := solanago.NewWallet().PublicKey()
	second := solanago.NewWallet().PublicKey()

	data := make([]byte, lookupTableMetaSize)
	data = append(data, first.Bytes()...)
	data = append(data, second.Bytes()...)

	entries, err := decodeLookupTableAddresses(data)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].Equals(first) || !entries[1].Equals(second) {
		t.Error("decoded addresses do not match")
	}
}

func TestDecodeLookupTableAddressesRejectsShortData(t *testing.T) {
	if _, err := decodeLookupTableAddresses(make([]byte, 10)); err == nil {
		t.Error("expected error for truncated table")
	}
	// misaligned address region
	if _, err := decodeLookupTableAddresses(make([]byte, lookupTableMetaSize+31)); err == nil {
		t.Error("expected error for misaligned table")
	}
}

func TestFeeShare(t *testing.T) {
	tests := []struct {
		name    string
		out     int64
		percent float64
		want    int64
	}{
		// floor(100/0.23) = 434, 500000/434 = 1152
		{"fractional percent", 500000, 0.23, 1152},
		{"half", 1000, 50, 500},
		{"one percent", 12345, 1, 123},
		{"floors to zero", 100, 0.23, 0},
		{"full amount", 777, 100, 777},
		{"zero percent", 1000, 0, 0},
		{"zero output", 0, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FeeShare(big.NewInt(tc.out), tc.percent)
			if got.Int64() != tc.want {
				t.Errorf("FeeShare(%d, %v) = %s, want %d", tc.out, tc.percent, got, tc.want)
			}
		})
	}

	if FeeShare(nil, 1).Sign() != 0 {
		t.Error("nil output must yield zero share")
	}
}

func TestFeeShareIndependentTargets(t *testing.T) {
	// Two targets each take their cut of the full output, not of the remainder
	out := big.NewInt(500000)
	first := FeeShare(out, 0.23)
	second := FeeShare(out, 0.23)
	if first.Cmp(second) != 0 {
		t.Errorf("shares differ: %s vs %s", first, second)
	}
}
