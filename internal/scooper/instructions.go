package scooper

import (
	"context"
	"fmt"
	"math/big"

	solanago "github.com/gagliardetto/solana-go"

	"dust-scooper-go/internal/config"
	"dust-scooper-go/internal/jupiter"
	solrpc "dust-scooper-go/internal/solana"
	"dust-scooper-go/pkg/utils"
)

// Token program IDs as typed keys
var (
	TokenProgramID     = solanago.MustPublicKeyFromBase58(config.TokenProgramID)
	Token2022ProgramID = solanago.MustPublicKeyFromBase58(config.Token2022ProgramID)
)

// SPL token instruction opcodes. Both token programs share the base set;
// the transfer-fee extension exists only on Token-2022.
const (
	tokenInstructionBurn                 = 8
	tokenInstructionCloseAccount         = 9
	tokenInstructionTransferChecked      = 12
	tokenInstructionTransferFeeExtension = 26

	transferFeeHarvestWithheldToMint = 4
)

// Address lookup table accounts carry a fixed-size header before the
// packed address list.
const lookupTableMetaSize = 56

// BuildBurnInstruction burns amount base units from the token account.
// The owner must sign.
func BuildBurnInstruction(programID, account, mint, owner solanago.PublicKey, amount uint64) solanago.Instruction {
	data := utils.ConcatBytes(
		utils.EncodeU8(tokenInstructionBurn),
		utils.EncodeU64LE(amount),
	)
	accounts := solanago.AccountMetaSlice{
		solanago.NewAccountMeta(account, true, false),
		solanago.NewAccountMeta(mint, true, false),
		solanago.NewAccountMeta(owner, false, true),
	}
	return solanago.NewInstruction(programID, accounts, data)
}

// BuildCloseAccountInstruction closes the token account and refunds its
// rent lamports to destination. The account must hold a zero balance by
// the time this executes.
func BuildCloseAccountInstruction(programID, account, destination, owner solanago.PublicKey) solanago.Instruction {
	data := utils.EncodeU8(tokenInstructionCloseAccount)
	accounts := solanago.AccountMetaSlice{
		solanago.NewAccountMeta(account, true, false),
		solanago.NewAccountMeta(destination, true, false),
		solanago.NewAccountMeta(owner, false, true),
	}
	return solanago.NewInstruction(programID, accounts, data)
}

// BuildTransferCheckedInstruction moves amount base units between token
// accounts of the same mint, with the mint's decimals checked on chain.
func BuildTransferCheckedInstruction(programID, source, mint, destination, owner solanago.PublicKey, amount uint64, decimals uint8) solanago.Instruction {
	data := utils.ConcatBytes(
		utils.EncodeU8(tokenInstructionTransferChecked),
		utils.EncodeU64LE(amount),
		utils.EncodeU8(decimals),
	)
	accounts := solanago.AccountMetaSlice{
		solanago.NewAccountMeta(source, true, false),
		solanago.NewAccountMeta(mint, false, false),
		solanago.NewAccountMeta(destination, true, false),
		solanago.NewAccountMeta(owner, false, true),
	}
	return solanago.NewInstruction(programID, accounts, data)
}

// BuildHarvestWithheldInstruction moves withheld transfer fees from the
// token accounts back to the mint. Token-2022 only; permissionless, so
// no signer beyond the fee payer.
func BuildHarvestWithheldInstruction(mint solanago.PublicKey, sources ...solanago.PublicKey) solanago.Instruction {
	data := utils.ConcatBytes(
		utils.EncodeU8(tokenInstructionTransferFeeExtension),
		utils.EncodeU8(transferFeeHarvestWithheldToMint),
	)
	accounts := solanago.AccountMetaSlice{
		solanago.NewAccountMeta(mint, true, false),
	}
	for _, source := range sources {
		accounts = append(accounts, solanago.NewAccountMeta(source, true, false))
	}
	return solanago.NewInstruction(Token2022ProgramID, accounts, data)
}

// DecodeInstruction converts the routing service's wire-form instruction
// into a generic instruction ready for transaction assembly.
func DecodeInstruction(encoded jupiter.Instruction) (solanago.Instruction, error) {
	programID, err := solanago.PublicKeyFromBase58(encoded.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id %q: %w", encoded.ProgramID, err)
	}

	accounts := make(solanago.AccountMetaSlice, 0, len(encoded.Accounts))
	for _, meta := range encoded.Accounts {
		pubkey, err := solanago.PublicKeyFromBase58(meta.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid account %q: %w", meta.Pubkey, err)
		}
		accounts = append(accounts, solanago.NewAccountMeta(pubkey, meta.IsWritable, meta.IsSigner))
	}

	data, err := utils.DecodeBase64(encoded.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid instruction data: %w", err)
	}

	return solanago.NewInstruction(programID, accounts, data), nil
}

// FetchLookupTables resolves address lookup table accounts into the
// address sets a versioned transaction needs for compilation. Tables
// that no longer exist on chain are skipped.
func FetchLookupTables(ctx context.Context, rpc *solrpc.Client, addresses []string) (map[solanago.PublicKey]solanago.PublicKeySlice, error) {
	tables := make(map[solanago.PublicKey]solanago.PublicKeySlice, len(addresses))
	if len(addresses) == 0 {
		return tables, nil
	}

	accounts, err := rpc.GetMultipleAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lookup tables: %w", err)
	}

	for i, account := range accounts {
		if account == nil {
			continue
		}
		key, err := solanago.PublicKeyFromBase58(addresses[i])
		if err != nil {
			return nil, fmt.Errorf("invalid lookup table address %q: %w", addresses[i], err)
		}
		data, err := account.DataBytes()
		if err != nil {
			return nil, fmt.Errorf("lookup table %s: %w", addresses[i], err)
		}
		entries, err := decodeLookupTableAddresses(data)
		if err != nil {
			return nil, fmt.Errorf("lookup table %s: %w", addresses[i], err)
		}
		tables[key] = entries
	}

	return tables, nil
}

func decodeLookupTableAddresses(data []byte) (solanago.PublicKeySlice, error) {
	if len(data) < lookupTableMetaSize {
		return nil, fmt.Errorf("lookup table data too short: %d bytes", len(data))
	}
	packed := data[lookupTableMetaSize:]
	if len(packed)%solanago.PublicKeyLength != 0 {
		return nil, fmt.Errorf("lookup table addresses are not 32-byte aligned: %d bytes", len(packed))
	}

	entries := make(solanago.PublicKeySlice, 0, len(packed)/solanago.PublicKeyLength)
	for offset := 0; offset < len(packed); offset += solanago.PublicKeyLength {
		entries = append(entries, solanago.PublicKeyFromBytes(packed[offset:offset+solanago.PublicKeyLength]))
	}
	return entries, nil
}

// FeeShare computes one fee target's cut of the swap output: the output
// divided by floor(100 / percent), floored. Each target's share is taken
// from the full output independently.
func FeeShare(outAmount *big.Int, percent float64) *big.Int {
	if outAmount == nil || outAmount.Sign() <= 0 || percent <= 0 {
		return new(big.Int)
	}
	divisor := int64(100 / percent)
	if divisor < 1 {
		divisor = 1
	}
	return new(big.Int).Quo(outAmount, big.NewInt(divisor))
}
