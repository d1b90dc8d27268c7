package config

// Token program IDs. Token-2022 accounts need different instruction
// variants downstream, so the two are never interchangeable.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// Default external service endpoints
const (
	DefaultTokenListURL   = "https://token.jup.ag/all"
	DefaultStrictListURL  = "https://token.jup.ag/strict"
	DefaultJupiterBaseURL = "https://quote-api.jup.ag/v6"
	DefaultPriceBaseURL   = "https://api.jup.ag/price/v2"
)

// DefaultTargetMint is the token dust is swapped into (Bonk)
const DefaultTargetMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// Scooping policy defaults. Slippage is deliberately generous so quotes
// for thin, low-liquidity tokens still route.
const (
	DefaultSlippageBps      = 1500
	DefaultPlatformFeeBps   = 100
	DefaultBurnThresholdUSD = 1.0
)

// DefaultForbiddenSymbols lists tokens that are never reclaimed: the
// target token itself plus stables the user almost certainly wants to keep.
var DefaultForbiddenSymbols = []string{"Bonk", "USDC", "USDT"}

// LamportsPerSol is the number of lamports in one SOL
const LamportsPerSol = 1_000_000_000

// GetRPCEndpoint returns the default RPC endpoint for a network
func GetRPCEndpoint(network string) string {
	switch network {
	case "devnet":
		return "https://api.devnet.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	default:
		return "https://api.mainnet-beta.solana.com"
	}
}

// GetWSEndpoint returns the default WebSocket endpoint for a network
func GetWSEndpoint(network string) string {
	switch network {
	case "devnet":
		return "wss://api.devnet.solana.com"
	case "testnet":
		return "wss://api.testnet.solana.com"
	default:
		return "wss://api.mainnet-beta.solana.com"
	}
}
