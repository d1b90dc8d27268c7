package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// QuoteRequest describes the swap quote being sought. Amount is the full
// input balance in base units.
type QuoteRequest struct {
	InputMint      string
	OutputMint     string
	Amount         *big.Int
	SlippageBps    int
	PlatformFeeBps int
}

// QuoteResponse is the routing service's quote. The raw body is retained
// so the swap-instructions request can echo the quote back verbatim;
// amounts are strings on the wire and must never round-trip through floats.
type QuoteResponse struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SwapMode             string `json:"swapMode"`
	SlippageBps          int    `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the quote and keeps the raw wire form
func (q *QuoteResponse) UnmarshalJSON(data []byte) error {
	type alias QuoteResponse
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*q = QuoteResponse(decoded)
	q.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the quote exactly as it arrived
func (q *QuoteResponse) MarshalJSON() ([]byte, error) {
	if q.raw != nil {
		return q.raw, nil
	}
	type alias QuoteResponse
	return json.Marshal((*alias)(q))
}

// InAmountInt returns the quoted input amount as a big integer
func (q *QuoteResponse) InAmountInt() (*big.Int, error) {
	return parseAmount(q.InAmount, "inAmount")
}

// OutAmountInt returns the quoted output amount as a big integer
func (q *QuoteResponse) OutAmountInt() (*big.Int, error) {
	return parseAmount(q.OutAmount, "outAmount")
}

func parseAmount(value, field string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("quote %s %q is not an integer", field, value)
	}
	return amount, nil
}

// AccountMeta is one account reference inside an encoded instruction
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction is the routing service's generic encoded instruction:
// program id, account list, opaque base64 payload.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"`
}

// SwapInstructionsResponse is the instruction bundle for one swap
type SwapInstructionsResponse struct {
	TokenLedgerInstruction      *Instruction  `json:"tokenLedgerInstruction"`
	ComputeBudgetInstructions   []Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             Instruction   `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`
}

// SwapRequest asks for the instruction bundle realizing a quote
type SwapRequest struct {
	UserPublicKey string         `json:"userPublicKey"`
	QuoteResponse *QuoteResponse `json:"quoteResponse"`
	FeeAccount    string         `json:"feeAccount,omitempty"`
}

// Client talks to the swap-routing service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains Jupiter client configuration
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new swap-routing client
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Quote requests a swap quote for the full input amount
func (c *Client) Quote(ctx context.Context, request QuoteRequest) (*QuoteResponse, error) {
	if request.Amount == nil || request.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("quote amount must be positive")
	}

	query := url.Values{}
	query.Set("inputMint", request.InputMint)
	query.Set("outputMint", request.OutputMint)
	query.Set("amount", request.Amount.String())
	query.Set("slippageBps", strconv.Itoa(request.SlippageBps))
	if request.PlatformFeeBps > 0 {
		query.Set("platformFeeBps", strconv.Itoa(request.PlatformFeeBps))
	}

	body, err := c.get(ctx, "/quote?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var quote QuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"input_mint": request.InputMint,
		"in_amount":  quote.InAmount,
		"out_amount": quote.OutAmount,
	}).Debug("Quote received")

	return &quote, nil
}

// SwapInstructions requests the instruction bundle for a quote
func (c *Client) SwapInstructions(ctx context.Context, request SwapRequest) (*SwapInstructionsResponse, error) {
	if request.QuoteResponse == nil {
		return nil, fmt.Errorf("swap request requires a quote")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/swap-instructions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var swap SwapInstructionsResponse
	if err := json.Unmarshal(body, &swap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swap instructions: %w", err)
	}

	return &swap, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
