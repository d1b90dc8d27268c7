package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client represents a Solana RPC client
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains configuration for Solana client
type ClientConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// AccountInfo represents Solana account information
type AccountInfo struct {
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
}

// DataBytes returns the account data decoded from its base64 wire form
func (ai *AccountInfo) DataBytes() ([]byte, error) {
	if len(ai.Data) == 0 {
		return nil, fmt.Errorf("account has no data")
	}
	decoded, err := base64.StdEncoding.DecodeString(ai.Data[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode account data: %w", err)
	}
	return decoded, nil
}

// OwnedTokenAccount is one entry from getTokenAccountsByOwner
type OwnedTokenAccount struct {
	Pubkey  string
	Data    []byte
	Owner   string // owning token program of the account
	Rented  uint64 // lamports held by the account
	DataLen int
}

// Blockhash is the result of getLatestBlockhash
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SignatureStatus is one entry from getSignatureStatuses
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// NewClient creates a new Solana RPC client
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// makeRequest makes a JSON-RPC request to Solana
func (c *Client) makeRequest(ctx context.Context, method string, params interface{}) (*RPCResponse, error) {
	request := RPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": c.endpoint,
	}).Debug("Making RPC request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(responseBody))
	}

	var rpcResponse RPCResponse
	if err := json.Unmarshal(responseBody, &rpcResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if rpcResponse.Error != nil {
		return nil, rpcResponse.Error
	}

	return &rpcResponse, nil
}

// GetTokenAccountsByOwner enumerates every token account the owner holds
// under the given token program. Account data comes back base64 so callers
// can decode the fixed SPL account layout without a parsed-JSON roundtrip.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string, programID string) ([]OwnedTokenAccount, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{
			"programId": programID,
		},
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}

	resp, err := c.makeRequest(ctx, "getTokenAccountsByOwner", params)
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []struct {
			Pubkey  string      `json:"pubkey"`
			Account AccountInfo `json:"account"`
		} `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token accounts: %w", err)
	}

	accounts := make([]OwnedTokenAccount, 0, len(result.Value))
	for _, entry := range result.Value {
		data, err := entry.Account.DataBytes()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", entry.Pubkey, err)
		}
		accounts = append(accounts, OwnedTokenAccount{
			Pubkey:  entry.Pubkey,
			Data:    data,
			Owner:   entry.Account.Owner,
			Rented:  entry.Account.Lamports,
			DataLen: len(data),
		})
	}

	return accounts, nil
}

// GetMultipleAccounts fetches several accounts in one batched call.
// The result preserves input order; missing accounts come back nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []string) ([]*AccountInfo, error) {
	params := []interface{}{
		addresses,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}

	resp, err := c.makeRequest(ctx, "getMultipleAccounts", params)
	if err != nil {
		return nil, fmt.Errorf("getMultipleAccounts failed: %w", err)
	}

	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []*AccountInfo `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}

	if len(result.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts returned %d entries for %d addresses", len(result.Value), len(addresses))
	}

	return result.Value, nil
}

// GetLatestBlockhash gets the latest blockhash
func (c *Client) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	params := []interface{}{
		map[string]interface{}{
			"commitment": "confirmed",
		},
	}
	resp, err := c.makeRequest(ctx, "getLatestBlockhash", params)
	if err != nil {
		return nil, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}

	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value Blockhash `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blockhash: %w", err)
	}

	return &result.Value, nil
}

// SendTransaction sends a base64-serialized signed transaction
func (c *Client) SendTransaction(ctx context.Context, transaction string) (string, error) {
	params := []interface{}{
		transaction,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	resp, err := c.makeRequest(ctx, "sendTransaction", params)
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}

	var signature string
	if err := json.Unmarshal(resp.Result, &signature); err != nil {
		return "", fmt.Errorf("invalid response format for sendTransaction: %w", err)
	}

	return signature, nil
}

// GetSignatureStatuses returns the status of each signature, in order.
// Unknown signatures come back nil.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{
			"searchTransactionHistory": false,
		},
	}

	resp, err := c.makeRequest(ctx, "getSignatureStatuses", params)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses failed: %w", err)
	}

	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []*SignatureStatus `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signature statuses: %w", err)
	}

	return result.Value, nil
}

// ConfirmTransaction polls until the signature reaches confirmed
// commitment, errors, or the context expires.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		statuses, err := c.GetSignatureStatuses(ctx, []string{signature})
		if err == nil && len(statuses) == 1 && statuses[0] != nil {
			status := statuses[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", signature, status.Err)
			}
			if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
				return nil
			}
		}
		if err != nil {
			c.logger.WithError(err).WithField("signature", signature).Debug("Status poll failed")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation of %s timed out: %w", signature, ctx.Err())
		case <-ticker.C:
		}
	}
}
