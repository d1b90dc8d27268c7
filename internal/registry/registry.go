package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenInfo is the static catalog metadata for one token type
type TokenInfo struct {
	Address  string   `json:"address"`
	ChainID  int      `json:"chainId"`
	Decimals uint8    `json:"decimals"`
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	LogoURI  string   `json:"logoURI"`
	Tags     []string `json:"tags"`
	Strict   bool     `json:"-"`
}

// Client loads the token catalog from the registry service
type Client struct {
	allURL     string
	strictURL  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains registry client configuration
type ClientConfig struct {
	AllURL    string
	StrictURL string
	Timeout   time.Duration
}

// NewClient creates a new registry client
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		allURL:    config.AllURL,
		strictURL: config.StrictURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Load fetches the full catalog and the strict subset, and marks strict
// members on the full map. Loaded once per session; callers treat the
// result as read-only.
func (c *Client) Load(ctx context.Context) (map[string]*TokenInfo, error) {
	allTokens, err := c.fetchList(ctx, c.allURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load token list: %w", err)
	}

	tokenMap := make(map[string]*TokenInfo, len(allTokens))
	for i := range allTokens {
		token := &allTokens[i]
		tokenMap[token.Address] = token
	}

	strictTokens, err := c.fetchList(ctx, c.strictURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load strict token list: %w", err)
	}

	for i := range strictTokens {
		entry, ok := tokenMap[strictTokens[i].Address]
		if !ok {
			// Strict entries are supposed to be a subset of the full
			// list; a miss is a registry inconsistency, not fatal.
			c.logger.WithFields(logrus.Fields{
				"mint":   strictTokens[i].Address,
				"symbol": strictTokens[i].Symbol,
			}).Warn("Strict-list token missing from full list, skipping")
			continue
		}
		entry.Strict = true
	}

	c.logger.WithFields(logrus.Fields{
		"tokens": len(tokenMap),
		"strict": len(strictTokens),
	}).Info("Token catalog loaded")

	return tokenMap, nil
}

func (c *Client) fetchList(ctx context.Context, url string) ([]TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var tokens []TokenInfo
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token list: %w", err)
	}

	return tokens, nil
}
