package price

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Client looks up spot USD valuations from the price service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains price client configuration
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new price client
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

// Price returns the USD price of one whole (UI) unit of the mint.
// A missing or null entry is an error: callers must treat the value as
// unknown, never as zero.
func (c *Client) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("ids", mint)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	entry := gjson.GetBytes(body, "data."+mint+".price")
	if !entry.Exists() || entry.Type == gjson.Null {
		return decimal.Zero, fmt.Errorf("no price data for %s", mint)
	}

	value, err := decimal.NewFromString(entry.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed price %q for %s: %w", entry.String(), mint, err)
	}

	c.logger.WithFields(logrus.Fields{
		"mint":  mint,
		"price": value.String(),
	}).Debug("Price received")

	return value, nil
}

// USDValue returns the USD value of a raw base-unit balance
func (c *Client) USDValue(ctx context.Context, mint string, balance *big.Int, decimals uint8) (decimal.Decimal, error) {
	unitPrice, err := c.Price(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}
	return ValueOf(unitPrice, balance, decimals), nil
}

// ValueOf converts a raw balance to USD at the given per-unit price
func ValueOf(unitPrice decimal.Decimal, balance *big.Int, decimals uint8) decimal.Decimal {
	raw := decimal.NewFromBigInt(balance, 0)
	scale := decimal.New(1, int32(decimals))
	return unitPrice.Mul(raw).Div(scale)
}
