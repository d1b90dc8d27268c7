package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// quoteBody carries a field this client does not model; it must survive
// the round trip into the swap request untouched.
const quoteBody = `{"inputMint":"MintAAA","inAmount":"1000000","outputMint":"MintBBB","outAmount":"500000",` +
	`"otherAmountThreshold":"425000","swapMode":"ExactIn","slippageBps":1500,"priceImpactPct":"0.1",` +
	`"routePlan":[{"swapInfo":{"ammKey":"pool1"},"percent":100}]}`

func TestQuote(t *testing.T) {
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %s, want /quote", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		fmt.Fprint(w, quoteBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, quietLogger())

	quote, err := client.Quote(context.Background(), QuoteRequest{
		InputMint:      "MintAAA",
		OutputMint:     "MintBBB",
		Amount:         big.NewInt(1000000),
		SlippageBps:    1500,
		PlatformFeeBps: 100,
	})
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	want := map[string]string{
		"inputMint":      "MintAAA",
		"outputMint":     "MintBBB",
		"amount":         "1000000",
		"slippageBps":    "1500",
		"platformFeeBps": "100",
	}
	for key, value := range want {
		if gotQuery[key] != value {
			t.Errorf("query %s = %q, want %q", key, gotQuery[key], value)
		}
	}

	if quote.OutAmount != "500000" {
		t.Errorf("outAmount = %s, want 500000", quote.OutAmount)
	}
	in, err := quote.InAmountInt()
	if err != nil || in.Int64() != 1000000 {
		t.Errorf("InAmountInt = %v/%v", in, err)
	}
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://unused"}, quietLogger())

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		_, err := client.Quote(context.Background(), QuoteRequest{
			InputMint:  "a",
			OutputMint: "b",
			Amount:     amount,
		})
		if err == nil {
			t.Errorf("amount %v: expected error", amount)
		}
	}
}

func TestSwapInstructionsEchoesQuoteVerbatim(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			fmt.Fprint(w, quoteBody)
		case "/swap-instructions":
			gotBody, _ = io.ReadAll(r.Body)
			fmt.Fprint(w, `{"computeBudgetInstructions":[{"programId":"ComputeBudget111111111111111111111111111111","accounts":[],"data":"AQ=="}],`+
				`"setupInstructions":[],"swapInstruction":{"programId":"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4","accounts":[{"pubkey":"MintAAA","isSigner":false,"isWritable":true}],"data":"AgM="},`+
				`"cleanupInstruction":null,"addressLookupTableAddresses":["TableAAA"]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, quietLogger())

	quote, err := client.Quote(context.Background(), QuoteRequest{
		InputMint:  "MintAAA",
		OutputMint: "MintBBB",
		Amount:     big.NewInt(1000000),
	})
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	swap, err := client.SwapInstructions(context.Background(), SwapRequest{
		UserPublicKey: "UserAAA",
		QuoteResponse: quote,
		FeeAccount:    "FeeAAA",
	})
	if err != nil {
		t.Fatalf("SwapInstructions error: %v", err)
	}

	var request struct {
		UserPublicKey string          `json:"userPublicKey"`
		QuoteResponse json.RawMessage `json:"quoteResponse"`
		FeeAccount    string          `json:"feeAccount"`
	}
	if err := json.Unmarshal(gotBody, &request); err != nil {
		t.Fatalf("swap request unmarshal: %v", err)
	}
	if request.UserPublicKey != "UserAAA" || request.FeeAccount != "FeeAAA" {
		t.Errorf("request fields wrong: %+v", request)
	}

	// the unmodeled routePlan field must be echoed back byte for byte
	if string(request.QuoteResponse) != quoteBody {
		t.Errorf("quote not echoed verbatim:\ngot  %s\nwant %s", request.QuoteResponse, quoteBody)
	}

	if len(swap.ComputeBudgetInstructions) != 1 {
		t.Errorf("compute budget instructions = %d, want 1", len(swap.ComputeBudgetInstructions))
	}
	if swap.SwapInstruction.ProgramID != "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4" {
		t.Errorf("swap program = %s", swap.SwapInstruction.ProgramID)
	}
	if swap.CleanupInstruction != nil {
		t.Error("null cleanup instruction must decode to nil")
	}
	if len(swap.AddressLookupTableAddresses) != 1 || swap.AddressLookupTableAddresses[0] != "TableAAA" {
		t.Errorf("lookup tables = %v", swap.AddressLookupTableAddresses)
	}
}

func TestSwapInstructionsRequiresQuote(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://unused"}, quietLogger())
	if _, err := client.SwapInstructions(context.Background(), SwapRequest{UserPublicKey: "u"}); err == nil {
		t.Error("expected error without a quote")
	}
}

func TestQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Could not find any route"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, quietLogger())
	_, err := client.Quote(context.Background(), QuoteRequest{
		InputMint:  "a",
		OutputMint: "b",
		Amount:     big.NewInt(1),
	})
	if err == nil {
		t.Error("expected error on HTTP 400")
	}
}

func TestAmountParsing(t *testing.T) {
	quote := &QuoteResponse{InAmount: "not-a-number", OutAmount: "18446744073709551616"}

	if _, err := quote.InAmountInt(); err == nil {
		t.Error("expected error for malformed inAmount")
	}

	// amounts beyond uint64 still parse; overflow is the planner's concern
	out, err := quote.OutAmountInt()
	if err != nil {
		t.Fatalf("OutAmountInt error: %v", err)
	}
	if out.String() != "18446744073709551616" {
		t.Errorf("out = %s", out)
	}
}
