package registry

import (
	"context"
	"fmt"
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

func TestLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/all":
			fmt.Fprint(w, `[
				{"address":"MintAAA","chainId":101,"decimals":6,"name":"Token A","symbol":"AAA","tags":["community"]},
				{"address":"MintBBB","chainId":101,"decimals":9,"name":"Token B","symbol":"BBB"},
				{"address":"MintCCC","chainId":101,"decimals":5,"name":"Token C","symbol":"CCC"}
			]`)
		case "/strict":
			fmt.Fprint(w, `[
				{"address":"MintAAA","chainId":101,"decimals":6,"name":"Token A","symbol":"AAA"},
				{"address":"MintZZZ","chainId":101,"decimals":2,"name":"Ghost","symbol":"ZZZ"}
			]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AllURL:    server.URL + "/all",
		StrictURL: server.URL + "/strict",
	}, quietLogger())

	tokens, err := client.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3", len(tokens))
	}

	a := tokens["MintAAA"]
	if a == nil || a.Symbol != "AAA" || a.Decimals != 6 {
		t.Errorf("MintAAA = %+v", a)
	}
	if !a.Strict {
		t.Error("MintAAA must be marked strict")
	}
	if tokens["MintBBB"].Strict || tokens["MintCCC"].Strict {
		t.Error("non-strict tokens marked strict")
	}

	// a strict entry missing from the full list is skipped, not added
	if _, ok := tokens["MintZZZ"]; ok {
		t.Error("strict-only ghost entry leaked into the catalog")
	}
}

func TestLoadPropagatesFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AllURL:    server.URL + "/all",
		StrictURL: server.URL + "/strict",
	}, quietLogger())

	if _, err := client.Load(context.Background()); err == nil {
		t.Error("expected error when the catalog is unreachable")
	}
}

func TestLoadMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"a list"}`)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AllURL:    server.URL + "/all",
		StrictURL: server.URL + "/strict",
	}, quietLogger())

	if _, err := client.Load(context.Background()); err == nil {
		t.Error("expected error for malformed catalog")
	}
}
