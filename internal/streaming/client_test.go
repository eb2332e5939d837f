package streaming

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/shared"
)

func newTestClient(url, key string) *Client {
	return New(config.StreamingConfig{APIKey: key, BaseURL: url + "/", TokenTimeout: 2 * time.Second})
}

func TestMintTokenShapes(t *testing.T) {
	tests := map[string]string{
		`{"access_token":"a"}`:                        "a",
		`{"token":"b"}`:                               "b",
		`{"data":{"token":"c"}}`:                      "c",
		`{"data":{"access_token":"d"}}`:               "d",
		`{"access_token":"","data":{"token":"e"}}`:    "e",
		`{"token":"f","data":{"access_token":"zzz"}}`: "f",
	}
	for body, want := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/streaming.create_token" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("x-api-key") != "secret" {
				t.Errorf("missing api key header")
			}
			_, _ = w.Write([]byte(body))
		}))
		got, err := newTestClient(srv.URL, "secret").MintToken(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("%s: MintToken failed: %v", body, err)
		}
		if got != want {
			t.Fatalf("%s: token = %q, want %q", body, got, want)
		}
	}
}

func TestMintTokenMissingKey(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1", "").MintToken(context.Background())
	if shared.KindOf(err) != shared.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestMintTokenProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "secret").MintToken(context.Background())
	if shared.KindOf(err) != shared.KindUpstream {
		t.Fatalf("expected upstream, got %v", err)
	}
	msg := shared.MessageOf(err)
	if !strings.Contains(msg, "429") || !strings.Contains(msg, "quota exceeded") {
		t.Fatalf("message should carry status and body: %q", msg)
	}
}

func TestMintTokenMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"session":"x"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "secret").MintToken(context.Background())
	if shared.KindOf(err) != shared.KindUpstream {
		t.Fatalf("expected upstream, got %v", err)
	}
}
