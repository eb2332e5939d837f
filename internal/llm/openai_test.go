package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/shared"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.OpenAIConfig{
		APIKey:          "sk-test",
		BaseURL:         srv.URL + "/v1",
		SummaryModel:    "gpt-4o-mini",
		CleanupModel:    "gpt-4o-mini",
		TranscribeModel: "whisper-1",
		Timeout:         5 * time.Second,
	})
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` +
		quote(content) + `},"finish_reason":"stop"}]}`))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSummarize(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		chatReply(w, "  Patient reports headache.  ")
	})

	summary, err := c.Summarize(context.Background(), "Doctor: hello")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "Patient reports headache." {
		t.Fatalf("summary = %q", summary)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 200 || got.Temperature < 0.29 || got.Temperature > 0.31 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != summarySystemPrompt || !strings.HasSuffix(got.Messages[1].Content, "Doctor: hello") {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestClean(t *testing.T) {
	var prompt string
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MaxTokens int `json:"max_tokens"`
			Messages  []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.MaxTokens != 500 {
			t.Errorf("max_tokens = %d", body.MaxTokens)
		}
		prompt = body.Messages[1].Content
		chatReply(w, "I have a headache.")
	})

	out, err := c.Clean(context.Background(), "i haz headake", "Headache: pain in the head.")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if out != "I have a headache." {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(prompt, "MEDICAL CONTEXT:\nHeadache: pain in the head.") || !strings.Contains(prompt, "TRANSCRIBED TEXT:\ni haz headake") {
		t.Fatalf("prompt missing sections: %q", prompt)
	}
}

func TestTranscribe(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if string(data) != "RIFFdata" || !strings.HasSuffix(hdr.Filename, ".webm") {
			t.Errorf("unexpected upload %q (%s)", data, hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello doctor \n"}`))
	})

	text, err := c.Transcribe(context.Background(), []byte("RIFFdata"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello doctor" {
		t.Fatalf("text = %q", text)
	}
}

func TestMissingKey(t *testing.T) {
	c := NewOpenAIClient(config.OpenAIConfig{})
	ctx := context.Background()

	if _, err := c.Summarize(ctx, "x"); shared.KindOf(err) != shared.KindUnavailable {
		t.Fatalf("Summarize: expected unavailable, got %v", err)
	}
	if _, err := c.Clean(ctx, "x", "y"); shared.KindOf(err) != shared.KindUnavailable {
		t.Fatalf("Clean: expected unavailable, got %v", err)
	}
	if _, err := c.Transcribe(ctx, []byte("x")); shared.KindOf(err) != shared.KindUnavailable {
		t.Fatalf("Transcribe: expected unavailable, got %v", err)
	}
}

func TestProviderFailure(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	})

	_, err := c.Summarize(context.Background(), "x")
	if shared.KindOf(err) != shared.KindUpstream {
		t.Fatalf("expected upstream, got %v", err)
	}
	if !strings.Contains(shared.MessageOf(err), "500") {
		t.Fatalf("message should carry provider status: %q", shared.MessageOf(err))
	}
}
