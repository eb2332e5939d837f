package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/knowledge"
	"github.com/vitalcall/consult/internal/profile"
	"github.com/vitalcall/consult/internal/shared"
)

type fakeMinter struct {
	token string
	err   error
	calls int
}

func (f *fakeMinter) MintToken(context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

func testDefaults() config.StreamingConfig {
	return config.StreamingConfig{
		Language:            "en",
		Quality:             "high",
		ActivityIdleTimeout: 600,
		VoiceChatTransport:  "WEBSOCKET",
	}
}

func newTestOrchestrator(m TokenMinter, defaults config.StreamingConfig) *Orchestrator {
	catalog := profile.New([]config.ProfileConfig{
		{ID: "alpha", AgentName: "Dexter", AvatarID: "Dexter_Doctor_Sitting2_public"},
		{ID: "beta", AgentName: "Ann", AvatarID: "Ann_Doctor_Sitting_public"},
	})
	return NewOrchestrator(catalog, m, defaults)
}

func ptr[T any](v T) *T { return &v }

func TestStartDefaults(t *testing.T) {
	m := &fakeMinter{token: "tok-123"}
	o := newTestOrchestrator(m, testDefaults())

	desc, err := o.Start(context.Background(), StartRequest{ProfileID: "alpha", UserName: "Sam"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if desc.Token != "tok-123" {
		t.Fatalf("token = %q", desc.Token)
	}
	s := desc.Session
	if s.AvatarName != "Dexter_Doctor_Sitting2_public" || s.Language != "en" || s.Quality != "high" ||
		s.ActivityIdleTimeout != 600 || s.VoiceChatTransport != "WEBSOCKET" {
		t.Fatalf("unexpected payload %+v", s)
	}
	if s.KnowledgeBase != knowledge.Build("Sam", "Dexter", nil) {
		t.Fatal("knowledge base should be the default persona")
	}
	if desc.Greeting == nil || *desc.Greeting != "Hi, Sam!" {
		t.Fatalf("greeting = %v", desc.Greeting)
	}
	if desc.EffectiveKnowledge != nil {
		t.Fatal("effective knowledge must be hidden unless debug is enabled")
	}
}

func TestStartOverrides(t *testing.T) {
	defaults := testDefaults()
	defaults.DebugEffectiveKnowledge = true
	o := newTestOrchestrator(&fakeMinter{token: "t"}, defaults)

	desc, err := o.Start(context.Background(), StartRequest{
		ProfileID:             "beta",
		UserName:              "Lee",
		Language:              ptr("es"),
		DeterministicGreeting: ptr(false),
		Knowledge: &knowledge.Config{
			KnowledgeBase: ptr("Clinic hours are 9 to 5."),
		},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if desc.Session.Language != "es" {
		t.Fatalf("language = %q", desc.Session.Language)
	}
	if desc.Greeting != nil {
		t.Fatal("greeting should be omitted")
	}
	if desc.EffectiveKnowledge == nil || *desc.EffectiveKnowledge != desc.Session.KnowledgeBase {
		t.Fatal("effective knowledge should mirror the knowledge base in debug mode")
	}
	if !strings.Contains(desc.Session.KnowledgeBase, "Clinic hours are 9 to 5.") {
		t.Fatal("caller knowledge missing from prompt")
	}
}

func TestStartRejectsBeforeMinting(t *testing.T) {
	tests := []struct {
		name string
		req  StartRequest
		kind shared.Kind
	}{
		{name: "bad template", req: StartRequest{ProfileID: "alpha", GreetingTemplate: ptr("Hi {who}")}, kind: shared.KindBadRequest},
		{name: "bad strategy", req: StartRequest{ProfileID: "alpha", Knowledge: &knowledge.Config{MergeStrategy: "prepend"}}, kind: shared.KindBadRequest},
		{name: "missing profile", req: StartRequest{}, kind: shared.KindBadRequest},
		{name: "unknown profile", req: StartRequest{ProfileID: "omega"}, kind: shared.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMinter{token: "t"}
			o := newTestOrchestrator(m, testDefaults())
			_, err := o.Start(context.Background(), tt.req)
			if shared.KindOf(err) != tt.kind {
				t.Fatalf("kind = %v, want %v (err %v)", shared.KindOf(err), tt.kind, err)
			}
			if m.calls != 0 {
				t.Fatal("token provider must not be called")
			}
		})
	}
}

func TestStartMinterFailure(t *testing.T) {
	m := &fakeMinter{err: shared.Upstream("streaming provider returned 500", errors.New("boom"))}
	o := newTestOrchestrator(m, testDefaults())
	_, err := o.Start(context.Background(), StartRequest{ProfileID: "alpha", UserName: "Sam"})
	if shared.KindOf(err) != shared.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
