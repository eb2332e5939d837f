// Package session turns a caller profile into a ready-to-start avatar
// session: persona prompt, streaming credential and greeting.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/domain"
	"github.com/vitalcall/consult/internal/knowledge"
	"github.com/vitalcall/consult/internal/profile"
	"github.com/vitalcall/consult/internal/shared"
)

// TokenMinter issues short-lived streaming credentials.
type TokenMinter interface {
	MintToken(ctx context.Context) (string, error)
}

// StartRequest is the input of Start.
type StartRequest struct {
	ProfileID             string            `json:"profile_id"`
	UserName              string            `json:"user_name"`
	Language              *string           `json:"language,omitempty"`
	DeterministicGreeting *bool             `json:"deterministic_greeting,omitempty"`
	GreetingTemplate      *string           `json:"greeting_template,omitempty"`
	Knowledge             *knowledge.Config `json:"knowledge,omitempty"`
}

// Validate checks the request before any provider call is made.
func (r *StartRequest) Validate() error {
	if strings.TrimSpace(r.ProfileID) == "" {
		return shared.BadRequest("profile_id is required", nil)
	}
	if r.GreetingTemplate != nil {
		if _, err := ParseGreeting(*r.GreetingTemplate); err != nil {
			return shared.BadRequest("invalid greeting_template", err)
		}
	}
	return r.Knowledge.Validate()
}

func (r *StartRequest) wantsGreeting() bool {
	return r.DeterministicGreeting == nil || *r.DeterministicGreeting
}

// Orchestrator assembles session descriptors.
type Orchestrator struct {
	catalog  *profile.Catalog
	minter   TokenMinter
	defaults config.StreamingConfig
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(catalog *profile.Catalog, minter TokenMinter, defaults config.StreamingConfig) *Orchestrator {
	return &Orchestrator{catalog: catalog, minter: minter, defaults: defaults}
}

// Start resolves the profile, builds the persona prompt, mints a streaming
// token and returns the session descriptor.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (*domain.SessionDescriptor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prof, err := o.catalog.Resolve(req.ProfileID)
	if err != nil {
		return nil, err
	}

	kb := knowledge.Build(req.UserName, prof.AgentName, req.Knowledge)

	token, err := o.minter.MintToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("mint streaming token: %w", err)
	}

	language := o.defaults.Language
	if req.Language != nil && *req.Language != "" {
		language = *req.Language
	}

	desc := &domain.SessionDescriptor{
		Token: token,
		Session: domain.SessionPayload{
			AvatarName:          prof.AvatarID,
			Language:            language,
			KnowledgeBase:       kb,
			Quality:             o.defaults.Quality,
			ActivityIdleTimeout: o.defaults.ActivityIdleTimeout,
			VoiceChatTransport:  o.defaults.VoiceChatTransport,
		},
	}
	if req.wantsGreeting() {
		greeting := RenderGreeting(req.GreetingTemplate, req.UserName)
		desc.Greeting = &greeting
	}
	if o.defaults.DebugEffectiveKnowledge {
		desc.EffectiveKnowledge = &kb
	}

	slog.Info("Session prepared", "profile_id", prof.ID, "avatar", prof.AvatarID, "language", language)
	return desc, nil
}
