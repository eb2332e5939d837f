package api

import (
	"net/http"

	"github.com/vitalcall/consult/internal/knowledge"
	"github.com/vitalcall/consult/internal/session"
)

type startSessionRequest struct {
	ProfileID             *string           `json:"profile_id"`
	UserName              *string           `json:"user_name"`
	Language              *string           `json:"language"`
	DeterministicGreeting *bool             `json:"deterministic_greeting"`
	GreetingTemplate      *string           `json:"greeting_template"`
	Knowledge             *knowledge.Config `json:"knowledge"`
}

// StartSession mints a streaming token and returns the session descriptor.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startSessionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkFields(required("profile_id", body.ProfileID), required("user_name", body.UserName)); err != nil {
		writeError(w, r, err)
		return
	}

	req := session.StartRequest{
		ProfileID:             *body.ProfileID,
		UserName:              *body.UserName,
		Language:              body.Language,
		DeterministicGreeting: body.DeterministicGreeting,
		GreetingTemplate:      body.GreetingTemplate,
		Knowledge:             body.Knowledge,
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	desc, err := h.Sessions.Start(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, desc)
}
