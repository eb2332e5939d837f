// Package api provides HTTP handlers for the consult API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vitalcall/consult/internal/audio"
	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/domain"
	"github.com/vitalcall/consult/internal/registry"
	"github.com/vitalcall/consult/internal/session"
	"github.com/vitalcall/consult/internal/shared"
	"github.com/vitalcall/consult/internal/summary"
)

// maxBodyBytes bounds request bodies; base64 audio is the largest payload.
const maxBodyBytes = 32 << 20

// Patients is the patient registry as seen by the handlers.
type Patients interface {
	Upsert(ctx context.Context, name, phoneNumber, agentName string) (*registry.UpsertResult, error)
	Lookup(ctx context.Context, uid string) (*registry.LookupResult, error)
}

// Sessions starts avatar sessions.
type Sessions interface {
	Start(ctx context.Context, req session.StartRequest) (*domain.SessionDescriptor, error)
}

// Notifier sends patient invitations in the background.
type Notifier interface {
	Dispatch(phoneNumber, name, doctor, uid string) string
}

// Summaries condenses call transcripts.
type Summaries interface {
	Summarize(ctx context.Context, req summary.Request) (string, error)
}

// AudioProcessor transcribes and cleans recorded audio.
type AudioProcessor interface {
	Process(ctx context.Context, audioBase64, patientContext string) (*audio.Result, error)
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Profiles lists the doctor personas.
type Profiles interface {
	IDs() []string
	List() []domain.Profile
}

// Deps are the collaborators of Handler.
type Deps struct {
	Config    *config.Config
	Store     Pinger
	Profiles  Profiles
	Patients  Patients
	Sessions  Sessions
	Notifier  Notifier
	Summaries Summaries
	Audio     AudioProcessor
}

// Handler serves the /api routes.
type Handler struct {
	Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

// RegisterRoutes registers the API routes. limited wraps the routes that
// call external providers.
func (h *Handler) RegisterRoutes(r chi.Router, limited func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/profiles", h.ListProfiles)
		r.Get("/patient/{uid}", h.GetPatient)

		r.Group(func(r chi.Router) {
			if limited != nil {
				r.Use(limited)
			}
			r.Post("/session", h.StartSession)
			r.Post("/new-patient", h.NewPatient)
			r.Post("/summarize-transcript", h.SummarizeTranscript)
			r.Post("/process-audio", h.ProcessAudio)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps err onto its HTTP status and writes it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := shared.KindOf(err)
	status := kind.HTTPStatus()
	msg := shared.MessageOf(err)
	if kind == shared.KindInternal || kind == shared.KindUpstream {
		slog.Error("Request failed", "path", r.URL.Path, "kind", kind.String(), "error", err)
	} else {
		slog.Info("Request rejected", "path", r.URL.Path, "kind", kind.String(), "error", err)
	}
	Error(w, status, msg)
}

// decodeJSON reads the request body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return shared.BadRequest("request body too large", err)
		case errors.Is(err, io.EOF):
			return shared.BadRequest("request body is empty", nil)
		default:
			return shared.BadRequest("malformed JSON body", err)
		}
	}
	return nil
}
