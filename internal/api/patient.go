package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type newPatientRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	AgentName   *string `json:"agent_name"`
}

// NewPatient upserts a patient by phone number and sends the invitation SMS
// in the background.
func (h *Handler) NewPatient(w http.ResponseWriter, r *http.Request) {
	var body newPatientRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkFields(
		bounded("name", body.Name, 1, 100),
		bounded("phone_number", body.PhoneNumber, 10, 15),
		bounded("agent_name", body.AgentName, 1, 50),
	); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Patients.Upsert(r.Context(), *body.Name, *body.PhoneNumber, *body.AgentName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Notifier.Dispatch(res.PhoneNumber, res.Name, res.AgentName, res.UID)
	JSON(w, http.StatusOK, res)
}

// GetPatient returns the name and doctor for a UID.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	res, err := h.Patients.Lookup(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}
