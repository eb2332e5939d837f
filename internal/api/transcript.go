package api

import (
	"net/http"

	"github.com/vitalcall/consult/internal/summary"
)

const maxTranscriptChars = 50000

type summarizeRequest struct {
	Transcript  *string `json:"transcript"`
	StartTime   *string `json:"start_time"`
	CurrentTime *string `json:"current_time"`
	PhoneNumber *string `json:"phone_number"`
	UID         *string `json:"uid"`
	DoctorName  *string `json:"doctor_name"`
	UserName    *string `json:"user_name"`
}

// SummarizeTranscript summarizes a finished call and records it.
func (h *Handler) SummarizeTranscript(w http.ResponseWriter, r *http.Request) {
	var body summarizeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkFields(
		bounded("transcript", body.Transcript, 1, maxTranscriptChars),
		required("start_time", body.StartTime),
		required("current_time", body.CurrentTime),
		required("phone_number", body.PhoneNumber),
		required("uid", body.UID),
		required("doctor_name", body.DoctorName),
		required("user_name", body.UserName),
	); err != nil {
		writeError(w, r, err)
		return
	}

	text, err := h.Summaries.Summarize(r.Context(), summary.Request{
		Transcript:  *body.Transcript,
		StartTime:   *body.StartTime,
		CurrentTime: *body.CurrentTime,
		PhoneNumber: *body.PhoneNumber,
		UID:         *body.UID,
		DoctorName:  *body.DoctorName,
		UserName:    *body.UserName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"summary": text})
}

type processAudioRequest struct {
	AudioData      *string `json:"audio_data"`
	PatientContext *string `json:"patient_context"`
}

// ProcessAudio transcribes base64 audio and returns the cleaned text.
func (h *Handler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	var body processAudioRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkFields(required("audio_data", body.AudioData)); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Audio.Process(r.Context(), *body.AudioData, deref(body.PatientContext))
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}
