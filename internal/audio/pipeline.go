// Package audio turns a recorded patient utterance into cleaned-up text.
package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/vitalcall/consult/internal/shared"
)

// MissingMedicalContext stands in for the medical document when it cannot be
// read.
const MissingMedicalContext = "Medical knowledge base not available."

// Provider performs the two model calls of the pipeline.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Clean(ctx context.Context, text, medicalContext string) (string, error)
}

// Result is the outcome of Process.
type Result struct {
	TranscribedText string `json:"transcribed_text"`
	ProcessedText   string `json:"processed_text"`
	Success         bool   `json:"success"`
}

// Pipeline decodes, transcribes and cleans audio.
type Pipeline struct {
	provider    Provider
	contextPath string
}

// New creates a Pipeline that reads its medical context from contextPath.
func New(provider Provider, contextPath string) *Pipeline {
	return &Pipeline{provider: provider, contextPath: contextPath}
}

// Process runs the pipeline on base64 audio. Each stage runs once; the first
// failure is returned.
func (p *Pipeline) Process(ctx context.Context, audioBase64, patientContext string) (*Result, error) {
	audio, err := DecodeAudio(audioBase64)
	if err != nil {
		return nil, err
	}

	medical := p.MedicalContext()
	if pc := strings.TrimSpace(patientContext); pc != "" {
		medical += "\n\nPATIENT CONTEXT:\n" + pc
	}

	transcribed, err := p.provider.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}

	processed, err := p.provider.Clean(ctx, transcribed, medical)
	if err != nil {
		return nil, fmt.Errorf("clean transcription: %w", err)
	}

	slog.Info("Audio processed", "audio_bytes", len(audio), "transcribed_chars", len(transcribed))
	return &Result{TranscribedText: transcribed, ProcessedText: processed, Success: true}, nil
}

// DecodeAudio decodes standard base64, padded or not. Whitespace is ignored.
func DecodeAudio(data string) ([]byte, error) {
	cleaned := strings.Join(strings.Fields(data), "")
	if cleaned == "" {
		return nil, shared.BadRequest("Invalid base64 audio data: empty payload", nil)
	}
	audio, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		raw, rawErr := base64.RawStdEncoding.DecodeString(cleaned)
		if rawErr != nil {
			return nil, shared.BadRequest("Invalid base64 audio data", err)
		}
		audio = raw
	}
	return audio, nil
}

// MedicalContext returns the medical reference document, or the placeholder
// when it is missing or unreadable.
func (p *Pipeline) MedicalContext() string {
	data, err := os.ReadFile(p.contextPath)
	if err != nil {
		return missingMedicalContext(p.contextPath, err)
	}
	return string(data)
}

// missingMedicalContext is the fallback for an absent medical document.
func missingMedicalContext(path string, err error) string {
	if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Medical context unreadable", "path", path, "error", err)
	}
	return MissingMedicalContext
}
