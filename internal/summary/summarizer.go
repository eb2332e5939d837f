// Package summary condenses call transcripts and records them in the
// conversations table.
package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/vitalcall/consult/internal/domain"
	"github.com/vitalcall/consult/internal/store"
)

// Completer produces a transcript digest.
type Completer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Request describes one finished call.
type Request struct {
	Transcript  string `json:"transcript"`
	StartTime   string `json:"start_time"`
	CurrentTime string `json:"current_time"`
	PhoneNumber string `json:"phone_number"`
	UID         string `json:"uid"`
	DoctorName  string `json:"doctor_name"`
	UserName    string `json:"user_name"`
}

// Summarizer asks the model for a digest and stores it.
type Summarizer struct {
	llm   Completer
	store store.Store
}

// New creates a Summarizer.
func New(llm Completer, s store.Store) *Summarizer {
	return &Summarizer{llm: llm, store: s}
}

// Summarize returns the digest of req.Transcript. The record is appended to
// the conversations table afterwards; a failed append is logged only.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (string, error) {
	duration := DurationMinutes(req.StartTime, req.CurrentTime)

	text, err := s.llm.Summarize(ctx, req.Transcript)
	if err != nil {
		return "", fmt.Errorf("summarize transcript: %w", err)
	}

	record := domain.ConversationSummary{
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		PhoneNumber:     req.PhoneNumber,
		UID:             req.UID,
		Summary:         text,
		DoctorName:      req.DoctorName,
		UserName:        req.UserName,
	}
	if err := s.store.Append(ctx, store.Conversations, record.Row()); err != nil {
		slog.Error("Failed to save conversation summary", "uid", req.UID, "error", err)
	} else {
		slog.Info("Conversation summary saved", "uid", req.UID, "duration_minutes", duration)
	}
	return text, nil
}

// List returns stored summaries, optionally only those for uid.
func (s *Summarizer) List(ctx context.Context, uid string) ([]domain.ConversationSummary, error) {
	rows, err := s.store.ReadAll(ctx, store.Conversations)
	if err != nil {
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	if uid != "" {
		rows = lo.Filter(rows, func(row store.Row, _ int) bool { return row["uid"] == uid })
	}
	return lo.Map(rows, func(row store.Row, _ int) domain.ConversationSummary {
		return domain.ConversationFromRow(row)
	}), nil
}
