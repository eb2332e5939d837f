// Package registry implements the patient registry: upsert keyed on phone
// number and lookup by UID.
package registry

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/samber/lo"
	"github.com/vitalcall/consult/internal/domain"
	"github.com/vitalcall/consult/internal/shared"
	"github.com/vitalcall/consult/internal/store"
)

const (
	uidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	uidLength   = 6
	doctorTitle = "Dr. "
)

// UpsertResult is returned by Upsert. AgentName is the display name exactly
// as it was passed in, not the shortened form that is stored.
type UpsertResult struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	AgentName   string `json:"agent_name"`
	Message     string `json:"message"`
	Updated     bool   `json:"-"`
	PreviousUID string `json:"-"`
}

// LookupResult is the public view of a patient.
type LookupResult struct {
	Name   string `json:"name"`
	Doctor string `json:"doctor"`
}

// Registry stores patients in the patients table.
type Registry struct {
	store  store.Store
	newUID func() (string, error)
}

// New creates a Registry on top of s.
func New(s store.Store) *Registry {
	return &Registry{store: s, newUID: GenerateUID}
}

// Upsert adds a patient, or replaces the row holding the same phone number in
// place. A fresh UID is minted either way so that older invite links stop
// resolving.
func (r *Registry) Upsert(ctx context.Context, name, phoneNumber, agentName string) (*UpsertResult, error) {
	uid, err := r.newUID()
	if err != nil {
		return nil, shared.Internal("generate patient uid", err)
	}

	patient := domain.Patient{
		UID:         uid,
		Name:        name,
		PhoneNumber: phoneNumber,
		AgentName:   DoctorFirstName(agentName),
	}
	result := &UpsertResult{
		UID:         uid,
		Name:        name,
		PhoneNumber: phoneNumber,
		AgentName:   agentName,
	}

	err = r.store.Update(ctx, store.Patients, func(rows []store.Row) ([]store.Row, error) {
		_, idx, found := lo.FindIndexOf(rows, func(row store.Row) bool {
			return row["phone_number"] == phoneNumber
		})
		if found {
			result.Updated = true
			result.PreviousUID = rows[idx]["uid"]
			rows[idx] = patient.Row()
			return rows, nil
		}
		return append(rows, patient.Row()), nil
	})
	if err != nil {
		return nil, fmt.Errorf("save patient: %w", err)
	}

	if result.Updated {
		result.Message = fmt.Sprintf("Updated existing patient with UID %s", result.PreviousUID)
	} else {
		result.Message = "Added new patient"
	}
	slog.Info("Patient saved", "uid", uid, "updated", result.Updated, "previous_uid", result.PreviousUID)
	return result, nil
}

// Lookup finds the first patient with the given UID.
func (r *Registry) Lookup(ctx context.Context, uid string) (*LookupResult, error) {
	rows, err := r.store.ReadAll(ctx, store.Patients)
	if err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}
	row, ok := lo.Find(rows, func(row store.Row) bool { return row["uid"] == uid })
	if !ok {
		return nil, shared.NotFound(fmt.Sprintf("No patient found for uid '%s'", uid))
	}
	p := domain.PatientFromRow(row)
	return &LookupResult{Name: p.Name, Doctor: p.AgentName}, nil
}

// List returns every stored patient in store order.
func (r *Registry) List(ctx context.Context) ([]domain.Patient, error) {
	rows, err := r.store.ReadAll(ctx, store.Patients)
	if err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}
	return lo.Map(rows, func(row store.Row, _ int) domain.Patient {
		return domain.PatientFromRow(row)
	}), nil
}

// DoctorFirstName shortens "Dr. Michael Rodriguez" to "Michael". Names
// without the title prefix are returned unchanged.
func DoctorFirstName(agentName string) string {
	if !strings.HasPrefix(agentName, doctorTitle) {
		return agentName
	}
	parts := strings.Fields(agentName[len(doctorTitle):])
	if len(parts) == 0 {
		return agentName
	}
	return parts[0]
}

// GenerateUID returns 6 characters drawn uniformly from A-Z and 0-9.
func GenerateUID() (string, error) {
	n := big.NewInt(int64(len(uidAlphabet)))
	buf := make([]byte, uidLength)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		buf[i] = uidAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
