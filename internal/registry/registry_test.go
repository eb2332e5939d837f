package registry

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/vitalcall/consult/internal/shared"
	"github.com/vitalcall/consult/internal/store"
)

var uidPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func newTestRegistry(t *testing.T) (*Registry, store.Store) {
	t.Helper()
	s := store.NewCSV(t.TempDir())
	return New(s), s
}

func TestGenerateUID(t *testing.T) {
	for i := 0; i < 500; i++ {
		uid, err := GenerateUID()
		if err != nil {
			t.Fatalf("GenerateUID failed: %v", err)
		}
		if !uidPattern.MatchString(uid) {
			t.Fatalf("uid %q does not match %s", uid, uidPattern)
		}
	}
}

func TestDoctorFirstName(t *testing.T) {
	tests := map[string]string{
		"Dr. Michael Rodriguez": "Michael",
		"Dr.  Ann":              "Ann",
		"Judy":                  "Judy",
		"Dr.":                   "Dr.",
		"Dr. ":                  "Dr. ",
		"dr. lower":             "dr. lower",
	}
	for in, want := range tests {
		if got := DoctorFirstName(in); got != want {
			t.Errorf("DoctorFirstName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpsertAddsThenUpdatesByPhone(t *testing.T) {
	reg, s := newTestRegistry(t)
	ctx := context.Background()

	first, err := reg.Upsert(ctx, "Sam", "15551234567", "Dr. Michael Rodriguez")
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if first.Message != "Added new patient" {
		t.Fatalf("unexpected message %q", first.Message)
	}
	if first.AgentName != "Dr. Michael Rodriguez" {
		t.Fatalf("response agent name = %q, want full display name", first.AgentName)
	}

	second, err := reg.Upsert(ctx, "Samuel", "15551234567", "Judy")
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if !strings.HasPrefix(second.Message, "Updated existing patient") || !strings.Contains(second.Message, first.UID) {
		t.Fatalf("update message %q should name previous uid %s", second.Message, first.UID)
	}

	rows, err := s.ReadAll(ctx, store.Patients)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
	if rows[0]["uid"] != second.UID || rows[0]["name"] != "Samuel" || rows[0]["agent_name"] != "Judy" {
		t.Fatalf("row not replaced: %v", rows[0])
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	reg, s := newTestRegistry(t)
	ctx := context.Background()

	for _, phone := range []string{"1000000001", "1000000002", "1000000003"} {
		if _, err := reg.Upsert(ctx, "P"+phone, phone, "Ann"); err != nil {
			t.Fatal(err)
		}
	}
	updated, err := reg.Upsert(ctx, "Middle", "1000000002", "Dr. Ann Lee")
	if err != nil {
		t.Fatal(err)
	}

	rows, err := s.ReadAll(ctx, store.Patients)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1]["uid"] != updated.UID || rows[1]["agent_name"] != "Ann" {
		t.Fatalf("row 1 should hold the update, got %v", rows[1])
	}
	if rows[0]["phone_number"] != "1000000001" || rows[2]["phone_number"] != "1000000003" {
		t.Fatalf("neighbouring rows moved: %v", rows)
	}
}

func TestUpsertFirstMatchWins(t *testing.T) {
	reg, s := newTestRegistry(t)
	ctx := context.Background()

	dup := []store.Row{
		{"uid": "AAAAAA", "name": "a", "phone_number": "5", "agent_name": "x"},
		{"uid": "BBBBBB", "name": "b", "phone_number": "5", "agent_name": "y"},
	}
	if err := s.WriteAll(ctx, store.Patients, dup); err != nil {
		t.Fatal(err)
	}
	res, err := reg.Upsert(ctx, "c", "5", "z")
	if err != nil {
		t.Fatal(err)
	}
	if res.PreviousUID != "AAAAAA" {
		t.Fatalf("expected first row to be replaced, got previous uid %q", res.PreviousUID)
	}
}

func TestLookup(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	res, err := reg.Upsert(ctx, "Sam", "15551234567", "Dr. Michael Rodriguez")
	if err != nil {
		t.Fatal(err)
	}

	got, err := reg.Lookup(ctx, res.UID)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Name != "Sam" || got.Doctor != "Michael" {
		t.Fatalf("Lookup = %+v", got)
	}

	_, err = reg.Lookup(ctx, "ZZZZZZ")
	if shared.KindOf(err) != shared.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestList(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	for _, phone := range []string{"1000000001", "1000000002"} {
		if _, err := reg.Upsert(ctx, "P", phone, "Dr. Ann Lee"); err != nil {
			t.Fatal(err)
		}
	}
	patients, err := reg.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(patients) != 2 || patients[1].PhoneNumber != "1000000002" || patients[0].AgentName != "Ann" {
		t.Fatalf("unexpected list %+v", patients)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Update(context.Context, store.Table, func([]store.Row) ([]store.Row, error)) error {
	return shared.Internal("write patients table", errors.New("disk full"))
}

func TestUpsertWriteFailure(t *testing.T) {
	reg := New(failingStore{})
	_, err := reg.Upsert(context.Background(), "Sam", "15551234567", "Ann")
	if err == nil {
		t.Fatal("expected error")
	}
	if shared.KindOf(err) != shared.KindInternal {
		t.Fatalf("expected internal error, got %v", shared.KindOf(err))
	}
}
