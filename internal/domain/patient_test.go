package domain

import "testing"

func TestPatientRowRoundTrip(t *testing.T) {
	p := Patient{UID: "AB12CD", Name: "Sam", PhoneNumber: "15551234567", AgentName: "Michael"}
	row := p.Row()
	if len(row) != len(PatientFields) {
		t.Fatalf("row has %d columns, want %d", len(row), len(PatientFields))
	}
	for _, f := range PatientFields {
		if _, ok := row[f]; !ok {
			t.Fatalf("row missing column %q", f)
		}
	}
	if got := PatientFromRow(row); got != p {
		t.Fatalf("PatientFromRow() = %+v, want %+v", got, p)
	}
}

func TestConversationFromRowBadDuration(t *testing.T) {
	c := ConversationFromRow(map[string]string{"duration_minutes": "n/a", "uid": "X"})
	if c.DurationMinutes != 0 {
		t.Fatalf("expected 0 duration, got %v", c.DurationMinutes)
	}
	if c.UID != "X" {
		t.Fatalf("expected uid X, got %q", c.UID)
	}
}

func TestConversationRowDuration(t *testing.T) {
	row := ConversationSummary{DurationMinutes: 5.5}.Row()
	if row["duration_minutes"] != "5.5" {
		t.Fatalf("duration column = %q, want 5.5", row["duration_minutes"])
	}
}
