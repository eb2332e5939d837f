package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vitalcall/consult/internal/config"
)

type smsCall struct {
	To   string
	Body string
}

type mockSender struct {
	mu    sync.Mutex
	calls []smsCall
	err   error
}

func (m *mockSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, smsCall{To: to, Body: body})
	return m.err
}

func (m *mockSender) Calls() []smsCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]smsCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"15551234567":  "+15551234567",
		"+15551234567": "+15551234567",
		" 4155550100 ": "+4155550100",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNotifySendsInvitation(t *testing.T) {
	m := &mockSender{}
	d := NewDispatcher(m, "localhost:3000/", time.Second)

	if !d.Notify(context.Background(), "15551234567", "Sam", "Judy", "AB12CD") {
		t.Fatal("expected sent=true")
	}
	calls := m.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	want := "Hi Sam. You were invited to a checkup with Dr. Judy. Click this to join the meeting: localhost:3000/u/AB12CD"
	if calls[0].To != "+15551234567" || calls[0].Body != want {
		t.Fatalf("unexpected call %+v", calls[0])
	}
}

func TestInvitationBodyKeepsExistingTitle(t *testing.T) {
	got := InvitationBody("Sam", "Dr. Michael Rodriguez", "h/u/X")
	want := "Hi Sam. You were invited to a checkup with Dr. Michael Rodriguez. Click this to join the meeting: h/u/X"
	if got != want {
		t.Fatalf("body = %q", got)
	}
}

func TestNotifyGatewayFailure(t *testing.T) {
	d := NewDispatcher(&mockSender{err: errors.New("gateway down")}, "h", time.Second)
	if d.Notify(context.Background(), "1", "a", "b", "c") {
		t.Fatal("expected sent=false")
	}
}

func TestNotifyUnconfiguredTwilio(t *testing.T) {
	d := NewDispatcher(NewTwilioSender(config.SMSConfig{FromNumber: "+1"}), "h", time.Second)
	if d.Notify(context.Background(), "15551234567", "a", "b", "c") {
		t.Fatal("expected sent=false without credentials")
	}
}

func TestDispatchAndWait(t *testing.T) {
	m := &mockSender{}
	d := NewDispatcher(m, "h", time.Second)
	for i := 0; i < 5; i++ {
		if id := d.Dispatch("15551234567", "Sam", "Ann", "UID001"); id == "" {
			t.Fatal("expected dispatch id")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if n := len(m.Calls()); n != 5 {
		t.Fatalf("expected 5 sends, got %d", n)
	}
}
