// Package notify sends patient invitations over SMS. Delivery is best effort:
// failures are logged and never reach the caller's error path.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const doctorTitle = "Dr. "

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Dispatcher composes invitation messages and hands them to an SMSSender.
type Dispatcher struct {
	sender        SMSSender
	inviteBaseURL string
	timeout       time.Duration
	wg            sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. timeout bounds each background send.
func NewDispatcher(sender SMSSender, inviteBaseURL string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sender:        sender,
		inviteBaseURL: strings.TrimRight(inviteBaseURL, "/"),
		timeout:       timeout,
	}
}

// Notify sends the invitation synchronously and reports whether the gateway
// accepted it.
func (d *Dispatcher) Notify(ctx context.Context, phoneNumber, name, doctor, uid string) bool {
	to := NormalizePhone(phoneNumber)
	body := InvitationBody(name, doctor, d.InviteLink(uid))

	if err := d.sender.SendSMS(ctx, to, body); err != nil {
		slog.Warn("SMS not sent", "phone_number", to, "uid", uid, "error", err)
		return false
	}
	slog.Info("SMS sent", "phone_number", to, "uid", uid)
	return true
}

// Dispatch sends the invitation in the background. The returned id tags the
// log lines of this send.
func (d *Dispatcher) Dispatch(phoneNumber, name, doctor, uid string) string {
	id := uuid.NewString()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		sent := d.Notify(ctx, phoneNumber, name, doctor, uid)
		slog.Debug("SMS dispatch finished", "dispatch_id", id, "sent", sent)
	}()
	return id
}

// Wait blocks until background sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InviteLink returns the meeting deep link for uid.
func (d *Dispatcher) InviteLink(uid string) string {
	return d.inviteBaseURL + "/u/" + uid
}

// NormalizePhone prefixes phone numbers with "+" when missing.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

// InvitationBody composes the SMS text. The doctor title is added unless the
// display name already carries it.
func InvitationBody(name, doctor, link string) string {
	if !strings.HasPrefix(doctor, doctorTitle) {
		doctor = doctorTitle + doctor
	}
	return fmt.Sprintf("Hi %s. You were invited to a checkup with %s. Click this to join the meeting: %s", name, doctor, link)
}
