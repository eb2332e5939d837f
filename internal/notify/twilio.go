package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/vitalcall/consult/internal/config"
)

// ErrNotConfigured is returned when the SMS gateway has no credentials.
var ErrNotConfigured = errors.New("sms gateway credentials not configured")

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender from cfg. Without an account SID and auth
// token the sender is created unconfigured and every send fails with
// ErrNotConfigured.
func NewTwilioSender(cfg config.SMSConfig) *TwilioSender {
	s := &TwilioSender{from: cfg.FromNumber}
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return s
	}
	s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	if cfg.Timeout > 0 {
		s.client.SetTimeout(cfg.Timeout)
	}
	return s
}

// Configured reports whether credentials and a sender number are present.
func (s *TwilioSender) Configured() bool {
	return s.client != nil && s.from != ""
}

// SendSMS implements SMSSender.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if msg != nil && msg.Sid != nil {
		slog.Debug("Twilio accepted message", "sid", *msg.Sid)
	}
	return nil
}
