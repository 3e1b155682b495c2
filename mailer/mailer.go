// Package mailer renders the tourbook emails and hands them to a transport.
// In production messages are published on a Redis channel consumed by the
// mail worker; without Redis they are only logged.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/platform-smith-labs/tourbook/config"
)

const logLayer = "mailer"

// Message is the payload published to the mail worker.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder observes delivery outcomes; metrics.Collector implements it.
type Recorder interface {
	EmailSent(template, outcome string)
}

// Mailer renders the application emails.
type Mailer struct {
	transport   Transport
	from        string
	frontendURL string
	recorder    Recorder
	logger      *slog.Logger
}

// New creates a Mailer. recorder may be nil.
func New(transport Transport, from, frontendURL string, recorder Recorder, logger *slog.Logger) *Mailer {
	return &Mailer{
		transport:   transport,
		from:        from,
		frontendURL: frontendURL,
		recorder:    recorder,
		logger:      logger,
	}
}

// SendOTP emails the signup verification code.
func (m *Mailer) SendOTP(ctx context.Context, to, otp string) error {
	return m.send(ctx, "otp", Message{
		To:      to,
		Subject: "Your OTP Code",
		Text:    fmt.Sprintf("Your OTP for signup is: %s. It will expire in 10 minutes.", otp),
	})
}

var resetTemplate = template.Must(template.New("reset").Parse(
	`<p>Click this link to reset your password (expires in 10 mins):</p>
<a href="{{.}}">{{.}}</a>
`))

// ResetURL is the frontend page that consumes a reset token.
func (m *Mailer) ResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", m.frontendURL, token)
}

// SendPasswordReset emails the reset link for token.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, m.ResetURL(token)); err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	return m.send(ctx, "reset", Message{
		To:      to,
		Subject: "Password Reset",
		HTML:    body.String(),
	})
}

func (m *Mailer) send(ctx context.Context, name string, msg Message) error {
	logger := config.BuildLogger(m.logger, config.LoggerOptions{
		Layer:  logLayer,
		Method: name,
	})
	msg.From = m.from

	err := m.transport.Send(ctx, msg)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
		logger.ErrorContext(ctx, "Failed to send email", "error", err)
	} else {
		logger.DebugContext(ctx, "Email sent")
	}
	if m.recorder != nil {
		m.recorder.EmailSent(name, outcome)
	}
	if err != nil {
		return fmt.Errorf("send %s email: %w", name, err)
	}
	return nil
}

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Send(ctx context.Context, msg Message) error {
	t.Logger.InfoContext(ctx, "Email (not delivered)",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
		"html", msg.HTML,
	)
	return nil
}
