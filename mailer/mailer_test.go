package mailer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-smith-labs/tourbook/mailer"
)

type captureTransport struct {
	sent []mailer.Message
	err  error
}

func (c *captureTransport) Send(_ context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return c.err
}

type countingRecorder map[string]int

func (r countingRecorder) EmailSent(template, outcome string) {
	r[template+"/"+outcome]++
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMailer_SendOTP(t *testing.T) {
	tr := &captureTransport{}
	rec := countingRecorder{}
	m := mailer.New(tr, "Tourbook <no-reply@tourbook.local>", "http://localhost:3000", rec, discard())

	require.NoError(t, m.SendOTP(context.Background(), "maria@example.com", "042913"))

	require.Len(t, tr.sent, 1)
	msg := tr.sent[0]
	assert.Equal(t, "maria@example.com", msg.To)
	assert.Equal(t, "Tourbook <no-reply@tourbook.local>", msg.From)
	assert.Equal(t, "Your OTP Code", msg.Subject)
	assert.Equal(t, "Your OTP for signup is: 042913. It will expire in 10 minutes.", msg.Text)
	assert.Equal(t, 1, rec["otp/sent"])
}

func TestMailer_SendPasswordReset(t *testing.T) {
	tr := &captureTransport{}
	m := mailer.New(tr, "from@x", "https://tours.example", nil, discard())

	require.NoError(t, m.SendPasswordReset(context.Background(), "a@b.co", "tok.en"))

	require.Len(t, tr.sent, 1)
	assert.Equal(t, "Password Reset", tr.sent[0].Subject)
	assert.Contains(t, tr.sent[0].HTML, `<a href="https://tours.example/reset-password/tok.en">`)
	assert.Equal(t, "https://tours.example/reset-password/tok.en", m.ResetURL("tok.en"))
}

func TestMailer_TransportFailure(t *testing.T) {
	boom := errors.New("smtp down")
	rec := countingRecorder{}
	m := mailer.New(&captureTransport{err: boom}, "from@x", "", rec, discard())

	err := m.SendOTP(context.Background(), "a@b.co", "123456")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec["otp/failed"])
}

func TestLogTransport(t *testing.T) {
	var buf bytes.Buffer
	tr := mailer.LogTransport{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, tr.Send(context.Background(), mailer.Message{To: "a@b.co", Subject: "Your OTP Code"}))
	assert.Contains(t, buf.String(), "to=a@b.co")
}

func TestRedisTransport_BreakerOpens(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	tr := mailer.NewRedisTransport(client, "emails", mailer.BreakerSettings{
		FailureThreshold: 2,
		Timeout:          time.Minute,
	}, discard())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		err := tr.Send(ctx, mailer.Message{To: "a@b.co"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	err := tr.Send(ctx, mailer.Message{To: "a@b.co"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, "open", tr.State())
}

func TestDial_InvalidURL(t *testing.T) {
	_, err := mailer.Dial("not a url", "emails", discard())
	assert.Error(t, err)
}
