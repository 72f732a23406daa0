package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
)

type recordingSender struct {
	msgs []*gomail.Message
	err  error
}

func (s *recordingSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, m...)
	return nil
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	rec := &recordingSender{}
	m := &SMTPMailer{from: "hello@bistro.test", dialer: rec}

	require.NoError(t, m.Send(context.Background(), "ada@example.com", "Reservation confirmed", "<p>See you</p>"))
	require.Len(t, rec.msgs, 1)
	msg := rec.msgs[0]
	assert.Equal(t, []string{"hello@bistro.test"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"ada@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Reservation confirmed"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "See you")
}

func TestSMTPMailerErrors(t *testing.T) {
	rec := &recordingSender{err: errors.New("535 auth failed")}
	m := &SMTPMailer{from: "x@y", dialer: rec}
	err := m.Send(context.Background(), "ada@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "ada@example.com", "s", "b"), context.Canceled)
}

func TestNewSMTPMailer(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "smtp.test", Port: 587, From: "a@b", SkipVerify: true})
	d, ok := m.dialer.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "smtp.test", d.Host)
	assert.True(t, d.TLSConfig.InsecureSkipVerify)
}

func TestLogMailer(t *testing.T) {
	var file bytes.Buffer
	m := LogMailer{Log: logger.New(nil, &file, logger.INFO)}
	require.NoError(t, m.Send(context.Background(), "ada@example.com", "Hi", "<p>x</p>"))
	assert.Contains(t, file.String(), "ada@example.com")
}
