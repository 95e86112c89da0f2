package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/config"
)

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "noreply@example.com",
		Password: "secret",
	}
}

func TestSMTPSenderSendsAssignmentNotification(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)

	sender := NewSMTPSender(testEmailConfig(), nil)
	sender.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	err := sender.SendTaskAssignmentNotification(context.Background(), "dev@example.com", "Fix login bug")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"dev@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "To: dev@example.com\r\n")
	assert.Contains(t, msg, "Subject: You have been assigned a new task\r\n")
	assert.Contains(t, msg, `"Fix login bug"`)
}

func TestSMTPSenderWrapsTransportError(t *testing.T) {
	t.Parallel()

	sendErr := errors.New("connection refused")
	sender := NewSMTPSender(testEmailConfig(), nil)
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return sendErr
	}

	err := sender.SendTaskAssignmentNotification(context.Background(), "dev@example.com", "Fix login bug")
	assert.ErrorIs(t, err, sendErr)
	assert.ErrorContains(t, err, "dev@example.com")
}

func TestSMTPSenderHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	sender := NewSMTPSender(testEmailConfig(), nil)
	called := false
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.SendTaskAssignmentNotification(ctx, "dev@example.com", "Fix login bug")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLogSenderNeverFails(t *testing.T) {
	t.Parallel()

	sender := NewLogSender(nil)
	assert.NoError(t, sender.SendTaskAssignmentNotification(context.Background(), "dev@example.com", "Fix login bug"))
}
