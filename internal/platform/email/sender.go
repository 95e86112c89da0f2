// Package email provides the outbound notification transport used by the
// background job pipeline.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/taskhub/taskhub-api/internal/config"
)

// SMTPSender sends notification emails over SMTP with plain auth.
type SMTPSender struct {
	addr   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger

	// sendMail is swappable in tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:     cfg.From,
		auth:     smtp.PlainAuth("", cfg.From, cfg.Password, cfg.Host),
		logger:   logger.With(slog.String("component", "smtp_sender")),
		sendMail: smtp.SendMail,
	}
}

// SendTaskAssignmentNotification emails the recipient that the named task
// was assigned to them.
func (s *SMTPSender) SendTaskAssignmentNotification(ctx context.Context, recipient, taskTitle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "You have been assigned a new task"
	body := fmt.Sprintf("You have been assigned the task %q. Log in to TaskHub to view the details.", taskTitle)
	msg := buildMessage(s.from, recipient, subject, body)

	if err := s.sendMail(s.addr, s.auth, s.from, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	s.logger.Info("assignment email sent", "recipient", recipient)
	return nil
}

// buildMessage assembles an RFC 5322 plain-text message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

// LogSender writes notifications to the log instead of sending email.
// Used when no SMTP host is configured, so development environments can
// run the full pipeline without a mail server.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With(slog.String("component", "log_sender"))}
}

// SendTaskAssignmentNotification logs the notification that would have
// been emailed.
func (s *LogSender) SendTaskAssignmentNotification(_ context.Context, recipient, taskTitle string) error {
	s.logger.Info("assignment notification (email disabled)",
		"recipient", recipient,
		"task_title", taskTitle)
	return nil
}
