// AngelaMos | 2026
// mailer.go

package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/carterperez-dev/dentflow/internal/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender, or a sender that only logs when no SMTP host
// is configured.
func New(cfg config.MailConfig, logger *slog.Logger) Sender {
	if !cfg.Enabled() {
		return &LogSender{logger: logger}
	}
	return &SMTPSender{cfg: cfg}
}

type SMTPSender struct {
	cfg config.MailConfig
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.Password != "" {
		username := s.cfg.Username
		if username == "" {
			username = s.cfg.From
		}
		auth = smtp.PlainAuth("", username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, buildMessage(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + sanitizeHeader(msg.To) + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail delivery disabled, message logged",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
