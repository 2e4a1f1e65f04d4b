// Package mailer performs single best-effort email delivery attempts over
// SMTP. Message construction and MIME attachment encoding are delegated to
// gomail; no retry is attempted here, the caller decides whether a batch
// continues after a failure.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/amatoti/outreach/internal/metrics"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	// Attachment is optional; when present it is attached under a generic
	// binary content type with its filename.
	Attachment *Attachment
}

// Attachment is a binary payload attached identically to every email in a run.
type Attachment struct {
	Filename string
	Content  []byte
}

// Sender delivers a single message. Implementations must return an error
// rather than panic for any transport, auth or protocol failure.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Config holds the connection parameters for one send run. The password is
// held only in process memory and must never be logged or persisted.
type Config struct {
	Host     string
	Port     int
	StartTLS bool
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPSender delivers messages through an SMTP relay using gomail.
type SMTPSender struct {
	cfg Config
	log zerolog.Logger
}

// NewSMTPSender creates an SMTPSender for the given relay configuration.
func NewSMTPSender(cfg Config, log zerolog.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("mailer: host is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("mailer: invalid port %d", cfg.Port)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &SMTPSender{cfg: cfg, log: log}, nil
}

// Send connects to the relay, upgrades to TLS when configured, authenticates,
// transmits the message and closes the connection. The attempt is bounded by
// the configured timeout and by ctx.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New("mailer: message is required")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mailer: recipient address is required")
	}

	m := s.buildMessage(msg)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if s.cfg.StartTLS {
		d.TLSConfig = &tls.Config{
			ServerName: s.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
	}

	start := time.Now()
	err := s.dialAndSend(ctx, d, m)
	metrics.SendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EmailsFailedTotal.WithLabelValues(s.cfg.Host).Inc()
		s.log.Warn().Err(err).
			Str("host", s.cfg.Host).
			Str("to", msg.To).
			Msg("delivery failed")
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}

	metrics.EmailsSentTotal.WithLabelValues(s.cfg.Host).Inc()
	s.log.Info().
		Str("host", s.cfg.Host).
		Str("to", msg.To).
		Msg("message delivered")
	return nil
}

// dialAndSend runs the blocking gomail delivery in a goroutine so the attempt
// can be bounded by the configured timeout and by ctx. A timed-out delivery
// goroutine is abandoned; its connection dies with gomail's own dial timeout.
func (s *SMTPSender) dialAndSend(ctx context.Context, d *gomail.Dialer, m *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPSender) buildMessage(msg *Message) *gomail.Message {
	from := msg.From
	if from == "" {
		from = s.cfg.Username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if att := msg.Attachment; att != nil && att.Filename != "" {
		m.Attach(att.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.Content)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {"application/octet-stream"},
			}),
		)
	}

	return m
}
