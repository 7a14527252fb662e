// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/pantry/email"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string // empty disables AUTH
	Pass     string
	From     string
	FromName string
	UseSSL   bool          // implicit TLS (port 465); otherwise STARTTLS is required
	Timeout  time.Duration // per-connection SMTP timeout; zero means 30s
}

func (c Config) waffle() email.Config {
	return email.Config{
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.User,
		Password:    c.Pass,
		FromAddress: c.From,
		FromName:    c.FromName,
		UseSSL:      c.UseSSL,
		Timeout:     c.Timeout,
	}
}

// transport delivers one message.
type transport interface {
	Send(ctx context.Context, msg email.Message) error
}

// Mailer sends notification mail over SMTP.
type Mailer struct {
	plain    transport
	attached transport
	log      *zap.Logger
}

// New creates a Mailer. Plain messages go through the WAFFLE email
// sender. Messages with attachments are built with go-mail directly
// because the sender's attachment reader never advances past the first
// read.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{
		plain:    email.NewSender(cfg.waffle()),
		attached: newAttachSender(cfg),
		log:      logger,
	}
}

// Send delivers msg. ctx bounds the whole SMTP exchange.
func (m *Mailer) Send(ctx context.Context, msg email.Message) error {
	if len(msg.To) == 0 {
		return errors.New("mailer: no recipients")
	}
	t := m.plain
	if len(msg.Attachments) > 0 {
		t = m.attached
	}
	if err := t.Send(ctx, msg); err != nil {
		return err
	}
	m.log.Debug("email sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

// attachSender mirrors email.Sender's client settings.
type attachSender struct {
	cfg Config
}

func newAttachSender(cfg Config) *attachSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &attachSender{cfg: cfg}
}

func (s *attachSender) Send(ctx context.Context, msg email.Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Pass))
	}
	if s.cfg.UseSSL || s.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

// build renders msg as a go-mail message: text body, optional HTML
// alternative and the attachments.
func (s *attachSender) build(msg email.Message) (*mail.Msg, error) {
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, errors.New("email: message body is empty")
	}
	m := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("email: invalid from address: %w", err)
		}
	} else if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}
	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	for _, a := range msg.Attachments {
		var fo []mail.FileOption
		if a.ContentType != "" {
			fo = append(fo, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		m.AttachReader(a.Filename, bytes.NewReader(a.Data), fo...)
	}
	return m, nil
}
