// Package email delivers the run summary over SMTP, optionally with the
// captured log attached.
package email

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/jhornung97/ETPApprover/internal/config"
	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// Sender sends mail through a plain or authenticated SMTP relay.
type Sender struct {
	host     string
	port     int
	from     string
	to       string
	useTLS   bool
	username string
	password string
	logger   *slog.Logger
}

var _ ports.EmailSender = (*Sender)(nil)

func NewSender(cfg config.EmailConfig, logger *slog.Logger) *Sender {
	return &Sender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.From,
		to:       cfg.To,
		useTLS:   cfg.UseTLS,
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}
}

// Send builds the message and hands it to the relay. Attachment may be nil.
func (s *Sender) Send(ctx context.Context, subject, body string, att *ports.Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := BuildMessage(s.from, s.to, subject, body, att)
	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	var err error
	if s.useTLS {
		err = s.sendImplicitTLS(addr, auth, msg)
	} else {
		err = smtp.SendMail(addr, auth, s.from, []string{s.to}, msg)
	}
	if err != nil {
		return fmt.Errorf("send mail: %w: %w", domain.ErrTransport, err)
	}

	if s.logger != nil {
		s.logger.Info("email sent", "to", s.to, "subject", subject)
	}
	return nil
}

// sendImplicitTLS speaks SMTP over a TLS connection from the first byte, for
// relays listening on a smtps port rather than offering STARTTLS.
func (s *Sender) sendImplicitTLS(addr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("dial tls: %w", err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(s.to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const boundary = "etpapprover-mime-boundary"

// BuildMessage assembles an RFC 5322 message. With an attachment it becomes a
// multipart/mixed body with the attachment base64-encoded.
func BuildMessage(from, to, subject, body string, att *ports.Attachment) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if att == nil {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(body)
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: application/octet-stream\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", att.Filename)
	b.WriteString("\r\n")
	writeBase64Lines(&b, att.Content)

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// writeBase64Lines folds the encoding at 76 characters per RFC 2045.
func writeBase64Lines(b *strings.Builder, content []byte) {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		b.WriteString(encoded)
		b.WriteString("\r\n")
	}
}
