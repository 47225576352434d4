// Package mail delivers the few transactional emails the service sends.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// InvitationMessage builds the email that carries an invitation link.
func InvitationMessage(to, companyName, frontendURL, token string) Message {
	link := strings.TrimRight(frontendURL, "/") + "/invitation/" + token
	return Message{
		To:      to,
		Subject: "Invitation to join the company : " + companyName,
		Text: fmt.Sprintf("You have been invited to join the %s. Please click on the link to accept the invitation: %s",
			companyName, link),
	}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer relays messages through an SMTP server with PLAIN auth.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var a smtp.Auth
	if username != "" {
		a = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
		auth: a,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("mail: recipient is required")
	}
	if err := m.send(m.addr, m.auth, m.from, []string{msg.To}, m.render(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Text)
	return []byte(b.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// LogMailer only logs what would have been sent. Used when mail delivery is disabled.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{log: logger.With().Str("module", "mail").Logger()}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail delivery disabled, message logged")
	m.log.Debug().Str("to", msg.To).Str("text", msg.Text).Msg("mail body")
	return nil
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
