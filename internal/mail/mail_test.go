package mail

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationMessage(t *testing.T) {
	msg := InvitationMessage("bob@acme.io", "Acme", "http://localhost:3000/", "deadbeef")
	assert.Equal(t, "bob@acme.io", msg.To)
	assert.Equal(t, "Invitation to join the company : Acme", msg.Subject)
	assert.Equal(t,
		"You have been invited to join the Acme. Please click on the link to accept the invitation: http://localhost:3000/invitation/deadbeef",
		msg.Text)
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 587, "user", "pass", "no-reply@example.com")

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotBody string
	)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, string(msg)
		assert.NotNil(t, a)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "bob@acme.io", Subject: "Hi\r\nBcc: x@y", Text: "body"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"bob@acme.io"}, gotTo)
	assert.Contains(t, gotBody, "Subject: Hi  Bcc: x@y\r\n")
	assert.True(t, strings.HasSuffix(gotBody, "\r\n\r\nbody"))
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "a@b.c")
	assert.Nil(t, m.auth)

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay denied") }
	err := m.Send(context.Background(), Message{To: "x@y.z"})
	assert.ErrorContains(t, err, "relay denied")

	err = m.Send(context.Background(), Message{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(zerolog.New(&buf))
	require.NoError(t, m.Send(context.Background(), Message{To: "bob@acme.io", Subject: "Hello"}))
	assert.Contains(t, buf.String(), `"to":"bob@acme.io"`)
	assert.Contains(t, buf.String(), `"subject":"Hello"`)
}
