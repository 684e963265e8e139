// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Portfolio",
		TLS:      true,
	}
}

// capture records delivered messages instead of dialing SMTP.
type capture struct {
	msgs []*mail.Msg
	err  error
}

func (c *capture) deliver(_ context.Context, msg *mail.Msg) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func newTestService(t *testing.T, owner string) (*email.Service, *capture) {
	t.Helper()
	svc, err := email.NewService(validSMTPConfig(), owner)
	require.NoError(t, err)
	c := &capture{}
	return svc.WithDeliverer(c.deliver), c
}

func render(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "owner@example.com")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestNotifyOwner(t *testing.T) {
	svc, c := newTestService(t, "owner@example.com")

	err := svc.NotifyOwner(context.Background(), "New signup", "APPROVAL OTP: 123456")

	require.NoError(t, err)
	require.Len(t, c.msgs, 1)
	assert.Equal(t, []string{"<owner@example.com>"}, c.msgs[0].GetToString())
	assert.Equal(t, []string{"New signup"}, c.msgs[0].GetGenHeader(mail.HeaderSubject))
	assert.Contains(t, render(t, c.msgs[0]), "APPROVAL OTP: 123456")
}

func TestNotifyOwner_NoOwner(t *testing.T) {
	svc, c := newTestService(t, "")

	err := svc.NotifyOwner(context.Background(), "New signup", "body")

	assert.ErrorIs(t, err, email.ErrNoOwner)
	assert.Empty(t, c.msgs)
}

func TestSend_InvalidRecipient(t *testing.T) {
	svc, c := newTestService(t, "")

	err := svc.Send(context.Background(), email.Message{To: "not an address", Subject: "x", Text: "y"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting to address")
	assert.Empty(t, c.msgs)
}

func TestSend_DeliveryError(t *testing.T) {
	svc, c := newTestService(t, "")
	c.err = errors.New("connection refused")

	err := svc.Send(context.Background(), email.Message{To: "a@x.com", Subject: "x", Text: "y"})

	assert.ErrorContains(t, err, "connection refused")
}

func TestReplySubject(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "Re: Hello", email.ReplySubject(ctx, "Hello"))
	assert.Equal(t, "Re: Your Message", email.ReplySubject(ctx, ""))
	assert.Equal(t, "Re: Your Message", email.ReplySubject(ctx, "   "))
}

func TestComposeReply(t *testing.T) {
	msg, err := email.ComposeReply(context.Background(), email.Reply{
		ToEmail:         "a@x.com",
		ToName:          "Ann",
		Subject:         "Question",
		OriginalMessage: "Is <b>this</b> live?",
		ReplyMessage:    "Yes.\nIt is.",
	})

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Re: Question", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Ann,")
	assert.Contains(t, msg.HTML, "Yes.<br>")
	assert.Contains(t, msg.HTML, "Is &lt;b&gt;this&lt;/b&gt; live?")
	assert.NotContains(t, msg.HTML, "<b>this</b>")
	assert.Contains(t, msg.Text, "Yes.\nIt is.")
	assert.Contains(t, msg.Text, "Is <b>this</b> live?")
}

func TestComposeReply_NameFallback(t *testing.T) {
	msg, err := email.ComposeReply(context.Background(), email.Reply{ToEmail: "a@x.com", ReplyMessage: "Hi"})

	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Hi a@x.com,")
}

func TestSendReply(t *testing.T) {
	svc, c := newTestService(t, "")

	msg, err := svc.SendReply(context.Background(), email.Reply{
		ToEmail:         "a@x.com",
		ToName:          "Ann",
		OriginalMessage: "Hello",
		ReplyMessage:    "Thanks",
	})

	require.NoError(t, err)
	assert.Equal(t, "Re: Your Message", msg.Subject)
	require.Len(t, c.msgs, 1)
	assert.Equal(t, []string{`"Ann" <a@x.com>`}, c.msgs[0].GetToString())
}
