// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"html/template"
	"strings"

	"codeberg.org/oliverandrich/portfolio-gate/internal/i18n"
)

// Reply is an answer to a contact message.
type Reply struct {
	ToEmail         string
	ToName          string
	Subject         string
	OriginalMessage string
	ReplyMessage    string
}

var replyTemplate = template.Must(template.New("reply").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <p>{{.Greeting}}</p>
  <p>{{.Intro}}</p>
  <div style="background: #f5f7fa; border-left: 4px solid #667eea; padding: 15px; margin: 20px 0;">
    {{range .ReplyLines}}{{.}}<br>
    {{end}}
  </div>
  <div style="color: #666; font-size: 14px; border-top: 1px solid #eee; padding-top: 15px;">
    <strong>{{.OriginalLabel}}:</strong>
    <blockquote style="margin: 10px 0; padding-left: 10px; border-left: 2px solid #ccc;">
      {{range .OriginalLines}}{{.}}<br>
      {{end}}
    </blockquote>
  </div>
  <p>{{.Signature}}</p>
  <p style="color: #999; font-size: 12px;">{{.Footer}}</p>
</body>
</html>
`))

// ReplySubject returns the subject line of a reply.
func ReplySubject(ctx context.Context, subject string) string {
	if strings.TrimSpace(subject) == "" {
		subject = i18n.T(ctx, "reply_default_subject")
	}
	return i18n.TData(ctx, "reply_subject", map[string]any{"Subject": subject})
}

// ComposeReply renders a reply as plain text and HTML.
func ComposeReply(ctx context.Context, r Reply) (Message, error) {
	name := r.ToName
	if name == "" {
		name = r.ToEmail
	}

	greeting := i18n.TData(ctx, "reply_greeting", map[string]any{"Name": name})
	originalLabel := i18n.T(ctx, "reply_original_label")
	signature := i18n.T(ctx, "reply_signature")

	var html strings.Builder
	err := replyTemplate.Execute(&html, map[string]any{
		"Greeting":      greeting,
		"Intro":         i18n.T(ctx, "reply_intro"),
		"ReplyLines":    strings.Split(r.ReplyMessage, "\n"),
		"OriginalLabel": originalLabel,
		"OriginalLines": strings.Split(r.OriginalMessage, "\n"),
		"Signature":     signature,
		"Footer":        i18n.T(ctx, "reply_footer"),
	})
	if err != nil {
		return Message{}, err
	}

	text := greeting + "\n\n" +
		r.ReplyMessage + "\n\n" +
		"--- " + originalLabel + " ---\n" +
		r.OriginalMessage + "\n\n" +
		signature + "\n"

	return Message{
		To:      r.ToEmail,
		ToName:  r.ToName,
		Subject: ReplySubject(ctx, r.Subject),
		Text:    text,
		HTML:    html.String(),
	}, nil
}

// SendReply composes and delivers a reply.
func (s *Service) SendReply(ctx context.Context, r Reply) (Message, error) {
	msg, err := ComposeReply(ctx, r)
	if err != nil {
		return Message{}, err
	}
	if err := s.Send(ctx, msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
