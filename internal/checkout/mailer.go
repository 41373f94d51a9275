package checkout

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers email messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridSender delivers mail through the SendGrid v3 API
type SendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	message, err := s.build(msg)
	if err != nil {
		return err
	}

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		logger.Error("SendGrid rejected message", nil, map[string]interface{}{
			"status": response.StatusCode,
			"body":   response.Body,
			"to":     msg.To,
		})
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	logger.Info("Mail sent", map[string]interface{}{
		"status":  response.StatusCode,
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}

func (s *SendGridSender) build(msg Message) (*mail.SGMailV3, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if s.fromEmail == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	if msg.To == "" {
		return nil, fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		msg.HTML,
	)
	for _, a := range msg.Attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("attachment")
		message.AddAttachment(att)
	}
	return message, nil
}
