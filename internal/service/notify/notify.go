package notify

import "context"

// Notifier delivers one-time codes and notifications to users.
type Notifier interface {
	SendSMS(ctx context.Context, to, message string) error
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Sender is the production Notifier backed by the SMS gateway and SMTP.
type Sender struct {
	sms   *SMSClient
	email *EmailSender
}

func NewSender(sms *SMSClient, email *EmailSender) *Sender {
	return &Sender{sms: sms, email: email}
}

func (s *Sender) SendSMS(ctx context.Context, to, message string) error {
	return s.sms.Send(ctx, to, message)
}

func (s *Sender) SendEmail(ctx context.Context, to, subject, body string) error {
	return s.email.Send(ctx, to, subject, body)
}
