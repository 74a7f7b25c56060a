package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"ticket-payment-service/internal/config"
	"ticket-payment-service/internal/domain/ports/adapter"
)

var _ adapter.TicketMailer = (*SMTPMailer)(nil)

// SMTPMailer delivers tickets by e-mail. Called at most once per ticket by
// the reconciliation engine.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	eventName string
}

func NewSMTPMailer(cfg config.MailConfig, eventName string) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		eventName: eventName,
	}
}

func (m *SMTPMailer) Deliver(ctx context.Context, ticketID, payerEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", payerEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Your ticket for %s", m.eventName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your payment was approved!\n\nTicket number: %s\n\nPresent this number at the entrance. See you at %s!",
		ticketID, m.eventName,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send ticket mail: %w", err)
	}
	return nil
}
