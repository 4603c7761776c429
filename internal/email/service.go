package email

import (
	"fmt"
	"net/smtp"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host     string
	port     string
	from     string
	sendMail sendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to string, summary OrderSummary) error {
	subject := fmt.Sprintf("Order confirmation: thank you for your order (#%s)", shortID(summary.OrderID))
	return s.send(to, subject, BuildOrderConfirmationBody(summary))
}

func (s *Service) SendOrderCancellation(to string, summary OrderSummary) error {
	subject := fmt.Sprintf("Your order #%s has been cancelled", shortID(summary.OrderID))
	return s.send(to, subject, BuildOrderCancellationBody(summary))
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.sendMail(addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	return nil
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}
