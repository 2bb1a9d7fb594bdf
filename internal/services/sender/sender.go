// Package sender turns decision events from the broker into e-mails.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inspec-ai/account-service/internal/lib/smtp"
	"github.com/inspec-ai/account-service/internal/models"
)

// Service consumes decision events and delivers them over SMTP.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// HandleDecisionEvent is the broker message handler: it unmarshals one
// decision event and sends the e-mail. A returned error nacks the message
// for redelivery.
func (s *Service) HandleDecisionEvent(body []byte) error {
	const op = "sender.HandleDecisionEvent"

	var event models.DecisionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if event.UserEmail == "" {
		return fmt.Errorf("%s: event %s has no recipient", op, event.InquiryID)
	}

	if err := s.send(event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("decision e-mail sent",
		slog.String("inquiry_id", event.InquiryID),
		slog.String("to", event.UserEmail),
		slog.String("decision", string(event.Decision)))
	return nil
}

func (s *Service) send(event models.DecisionEvent) error {
	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp session close", slog.String("error", err.Error()))
		}
	}()

	from := s.transport.GetSMTPUser()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(event.UserEmail); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := wc.Write([]byte(buildMessage(from, event))); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}

func buildMessage(from string, event models.DecisionEvent) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + event.UserEmail + "\r\n")
	b.WriteString("Subject: " + subjectFor(event) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	name := event.UserName
	if name == "" {
		name = event.UserEmail
	}
	b.WriteString("Hello " + name + ",\r\n\r\n")
	b.WriteString(event.Message + "\r\n\r\n")
	b.WriteString("Sign in to your account for details.\r\n")
	return b.String()
}

func subjectFor(event models.DecisionEvent) string {
	switch {
	case event.Kind == models.DecisionPlanChange && event.Decision == models.InquiryApproved:
		return "Your plan change was approved"
	case event.Kind == models.DecisionPlanChange:
		return "Your plan change was rejected"
	case event.Decision == models.InquiryApproved:
		return "Your team member request was approved"
	default:
		return "Your team member request was rejected"
	}
}
