// Package services содержит отправку писем об окончании пробных
// и оплаченных периодов подписок.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// SenderService читает уведомления из очереди и рассылает письма.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendTrialEndingNotice отправляет владельцу организации письмо
// об окончании пробного периода.
func (s *SenderService) SendTrialEndingNotice(body []byte) error {
	var message models.SubscriptionNotice
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.OwnerEmail}
	subject := "Your trial period is ending soon"
	bodyText := fmt.Sprintf(
		"Hello!\n\nThe trial period for organization %q on plan %q ends on %s.\n\nAdd a payment method to keep your subscription active.",
		message.OrganizationName, message.PlanName, message.PeriodEnd.Format("2006-01-02"))

	return s.sendEmail(to, subject, bodyText)
}

// SendPeriodEndingNotice отправляет владельцу организации письмо
// об окончании оплаченного периода.
func (s *SenderService) SendPeriodEndingNotice(body []byte) error {
	var message models.SubscriptionNotice
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.OwnerEmail}
	subject := "Your subscription renews soon"
	bodyText := fmt.Sprintf(
		"Hello!\n\nThe current billing period for organization %q on plan %q ends on %s.\n\nThe subscription will renew automatically unless it is set to cancel.",
		message.OrganizationName, message.PlanName, message.PeriodEnd.Format("2006-01-02"))

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
