// internal/notify/notifier.go

// Package notify delivers decision outcome notifications over SES email
// and SNS SMS.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonaws "eligibility-workers/internal/common/aws"
	"eligibility-workers/internal/common/config"
	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/validation"
	"eligibility-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// Delivery statuses.
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
	StatusFailed   = "failed"
)

type EmailService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SMSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Recipient is the contact surface for one application.
type Recipient struct {
	Email string
	Phone string
}

// Delivery records what was sent for one decision.
type Delivery struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
}

// Notifier sends decision outcome notifications.
type Notifier struct {
	config    config.NotificationConfig
	sesClient EmailService
	snsClient SMSService
	logger    logger.Logger
}

// NewNotifier builds a notifier with live AWS clients.
func NewNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	sesClient, err := commonaws.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}

	return NewNotifierWithClients(cfg, sesClient, snsClient, log), nil
}

// NewNotifierWithClients injects the AWS service clients.
func NewNotifierWithClients(cfg config.NotificationConfig, email EmailService, sms SMSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: email,
		snsClient: sms,
		logger:    log.WithFields(map[string]interface{}{"component": "decision-notifier"}),
	}
}

// NotifyDecision sends the outcome to the applicant. Email carries the full
// rationale, SMS is reserved for denials since those start the appeal clock.
func (n *Notifier) NotifyDecision(ctx context.Context, recipient Recipient, record models.DecisionRecord) (*Delivery, error) {
	delivery := &Delivery{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	subject := decisionSubject(record)
	body := decisionBody(record)

	email := recipient.Email
	if email != "" && !validation.ValidateEmail(email) {
		n.logger.Warn("malformed email address, skipping email channel", map[string]interface{}{
			"applicationId": record.ApplicationID,
		})
		email = ""
	}
	phone := recipient.Phone
	if phone != "" && !validation.ValidatePhone(phone) {
		n.logger.Warn("malformed phone number, skipping SMS channel", map[string]interface{}{
			"applicationId": record.ApplicationID,
		})
		phone = ""
	}

	if n.config.Email.Enabled && email != "" {
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error":         err,
				"applicationId": record.ApplicationID,
			})
			delivery.Status = StatusFailed
			return delivery, commonerrors.NewNotificationSendFailedError("email", err)
		}
		delivery.EmailSent = true
	}

	if n.config.SMS.Enabled && phone != "" && record.FinalDecision == string(models.DecisionDeny) {
		if err := n.sendSMS(ctx, phone, smsBody(record)); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err,
				"applicationId": record.ApplicationID,
			})
			delivery.Status = StatusFailed
			return delivery, commonerrors.NewNotificationSendFailedError("sms", err)
		}
		delivery.SMSSent = true
	}

	if delivery.EmailSent || delivery.SMSSent {
		delivery.Status = StatusSent
	}

	n.logger.Info("decision notification processed", map[string]interface{}{
		"applicationId":  record.ApplicationID,
		"finalDecision":  record.FinalDecision,
		"status":         delivery.Status,
		"notificationId": delivery.NotificationID,
	})

	return delivery, nil
}

func decisionSubject(record models.DecisionRecord) string {
	switch record.FinalDecision {
	case string(models.DecisionApprove):
		return fmt.Sprintf("Application %s: support approved", record.ApplicationID)
	case string(models.DecisionDeny):
		return fmt.Sprintf("Application %s: support denied", record.ApplicationID)
	default:
		return fmt.Sprintf("Application %s: under review", record.ApplicationID)
	}
}

func decisionBody(record models.DecisionRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear applicant,\n\nYour application %s has been processed.\n\n", record.ApplicationID)
	fmt.Fprintf(&b, "Outcome: %s (confidence: %s)\n\n", record.FinalDecision, record.ConfidenceLevel)
	fmt.Fprintf(&b, "%s\n", record.Rationale)

	if len(record.RecommendedActions) > 0 {
		b.WriteString("\nNext steps:\n")
		for _, action := range record.RecommendedActions {
			fmt.Fprintf(&b, "  - %s\n", action)
		}
	}

	if record.AppealsEligible {
		b.WriteString("\nYou are eligible to appeal this outcome within 30 days.\n")
	}

	return b.String()
}

func smsBody(record models.DecisionRecord) string {
	msg := fmt.Sprintf("Application %s: %s.", record.ApplicationID, record.FinalDecision)
	if record.AppealsEligible {
		msg += " You may appeal within 30 days."
	}
	return msg
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
