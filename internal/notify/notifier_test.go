// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"eligibility-workers/internal/common/config"
	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmailService struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockEmailService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSMSService struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSMSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func testConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "decisions@socialsupport.example"
	cfg.SMS.Enabled = true
	cfg.AWS.Region = "me-central-1"
	return cfg
}

func approvalRecord() models.DecisionRecord {
	return models.DecisionRecord{
		ApplicationID:   "APP-2025-001",
		FinalDecision:   "APPROVE",
		ConfidenceLevel: "HIGH",
		Rationale:       "Decision based on validation quality (0.95), ML confidence (0.92), and business rule compliance (1.00). Combined eligibility score: 0.96",
	}
}

func denialRecord() models.DecisionRecord {
	return models.DecisionRecord{
		ApplicationID:      "APP-2025-002",
		FinalDecision:      "DENY",
		ConfidenceLevel:    "HIGH",
		Rationale:          "Decision based on validation quality (0.40), ML confidence (0.30), and business rule compliance (0.45). Combined eligibility score: 0.38",
		AppealsEligible:    true,
		RecommendedActions: []string{"Submit missing bank statements"},
		CriticalFlags:      []string{"FAILED_BUSINESS_RULES"},
	}
}

func TestApprovalSendsEmailOnly(t *testing.T) {
	email := &mockEmailService{}
	sms := &mockSMSService{}
	n := NewNotifierWithClients(testConfig(), email, sms, logger.NewNoOpLogger())

	recipient := Recipient{Email: "applicant@example.com", Phone: "+971500000001"}
	delivery, err := n.NotifyDecision(context.Background(), recipient, approvalRecord())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, delivery.Status)
	assert.True(t, delivery.EmailSent)
	assert.False(t, delivery.SMSSent)
	assert.NotEmpty(t, delivery.NotificationID)

	require.Len(t, email.inputs, 1)
	assert.Equal(t, "Application APP-2025-001: support approved", *email.inputs[0].Message.Subject.Data)
	assert.Contains(t, *email.inputs[0].Message.Body.Text.Data, "Outcome: APPROVE")
	assert.Empty(t, sms.inputs)
}

func TestDenialSendsEmailAndSMS(t *testing.T) {
	email := &mockEmailService{}
	sms := &mockSMSService{}
	n := NewNotifierWithClients(testConfig(), email, sms, logger.NewNoOpLogger())

	recipient := Recipient{Email: "applicant@example.com", Phone: "+971500000002"}
	delivery, err := n.NotifyDecision(context.Background(), recipient, denialRecord())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, delivery.Status)
	assert.True(t, delivery.EmailSent)
	assert.True(t, delivery.SMSSent)

	require.Len(t, email.inputs, 1)
	body := *email.inputs[0].Message.Body.Text.Data
	assert.Contains(t, body, "Submit missing bank statements")
	assert.Contains(t, body, "eligible to appeal")

	require.Len(t, sms.inputs, 1)
	assert.Equal(t, "+971500000002", *sms.inputs[0].PhoneNumber)
	assert.Contains(t, *sms.inputs[0].Message, "DENY")
	assert.Contains(t, *sms.inputs[0].Message, "appeal within 30 days")
}

func TestNoContactMeansDisabled(t *testing.T) {
	email := &mockEmailService{}
	sms := &mockSMSService{}
	n := NewNotifierWithClients(testConfig(), email, sms, logger.NewNoOpLogger())

	delivery, err := n.NotifyDecision(context.Background(), Recipient{}, approvalRecord())

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, delivery.Status)
	assert.Empty(t, email.inputs)
	assert.Empty(t, sms.inputs)
}

func TestDisabledChannelsAreSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.Email.Enabled = false
	cfg.SMS.Enabled = false

	email := &mockEmailService{}
	sms := &mockSMSService{}
	n := NewNotifierWithClients(cfg, email, sms, logger.NewNoOpLogger())

	recipient := Recipient{Email: "applicant@example.com", Phone: "+971500000003"}
	delivery, err := n.NotifyDecision(context.Background(), recipient, denialRecord())

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, delivery.Status)
	assert.Empty(t, email.inputs)
	assert.Empty(t, sms.inputs)
}

func TestMalformedContactsAreSkipped(t *testing.T) {
	email := &mockEmailService{}
	sms := &mockSMSService{}
	n := NewNotifierWithClients(testConfig(), email, sms, logger.NewNoOpLogger())

	recipient := Recipient{Email: "not-an-email", Phone: "12345"}
	delivery, err := n.NotifyDecision(context.Background(), recipient, denialRecord())

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, delivery.Status)
	assert.Empty(t, email.inputs)
	assert.Empty(t, sms.inputs)
}

func TestEmailFailureIsRetryable(t *testing.T) {
	email := &mockEmailService{err: errors.New("throttled")}
	sms := &mockSMSService{}
	n := NewNotifierWithClients(testConfig(), email, sms, logger.NewNoOpLogger())

	recipient := Recipient{Email: "applicant@example.com"}
	delivery, err := n.NotifyDecision(context.Background(), recipient, approvalRecord())

	require.Error(t, err)
	assert.Equal(t, StatusFailed, delivery.Status)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
