// internal/workers/extraction/credit-report/handler.go
package creditreport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-credit-report"

	jsonConfidence = 0.98
)

type Handler struct {
	config  *Config
	decoder decode.Decoder
	logger  logger.Logger
	errors  *commonerrors.ErrorHandler
}

func NewHandler(config *Config, decoder decode.Decoder, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		decoder: decoder,
		logger:  scoped,
		errors:  commonerrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeParseError, fmt.Errorf("parse input: %w", err))
		return
	}

	if input.DocumentPath == "" {
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeDocumentMissing, commonerrors.NewDocumentMissingError(input.ApplicationID, string(models.DocCreditReport)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, commonerrors.ErrCodeExtractionFailed, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	started := time.Now()

	content, err := h.decoder.Decode(ctx, input.DocumentPath)
	if err != nil {
		meta := models.FailedMetadata(models.DocCreditReport, err.Error())
		meta.ProcessingTime = time.Since(started)
		return &Output{Metadata: meta}, nil
	}

	report, meta := h.parse(content)
	meta.ProcessingTime = time.Since(started)

	h.logger.Info("credit report extracted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        string(meta.Status),
		"confidence":    meta.Confidence,
	})

	return &Output{CreditReport: report, Metadata: meta}, nil
}

func (h *Handler) parse(content *decode.Content) (*models.CreditReport, models.ExtractionMetadata) {
	raw := content.Raw
	if len(raw) == 0 {
		raw = []byte(content.Text)
	}
	if len(raw) == 0 {
		return nil, models.FailedMetadata(models.DocCreditReport, "no content decoded")
	}

	var doc reportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, models.FailedMetadata(models.DocCreditReport, fmt.Sprintf("parse report: %v", err))
	}

	meta := models.ExtractionMetadata{
		Kind:       models.DocCreditReport,
		Status:     models.ExtractionSuccess,
		Confidence: jsonConfidence,
		Method:     "json",
	}

	report := &models.CreditReport{
		Rating: doc.Rating,
		PaymentHistory: models.PaymentHistory{
			OnTime: doc.PaymentHistory.OnTime,
			Late30: doc.PaymentHistory.Late30,
			Late60: doc.PaymentHistory.Late60,
			Missed: doc.PaymentHistory.Missed,
		},
	}

	switch {
	case doc.CreditScore != nil:
		report.Score = *doc.CreditScore
	case doc.Score != nil:
		report.Score = *doc.Score
	default:
		meta.Warnings = append(meta.Warnings, "credit score missing")
		meta.Status = models.ExtractionPartial
	}

	if report.Rating == "" && report.Score > 0 {
		report.Rating = RatingForScore(report.Score)
	}

	for _, acct := range doc.Accounts {
		report.Accounts = append(report.Accounts, models.CreditAccount{
			AccountType:    acct.AccountType,
			Balance:        acct.Balance,
			CreditLimit:    acct.CreditLimit,
			MonthlyPayment: acct.MonthlyPayment,
			PaymentStatus:  acct.PaymentStatus,
		})
	}

	return report, meta
}

// RatingForScore maps a bureau score on the 0-1800 scale to its band.
func RatingForScore(score int) string {
	switch {
	case score >= 1600:
		return "Excellent"
	case score >= 1400:
		return "Very Good"
	case score >= 1200:
		return "Good"
	case score >= 1000:
		return "Fair"
	default:
		return "Poor"
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
