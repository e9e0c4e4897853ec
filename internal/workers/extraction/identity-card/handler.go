// internal/workers/extraction/identity-card/handler.go
package identitycard

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-identity-card"

	fullConfidence     = 0.85
	degradedConfidence = 0.65
)

var (
	nationalIDPattern = regexp.MustCompile(`\b\d{3}-\d{4}-\d{8}-\d\b`)
	datePattern       = regexp.MustCompile(`\b(\d{4}[-/]\d{2}[-/]\d{2}|\d{2}[-/]\d{2}[-/]\d{4})\b`)

	namePattern        = regexp.MustCompile(`(?i)\bname\s*[:\-]\s*(.+)`)
	dobPattern         = regexp.MustCompile(`(?i)\b(?:date of birth|birth date|dob)\s*[:\-]?\s*(\S+)`)
	nationalityPattern = regexp.MustCompile(`(?i)\bnationality\s*[:\-]\s*(\S+)`)
	genderPattern      = regexp.MustCompile(`(?i)\b(?:gender|sex)\s*[:\-]\s*(\S+)`)
	expiryPattern      = regexp.MustCompile(`(?i)\b(?:expiry|expires|valid until)\s*(?:date)?\s*[:\-]?\s*(\S+)`)
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
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeDocumentMissing, commonerrors.NewDocumentMissingError(input.ApplicationID, string(models.DocEmiratesID)))
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
		meta := models.FailedMetadata(models.DocEmiratesID, err.Error())
		meta.ProcessingTime = time.Since(started)
		return &Output{Metadata: meta}, nil
	}

	info, meta := h.parse(content)
	meta.ProcessingTime = time.Since(started)

	h.logger.Info("identity card extracted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        string(meta.Status),
		"confidence":    meta.Confidence,
	})

	return &Output{PersonalInfo: info, Metadata: meta}, nil
}

func (h *Handler) parse(content *decode.Content) (*models.PersonalInfo, models.ExtractionMetadata) {
	text := strings.TrimSpace(content.Text)
	if text == "" {
		return nil, models.FailedMetadata(models.DocEmiratesID, "no text decoded")
	}

	meta := models.ExtractionMetadata{
		Kind:   models.DocEmiratesID,
		Status: models.ExtractionSuccess,
		Method: "text",
	}
	if hasDigitsAndLetters(text) {
		meta.Confidence = fullConfidence
	} else {
		meta.Confidence = degradedConfidence
		meta.Status = models.ExtractionPartial
		meta.Warnings = append(meta.Warnings, "decoded text looks incomplete")
	}

	info := &models.PersonalInfo{}

	if m := nationalIDPattern.FindString(text); m != "" {
		info.NationalID = m
	} else {
		meta.Warnings = append(meta.Warnings, "national id not found")
	}

	if m := namePattern.FindStringSubmatch(text); m != nil {
		info.FullName = strings.TrimSpace(m[1])
	}
	if m := dobPattern.FindStringSubmatch(text); m != nil {
		if d, ok := parseDate(m[1]); ok {
			info.DateOfBirth = &d
		}
	}
	if m := nationalityPattern.FindStringSubmatch(text); m != nil {
		info.Nationality = strings.TrimSpace(m[1])
	}
	if m := genderPattern.FindStringSubmatch(text); m != nil {
		info.Gender = normalizeGender(m[1])
	}
	if m := expiryPattern.FindStringSubmatch(text); m != nil {
		if d, ok := parseDate(m[1]); ok {
			info.ExpiryDate = &d
		}
	}

	if info.FullName == "" && info.NationalID == "" {
		meta.Status = models.ExtractionPartial
	}

	return info, meta
}

func hasDigitsAndLetters(text string) bool {
	var digits, letters bool
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits = true
		case unicode.IsLetter(r):
			letters = true
		}
		if digits && letters {
			return true
		}
	}
	return false
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006"}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func normalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male":
		return "Male"
	case "f", "female":
		return "Female"
	}
	return strings.TrimSpace(raw)
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
