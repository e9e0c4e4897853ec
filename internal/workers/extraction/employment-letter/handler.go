// internal/workers/extraction/employment-letter/handler.go
package employmentletter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
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
	TaskType = "extract-employment-letter"

	textConfidence  = 0.90
	tableConfidence = 0.85
)

var (
	employerPattern   = regexp.MustCompile(`(?i)\b(?:employer|company|organization)\s*[:\-]\s*(.+)`)
	employedByPattern = regexp.MustCompile(`(?i)\bemployed\s+(?:by|at|with)\s+(.+?)(?:\s+as\b|[.,\n])`)
	titlePattern      = regexp.MustCompile(`(?i)\b(?:job title|position|designation)\s*[:\-]\s*(.+)`)
	asTitlePattern    = regexp.MustCompile(`(?i)\bas\s+(?:a|an)?\s*([^.,\n]+?)\s+(?:since|from|with)\b`)
	startPattern      = regexp.MustCompile(`(?i)\b(?:start date|date of joining|joining date|joined|since)\s*[:\-]?\s*(\S+)`)
	// salary only counts with an explicit currency prefix
	salaryPattern = regexp.MustCompile(`(?i)\b(?:monthly salary|salary|compensation)\s*(?:of)?\s*[:\-]?\s*(AED|USD|EUR|\$|€)\s*([\d,]+\.?\d*)`)
	datePattern   = regexp.MustCompile(`\b(\d{4}[-/]\d{2}[-/]\d{2}|\d{2}[-/]\d{2}[-/]\d{4})\b`)
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
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeDocumentMissing, commonerrors.NewDocumentMissingError(input.ApplicationID, string(models.DocEmploymentLetter)))
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
		meta := models.FailedMetadata(models.DocEmploymentLetter, err.Error())
		meta.ProcessingTime = time.Since(started)
		return &Output{Metadata: meta}, nil
	}

	info, meta := h.parse(content)
	meta.ProcessingTime = time.Since(started)

	h.logger.Info("employment letter extracted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        string(meta.Status),
		"confidence":    meta.Confidence,
	})

	return &Output{EmploymentInfo: info, Metadata: meta}, nil
}

func (h *Handler) parse(content *decode.Content) (*models.EmploymentInfo, models.ExtractionMetadata) {
	meta := models.ExtractionMetadata{
		Kind:   models.DocEmploymentLetter,
		Status: models.ExtractionSuccess,
		Method: "text",
	}

	text := content.Text
	switch {
	case strings.TrimSpace(text) != "":
		meta.Confidence = textConfidence
	case content.HasTables():
		meta.Confidence = tableConfidence
		meta.Method = "tables"
		text = flattenTables(content.Tables)
	default:
		return nil, models.FailedMetadata(models.DocEmploymentLetter, "no text or tables decoded")
	}

	info := &models.EmploymentInfo{}

	if m := employerPattern.FindStringSubmatch(text); m != nil {
		info.Employer = strings.TrimSpace(m[1])
	} else if m := employedByPattern.FindStringSubmatch(text); m != nil {
		info.Employer = strings.TrimSpace(m[1])
	}

	if m := titlePattern.FindStringSubmatch(text); m != nil {
		info.JobTitle = strings.TrimSpace(m[1])
	} else if m := asTitlePattern.FindStringSubmatch(text); m != nil {
		info.JobTitle = strings.TrimSpace(m[1])
	}

	if m := startPattern.FindStringSubmatch(text); m != nil {
		if d, ok := parseDate(m[1]); ok {
			info.StartDate = &d
		}
	}
	if info.StartDate == nil {
		if m := datePattern.FindString(text); m != "" {
			if d, ok := parseDate(m); ok {
				info.StartDate = &d
			}
		}
	}

	if m := salaryPattern.FindStringSubmatch(text); m != nil {
		cleaned := strings.ReplaceAll(m[2], ",", "")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			info.Currency = normalizeCurrency(m[1])
			info.MonthlySalary = v
		}
	} else {
		meta.Warnings = append(meta.Warnings, "salary not found")
	}

	if info.Employer == "" && info.JobTitle == "" && info.MonthlySalary == 0 {
		meta.Status = models.ExtractionPartial
		meta.Warnings = append(meta.Warnings, "no employment fields recovered")
	}

	return info, meta
}

func flattenTables(tables [][]string) string {
	var b strings.Builder
	for _, row := range tables {
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func normalizeCurrency(symbol string) string {
	switch symbol {
	case "$":
		return "USD"
	case "€":
		return "EUR"
	}
	return strings.ToUpper(symbol)
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006"}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(strings.TrimRight(raw, ".,"))
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
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
