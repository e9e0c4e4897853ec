// internal/workers/extraction/asset-sheet/handler.go
package assetsheet

import (
	"context"
	"encoding/json"
	"fmt"
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
	TaskType = "extract-asset-sheet"

	sheetConfidence = 0.95
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
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeDocumentMissing, commonerrors.NewDocumentMissingError(input.ApplicationID, string(models.DocAssetsLiabilities)))
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
		meta := models.FailedMetadata(models.DocAssetsLiabilities, err.Error())
		meta.ProcessingTime = time.Since(started)
		return &Output{Metadata: meta}, nil
	}

	sheet, meta := h.parse(content)
	meta.ProcessingTime = time.Since(started)

	h.logger.Info("asset sheet extracted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        string(meta.Status),
		"confidence":    meta.Confidence,
	})

	return &Output{AssetsLiabilities: sheet, Metadata: meta}, nil
}

func (h *Handler) parse(content *decode.Content) (*models.AssetsLiabilities, models.ExtractionMetadata) {
	if !hasNonEmptySheet(content.Sheets) {
		return nil, models.FailedMetadata(models.DocAssetsLiabilities, "no non-empty sheet decoded")
	}

	meta := models.ExtractionMetadata{
		Kind:       models.DocAssetsLiabilities,
		Status:     models.ExtractionSuccess,
		Confidence: sheetConfidence,
		Method:     "sheets",
	}

	sheet := &models.AssetsLiabilities{}
	var explicitAssets, explicitLiabilities bool

	for _, rows := range content.Sheets {
		for _, row := range rows {
			label, amount, ok := splitRow(row)
			if !ok {
				continue
			}

			switch {
			case strings.Contains(label, "total") && strings.Contains(label, "asset"):
				sheet.TotalAssets = amount
				explicitAssets = true
			case strings.Contains(label, "total") && strings.Contains(label, "liabilit"):
				sheet.TotalLiabilities = amount
				explicitLiabilities = true
			case strings.Contains(label, "credit card"):
				sheet.CreditCardDebt += amount
			case containsAny(label, "loan", "mortgage", "finance"):
				sheet.Loans = append(sheet.Loans, amount)
			case containsAny(label, "property", "real estate", "apartment", "villa", "land"):
				sheet.Properties = append(sheet.Properties, amount)
			case containsAny(label, "vehicle", "car", "boat"):
				sheet.Vehicles = append(sheet.Vehicles, amount)
			case containsAny(label, "saving", "deposit", "cash"):
				sheet.Savings += amount
			case containsAny(label, "investment", "stock", "fund", "bond"):
				sheet.Investments += amount
			}
		}
	}

	if !explicitAssets {
		sheet.TotalAssets = sum(sheet.Properties) + sum(sheet.Vehicles) + sheet.Savings + sheet.Investments
	}
	if !explicitLiabilities {
		sheet.TotalLiabilities = sum(sheet.Loans) + sheet.CreditCardDebt
	}

	if sheet.TotalAssets == 0 && sheet.TotalLiabilities == 0 {
		meta.Status = models.ExtractionPartial
		meta.Warnings = append(meta.Warnings, "no asset or liability rows recognized")
	}

	return sheet, meta
}

func hasNonEmptySheet(sheets map[string][][]string) bool {
	for _, rows := range sheets {
		if len(rows) > 0 {
			return true
		}
	}
	return false
}

// splitRow reads a sheet row as a text label plus the last numeric cell.
func splitRow(row []string) (string, float64, bool) {
	if len(row) < 2 {
		return "", 0, false
	}

	var labels []string
	amount := 0.0
	found := false
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if v, ok := parseAmount(cell); ok {
			amount = v
			found = true
			continue
		}
		labels = append(labels, strings.ToLower(cell))
	}
	if !found || len(labels) == 0 {
		return "", 0, false
	}
	return strings.Join(labels, " "), amount, true
}

// parseAmount accepts cells that are purely numeric after stripping a
// currency prefix and thousands separators, so labels stay labels.
func parseAmount(cell string) (float64, bool) {
	cleaned := strings.TrimSpace(cell)
	for _, prefix := range []string{"AED", "USD", "EUR", "$", "€"} {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(label string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
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
