// internal/workers/validation/aggregate-scores/handler.go
package aggregatescores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "aggregate-scores"

// categoryPenalties apply within a single category's score.
var categoryPenalties = map[models.Severity]float64{
	models.SeverityCritical: 0.30,
	models.SeverityHigh:     0.15,
	models.SeverityMedium:   0.10,
	models.SeverityLow:      0.05,
}

// categoryDocuments names the document that feeds each check category.
var categoryDocuments = map[models.FindingCategory]models.DocumentKind{
	models.CategoryPersonalInfo: models.DocEmiratesID,
	models.CategoryEmployment:   models.DocEmploymentLetter,
	models.CategoryIncome:       models.DocBankStatement,
	models.CategoryAssets:       models.DocAssetsLiabilities,
	models.CategoryCredit:       models.DocCreditReport,
}

// absentCategoryScores are the defaults when a category's document was
// never extracted. Income is mandatory, so its absence scores zero.
var absentCategoryScores = map[models.FindingCategory]float64{
	models.CategoryPersonalInfo: 0.5,
	models.CategoryEmployment:   0.5,
	models.CategoryIncome:       0.0,
	models.CategoryAssets:       0.5,
	models.CategoryCredit:       0.5,
}

// completenessWeights sum to 1 over the six document kinds.
var completenessWeights = map[models.DocumentKind]float64{
	models.DocEmiratesID:        0.15,
	models.DocEmploymentLetter:  0.15,
	models.DocBankStatement:     0.20,
	models.DocResume:            0.15,
	models.DocAssetsLiabilities: 0.20,
	models.DocCreditReport:      0.15,
}

// qualityWeights combine the category scores into quality_score.
var qualityWeights = map[models.FindingCategory]float64{
	models.CategoryPersonalInfo: 0.15,
	models.CategoryEmployment:   0.15,
	models.CategoryIncome:       0.25,
	models.CategoryAssets:       0.20,
	models.CategoryCredit:       0.25,
}

type Handler struct {
	config *Config
	logger logger.Logger
	errors *commonerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		logger: scoped,
		errors: commonerrors.NewErrorHandler(scoped),
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, commonerrors.ErrCodeAggregationFailed, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Application == nil {
		return nil, fmt.Errorf("no application to score")
	}
	app := input.Application
	findings := input.Findings

	result := &models.ValidationResult{
		ApplicationID:     app.ApplicationID,
		CategoryScores:    make(map[models.FindingCategory]float64, len(models.ValidationCategories())),
		Findings:          findings,
		DocumentsReviewed: app.DocumentsReviewed(),
	}

	for _, category := range models.ValidationCategories() {
		result.CategoryScores[category] = categoryScore(app, category, findings)
	}

	result.ConsistencyScore = consistencyScore(findings)
	result.CompletenessScore = completenessScore(app)
	result.QualityScore = qualityScore(result.CategoryScores)
	result.Status = validationStatus(result, h.config.ReviewFloor)

	h.logger.Info("scores aggregated", map[string]interface{}{
		"applicationId":    app.ApplicationID,
		"validationStatus": string(result.Status),
		"qualityScore":     result.QualityScore,
		"consistencyScore": result.ConsistencyScore,
	})

	return &Output{Result: result}, nil
}

// categoryScore starts from 1.0 and subtracts a penalty per finding in
// the category, clamped to [0,1]. Categories whose source document was
// never extracted fall back to a fixed default.
func categoryScore(app *models.ApplicationExtraction, category models.FindingCategory, findings []models.ValidationFinding) float64 {
	if !app.DocumentPresent(categoryDocuments[category]) {
		return absentCategoryScores[category]
	}

	score := 1.0
	for _, f := range findings {
		if f.Category == category {
			score -= categoryPenalties[f.Severity]
		}
	}
	return models.Clamp01(score)
}

// consistencyScore penalizes every non-info finding regardless of category.
func consistencyScore(findings []models.ValidationFinding) float64 {
	score := 1.0
	for _, f := range findings {
		if f.Severity == models.SeverityInfo {
			continue
		}
		score -= models.SeverityWeight(f.Severity)
	}
	if score < 0 {
		return 0
	}
	return score
}

func completenessScore(app *models.ApplicationExtraction) float64 {
	var score float64
	for kind, weight := range completenessWeights {
		if app.DocumentPresent(kind) {
			score += weight
		}
	}
	return score
}

func qualityScore(categoryScores map[models.FindingCategory]float64) float64 {
	var score float64
	for category, weight := range qualityWeights {
		score += weight * categoryScores[category]
	}
	return models.Clamp01(score)
}

func validationStatus(result *models.ValidationResult, reviewFloor float64) models.ValidationStatus {
	switch {
	case result.HasSeverity(models.SeverityCritical):
		return models.ValidationFailed
	case result.HasSeverity(models.SeverityHigh) || result.QualityScore < reviewFloor:
		return models.ValidationNeedsReview
	case len(result.Findings) > 0:
		return models.ValidationWarnings
	default:
		return models.ValidationPassed
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
