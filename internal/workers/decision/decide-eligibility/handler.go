// internal/workers/decision/decide-eligibility/handler.go
package decideeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "decide-eligibility"

// decision ladder thresholds
const (
	strongValidation = 0.90
	strongML         = 0.70
	strongRules      = 0.90

	approveValidation = 0.85
	approveML         = 0.65
	approveRules      = 0.85

	conditionalValidation = 0.80
	conditionalRules      = 0.75

	denyRules          = 0.60
	denyQuality        = 0.60
	denyConsistency    = 0.60
	mediumConfidence   = 0.60
	employmentFollowUp = 0.85
)

type Handler struct {
	config *Config
	model  ConfidenceModel
	logger logger.Logger
	errors *commonerrors.ErrorHandler
}

func NewHandler(config *Config, model ConfidenceModel, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		model:  model,
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
		h.errors.HandleJobError(ctx, client, job, commonerrors.ErrCodeDecisionFailed, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	if input.Result == nil {
		decision := h.notFoundDecision(input.ApplicationID, asOf)
		h.logDecision(decision)
		return &Output{Decision: decision}, nil
	}

	decision := h.decide(input.Result, asOf)
	h.logDecision(decision)
	return &Output{Decision: decision}, nil
}

// decide runs the scoring stack and walks the decision ladder top down,
// the first matching rung wins.
func (h *Handler) decide(result *models.ValidationResult, asOf time.Time) *models.DecisionResult {
	validation := 0.4*result.QualityScore + 0.35*result.ConsistencyScore + 0.25*result.CompletenessScore
	ml := h.model.Confidence(result)
	rules, ruleFindings := applyBusinessRules(result)
	combined := 0.40*validation + 0.35*ml + 0.25*rules

	decision := &models.DecisionResult{
		ApplicationID: result.ApplicationID,
		Scores: models.DecisionScore{
			ValidationScore:    validation,
			MLConfidence:       ml,
			BusinessRuleScore:  rules,
			CombinedScore:      combined,
			ApprovalLikelihood: math.Max(combined, ml),
		},
		Findings:         ruleFindings,
		MLPredictedClass: PredictedClass(ml),
		ValidationStatus: result.Status,
		Timestamp:        asOf,
	}

	switch {
	case validation >= strongValidation && ml >= strongML && rules >= strongRules:
		decision.FinalDecision = models.DecisionApprove
		decision.ConfidenceLevel = models.ConfidenceHigh
		decision.AppealsEligible = false
		decision.Findings = append(decision.Findings, models.FindingRecord{
			Category: string(models.CategoryDecision),
			Severity: models.SeverityInfo.String(),
			Message:  fmt.Sprintf("Strong approval: validation %.2f, ML confidence %.2f, business rules %.2f", validation, ml, rules),
			Weight:   1.0,
		})

	case validation >= approveValidation && ml >= approveML && rules >= approveRules:
		decision.FinalDecision = models.DecisionApprove
		decision.ConfidenceLevel = models.ConfidenceHigh
		decision.AppealsEligible = false
		decision.Findings = append(decision.Findings, models.FindingRecord{
			Category: string(models.CategoryDecision),
			Severity: models.SeverityInfo.String(),
			Message:  fmt.Sprintf("Approved: validation %.2f, ML confidence %.2f, business rules %.2f", validation, ml, rules),
			Weight:   1.0,
		})

	case validation >= conditionalValidation && rules >= conditionalRules:
		decision.FinalDecision = models.DecisionApprove
		decision.ConfidenceLevel = models.ConfidenceMedium
		decision.AppealsEligible = false
		decision.Findings = append(decision.Findings, models.FindingRecord{
			Category: string(models.CategoryDecision),
			Severity: models.SeverityInfo.String(),
			Message:  fmt.Sprintf("Conditional approval: validation %.2f with business rule score %.2f", validation, rules),
			Weight:   1.0,
		})
		if rules < employmentFollowUp {
			decision.RecommendedActions = append(decision.RecommendedActions, "Verify employment letter within 30 days")
		}

	case rules < denyRules:
		decision.FinalDecision = models.DecisionDeny
		decision.ConfidenceLevel = models.ConfidenceHigh
		decision.AppealsEligible = true
		decision.CriticalFlags = append(decision.CriticalFlags, models.FlagFailedBusinessRules)
		decision.Findings = append(decision.Findings, models.FindingRecord{
			Category: string(models.CategoryDecision),
			Severity: models.SeverityCritical.String(),
			Message:  fmt.Sprintf("Denied: business rule compliance %.2f is below the minimum of %.2f", rules, denyRules),
			Weight:   1.0,
		})

	case result.QualityScore < denyQuality && result.ConsistencyScore < denyConsistency:
		decision.FinalDecision = models.DecisionDeny
		decision.ConfidenceLevel = models.ConfidenceHigh
		decision.AppealsEligible = true
		decision.CriticalFlags = append(decision.CriticalFlags, models.FlagInsufficientDataQuality)
		decision.Findings = append(decision.Findings, models.FindingRecord{
			Category: string(models.CategoryDecision),
			Severity: models.SeverityCritical.String(),
			Message:  fmt.Sprintf("Denied: quality %.2f and consistency %.2f are both below %.2f", result.QualityScore, result.ConsistencyScore, denyQuality),
			Weight:   1.0,
		})

	default:
		decision.FinalDecision = models.DecisionNeedsReview
		decision.ConfidenceLevel = models.ConfidenceLow
		if combined >= mediumConfidence {
			decision.ConfidenceLevel = models.ConfidenceMedium
		}
		decision.AppealsEligible = true
		decision.Findings = append(decision.Findings, models.FindingRecord{
			Category: string(models.CategoryDecision),
			Severity: models.SeverityInfo.String(),
			Message:  fmt.Sprintf("Manual review required: combined score %.2f", combined),
			Weight:   0.5,
		})
		decision.RecommendedActions = append(decision.RecommendedActions, "Escalate to human reviewer for additional verification")
		if rules < employmentFollowUp {
			decision.RecommendedActions = append(decision.RecommendedActions, "Address business rule gaps before re-submission")
		}
		if validation < approveValidation {
			decision.RecommendedActions = append(decision.RecommendedActions, fmt.Sprintf("Improve data quality metrics (current: %.2f)", validation))
		}
	}

	decision.Rationale = fmt.Sprintf(
		"Decision based on validation quality (%.2f), ML confidence (%.2f), and business rule compliance (%.2f). Combined eligibility score: %.2f",
		validation, ml, rules, combined,
	)

	return decision
}

// notFoundDecision covers ids the validation stage never produced a
// result for; those always go to a human.
func (h *Handler) notFoundDecision(applicationID string, asOf time.Time) *models.DecisionResult {
	return &models.DecisionResult{
		ApplicationID:      applicationID,
		FinalDecision:      models.DecisionNeedsReview,
		ConfidenceLevel:    models.ConfidenceLow,
		AppealsEligible:    true,
		Rationale:          "Application not found in validation results",
		RecommendedActions: []string{"Escalate to human reviewer for additional verification"},
		Timestamp:          asOf,
	}
}

func (h *Handler) logDecision(decision *models.DecisionResult) {
	h.logger.Info("eligibility decided", map[string]interface{}{
		"applicationId":   decision.ApplicationID,
		"finalDecision":   string(decision.FinalDecision),
		"confidenceLevel": string(decision.ConfidenceLevel),
		"combinedScore":   decision.Scores.CombinedScore,
	})
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
