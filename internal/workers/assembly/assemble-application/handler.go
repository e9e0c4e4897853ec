// internal/workers/assembly/assemble-application/handler.go
package assembleapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/groundtruth"
	"eligibility-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "assemble-application"

type Handler struct {
	config      *Config
	groundTruth *groundtruth.Table
	logger      logger.Logger
	errors      *commonerrors.ErrorHandler
}

// NewHandler builds the assembler. groundTruth may be nil when no
// enrichment table was configured.
func NewHandler(config *Config, groundTruth *groundtruth.Table, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		groundTruth: groundTruth,
		logger:      scoped,
		errors:      commonerrors.NewErrorHandler(scoped),
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
		h.errors.HandleJobError(ctx, client, job, commonerrors.ErrCodeAssemblyFailed, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	app := &models.ApplicationExtraction{
		ApplicationID:     input.ApplicationID,
		BankStatement:     input.BankStatement,
		Resume:            input.Resume,
		AssetsLiabilities: input.AssetsLiabilities,
		CreditReport:      input.CreditReport,
		Metadata:          make(map[models.DocumentKind]models.ExtractionMetadata),
	}
	if input.PersonalInfo != nil {
		app.PersonalInfo = *input.PersonalInfo
	}
	if input.EmploymentInfo != nil {
		app.EmploymentInfo = *input.EmploymentInfo
	}

	for _, kind := range models.AllDocumentKinds() {
		meta, ok := input.Metadata[kind]
		if !ok || meta.Status == models.ExtractionMissing {
			app.Metadata[kind] = models.MissingMetadata(kind)
			app.MissingDocuments = append(app.MissingDocuments, kind)
			continue
		}
		app.Metadata[kind] = meta
	}

	app.VerificationStatus = verificationStatus(app)
	app.DataQualityScore = dataQualityScore(app)

	h.enrich(app, input.AsOf)

	h.logger.Info("application assembled", map[string]interface{}{
		"applicationId":      app.ApplicationID,
		"missingDocuments":   len(app.MissingDocuments),
		"verificationStatus": string(app.VerificationStatus),
		"dataQualityScore":   app.DataQualityScore,
	})

	return &Output{Application: app}, nil
}

func verificationStatus(app *models.ApplicationExtraction) models.VerificationStatus {
	if len(app.MissingDocuments) > 0 {
		return models.VerificationIncomplete
	}
	for _, kind := range models.AllDocumentKinds() {
		if app.DocumentStatus(kind) != models.ExtractionSuccess {
			return models.VerificationIncomplete
		}
	}
	return models.VerificationVerified
}

// dataQualityScore is the unweighted mean of four components: document
// presence, mean extraction confidence, core personal field coverage,
// and core employment field coverage.
func dataQualityScore(app *models.ApplicationExtraction) float64 {
	kinds := models.AllDocumentKinds()

	var present int
	var confidenceSum float64
	for _, kind := range kinds {
		if app.DocumentPresent(kind) {
			present++
			confidenceSum += app.Metadata[kind].Confidence
		}
	}

	presence := float64(present) / float64(len(kinds))

	var meanConfidence float64
	if present > 0 {
		meanConfidence = confidenceSum / float64(present)
	}

	personal := 0
	if app.PersonalInfo.FullName != "" {
		personal++
	}
	if app.PersonalInfo.NationalID != "" {
		personal++
	}
	if app.PersonalInfo.DateOfBirth != nil {
		personal++
	}

	employment := 0
	if app.EmploymentInfo.Employer != "" {
		employment++
	}
	if app.EmploymentInfo.JobTitle != "" {
		employment++
	}
	if app.EmploymentInfo.MonthlySalary > 0 {
		employment++
	}

	score := (presence + meanConfidence + float64(personal)/3 + float64(employment)/3) / 4
	return models.Clamp01(score)
}

// enrich back-fills still-empty personal fields from the ground-truth
// table. It only ever fills gaps, extracted values are never replaced.
func (h *Handler) enrich(app *models.ApplicationExtraction, asOf time.Time) {
	if h.groundTruth == nil {
		return
	}
	record, ok := h.groundTruth.Lookup(app.ApplicationID)
	if !ok {
		return
	}

	if app.PersonalInfo.FullName == "" {
		app.PersonalInfo.FullName = record.FullName
	}
	if app.PersonalInfo.NationalID == "" {
		app.PersonalInfo.NationalID = record.NationalID
	}
	if app.PersonalInfo.MaritalStatus == "" {
		app.PersonalInfo.MaritalStatus = record.MaritalStatus
	}
	if app.PersonalInfo.DateOfBirth == nil && record.Age > 0 && !asOf.IsZero() {
		dob := asOf.AddDate(-record.Age, 0, 0)
		app.PersonalInfo.DateOfBirth = &dob
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
