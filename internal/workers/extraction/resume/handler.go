// internal/workers/extraction/resume/handler.go
package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
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
	TaskType = "extract-resume"

	textConfidence  = 0.90
	tableConfidence = 0.85
)

// section headers recognized when splitting the résumé into blocks
var sectionHeaders = map[string]string{
	"experience":              "experience",
	"work experience":         "experience",
	"employment history":      "experience",
	"professional experience": "experience",
	"education":               "education",
	"qualifications":          "education",
	"skills":                  "skills",
	"key skills":              "skills",
}

var (
	entryPattern  = regexp.MustCompile(`^(.+?)\s+(?:at|@)\s+(.+?)\s*(?:\(([^)]+)\))?$`)
	dashedPattern = regexp.MustCompile(`^(.+?)\s*[-–]\s*(.+?)\s*(?:\(([^)]+)\))?$`)
	statusPattern = regexp.MustCompile(`(?i)\b(currently employed|self[- ]employed|unemployed|seeking employment|retired|student)\b`)
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
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeDocumentMissing, commonerrors.NewDocumentMissingError(input.ApplicationID, string(models.DocResume)))
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
		meta := models.FailedMetadata(models.DocResume, err.Error())
		meta.ProcessingTime = time.Since(started)
		return &Output{Metadata: meta}, nil
	}

	parsed, meta := h.parse(content)
	meta.ProcessingTime = time.Since(started)

	h.logger.Info("resume extracted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        string(meta.Status),
		"confidence":    meta.Confidence,
		"experience":    experienceCount(parsed),
	})

	return &Output{Resume: parsed, Metadata: meta}, nil
}

func experienceCount(r *models.Resume) int {
	if r == nil {
		return 0
	}
	return len(r.WorkExperience)
}

func (h *Handler) parse(content *decode.Content) (*models.Resume, models.ExtractionMetadata) {
	meta := models.ExtractionMetadata{
		Kind:   models.DocResume,
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
		return nil, models.FailedMetadata(models.DocResume, "no text or tables decoded")
	}

	r := &models.Resume{}
	lines := strings.Split(text, "\n")

	// the name is conventionally the first non-empty line
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			r.FullName = trimmed
			break
		}
	}

	if m := statusPattern.FindString(text); m != "" {
		r.EmploymentStatus = normalizeStatus(m)
	}

	section := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if next, ok := sectionHeaders[strings.ToLower(strings.TrimRight(trimmed, ":"))]; ok {
			section = next
			continue
		}

		switch section {
		case "experience":
			if exp, ok := parseExperience(trimmed); ok {
				r.WorkExperience = append(r.WorkExperience, exp)
			}
		case "education":
			r.Education = append(r.Education, trimmed)
		case "skills":
			for _, skill := range strings.Split(trimmed, ",") {
				if s := strings.TrimSpace(skill); s != "" {
					r.Skills = append(r.Skills, s)
				}
			}
		}
	}

	if r.EmploymentStatus == "" {
		for _, exp := range r.WorkExperience {
			if exp.Current {
				r.EmploymentStatus = "Employed"
				break
			}
		}
	}

	if len(r.WorkExperience) == 0 {
		meta.Status = models.ExtractionPartial
		meta.Warnings = append(meta.Warnings, "no work experience entries recovered")
	}

	return r, meta
}

// parseExperience accepts "Title at Employer (period)" and
// "Title - Employer (period)" entry shapes.
func parseExperience(line string) (models.WorkExperience, bool) {
	for _, pattern := range []*regexp.Regexp{entryPattern, dashedPattern} {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		exp := models.WorkExperience{
			JobTitle: strings.TrimSpace(m[1]),
			Employer: strings.TrimSpace(m[2]),
			Period:   strings.TrimSpace(m[3]),
		}
		exp.Current = strings.Contains(strings.ToLower(exp.Period), "present")
		return exp, true
	}
	return models.WorkExperience{}, false
}

func normalizeStatus(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "currently employed"):
		return "Employed"
	case strings.Contains(lower, "self"):
		return "Self-Employed"
	case strings.Contains(lower, "unemployed"), strings.Contains(lower, "seeking"):
		return "Unemployed"
	case strings.Contains(lower, "retired"):
		return "Retired"
	case strings.Contains(lower, "student"):
		return "Student"
	}
	return raw
}

func flattenTables(tables [][]string) string {
	var b strings.Builder
	for _, row := range tables {
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
	}
	return b.String()
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
