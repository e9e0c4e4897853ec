// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eligibility-workers/internal/common/config"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/groundtruth"
	"eligibility-workers/internal/models"
	assembleapplication "eligibility-workers/internal/workers/assembly/assemble-application"
	decideeligibility "eligibility-workers/internal/workers/decision/decide-eligibility"
	assetsheet "eligibility-workers/internal/workers/extraction/asset-sheet"
	bankstatement "eligibility-workers/internal/workers/extraction/bank-statement"
	creditreport "eligibility-workers/internal/workers/extraction/credit-report"
	employmentletter "eligibility-workers/internal/workers/extraction/employment-letter"
	identitycard "eligibility-workers/internal/workers/extraction/identity-card"
	resumeextract "eligibility-workers/internal/workers/extraction/resume"
	aggregatescores "eligibility-workers/internal/workers/validation/aggregate-scores"
	checkconsistency "eligibility-workers/internal/workers/validation/check-consistency"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DecisionSink persists one decision record. Sink failures are logged
// and do not stop the batch.
type DecisionSink interface {
	Persist(ctx context.Context, record models.DecisionRecord) error
}

// Outcome is the full trace of one application through the pipeline.
type Outcome struct {
	ApplicationID string                        `json:"applicationId"`
	Application   *models.ApplicationExtraction `json:"application"`
	Findings      []models.ValidationFinding    `json:"findings"`
	Result        *models.ValidationResult      `json:"validationResult"`
	Decision      *models.DecisionResult        `json:"decision"`
}

// BatchResult summarizes one pipeline run.
type BatchResult struct {
	BatchID   string    `json:"batchId"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Pipeline runs applications through the five stages sequentially, with
// the six document extractions fanned out in parallel inside stage one.
type Pipeline struct {
	cfg    config.PipelineConfig
	logger logger.Logger

	bank       *bankstatement.Handler
	identity   *identitycard.Handler
	employment *employmentletter.Handler
	resume     *resumeextract.Handler
	assets     *assetsheet.Handler
	credit     *creditreport.Handler

	assembler  *assembleapplication.Handler
	validator  *checkconsistency.Handler
	aggregator *aggregatescores.Handler
	decider    *decideeligibility.Handler

	sinks []DecisionSink
}

func New(cfg config.PipelineConfig, decoder decode.Decoder, gt *groundtruth.Table, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
		bank:       bankstatement.NewHandler(bankstatement.LoadConfig(), decoder, log),
		identity:   identitycard.NewHandler(identitycard.LoadConfig(), decoder, log),
		employment: employmentletter.NewHandler(employmentletter.LoadConfig(), decoder, log),
		resume:     resumeextract.NewHandler(resumeextract.LoadConfig(), decoder, log),
		assets:     assetsheet.NewHandler(assetsheet.LoadConfig(), decoder, log),
		credit:     creditreport.NewHandler(creditreport.LoadConfig(), decoder, log),
		assembler:  assembleapplication.NewHandler(assembleapplication.LoadConfig(), gt, log),
		validator:  checkconsistency.NewHandler(checkconsistency.LoadConfig(), log),
		aggregator: aggregatescores.NewHandler(aggregatescores.LoadConfig(), log),
		decider:    decideeligibility.NewHandler(decideeligibility.LoadConfig(), decideeligibility.WeightedLinearModel{}, log),
	}
}

// AddSink registers a decision persistence target.
func (p *Pipeline) AddSink(sink DecisionSink) {
	p.sinks = append(p.sinks, sink)
}

// RunBatch processes every application under ApplicationsDir. A single
// asOf timestamp anchors date arithmetic for the whole batch, so two
// runs over the same input within a day produce identical decisions.
func (p *Pipeline) RunBatch(ctx context.Context) (*BatchResult, error) {
	bundles, err := DiscoverApplications(p.cfg.ApplicationsDir)
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	asOf := started.Truncate(24 * time.Hour)
	batchID := uuid.New().String()

	p.logger.Info("batch started", map[string]interface{}{
		"batchId":      batchID,
		"applications": len(bundles),
	})

	outcomes := make([]Outcome, len(bundles))

	g, gctx := errgroup.WithContext(ctx)
	limit := p.cfg.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, bundle := range bundles {
		g.Go(func() error {
			outcome, err := p.ProcessApplication(gctx, bundle, asOf)
			if err != nil {
				return err
			}
			outcomes[i] = *outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{
		BatchID:   batchID,
		StartedAt: started,
		Duration:  time.Since(started).String(),
		Outcomes:  outcomes,
	}

	if p.cfg.OutputDir != "" {
		if err := p.writeOutputs(result); err != nil {
			return nil, err
		}
	}

	p.logger.Info("batch finished", map[string]interface{}{
		"batchId":  batchID,
		"duration": result.Duration,
	})

	return result, nil
}

// ProcessApplication runs one bundle through all five stages.
func (p *Pipeline) ProcessApplication(ctx context.Context, bundle Bundle, asOf time.Time) (*Outcome, error) {
	extracted := p.extractAll(ctx, bundle)

	assembleOut, err := p.assembler.Execute(ctx, &assembleapplication.Input{
		ApplicationID:     bundle.ApplicationID,
		PersonalInfo:      extracted.personal,
		EmploymentInfo:    extracted.employment,
		BankStatement:     extracted.bank,
		Resume:            extracted.resume,
		AssetsLiabilities: extracted.assets,
		CreditReport:      extracted.credit,
		Metadata:          extracted.metadata,
		AsOf:              asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", bundle.ApplicationID, err)
	}

	checkOut, err := p.validator.Execute(ctx, &checkconsistency.Input{
		Application: assembleOut.Application,
		AsOf:        asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", bundle.ApplicationID, err)
	}

	aggregateOut, err := p.aggregator.Execute(ctx, &aggregatescores.Input{
		Application: assembleOut.Application,
		Findings:    checkOut.Findings,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", bundle.ApplicationID, err)
	}

	decideOut, err := p.decider.Execute(ctx, &decideeligibility.Input{
		ApplicationID: bundle.ApplicationID,
		Result:        aggregateOut.Result,
		AsOf:          asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("decide %s: %w", bundle.ApplicationID, err)
	}

	metrics.ApplicationsProcessed.WithLabelValues(string(aggregateOut.Result.Status)).Inc()
	metrics.DecisionsIssued.WithLabelValues(
		string(decideOut.Decision.FinalDecision),
		string(decideOut.Decision.ConfidenceLevel),
	).Inc()

	record := decideOut.Decision.ToRecord()
	for _, sink := range p.sinks {
		if err := sink.Persist(ctx, record); err != nil {
			p.logger.Warn("decision persistence failed", map[string]interface{}{
				"applicationId": bundle.ApplicationID,
				"error":         err,
			})
		}
	}

	return &Outcome{
		ApplicationID: bundle.ApplicationID,
		Application:   assembleOut.Application,
		Findings:      checkOut.Findings,
		Result:        aggregateOut.Result,
		Decision:      decideOut.Decision,
	}, nil
}

type extraction struct {
	kind     models.DocumentKind
	result   interface{}
	metadata models.ExtractionMetadata
}

type extractionSet struct {
	personal   *models.PersonalInfo
	employment *models.EmploymentInfo
	bank       *models.BankStatement
	resume     *models.Resume
	assets     *models.AssetsLiabilities
	credit     *models.CreditReport
	metadata   map[models.DocumentKind]models.ExtractionMetadata
}

// extractAll fans the six extractors out in parallel and waits for all of
// them. Extractors never fail the application: a decode error, timeout or
// unparseable document lands in metadata as a failed entry.
func (p *Pipeline) extractAll(ctx context.Context, bundle Bundle) *extractionSet {
	set := &extractionSet{
		metadata: make(map[models.DocumentKind]models.ExtractionMetadata, len(documentPatterns)),
	}

	type staged struct {
		kind models.DocumentKind
		run  func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error)
		keep func(result interface{})
	}

	stages := []staged{
		{
			kind: models.DocEmiratesID,
			run: func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error) {
				out, err := p.identity.Execute(ctx, &identitycard.Input{ApplicationID: bundle.ApplicationID, DocumentPath: path})
				if err != nil {
					return nil, models.ExtractionMetadata{}, err
				}
				return out.PersonalInfo, out.Metadata, nil
			},
			keep: func(result interface{}) {
				if v, ok := result.(*models.PersonalInfo); ok {
					set.personal = v
				}
			},
		},
		{
			kind: models.DocBankStatement,
			run: func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error) {
				out, err := p.bank.Execute(ctx, &bankstatement.Input{ApplicationID: bundle.ApplicationID, DocumentPath: path})
				if err != nil {
					return nil, models.ExtractionMetadata{}, err
				}
				return out.Statement, out.Metadata, nil
			},
			keep: func(result interface{}) {
				if v, ok := result.(*models.BankStatement); ok {
					set.bank = v
				}
			},
		},
		{
			kind: models.DocEmploymentLetter,
			run: func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error) {
				out, err := p.employment.Execute(ctx, &employmentletter.Input{ApplicationID: bundle.ApplicationID, DocumentPath: path})
				if err != nil {
					return nil, models.ExtractionMetadata{}, err
				}
				return out.EmploymentInfo, out.Metadata, nil
			},
			keep: func(result interface{}) {
				if v, ok := result.(*models.EmploymentInfo); ok {
					set.employment = v
				}
			},
		},
		{
			kind: models.DocResume,
			run: func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error) {
				out, err := p.resume.Execute(ctx, &resumeextract.Input{ApplicationID: bundle.ApplicationID, DocumentPath: path})
				if err != nil {
					return nil, models.ExtractionMetadata{}, err
				}
				return out.Resume, out.Metadata, nil
			},
			keep: func(result interface{}) {
				if v, ok := result.(*models.Resume); ok {
					set.resume = v
				}
			},
		},
		{
			kind: models.DocAssetsLiabilities,
			run: func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error) {
				out, err := p.assets.Execute(ctx, &assetsheet.Input{ApplicationID: bundle.ApplicationID, DocumentPath: path})
				if err != nil {
					return nil, models.ExtractionMetadata{}, err
				}
				return out.AssetsLiabilities, out.Metadata, nil
			},
			keep: func(result interface{}) {
				if v, ok := result.(*models.AssetsLiabilities); ok {
					set.assets = v
				}
			},
		},
		{
			kind: models.DocCreditReport,
			run: func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error) {
				out, err := p.credit.Execute(ctx, &creditreport.Input{ApplicationID: bundle.ApplicationID, DocumentPath: path})
				if err != nil {
					return nil, models.ExtractionMetadata{}, err
				}
				return out.CreditReport, out.Metadata, nil
			},
			keep: func(result interface{}) {
				if v, ok := result.(*models.CreditReport); ok {
					set.credit = v
				}
			},
		},
	}

	results := make(chan extraction, len(stages))

	var launched int
	for _, stage := range stages {
		path, present := bundle.Documents[stage.kind]
		if !present {
			set.metadata[stage.kind] = models.MissingMetadata(stage.kind)
			continue
		}

		launched++
		go func() {
			results <- p.extractOne(ctx, stage.kind, path, stage.run)
		}()
	}

	for i := 0; i < launched; i++ {
		ex := <-results
		set.metadata[ex.kind] = ex.metadata
		for _, stage := range stages {
			if stage.kind == ex.kind && ex.result != nil {
				stage.keep(ex.result)
			}
		}

		metrics.DocumentsExtracted.WithLabelValues(string(ex.kind), string(ex.metadata.Status)).Inc()
	}

	return set
}

func (p *Pipeline) extractOne(
	ctx context.Context,
	kind models.DocumentKind,
	path string,
	run func(ctx context.Context, path string) (interface{}, models.ExtractionMetadata, error),
) extraction {
	ex := extraction{kind: kind}

	timeout := config.GetDuration(p.cfg.DocumentTimeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	docCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()

	type payload struct {
		result   interface{}
		metadata models.ExtractionMetadata
		err      error
	}
	done := make(chan payload, 1)

	go func() {
		result, metadata, err := run(docCtx, path)
		done <- payload{result: result, metadata: metadata, err: err}
	}()

	select {
	case <-docCtx.Done():
		p.logger.Warn("document extraction timed out", map[string]interface{}{
			"documentKind": kind,
			"path":         path,
		})
		ex.metadata = models.FailedMetadata(kind, "extraction timed out")
	case out := <-done:
		if out.err != nil {
			p.logger.Warn("document extraction failed", map[string]interface{}{
				"documentKind": kind,
				"path":         path,
				"error":        out.err,
			})
			ex.metadata = models.FailedMetadata(kind, out.err.Error())
		} else {
			ex.result = out.result
			ex.metadata = out.metadata
		}
	}

	metrics.ExtractionDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
	return ex
}

// writeOutputs stores one decision file per application plus a batch
// manifest. Files are overwritten on re-runs.
func (p *Pipeline) writeOutputs(result *BatchResult) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, outcome := range result.Outcomes {
		if outcome.Decision == nil {
			continue
		}
		record := outcome.Decision.ToRecord()
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal decision for %s: %w", outcome.ApplicationID, err)
		}
		path := filepath.Join(p.cfg.OutputDir, outcome.ApplicationID+"_decision.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write decision for %s: %w", outcome.ApplicationID, err)
		}
	}

	manifest, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch manifest: %w", err)
	}
	path := filepath.Join(p.cfg.OutputDir, "batch_"+result.BatchID+".json")
	if err := os.WriteFile(path, manifest, 0o644); err != nil {
		return fmt.Errorf("write batch manifest: %w", err)
	}

	return nil
}
