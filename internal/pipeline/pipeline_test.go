// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"eligibility-workers/internal/common/config"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/groundtruth"
	"eligibility-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIdentityCard = `United Arab Emirates
Identity Card
Name: Fatima Al Mansouri
ID Number: 784-1990-12345678-1
Date of Birth: 15-06-1990
Nationality: Emirati
Sex: F
Expiry Date: 2028-03-01
`

const testBankStatement = `First Abu Dhabi Bank
Account Statement
Account Number: 784123456789012345
Statement Period 2025-01-01 to 2025-03-31

2025-01-25  SALARY TRANSFER ACME CORP   AED 12,000.00
2025-02-25  SALARY TRANSFER ACME CORP   AED 12,000.00
2025-03-25  SALARY TRANSFER ACME CORP   AED 12,000.00

Closing Balance: AED 36,000.00
`

const testEmploymentLetter = `TO WHOM IT MAY CONCERN

Employer: Etisalat Group
Job Title: Network Engineer
Start Date: 2022-04-01
Monthly Salary: AED 12,000.00

This letter confirms the above details of employment.
`

const testResume = `Fatima Al Mansouri

Work Experience:
Network Engineer at Etisalat Group (2022 - Present)
Junior Engineer at Du Telecom (2019 - 2022)

Education:
BSc Computer Engineering, UAE University

Skills:
Networking, Python, Project Management
`

const testCreditReport = `{
  "credit_score": 1450,
  "accounts": [
    {"account_type": "credit_card", "balance": 12000, "credit_limit": 30000, "payment_status": "Current"}
  ],
  "payment_history": {"on_time": 46, "late_30": 0, "late_60": 0, "missed": 0}
}`

func testAssetSheets() map[string][][]string {
	return map[string][][]string{
		"Sheet1": {
			{"Category", "Description", "Value"},
			{"Vehicle", "Sedan", "65,000"},
			{"Savings Account", "", "120,000.50"},
			{"Investments", "Index funds", "40,000"},
			{"Credit Card", "Revolving", "15,000"},
		},
	}
}

// pathDecoder serves canned content keyed on the document filename,
// mirroring what the decode service would return for each format.
type pathDecoder struct {
	failSubstring string
}

func (d *pathDecoder) Decode(ctx context.Context, path string) (*decode.Content, error) {
	name := filepath.Base(path)
	if d.failSubstring != "" && strings.Contains(name, d.failSubstring) {
		return nil, errors.New("decode service unavailable")
	}

	switch {
	case strings.Contains(name, "emirates_id"):
		return &decode.Content{Text: testIdentityCard}, nil
	case strings.Contains(name, "bank_statement"):
		return &decode.Content{Text: testBankStatement}, nil
	case strings.Contains(name, "employment_letter"):
		return &decode.Content{Text: testEmploymentLetter}, nil
	case strings.Contains(name, "resume"):
		return &decode.Content{Text: testResume}, nil
	case strings.Contains(name, "assets_liabilities"):
		return &decode.Content{Sheets: testAssetSheets()}, nil
	case strings.Contains(name, "credit_report"):
		return &decode.Content{Raw: []byte(testCreditReport)}, nil
	}
	return nil, errors.New("unknown document")
}

func writeApplicationDir(t *testing.T, root, id string, kinds ...models.DocumentKind) {
	t.Helper()

	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	names := map[models.DocumentKind]string{
		models.DocBankStatement:     id + "_bank_statement.pdf",
		models.DocEmiratesID:        id + "_emirates_id.png",
		models.DocEmploymentLetter:  id + "_employment_letter.pdf",
		models.DocResume:            id + "_resume.pdf",
		models.DocAssetsLiabilities: id + "_assets_liabilities.xlsx",
		models.DocCreditReport:      id + "_credit_report.json",
	}

	for _, kind := range kinds {
		path := filepath.Join(dir, names[kind])
		require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))
	}
}

func testPipeline(t *testing.T, appsDir, outDir string, dec decode.Decoder) *Pipeline {
	t.Helper()

	cfg := config.PipelineConfig{
		ApplicationsDir: appsDir,
		OutputDir:       outDir,
		MaxConcurrent:   2,
		DocumentTimeout: 5000,
	}
	gt := groundtruth.NewTable()
	return New(cfg, dec, gt, logger.NewNoOpLogger())
}

func TestDiscoverBundleFindsAllDocuments(t *testing.T) {
	root := t.TempDir()
	writeApplicationDir(t, root, "APP-2025-001", models.AllDocumentKinds()...)

	bundle, err := DiscoverBundle(root, "APP-2025-001")
	require.NoError(t, err)

	assert.Equal(t, "APP-2025-001", bundle.ApplicationID)
	assert.Len(t, bundle.Documents, 6)
	for _, kind := range models.AllDocumentKinds() {
		assert.Contains(t, bundle.Documents, kind)
	}
}

func TestDiscoverBundlePartial(t *testing.T) {
	root := t.TempDir()
	writeApplicationDir(t, root, "APP-2025-002", models.DocBankStatement, models.DocCreditReport)

	bundle, err := DiscoverBundle(root, "APP-2025-002")
	require.NoError(t, err)

	assert.Len(t, bundle.Documents, 2)
	assert.Contains(t, bundle.Documents, models.DocBankStatement)
	assert.NotContains(t, bundle.Documents, models.DocResume)
}

func TestDiscoverBundleMissingDirectory(t *testing.T) {
	_, err := DiscoverBundle(t.TempDir(), "APP-UNKNOWN")
	assert.Error(t, err)
}

func TestDiscoverApplicationsSortedAndSkipsFiles(t *testing.T) {
	root := t.TempDir()
	writeApplicationDir(t, root, "APP-2025-002", models.DocResume)
	writeApplicationDir(t, root, "APP-2025-001", models.DocResume)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	bundles, err := DiscoverApplications(root)
	require.NoError(t, err)

	require.Len(t, bundles, 2)
	assert.Equal(t, "APP-2025-001", bundles[0].ApplicationID)
	assert.Equal(t, "APP-2025-002", bundles[1].ApplicationID)
}

func TestRunBatchCompleteApplication(t *testing.T) {
	appsDir := t.TempDir()
	outDir := t.TempDir()
	writeApplicationDir(t, appsDir, "APP-2025-001", models.AllDocumentKinds()...)

	p := testPipeline(t, appsDir, outDir, &pathDecoder{})
	result, err := p.RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]

	require.NotNil(t, outcome.Result)
	assert.Equal(t, models.ValidationPassed, outcome.Result.Status)
	assert.Empty(t, outcome.Findings)
	assert.InDelta(t, 1.0, outcome.Result.QualityScore, 1e-9)
	assert.InDelta(t, 1.0, outcome.Result.ConsistencyScore, 1e-9)
	assert.InDelta(t, 1.0, outcome.Result.CompletenessScore, 1e-9)
	assert.Equal(t, 6, outcome.Result.DocumentsReviewed)

	require.NotNil(t, outcome.Decision)
	assert.Equal(t, models.DecisionApprove, outcome.Decision.FinalDecision)
	assert.Equal(t, models.ConfidenceHigh, outcome.Decision.ConfidenceLevel)
	assert.False(t, outcome.Decision.AppealsEligible)
	assert.Empty(t, outcome.Decision.CriticalFlags)

	// Decision file lands in the output directory.
	data, err := os.ReadFile(filepath.Join(outDir, "APP-2025-001_decision.json"))
	require.NoError(t, err)
	var record models.DecisionRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "APPROVE", record.FinalDecision)
	assert.Equal(t, "APP-2025-001", record.ApplicationID)
}

func TestRunBatchEmptyBundleIsDenied(t *testing.T) {
	appsDir := t.TempDir()
	writeApplicationDir(t, appsDir, "APP-2025-009")

	p := testPipeline(t, appsDir, "", &pathDecoder{})
	result, err := p.RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]

	require.NotNil(t, outcome.Result)
	assert.Equal(t, models.ValidationFailed, outcome.Result.Status)
	assert.Equal(t, 0, outcome.Result.DocumentsReviewed)

	require.NotNil(t, outcome.Decision)
	assert.Equal(t, models.DecisionDeny, outcome.Decision.FinalDecision)
	assert.True(t, outcome.Decision.AppealsEligible)
	assert.Contains(t, outcome.Decision.CriticalFlags, models.FlagInsufficientDataQuality)
}

func TestRunBatchDecodeFailureDegradesToFailedMetadata(t *testing.T) {
	appsDir := t.TempDir()
	writeApplicationDir(t, appsDir, "APP-2025-003", models.AllDocumentKinds()...)

	p := testPipeline(t, appsDir, "", &pathDecoder{failSubstring: "bank_statement"})
	result, err := p.RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]

	require.NotNil(t, outcome.Application)
	meta := outcome.Application.Metadata[models.DocBankStatement]
	assert.Equal(t, models.ExtractionFailed, meta.Status)
	assert.Zero(t, meta.Confidence)

	// The document was reviewed even though extraction failed, and the
	// rest of the pipeline still runs to a decision.
	require.NotNil(t, outcome.Decision)
	assert.Equal(t, 6, outcome.Result.DocumentsReviewed)
	assert.Less(t, outcome.Result.CompletenessScore, 1.0)
}

func TestRunBatchIsDeterministic(t *testing.T) {
	appsDir := t.TempDir()
	writeApplicationDir(t, appsDir, "APP-2025-001", models.AllDocumentKinds()...)

	p := testPipeline(t, appsDir, "", &pathDecoder{})

	first, err := p.RunBatch(context.Background())
	require.NoError(t, err)
	second, err := p.RunBatch(context.Background())
	require.NoError(t, err)

	d1 := first.Outcomes[0].Decision
	d2 := second.Outcomes[0].Decision
	assert.Equal(t, d1.FinalDecision, d2.FinalDecision)
	assert.Equal(t, d1.ConfidenceLevel, d2.ConfidenceLevel)
	assert.Equal(t, d1.Scores, d2.Scores)
	assert.Equal(t, d1.Rationale, d2.Rationale)
}

type recordingSink struct {
	mu      sync.Mutex
	records []models.DecisionRecord
	err     error
}

func (s *recordingSink) Persist(ctx context.Context, record models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return s.err
}

func TestRunBatchPersistsThroughSinks(t *testing.T) {
	appsDir := t.TempDir()
	writeApplicationDir(t, appsDir, "APP-2025-001", models.AllDocumentKinds()...)

	sink := &recordingSink{}
	p := testPipeline(t, appsDir, "", &pathDecoder{})
	p.AddSink(sink)

	_, err := p.RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "APP-2025-001", sink.records[0].ApplicationID)
	assert.Equal(t, "APPROVE", sink.records[0].FinalDecision)
}

func TestRunBatchSinkFailureDoesNotStopBatch(t *testing.T) {
	appsDir := t.TempDir()
	writeApplicationDir(t, appsDir, "APP-2025-001", models.AllDocumentKinds()...)
	writeApplicationDir(t, appsDir, "APP-2025-002", models.AllDocumentKinds()...)

	sink := &recordingSink{err: errors.New("postgres down")}
	p := testPipeline(t, appsDir, "", &pathDecoder{})
	p.AddSink(sink)

	result, err := p.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 2)
}
