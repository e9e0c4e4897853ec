// internal/store/postgres_test.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() models.DecisionRecord {
	return models.DecisionRecord{
		ApplicationID:      "APP-2025-001",
		FinalDecision:      "APPROVE",
		ConfidenceLevel:    "HIGH",
		ValidationScore:    0.95,
		MLConfidence:       0.92,
		BusinessRuleScore:  1.0,
		CombinedScore:      0.96,
		ApprovalLikelihood: 0.96,
		Findings: []models.FindingRecord{
			{Category: "decision", Severity: "info", Message: "Strong approval", Weight: 1.0},
		},
		Rationale:        "Decision based on validation quality (0.95), ML confidence (0.92), and business rule compliance (1.00). Combined eligibility score: 0.96",
		AppealsEligible:  false,
		MLPredictedClass: 1,
		ValidationStatus: "passed",
		Timestamp:        "2025-03-01T10:00:00Z",
	}
}

func TestSaveInsertsRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := sampleRecord()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(record.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO eligibility_decisions`).
		WithArgs(
			record.ApplicationID,
			record.FinalDecision,
			record.ConfidenceLevel,
			record.ValidationScore,
			record.MLConfidence,
			record.BusinessRuleScore,
			record.CombinedScore,
			record.ApprovalLikelihood,
			sqlmock.AnyArg(), // findings JSON
			record.Rationale,
			record.AppealsEligible,
			sqlmock.AnyArg(), // actions JSON
			sqlmock.AnyArg(), // flags JSON
			record.MLPredictedClass,
			record.ValidationStatus,
			record.Timestamp,
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	dst := NewDecisionStore(db, logger.NewNoOpLogger())
	err = dst.Save(context.Background(), record)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRejectsDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := sampleRecord()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(record.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	dst := NewDecisionStore(db, logger.NewNoOpLogger())
	err = dst.Save(context.Background(), record)

	require.Error(t, err)
	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeDuplicateDecision, stdErr.Code)
	assert.False(t, stdErr.Retryable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveInsertFailureIsRetryable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := sampleRecord()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(record.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO eligibility_decisions`).
		WillReturnError(errors.New("connection reset"))

	dst := NewDecisionStore(db, logger.NewNoOpLogger())
	err = dst.Save(context.Background(), record)

	require.Error(t, err)
	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsStoredRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := sampleRecord()
	findingsJSON, err := json.Marshal(record.Findings)
	require.NoError(t, err)

	columns := []string{
		"application_id", "final_decision", "confidence_level",
		"validation_score", "ml_confidence", "business_rule_score",
		"combined_score", "approval_likelihood",
		"findings", "rationale", "appeals_eligible",
		"recommended_actions", "critical_flags",
		"ml_prediction_class", "validation_status", "decided_at",
	}
	mock.ExpectQuery(`SELECT application_id`).
		WithArgs(record.ApplicationID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			record.ApplicationID,
			record.FinalDecision,
			record.ConfidenceLevel,
			record.ValidationScore,
			record.MLConfidence,
			record.BusinessRuleScore,
			record.CombinedScore,
			record.ApprovalLikelihood,
			findingsJSON,
			record.Rationale,
			record.AppealsEligible,
			[]byte("null"),
			[]byte("null"),
			record.MLPredictedClass,
			record.ValidationStatus,
			record.Timestamp,
		))

	dst := NewDecisionStore(db, logger.NewNoOpLogger())
	got, err := dst.Get(context.Background(), record.ApplicationID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.ApplicationID, got.ApplicationID)
	assert.Equal(t, "APPROVE", got.FinalDecision)
	assert.Equal(t, 0.92, got.MLConfidence)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "Strong approval", got.Findings[0].Message)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingRecordReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT application_id`).
		WithArgs("APP-UNKNOWN").
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}))

	dst := NewDecisionStore(db, logger.NewNoOpLogger())
	got, err := dst.Get(context.Background(), "APP-UNKNOWN")

	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
