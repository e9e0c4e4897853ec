// internal/store/postgres.go

// Package store persists eligibility decisions. Postgres is the system of
// record, Redis holds a short-lived copy for workflow reads, Elasticsearch
// gets a searchable projection for the review dashboard.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/models"
)

// DecisionStore writes decision records to Postgres.
type DecisionStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewDecisionStore(db *sql.DB, log logger.Logger) *DecisionStore {
	return &DecisionStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "decision-store"}),
	}
}

// Save inserts one decision record. A second save for the same application
// is rejected, decisions are terminal.
func (s *DecisionStore) Save(ctx context.Context, record models.DecisionRecord) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM eligibility_decisions
			WHERE application_id = $1
		)`, record.ApplicationID).Scan(&exists)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("duplicate check failed: %w", err))
	}
	if exists {
		return commonerrors.NewDuplicateDecisionError(record.ApplicationID)
	}

	findingsJSON, err := json.Marshal(record.Findings)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal findings: %w", err))
	}
	actionsJSON, err := json.Marshal(record.RecommendedActions)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal actions: %w", err))
	}
	flagsJSON, err := json.Marshal(record.CriticalFlags)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal flags: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO eligibility_decisions (
			application_id, final_decision, confidence_level,
			validation_score, ml_confidence, business_rule_score,
			combined_score, approval_likelihood,
			findings, rationale, appeals_eligible,
			recommended_actions, critical_flags,
			ml_prediction_class, validation_status, decided_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
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
		actionsJSON,
		flagsJSON,
		record.MLPredictedClass,
		record.ValidationStatus,
		record.Timestamp,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(fmt.Errorf("insert failed: %w", err))
	}

	s.logger.Info("decision record stored", map[string]interface{}{
		"applicationId": record.ApplicationID,
		"finalDecision": record.FinalDecision,
	})

	return nil
}

// Get loads a stored decision. Returns (nil, nil) when no decision exists.
func (s *DecisionStore) Get(ctx context.Context, applicationID string) (*models.DecisionRecord, error) {
	var (
		record       models.DecisionRecord
		findingsJSON []byte
		actionsJSON  []byte
		flagsJSON    []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, final_decision, confidence_level,
			validation_score, ml_confidence, business_rule_score,
			combined_score, approval_likelihood,
			findings, rationale, appeals_eligible,
			recommended_actions, critical_flags,
			ml_prediction_class, validation_status, decided_at
		FROM eligibility_decisions
		WHERE application_id = $1`, applicationID).Scan(
		&record.ApplicationID,
		&record.FinalDecision,
		&record.ConfidenceLevel,
		&record.ValidationScore,
		&record.MLConfidence,
		&record.BusinessRuleScore,
		&record.CombinedScore,
		&record.ApprovalLikelihood,
		&findingsJSON,
		&record.Rationale,
		&record.AppealsEligible,
		&actionsJSON,
		&flagsJSON,
		&record.MLPredictedClass,
		&record.ValidationStatus,
		&record.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.NewDatabaseConnectionFailedError(fmt.Errorf("select failed: %w", err))
	}

	if err := json.Unmarshal(findingsJSON, &record.Findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings for %s: %w", applicationID, err)
	}
	if err := json.Unmarshal(actionsJSON, &record.RecommendedActions); err != nil {
		return nil, fmt.Errorf("unmarshal actions for %s: %w", applicationID, err)
	}
	if err := json.Unmarshal(flagsJSON, &record.CriticalFlags); err != nil {
		return nil, fmt.Errorf("unmarshal flags for %s: %w", applicationID, err)
	}

	return &record, nil
}
