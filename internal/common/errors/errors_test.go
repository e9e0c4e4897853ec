// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeErrorPassesThroughStandardErrors(t *testing.T) {
	h := NewErrorHandler(noopLogger{})

	orig := NewDocumentReadFailedError("/tmp/app/statement.pdf", fmt.Errorf("permission denied"))
	got := h.normalizeError(ErrCodeExtractionFailed, orig)

	assert.Same(t, orig, got)
}

func TestNormalizeErrorUnwrapsStandardErrors(t *testing.T) {
	h := NewErrorHandler(noopLogger{})

	orig := NewDuplicateDecisionError("APP-0001")
	wrapped := fmt.Errorf("persist decision: %w", orig)
	got := h.normalizeError(ErrCodeDecisionFailed, wrapped)

	assert.Same(t, orig, got)
}

func TestNormalizeErrorClassifiesUnderFallback(t *testing.T) {
	h := NewErrorHandler(noopLogger{})

	got := h.normalizeError(ErrCodeParseError, fmt.Errorf("parse input: unexpected end of JSON input"))

	require.NotNil(t, got)
	assert.Equal(t, ErrCodeParseError, got.Code)
	assert.Equal(t, "parse input: unexpected end of JSON input", got.Message)
	assert.False(t, got.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("mapped retryable code keeps its retries", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewCacheWriteFailedError(fmt.Errorf("connection refused")))

		assert.Equal(t, "CACHE_WRITE_FAILED", bpmnErr.Code)
		assert.True(t, bpmnErr.Retryable)
		assert.Equal(t, 3, bpmnErr.Retries)
		assert.Equal(t, "CACHE_WRITE_FAILED", bpmnErr.ToErrorVariables()["errorCode"])
	})

	t.Run("non-retryable code gets zero retries", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewApplicationNotFoundError("APP-0002"))

		assert.Equal(t, "APPLICATION_NOT_FOUND", bpmnErr.Code)
		assert.False(t, bpmnErr.Retryable)
		assert.Zero(t, bpmnErr.Retries)
	})

	t.Run("unmapped code falls back to itself", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(&StandardError{Code: ErrCodeAssemblyFailed, Message: "merge failed"})

		assert.Equal(t, "ASSEMBLY_FAILED", bpmnErr.Code)
	})
}

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeDatabaseInsertFailed, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeDecodeServiceFailed, 3},
		{ErrCodeDocumentReadFailed, 2},
		{ErrCodeDecodeTimeout, 2},
		{ErrCodeDocumentMissing, 0},
		{ErrCodeExtractionFailed, 0},
		{ErrCodeParseError, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GetRetryCount(tc.code), string(tc.code))
		assert.Equal(t, tc.want > 0, IsRetryableErrorCode(tc.code), string(tc.code))
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "EXTRACTION", GetErrorCategory(ErrCodeDecodeTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseConnectionFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeGroundTruthLoadFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeDecisionFailed))
}

type noopLogger struct{}

func (noopLogger) Error(string, map[string]interface{}) {}
