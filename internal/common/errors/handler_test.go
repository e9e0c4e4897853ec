// internal/common/errors/handler_test.go
package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eligibility-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleJobErrorRetryableFailsJob(t *testing.T) {
	client := &stubJobClient{}
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: "persist-decision", Retries: 3}}
	h := NewErrorHandler(noopLogger{})

	failures := metrics.WorkerJobsFailed.WithLabelValues("persist-decision", "DATABASE_INSERT_FAILED")
	before := testutil.ToFloat64(failures)

	h.HandleJobError(context.Background(), client, job, ErrCodeDecisionFailed,
		NewDatabaseInsertFailedError(fmt.Errorf("connection reset")))

	require.NotNil(t, client.failed)
	assert.True(t, client.failed.sent)
	assert.Equal(t, int64(7), client.failed.jobKey)
	assert.Equal(t, int32(3), client.failed.retries)
	assert.Nil(t, client.thrown)
	assert.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestHandleJobErrorNonRetryableThrowsBPMNError(t *testing.T) {
	client := &stubJobClient{}
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 8, Type: "extract-resume", Retries: 3}}
	h := NewErrorHandler(noopLogger{})

	failures := metrics.WorkerJobsFailed.WithLabelValues("extract-resume", "PARSE_ERROR")
	before := testutil.ToFloat64(failures)

	h.HandleJobError(context.Background(), client, job, ErrCodeParseError,
		fmt.Errorf("parse input: unexpected end of JSON input"))

	require.NotNil(t, client.thrown)
	assert.True(t, client.thrown.sent)
	assert.Equal(t, "PARSE_ERROR", client.thrown.code)
	assert.Nil(t, client.failed)
	assert.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestHandleJobErrorExhaustedRetriesThrows(t *testing.T) {
	client := &stubJobClient{}
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 9, Type: "extract-bank-statement", Retries: 0}}
	h := NewErrorHandler(noopLogger{})

	h.HandleJobError(context.Background(), client, job, ErrCodeExtractionFailed,
		NewDocumentReadFailedError("/tmp/app/statement.pdf", fmt.Errorf("permission denied")))

	require.NotNil(t, client.thrown)
	assert.Equal(t, "DOCUMENT_READ_FAILED", client.thrown.code)
	assert.Nil(t, client.failed)
}

type stubJobClient struct {
	failed *stubFailCommand
	thrown *stubThrowCommand
}

func (c *stubJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 { return nil }

func (c *stubJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.failed = &stubFailCommand{}
	return c.failed
}

func (c *stubJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.thrown = &stubThrowCommand{}
	return c.thrown
}

type stubFailCommand struct {
	jobKey  int64
	retries int32
	message string
	vars    string
	sent    bool
}

func (c *stubFailCommand) JobKey(key int64) commands.FailJobCommandStep2 {
	c.jobKey = key
	return c
}

func (c *stubFailCommand) Retries(retries int32) commands.FailJobCommandStep3 {
	c.retries = retries
	return c
}

func (c *stubFailCommand) RetryBackoff(time.Duration) commands.FailJobCommandStep3 { return c }

func (c *stubFailCommand) ErrorMessage(msg string) commands.FailJobCommandStep3 {
	c.message = msg
	return c
}

func (c *stubFailCommand) VariablesFromString(vars string) (commands.DispatchFailJobCommand, error) {
	c.vars = vars
	return c, nil
}

func (c *stubFailCommand) VariablesFromStringer(fmt.Stringer) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *stubFailCommand) VariablesFromMap(map[string]interface{}) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *stubFailCommand) VariablesFromObject(interface{}) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *stubFailCommand) VariablesFromObjectIgnoreOmitempty(interface{}) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *stubFailCommand) Send(context.Context) (*pb.FailJobResponse, error) {
	c.sent = true
	return &pb.FailJobResponse{}, nil
}

type stubThrowCommand struct {
	jobKey  int64
	code    string
	message string
	vars    string
	sent    bool
}

func (c *stubThrowCommand) JobKey(key int64) commands.ThrowErrorCommandStep2 {
	c.jobKey = key
	return c
}

func (c *stubThrowCommand) ErrorCode(code string) commands.DispatchThrowErrorCommand {
	c.code = code
	return c
}

func (c *stubThrowCommand) ErrorMessage(msg string) commands.DispatchThrowErrorCommand {
	c.message = msg
	return c
}

func (c *stubThrowCommand) VariablesFromString(vars string) (commands.DispatchThrowErrorCommand, error) {
	c.vars = vars
	return c, nil
}

func (c *stubThrowCommand) VariablesFromStringer(fmt.Stringer) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *stubThrowCommand) VariablesFromMap(map[string]interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *stubThrowCommand) VariablesFromObject(interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *stubThrowCommand) VariablesFromObjectIgnoreOmitempty(interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *stubThrowCommand) Send(context.Context) (*pb.ThrowErrorResponse, error) {
	c.sent = true
	return &pb.ThrowErrorResponse{}, nil
}
