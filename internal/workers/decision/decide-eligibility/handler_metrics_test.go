// internal/workers/decision/decide-eligibility/handler_metrics_test.go
package decideeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"eligibility-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCompletesJobAndCountsIt(t *testing.T) {
	vars, err := json.Marshal(Input{
		ApplicationID: "APP-001",
		Result:        validationResult(0.95, 1.0, 1.0),
		AsOf:          asOf,
	})
	require.NoError(t, err)

	client := &completingJobClient{}
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       42,
		Type:      TaskType,
		Retries:   3,
		Variables: string(vars),
	}}

	completed := metrics.WorkerJobsCompleted.WithLabelValues(TaskType)
	active := metrics.WorkerJobsActive.WithLabelValues(TaskType)
	completedBefore := testutil.ToFloat64(completed)
	activeBefore := testutil.ToFloat64(active)

	newTestHandler(stubModel{0.92}).Handle(client, job)

	require.NotNil(t, client.complete)
	assert.True(t, client.complete.sent)
	assert.Equal(t, int64(42), client.complete.jobKey)
	assert.Equal(t, completedBefore+1, testutil.ToFloat64(completed))
	assert.Equal(t, activeBefore, testutil.ToFloat64(active))
}

type completingJobClient struct {
	complete *completeCommandRecorder
}

func (c *completingJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.complete = &completeCommandRecorder{}
	return c.complete
}

func (c *completingJobClient) NewFailJobCommand() commands.FailJobCommandStep1 { return nil }

func (c *completingJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 { return nil }

type completeCommandRecorder struct {
	jobKey int64
	sent   bool
}

func (c *completeCommandRecorder) JobKey(key int64) commands.CompleteJobCommandStep2 {
	c.jobKey = key
	return c
}

func (c *completeCommandRecorder) VariablesFromString(string) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *completeCommandRecorder) VariablesFromStringer(fmt.Stringer) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *completeCommandRecorder) VariablesFromMap(map[string]interface{}) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *completeCommandRecorder) VariablesFromObject(interface{}) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *completeCommandRecorder) VariablesFromObjectIgnoreOmitempty(interface{}) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *completeCommandRecorder) Send(context.Context) (*pb.CompleteJobResponse, error) {
	c.sent = true
	return &pb.CompleteJobResponse{}, nil
}
