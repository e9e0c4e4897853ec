// internal/workers/extraction/resume/handler_test.go
package resume

import (
	"context"
	"errors"
	"testing"

	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecoder struct {
	content *decode.Content
	err     error
}

func (f *fakeDecoder) Decode(ctx context.Context, path string) (*decode.Content, error) {
	return f.content, f.err
}

func newTestHandler(dec decode.Decoder) *Handler {
	return NewHandler(LoadConfig(), dec, logger.NewNoOpLogger())
}

const sampleResume = `Fatima Al Mansouri

Work Experience:
Network Engineer at Etisalat Group (2022 - Present)
Junior Engineer at Du Telecom (2019 - 2022)

Education:
BSc Computer Engineering, UAE University

Skills:
Networking, Python, Project Management
`

func TestExecuteParsesResume(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{Text: sampleResume}})

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "APP-001",
		DocumentPath:  "/docs/APP-001_resume.pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Resume)

	assert.Equal(t, models.ExtractionSuccess, out.Metadata.Status)
	assert.InDelta(t, 0.90, out.Metadata.Confidence, 1e-9)

	r := out.Resume
	assert.Equal(t, "Fatima Al Mansouri", r.FullName)

	require.Len(t, r.WorkExperience, 2)
	assert.Equal(t, "Network Engineer", r.WorkExperience[0].JobTitle)
	assert.Equal(t, "Etisalat Group", r.WorkExperience[0].Employer)
	assert.True(t, r.WorkExperience[0].Current)
	assert.False(t, r.WorkExperience[1].Current)

	assert.Equal(t, []string{"BSc Computer Engineering, UAE University"}, r.Education)
	assert.Equal(t, []string{"Networking", "Python", "Project Management"}, r.Skills)
	assert.Equal(t, "Employed", r.EmploymentStatus)
}

func TestExecuteExplicitStatus(t *testing.T) {
	content := &decode.Content{Text: `Omar Hassan
Currently employed as a sales manager.
`}
	h := newTestHandler(&fakeDecoder{content: content})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-002"})
	require.NoError(t, err)

	assert.Equal(t, "Employed", out.Resume.EmploymentStatus)
	assert.Equal(t, models.ExtractionPartial, out.Metadata.Status)
}

func TestExecuteDecodeFailure(t *testing.T) {
	h := newTestHandler(&fakeDecoder{err: errors.New("decode service unavailable")})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-003"})
	require.NoError(t, err)

	assert.Nil(t, out.Resume)
	assert.Equal(t, models.ExtractionFailed, out.Metadata.Status)
}

func TestExecuteEmptyContent(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{}})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-004"})
	require.NoError(t, err)

	assert.Nil(t, out.Resume)
	assert.Equal(t, models.ExtractionFailed, out.Metadata.Status)
}
