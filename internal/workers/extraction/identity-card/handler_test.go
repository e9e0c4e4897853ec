// internal/workers/extraction/identity-card/handler_test.go
package identitycard

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

const sampleCard = `United Arab Emirates
Identity Card
Name: Fatima Al Mansouri
ID Number: 784-1990-12345678-1
Date of Birth: 15-06-1990
Nationality: Emirati
Sex: F
Expiry Date: 2028-03-01
`

func TestExecuteParsesCard(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{Text: sampleCard}})

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "APP-001",
		DocumentPath:  "/docs/APP-001_emirates_id.png",
	})
	require.NoError(t, err)
	require.NotNil(t, out.PersonalInfo)

	assert.Equal(t, models.ExtractionSuccess, out.Metadata.Status)
	assert.InDelta(t, 0.85, out.Metadata.Confidence, 1e-9)

	info := out.PersonalInfo
	assert.Equal(t, "Fatima Al Mansouri", info.FullName)
	assert.Equal(t, "784-1990-12345678-1", info.NationalID)
	require.NotNil(t, info.DateOfBirth)
	assert.Equal(t, "1990-06-15", info.DateOfBirth.Format("2006-01-02"))
	assert.Equal(t, "Emirati", info.Nationality)
	assert.Equal(t, "Female", info.Gender)
	require.NotNil(t, info.ExpiryDate)
	assert.Equal(t, "2028-03-01", info.ExpiryDate.Format("2006-01-02"))
}

func TestExecuteDegradedConfidence(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{Text: "name unreadable scan"}})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-002"})
	require.NoError(t, err)

	assert.Equal(t, models.ExtractionPartial, out.Metadata.Status)
	assert.InDelta(t, 0.65, out.Metadata.Confidence, 1e-9)
}

func TestExecuteMalformedID(t *testing.T) {
	content := &decode.Content{Text: `Name: Omar Hassan
ID Number: 784-1990-1234-1
`}
	h := newTestHandler(&fakeDecoder{content: content})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-003"})
	require.NoError(t, err)

	assert.Empty(t, out.PersonalInfo.NationalID)
	assert.Contains(t, out.Metadata.Warnings, "national id not found")
}

func TestExecuteDecodeFailure(t *testing.T) {
	h := newTestHandler(&fakeDecoder{err: errors.New("ocr timeout")})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-004"})
	require.NoError(t, err)

	assert.Nil(t, out.PersonalInfo)
	assert.Equal(t, models.ExtractionFailed, out.Metadata.Status)
	assert.Zero(t, out.Metadata.Confidence)
}

func TestExecuteEmptyText(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{}})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-005"})
	require.NoError(t, err)

	assert.Nil(t, out.PersonalInfo)
	assert.Equal(t, models.ExtractionFailed, out.Metadata.Status)
}
