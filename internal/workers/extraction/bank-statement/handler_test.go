// internal/workers/extraction/bank-statement/handler_test.go
package bankstatement

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

const sampleStatement = `First Abu Dhabi Bank
Account Statement
Account Number: 784123456789012345
Statement Period 2025-01-01 to 2025-03-31

2025-01-25  SALARY TRANSFER ACME CORP   AED 12,000.00
2025-01-28  GROCERY STORE               AED -450.50
2025-02-25  SALARY TRANSFER ACME CORP   AED 12,000.00
2025-03-25  SALARY TRANSFER ACME CORP   AED 12,000.00
2025-03-26  REFUND                      AED 200.00

Closing Balance: AED 35,749.50
`

func TestExecuteParsesTextStatement(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{Text: sampleStatement}})

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "APP-001",
		DocumentPath:  "/docs/APP-001_bank_statement.pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Statement)

	assert.Equal(t, models.ExtractionSuccess, out.Metadata.Status)
	assert.InDelta(t, 0.90, out.Metadata.Confidence, 1e-9)
	assert.Equal(t, "text", out.Metadata.Method)

	stmt := out.Statement
	assert.Equal(t, "First Abu Dhabi Bank", stmt.Account.BankName)
	assert.Equal(t, "784123456789012345", stmt.Account.AccountNumber)

	require.NotNil(t, stmt.PeriodStart)
	require.NotNil(t, stmt.PeriodEnd)
	assert.Equal(t, "2025-01-01", stmt.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2025-03-31", stmt.PeriodEnd.Format("2006-01-02"))

	assert.Len(t, stmt.Transactions, 5)
	assert.Len(t, stmt.SalaryDeposits, 3)
	assert.InDelta(t, 35749.50, stmt.ClosingBalance, 1e-9)
	assert.InDelta(t, 12000.0, stmt.MonthlyIncome(), 1e-9)
}

func TestExecuteDebitClassification(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{Text: sampleStatement}})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-001"})
	require.NoError(t, err)

	var credits, debits int
	for _, txn := range out.Statement.Transactions {
		assert.Greater(t, txn.Amount, 0.0)
		switch txn.Type {
		case "credit":
			credits++
		case "debit":
			debits++
		}
	}
	assert.Equal(t, 4, credits)
	assert.Equal(t, 1, debits)
}

func TestExecuteTablesOnly(t *testing.T) {
	content := &decode.Content{
		Tables: [][]string{
			{"Date", "Description", "Amount"},
			{"2025-01-25", "PAYROLL DEPOSIT", "8,500.00"},
			{"2025-02-25", "PAYROLL DEPOSIT", "8,500.00"},
			{"2025-02-26", "UTILITIES", "-320.00"},
		},
	}
	h := newTestHandler(&fakeDecoder{content: content})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-002"})
	require.NoError(t, err)
	require.NotNil(t, out.Statement)

	assert.Equal(t, models.ExtractionSuccess, out.Metadata.Status)
	assert.InDelta(t, 0.85, out.Metadata.Confidence, 1e-9)
	assert.Equal(t, "tables", out.Metadata.Method)

	assert.Len(t, out.Statement.Transactions, 3)
	assert.Len(t, out.Statement.SalaryDeposits, 2)
}

func TestExecuteSalaryFloor(t *testing.T) {
	content := &decode.Content{Text: `Mashreq Bank
2025-01-25  SALARY ADVANCE   AED 500.00
2025-02-25  SALARY TRANSFER  AED 9,000.00
`}
	h := newTestHandler(&fakeDecoder{content: content})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-003"})
	require.NoError(t, err)

	require.Len(t, out.Statement.SalaryDeposits, 1)
	assert.InDelta(t, 9000.0, out.Statement.SalaryDeposits[0].Amount, 1e-9)
}

func TestExecuteDecodeFailure(t *testing.T) {
	h := newTestHandler(&fakeDecoder{err: errors.New("decode service unavailable")})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-004"})
	require.NoError(t, err)

	assert.Nil(t, out.Statement)
	assert.Equal(t, models.ExtractionFailed, out.Metadata.Status)
	assert.Zero(t, out.Metadata.Confidence)
	assert.Contains(t, out.Metadata.Errors[0], "decode service unavailable")
}

func TestExecuteEmptyContent(t *testing.T) {
	h := newTestHandler(&fakeDecoder{content: &decode.Content{}})

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-005"})
	require.NoError(t, err)

	assert.Nil(t, out.Statement)
	assert.Equal(t, models.ExtractionFailed, out.Metadata.Status)
}
