// internal/workers/extraction/bank-statement/handler.go
package bankstatement

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/metrics"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-bank-statement"

	textConfidence  = 0.90
	tableConfidence = 0.85
)

// knownBanks maps recognizable substrings to canonical bank names.
var knownBanks = []struct {
	Match string
	Name  string
}{
	{"first abu dhabi bank", "First Abu Dhabi Bank"},
	{"fab", "First Abu Dhabi Bank"},
	{"abu dhabi islamic bank", "Abu Dhabi Islamic Bank"},
	{"adib", "Abu Dhabi Islamic Bank"},
	{"emirates islamic", "Emirates Islamic Bank"},
	{"mashreq", "Mashreq Bank"},
	{"dubai islamic bank", "Dubai Islamic Bank"},
	{"dib", "Dubai Islamic Bank"},
}

// incomeKeywords flag credit transactions as salary deposits.
var incomeKeywords = []string{"salary", "payroll", "wages", "stipend", "commission"}

var (
	accountNumberPattern = regexp.MustCompile(`\b(\d{15,20})\b`)
	datePattern          = regexp.MustCompile(`\b(\d{4}[-/]\d{2}[-/]\d{2}|\d{2}[-/]\d{2}[-/]\d{4})\b`)
	amountPattern        = regexp.MustCompile(`(?:AED|USD|EUR|\$)?\s*(-?[\d,]+\.?\d*)`)
	balanceLinePattern   = regexp.MustCompile(`(?i)\b(closing|current|available)?\s*balance\b`)
)

type Handler struct {
	config  *Config
	decoder decode.Decoder
	logger  logger.Logger
	errors  *commonerrors.ErrorHandler
}

func NewHandler(config *Config, decoder decode.Decoder, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		decoder: decoder,
		logger:  scoped,
		errors:  commonerrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeParseError, fmt.Errorf("parse input: %w", err))
		return
	}

	if input.DocumentPath == "" {
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.ErrCodeDocumentMissing, commonerrors.NewDocumentMissingError(input.ApplicationID, string(models.DocBankStatement)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, commonerrors.ErrCodeExtractionFailed, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
}

// execute never fails on document problems: decode and parse errors are
// folded into the extraction metadata so assembly can continue.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	started := time.Now()

	content, err := h.decoder.Decode(ctx, input.DocumentPath)
	if err != nil {
		meta := models.FailedMetadata(models.DocBankStatement, err.Error())
		meta.ProcessingTime = time.Since(started)
		return &Output{Metadata: meta}, nil
	}

	stmt, meta := h.parse(content)
	meta.ProcessingTime = time.Since(started)

	h.logger.Info("bank statement extracted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        string(meta.Status),
		"confidence":    meta.Confidence,
		"transactions":  transactionCount(stmt),
	})

	return &Output{Statement: stmt, Metadata: meta}, nil
}

func transactionCount(stmt *models.BankStatement) int {
	if stmt == nil {
		return 0
	}
	return len(stmt.Transactions)
}

func (h *Handler) parse(content *decode.Content) (*models.BankStatement, models.ExtractionMetadata) {
	meta := models.ExtractionMetadata{
		Kind:   models.DocBankStatement,
		Status: models.ExtractionSuccess,
		Method: "text",
	}

	switch {
	case strings.TrimSpace(content.Text) != "":
		meta.Confidence = textConfidence
	case content.HasTables():
		meta.Confidence = tableConfidence
		meta.Method = "tables"
	default:
		return nil, models.FailedMetadata(models.DocBankStatement, "no text or tables decoded")
	}

	stmt := &models.BankStatement{}
	lines := strings.Split(content.Text, "\n")

	stmt.Account.BankName = matchBankName(content.Text)
	if stmt.Account.BankName == "" {
		meta.Warnings = append(meta.Warnings, "bank name not recognized")
	}

	if m := accountNumberPattern.FindStringSubmatch(content.Text); m != nil {
		stmt.Account.AccountNumber = m[1]
	} else {
		meta.Warnings = append(meta.Warnings, "account number not found")
	}

	start, end := statementPeriod(content.Text)
	stmt.PeriodStart, stmt.PeriodEnd = start, end

	stmt.Transactions = h.parseTransactions(lines, content.Tables)
	stmt.SalaryDeposits = h.classifySalaryDeposits(stmt.Transactions)
	stmt.ClosingBalance = closingBalance(lines)

	months := float64(stmt.StatementMonths())
	var credits, debits float64
	for _, t := range stmt.Transactions {
		if t.Type == "credit" {
			credits += t.Amount
		} else {
			debits += t.Amount
		}
	}
	stmt.MonthlyAverageCredit = credits / months
	stmt.MonthlyAverageDebit = debits / months

	if len(stmt.Transactions) == 0 {
		meta.Status = models.ExtractionPartial
		meta.Warnings = append(meta.Warnings, "no transactions recovered")
	}

	return stmt, meta
}

func matchBankName(text string) string {
	lower := strings.ToLower(text)
	for _, bank := range knownBanks {
		if strings.Contains(lower, bank.Match) {
			return bank.Name
		}
	}
	return ""
}

// statementPeriod takes the first two date-like tokens in the text, which
// on real statements sit in the period header before any transaction rows.
func statementPeriod(text string) (*time.Time, *time.Time) {
	matches := datePattern.FindAllString(text, -1)
	dates := make([]time.Time, 0, 2)
	for _, raw := range matches {
		if d, ok := parseDate(raw); ok {
			dates = append(dates, d)
			if len(dates) == 2 {
				break
			}
		}
	}
	if len(dates) < 2 {
		return nil, nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return &dates[0], &dates[1]
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006"}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// parseTransactions recovers rows of date/description/amount from tables
// when present, falling back to line scanning of the decoded text.
func (h *Handler) parseTransactions(lines []string, tables [][]string) []models.BankTransaction {
	var txns []models.BankTransaction

	for _, row := range tables {
		if len(row) < 3 {
			continue
		}
		date, ok := parseDate(strings.TrimSpace(row[0]))
		if !ok {
			continue
		}
		amount, ok := parseAmount(row[len(row)-1])
		if !ok {
			// some layouts put a running balance last
			if len(row) >= 4 {
				amount, ok = parseAmount(row[len(row)-2])
			}
			if !ok {
				continue
			}
		}
		txns = append(txns, buildTransaction(date, strings.TrimSpace(row[1]), amount))
	}

	if len(txns) > 0 {
		return txns
	}

	for _, line := range lines {
		dm := datePattern.FindStringIndex(line)
		if dm == nil {
			continue
		}
		date, ok := parseDate(line[dm[0]:dm[1]])
		if !ok {
			continue
		}
		rest := datePattern.ReplaceAllString(line[dm[1]:], "")
		amount, ok := lastAmount(rest)
		if !ok {
			continue
		}
		desc := strings.TrimSpace(amountPattern.ReplaceAllString(rest, ""))
		txns = append(txns, buildTransaction(date, desc, amount))
	}

	return txns
}

func buildTransaction(date time.Time, description string, amount float64) models.BankTransaction {
	txnType := "credit"
	if amount < 0 {
		txnType = "debit"
	}
	return models.BankTransaction{
		Date:        date,
		Description: description,
		Amount:      math.Abs(amount),
		Type:        txnType,
	}
}

// classifySalaryDeposits keeps credits above the salary floor whose
// description matches an income keyword.
func (h *Handler) classifySalaryDeposits(txns []models.BankTransaction) []models.BankTransaction {
	var deposits []models.BankTransaction
	for _, t := range txns {
		if t.Type != "credit" || t.Amount < h.config.SalaryFloor {
			continue
		}
		desc := strings.ToLower(t.Description)
		for _, kw := range incomeKeywords {
			if strings.Contains(desc, kw) {
				deposits = append(deposits, t)
				break
			}
		}
	}
	return deposits
}

// closingBalance takes the amount on the last line mentioning "balance".
func closingBalance(lines []string) float64 {
	var balance float64
	for _, line := range lines {
		if !balanceLinePattern.MatchString(line) {
			continue
		}
		stripped := balanceLinePattern.ReplaceAllString(line, "")
		if amount, ok := lastAmount(stripped); ok {
			balance = amount
		}
	}
	return balance
}

func parseAmount(raw string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(m[1]), ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lastAmount(raw string) (float64, bool) {
	matches := amountPattern.FindAllStringSubmatch(raw, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		cleaned := strings.ReplaceAll(strings.TrimSpace(matches[i][1]), ",", "")
		if cleaned == "" || cleaned == "-" {
			continue
		}
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
