// Package reporter renders reconciliation results for human and
// machine consumption. Console output is for terminal review, JSON for
// programmatic callers, CSV for spreadsheet follow-up.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"budget-reconciliation-service/internal/matcher"
	"budget-reconciliation-service/internal/models"

	"github.com/google/uuid"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeMatched lists every matched pair, not just the summary
	IncludeMatched bool `json:"include_matched"`

	CSVDelimiter rune `json:"csv_delimiter"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatConsole,
		IncludeMatched: true,
		CSVDelimiter:   ',',
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates reconciliation reports
type ReportGenerator struct {
	config *ReportConfig
	now    func() time.Time
	newID  func() string
}

// NewReportGenerator creates a report generator with the given
// configuration; nil means defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// reportEnvelope wraps a result with run metadata for JSON output
type reportEnvelope struct {
	RunID       string                        `json:"run_id"`
	GeneratedAt string                        `json:"generated_at"`
	Result      *matcher.ReconciliationResult `json:"result"`
}

// GenerateReport writes the reconciliation result to the writer in the
// configured format.
func (rg *ReportGenerator) GenerateReport(result *matcher.ReconciliationResult, w io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.generateJSON(result, w)
	case FormatCSV:
		return rg.generateCSV(result, w)
	default:
		return rg.generateConsole(result, w)
	}
}

func (rg *ReportGenerator) generateJSON(result *matcher.ReconciliationResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&reportEnvelope{
		RunID:       rg.newID(),
		GeneratedAt: rg.now().UTC().Format(time.RFC3339),
		Result:      result,
	})
}

func (rg *ReportGenerator) generateCSV(result *matcher.ReconciliationResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = rg.config.CSVDelimiter

	header := []string{"status", "bank_id", "bank_date", "bank_description", "bank_amount",
		"ledger_id", "ledger_date", "ledger_amount", "score", "issues"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, match := range result.Matched {
		bank := match.BankTransaction
		app := match.AppTransaction
		record := []string{
			string(match.Status),
			bank.ID,
			bank.Date.Format(models.DateOnly),
			bank.Description,
			bank.Amount.String(),
			app.ID,
			app.Date.Format(models.DateOnly),
			app.Amount.String(),
			fmt.Sprintf("%.0f", match.MatchScore),
			strings.Join(match.Issues, "; "),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, bank := range result.UnmatchedBank {
		record := []string{
			string(matcher.StatusUnmatchedBank),
			bank.ID,
			bank.Date.Format(models.DateOnly),
			bank.Description,
			bank.Amount.String(),
			"", "", "", "", "",
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, app := range result.UnmatchedApp {
		record := []string{
			string(matcher.StatusUnmatchedApp),
			"", "", "", "",
			app.ID,
			app.Date.Format(models.DateOnly),
			app.Amount.String(),
			"", "",
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (rg *ReportGenerator) generateConsole(result *matcher.ReconciliationResult, w io.Writer) error {
	var b strings.Builder

	b.WriteString("RECONCILIATION REPORT\n")
	b.WriteString(fmt.Sprintf("Run:       %s\n", rg.newID()))
	b.WriteString(fmt.Sprintf("Generated: %s\n", rg.now().UTC().Format(time.RFC3339)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	s := result.Summary
	b.WriteString("SUMMARY\n")
	b.WriteString(fmt.Sprintf("  Bank transactions:   %d\n", s.TotalBank))
	b.WriteString(fmt.Sprintf("  Ledger transactions: %d\n", s.TotalApp))
	b.WriteString(fmt.Sprintf("  Matched:             %d\n", s.Matched))
	b.WriteString(fmt.Sprintf("  Unmatched (bank):    %d\n", s.UnmatchedBank))
	b.WriteString(fmt.Sprintf("  Unmatched (ledger):  %d\n", s.UnmatchedApp))
	b.WriteString(fmt.Sprintf("  Balance difference:  €%s\n\n", s.BalanceDifference.StringFixed(2)))

	if rg.config.IncludeMatched && len(result.Matched) > 0 {
		b.WriteString("MATCHED\n")
		for _, match := range result.Matched {
			b.WriteString(fmt.Sprintf("  [%3.0f] %s -> %s\n",
				match.MatchScore,
				FormatBankTransaction(&match.BankTransaction),
				match.AppTransaction.String()))
			for _, issue := range match.Issues {
				b.WriteString(fmt.Sprintf("        ! %s\n", issue))
			}
		}
		b.WriteString("\n")
	}

	if len(result.UnmatchedBank) > 0 {
		b.WriteString("UNMATCHED BANK TRANSACTIONS (not in ledger)\n")
		for _, bank := range result.UnmatchedBank {
			b.WriteString(fmt.Sprintf("  %s\n", FormatBankTransaction(&bank)))
		}
		b.WriteString("\n")
	}

	if len(result.UnmatchedApp) > 0 {
		b.WriteString("UNMATCHED LEDGER TRANSACTIONS (not on statement)\n")
		for _, app := range result.UnmatchedApp {
			b.WriteString(fmt.Sprintf("  %s\n", app.String()))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatBankTransaction renders a bank transaction for display
func FormatBankTransaction(tx *models.BankTransaction) string {
	description := tx.Description
	if description == "" {
		description = "N/A"
	}
	return fmt.Sprintf("%s - %s - €%s", tx.Date.Format(models.DateOnly), description, tx.Amount.StringFixed(2))
}
