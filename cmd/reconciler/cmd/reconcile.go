package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"budget-reconciliation-service/internal/extractor"
	"budget-reconciliation-service/internal/ledger"
	"budget-reconciliation-service/internal/matcher"
	"budget-reconciliation-service/internal/models"
	"budget-reconciliation-service/internal/reporter"
	"budget-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	statementFile   string
	ledgerFile      string
	accountID       string
	startDate       string
	endDate         string
	dateTolerance   int
	amountTolerance float64
	fuzzyMatching   bool
	outputFormat    string
	outputFile      string
	recordUnmatched bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a bank statement against the ledger",
	Long: `Reconcile extracts transactions from a bank-statement spreadsheet and
matches them against the ledger's recorded transactions under date and
amount tolerance.

This command requires:
- A bank statement file (xlsx format)
- A ledger export file (CSV format)

Examples:
  # Basic reconciliation
  reconciler reconcile --statement statement.xlsx --ledger ledger.csv

  # Restrict the ledger side to a period
  reconciler reconcile --statement s.xlsx --ledger l.csv \
    --start-date 2026-01-01 --end-date 2026-01-31

  # Custom tolerances and JSON output
  reconciler reconcile --statement s.xlsx --ledger l.csv \
    --date-tolerance 3 --amount-tolerance 0.05 \
    --output-format json --output-file report.json

  # Record unmatched bank transactions into the ledger file
  reconciler reconcile --statement s.xlsx --ledger l.csv --record-unmatched`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&statementFile, "statement", "s", "", "path to bank statement xlsx file (required)")
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger", "l", "", "path to ledger CSV export (required)")
	reconcileCmd.Flags().StringVar(&accountID, "account", "", "account identifier (informational)")

	reconcileCmd.Flags().StringVar(&startDate, "start-date", "", "ledger filter start date (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&endDate, "end-date", "", "ledger filter end date (YYYY-MM-DD)")

	reconcileCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 2, "date matching tolerance in days")
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0.01, "amount tolerance in currency units")
	reconcileCmd.Flags().BoolVar(&fuzzyMatching, "fuzzy-matching", false, "accepted for compatibility; matching uses dates and amounts only")

	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	reconcileCmd.Flags().BoolVar(&recordUnmatched, "record-unmatched", false, "append unmatched bank transactions to the ledger file")

	reconcileCmd.MarkFlagRequired("statement")
	reconcileCmd.MarkFlagRequired("ledger")

	viper.BindPFlag("statement", reconcileCmd.Flags().Lookup("statement"))
	viper.BindPFlag("ledger", reconcileCmd.Flags().Lookup("ledger"))
	viper.BindPFlag("account", reconcileCmd.Flags().Lookup("account"))
	viper.BindPFlag("start-date", reconcileCmd.Flags().Lookup("start-date"))
	viper.BindPFlag("end-date", reconcileCmd.Flags().Lookup("end-date"))
	viper.BindPFlag("date-tolerance", reconcileCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("fuzzy-matching", reconcileCmd.Flags().Lookup("fuzzy-matching"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("record-unmatched", reconcileCmd.Flags().Lookup("record-unmatched"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so a config file or env can override flags
	statementFile = viper.GetString("statement")
	ledgerFile = viper.GetString("ledger")
	accountID = viper.GetString("account")
	startDate = viper.GetString("start-date")
	endDate = viper.GetString("end-date")
	dateTolerance = viper.GetInt("date-tolerance")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	fuzzyMatching = viper.GetBool("fuzzy-matching")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	recordUnmatched = viper.GetBool("record-unmatched")

	if statementFile == "" {
		return fmt.Errorf("statement file is required")
	}
	if ledgerFile == "" {
		return fmt.Errorf("ledger file is required")
	}

	for _, path := range []string{statementFile, ledgerFile} {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return fmt.Errorf("cannot access file %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory, not a file", path)
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if startDate != "" {
		if _, err := time.Parse(models.DateOnly, startDate); err != nil {
			return fmt.Errorf("invalid start date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if endDate != "" {
		if _, err := time.Parse(models.DateOnly, endDate); err != nil {
			return fmt.Errorf("invalid end date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if startDate != "" && endDate != "" {
		start, _ := time.Parse(models.DateOnly, startDate)
		end, _ := time.Parse(models.DateOnly, endDate)
		if start.After(end) {
			return fmt.Errorf("start date cannot be after end date")
		}
	}

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger().WithComponent("reconcile")

	// Extract the statement
	statement, err := os.Open(statementFile)
	if err != nil {
		return fmt.Errorf("cannot open statement file: %w", err)
	}
	defer statement.Close()

	bankTxs, err := extractor.New(log).Extract(statement)
	if err != nil {
		return err
	}
	if len(bankTxs) == 0 {
		log.Warn("statement parsed successfully but no transactions were recognized")
	}

	// Load the ledger side
	store, err := ledger.OpenCSVStore(ledgerFile, log)
	if err != nil {
		return err
	}

	var from, to time.Time
	if startDate != "" {
		from, _ = time.Parse(models.DateOnly, startDate)
	}
	if endDate != "" {
		to, _ = time.Parse(models.DateOnly, endDate)
	}

	appTxs, err := store.ListTransactions(ctx, accountID, from, to)
	if err != nil {
		return err
	}

	// Match
	opts := &matcher.MatchingOptions{
		DateToleranceDays: dateTolerance,
		AmountTolerance:   decimal.NewFromFloat(amountTolerance),
		UseFuzzyMatching:  fuzzyMatching,
	}

	result, err := matcher.Match(bankTxs, appTxs, opts)
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"bank":           result.Summary.TotalBank,
		"ledger":         result.Summary.TotalApp,
		"matched":        result.Summary.Matched,
		"unmatched_bank": result.Summary.UnmatchedBank,
		"unmatched_app":  result.Summary.UnmatchedApp,
	}).Info("reconciliation complete")

	// Report
	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{
		Format:         reporter.OutputFormat(outputFormat),
		IncludeMatched: true,
		CSVDelimiter:   ',',
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputFile != "" {
		out, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer out.Close()
	}

	if err := generator.GenerateReport(result, out); err != nil {
		return err
	}

	// Optionally push unmatched bank transactions into the ledger,
	// mirroring the review flow where missing entries get recorded
	if recordUnmatched && len(result.UnmatchedBank) > 0 {
		for _, bankTx := range result.UnmatchedBank {
			created, err := store.CreateTransaction(ctx, models.Transaction{
				Amount:      bankTx.GetAbsoluteAmount(),
				Type:        bankTx.GetTransactionType(),
				Description: bankTx.Description,
				Date:        bankTx.Date,
			})
			if err != nil {
				return err
			}
			log.WithField("id", created.ID).Info("recorded unmatched bank transaction")
		}
		if err := store.SaveFile(); err != nil {
			return err
		}
	}

	return nil
}
