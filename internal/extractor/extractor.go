// Package extractor turns an uploaded bank-statement workbook into a
// sequence of candidate bank transactions.
//
// Statement exports in the supported family (Fideuram-style xlsx) do
// not keep data in fixed columns, so the extractor does not map columns
// at all. It loads the first worksheet into a grid and scans every
// non-blank row cell by cell, looking for three signals: a date-shaped
// cell, an amount-shaped cell and a description. Each signal is claimed
// at most once per row, first match wins. A row yields a transaction
// only when both a date and an amount were found; everything else is
// silently skipped, which keeps the extractor lenient about headers,
// footers and decorative rows.
package extractor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"budget-reconciliation-service/internal/models"
	"budget-reconciliation-service/pkg/errors"
	"budget-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DefaultDescription is used when a row yields a date and an amount but
// no usable description cell.
const DefaultDescription = "Bank transaction"

// Extractor reads bank-statement workbooks
type Extractor struct {
	logger logger.Logger
	now    func() time.Time
}

// New creates an Extractor. A nil logger disables logging.
func New(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Extractor{
		logger: log.WithComponent("extractor"),
		now:    time.Now,
	}
}

// Extract parses statement bytes into bank transactions, in worksheet
// row order. Only the first sheet is read.
//
// An unopenable workbook fails the whole call with an invalid-format
// error. A workbook with no recognizable transaction rows succeeds with
// an empty (non-nil) slice, so callers can distinguish "nothing found"
// from "bad file".
func (e *Extractor) Extract(r io.Reader) ([]models.BankTransaction, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.InvalidFileFormatError("statement", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidFileFormatError("statement", fmt.Errorf("workbook contains no sheets"))
	}

	// Raw cell values so date serials arrive as numbers, not as the
	// workbook's display formatting
	rows, err := workbook.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.InvalidFileFormatError("statement", err)
	}

	transactions := e.extractRows(rows)
	e.logger.WithFields(logger.Fields{
		"sheet":        sheets[0],
		"rows":         len(rows),
		"transactions": len(transactions),
	}).Info("statement extracted")

	return transactions, nil
}

// extractRows runs the heuristic scan over a raw row grid.
func (e *Extractor) extractRows(rows [][]string) []models.BankTransaction {
	runID := e.now().UnixMilli()
	transactions := make([]models.BankTransaction, 0, len(rows))

	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}

		var (
			date        time.Time
			amount      decimal.Decimal
			description string
			haveDate    bool
			haveAmount  bool
		)

		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			if !haveDate {
				if d, ok := ClassifyDate(cell); ok {
					date = d
					haveDate = true
					continue
				}
			}

			if !haveAmount {
				if a, ok := ClassifyAmount(cell); ok {
					amount = a
					haveAmount = true
					continue
				}
			}

			if description == "" {
				if d, ok := ClassifyDescription(cell); ok {
					description = d
				}
			}
		}

		// Rows without both a date and an amount are not transactions;
		// skipping them is the designed leniency, not an error
		if !haveDate || !haveAmount {
			e.logger.WithField("row", i).Debug("row skipped, no date/amount pair")
			continue
		}

		if description == "" {
			description = DefaultDescription
		}

		raw := make([]string, len(row))
		copy(raw, row)

		transactions = append(transactions, models.BankTransaction{
			ID:          fmt.Sprintf("bank_%d_%d", i, runID),
			Date:        date,
			Description: description,
			Amount:      amount,
			Raw:         raw,
		})
	}

	return transactions
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
