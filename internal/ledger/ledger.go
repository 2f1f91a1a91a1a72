// Package ledger defines the boundary to the application's transaction
// store. The reconciliation engine itself never touches storage; it
// consumes the transaction list a Store provides and leaves recording
// decisions to the caller.
package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"budget-reconciliation-service/internal/models"
	"budget-reconciliation-service/pkg/errors"
	"budget-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
)

// Store is the ledger collaborator consumed by the reconciliation
// workflow.
type Store interface {
	// ListTransactions returns the account's transactions within the
	// date range, both bounds inclusive. A zero bound is unbounded.
	ListTransactions(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error)

	// CreateTransaction records a new transaction, assigning a stable
	// identifier, and returns the stored record. Invoked by the caller
	// after a human reviews an unmatched bank entry, never by the
	// matching engine.
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
}

// LoadStats reports what happened while loading a ledger export.
// Row-level failures are skips, not errors, matching the lenient
// posture the rest of the pipeline takes toward messy exports.
type LoadStats struct {
	RowsRead    int
	RowsLoaded  int
	RowsSkipped int
}

// columnAliases maps the header variants seen in ledger exports onto
// canonical column names.
var columnAliases = map[string]string{
	"id":               "id",
	"transaction_id":   "id",
	"trxid":            "id",
	"ref":              "id",
	"amount":           "amount",
	"amt":              "amount",
	"value":            "amount",
	"importo":          "amount",
	"type":             "type",
	"transaction_type": "type",
	"direction":        "type",
	"description":      "description",
	"desc":             "description",
	"memo":             "description",
	"descrizione":      "description",
	"date":             "date",
	"transaction_date": "date",
	"data":             "date",
}

// CSVStore is a Store backed by a single-account CSV export. Because
// one file holds one account's transactions, the accountID argument to
// ListTransactions is not used for filtering.
type CSVStore struct {
	path   string
	logger logger.Logger

	mu           sync.RWMutex
	transactions []models.Transaction
	stats        LoadStats
}

// OpenCSVStore loads a ledger CSV export into memory. Rows that fail to
// parse or validate are skipped and counted, never fatal; a missing
// required column is fatal.
func OpenCSVStore(path string, log logger.Logger) (*CSVStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError("", path, err)
	}
	defer file.Close()

	store := &CSVStore{
		path:   path,
		logger: log.WithComponent("ledger"),
	}
	if err := store.load(file); err != nil {
		return nil, err
	}

	store.logger.WithFields(logger.Fields{
		"file":    path,
		"loaded":  store.stats.RowsLoaded,
		"skipped": store.stats.RowsSkipped,
	}).Info("ledger loaded")

	return store, nil
}

func (s *CSVStore) load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return errors.ParseError(errors.CodeInvalidData, s.path, 1, "", "", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, exists := columns[canonical]; !exists {
			columns[canonical] = i
		}
	}

	for _, required := range []string{"id", "amount", "type", "date"} {
		if _, ok := columns[required]; !ok {
			return errors.ParseError(errors.CodeMissingColumn, s.path, 1, required, "", nil)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			s.skipRow(line, err)
			continue
		}
		s.stats.RowsRead++

		tx, err := transactionFromRecord(record, columns)
		if err != nil {
			s.skipRow(line, err)
			continue
		}

		s.transactions = append(s.transactions, *tx)
		s.stats.RowsLoaded++
	}

	return nil
}

func (s *CSVStore) skipRow(line int, err error) {
	s.stats.RowsSkipped++
	s.logger.WithError(err).WithField("line", line).Warn("ledger row skipped")
}

func transactionFromRecord(record []string, columns map[string]int) (*models.Transaction, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	amount, err := models.ParseDecimalFromString(field("amount"))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	txType, err := models.ParseTransactionType(field("type"))
	if err != nil {
		return nil, fmt.Errorf("invalid type: %w", err)
	}

	date, err := models.ParseDateWithFormats(field("date"))
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	tx := models.NewTransaction(field("id"), amount, txType, field("description"), date)
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions implements Store. Results keep file order.
func (s *CSVStore) ListTransactions(_ context.Context, _ string, from, to time.Time) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}
		result = append(result, tx)
	}
	return result, nil
}

// CreateTransaction implements Store. A ledger-assigned identifier is
// generated when the record carries none. The new record is held in
// memory until Save is called.
func (s *CSVStore) CreateTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	if strings.TrimSpace(tx.ID) == "" {
		tx.ID = uuid.NewString()
	}

	if err := tx.Validate(); err != nil {
		return models.Transaction{}, errors.ValidationError(errors.CodeInvalidData, "transaction", tx.String(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// Stats returns load statistics for the backing file
func (s *CSVStore) Stats() LoadStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Save writes the current transaction set as CSV
func (s *CSVStore) Save(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "amount", "type", "description", "date"}); err != nil {
		return err
	}

	// Stable output: file order, then creation order
	txs := make([]models.Transaction, len(s.transactions))
	copy(txs, s.transactions)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	for _, tx := range txs {
		record := []string{
			tx.ID,
			tx.Amount.String(),
			tx.Type.String(),
			tx.Description,
			tx.Date.Format(models.DateOnly),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveFile persists the store back to its backing file
func (s *CSVStore) SaveFile() error {
	file, err := os.Create(s.path)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, s.path, err)
	}
	defer file.Close()
	return s.Save(file)
}
