// Package models defines the data types shared by the statement
// extractor, the matcher and the ledger collaborator.
//
// Two independently-sourced transaction shapes exist side by side:
//
//   - Transaction: a record the application's ledger already owns. Its
//     amount is a magnitude; direction is carried by Type.
//   - BankTransaction: a row reconstructed from an uploaded bank
//     statement. Its amount is signed following the bank's convention
//     (negative usually means debit) and its ID is only unique within
//     one extraction run.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a ledger transaction
type TransactionType string

const (
	// TransactionTypeExpense represents money leaving the household
	TransactionTypeExpense TransactionType = "expense"
	// TransactionTypeIncome represents money entering the household
	TransactionTypeIncome TransactionType = "income"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// DateOnly is the calendar-date layout used everywhere in this module.
const DateOnly = "2006-01-02"

// Transaction represents a record owned by the application ledger.
// The engine only reads these; it never mutates or persists them.
type Transaction struct {
	ID          string          `json:"id" csv:"id"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Type        TransactionType `json:"type" csv:"type"`
	Description string          `json:"description,omitempty" csv:"description"`
	Date        time.Time       `json:"date" csv:"date"`
}

// NewTransaction creates a new ledger Transaction
func NewTransaction(id string, amount decimal.Decimal, txType TransactionType, description string, date time.Time) *Transaction {
	return &Transaction{
		ID:          id,
		Amount:      amount,
		Type:        txType,
		Description: description,
		Date:        date,
	}
}

// Validate performs basic validation on the Transaction. The matcher
// assumes ledger amounts are magnitudes, so negative amounts are
// rejected here at the boundary.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}

	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount must be a magnitude, got %s", t.Amount.String())
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", t.Type)
	}

	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Amount: %s, Type: %s, Date: %s}",
		t.ID, t.Amount.String(), t.Type, t.Date.Format(DateOnly))
}

// MarshalJSON implements custom JSON marshaling for Transaction
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: t.Amount.String(),
		Date:   t.Date.Format(DateOnly),
		Alias:  (*Alias)(t),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Transaction
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	t.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	t.Date, err = ParseDateWithFormats(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// Equals compares two Transaction instances for equality
func (t *Transaction) Equals(other *Transaction) bool {
	if other == nil {
		return false
	}

	return t.ID == other.ID &&
		t.Amount.Equal(other.Amount) &&
		t.Type == other.Type &&
		t.Date.Format(DateOnly) == other.Date.Format(DateOnly)
}

// BankTransaction represents a transaction reconstructed from an
// uploaded bank statement. Instances are created once per detected row
// during extraction and are immutable afterwards.
type BankTransaction struct {
	// ID is synthesized from the row index and the extraction-run
	// timestamp. It is unique within a single run only and must not be
	// used as a durable key.
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// Raw retains the original row cells for diagnostics.
	Raw []string `json:"raw,omitempty"`
}

// NewBankTransaction creates a new BankTransaction
func NewBankTransaction(id string, date time.Time, description string, amount decimal.Decimal, raw []string) *BankTransaction {
	return &BankTransaction{
		ID:          id,
		Date:        date,
		Description: description,
		Amount:      amount,
		Raw:         raw,
	}
}

// Validate performs basic validation on the BankTransaction
func (bt *BankTransaction) Validate() error {
	if strings.TrimSpace(bt.ID) == "" {
		return fmt.Errorf("bank transaction ID cannot be empty")
	}

	if bt.Amount.IsZero() {
		return fmt.Errorf("bank transaction amount cannot be zero")
	}

	if bt.Date.IsZero() {
		return fmt.Errorf("bank transaction date cannot be zero")
	}

	return nil
}

// String returns a string representation of the BankTransaction
func (bt *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %s, Date: %s, Description: %q, Amount: %s}",
		bt.ID, bt.Date.Format(DateOnly), bt.Description, bt.Amount.String())
}

// MarshalJSON implements custom JSON marshaling for BankTransaction
func (bt *BankTransaction) MarshalJSON() ([]byte, error) {
	type Alias BankTransaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: bt.Amount.String(),
		Date:   bt.Date.Format(DateOnly),
		Alias:  (*Alias)(bt),
	})
}

// GetAbsoluteAmount returns the magnitude of the bank transaction
// amount, which is what the matcher compares against ledger amounts.
func (bt *BankTransaction) GetAbsoluteAmount() decimal.Decimal {
	return bt.Amount.Abs()
}

// IsDebit returns true if the amount represents a debit (negative)
func (bt *BankTransaction) IsDebit() bool {
	return bt.Amount.IsNegative()
}

// GetTransactionType maps the bank sign convention onto the ledger's
// income/expense direction.
func (bt *BankTransaction) GetTransactionType() TransactionType {
	if bt.IsDebit() {
		return TransactionTypeExpense
	}
	return TransactionTypeIncome
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string, stripping
// currency symbols and whitespace and accepting a comma as the decimal
// separator (Italian bank exports use "1234,56").
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	cleaned := strings.NewReplacer("€", "", "$", "", "£", "", " ", "", "\t", "").Replace(s)
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTransactionType parses and validates a transaction type from string
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "debit", "out":
		return TransactionTypeExpense, nil
	case "income", "credit", "in":
		return TransactionTypeIncome, nil
	default:
		return "", fmt.Errorf("invalid transaction type '%s': must be expense or income", s)
	}
}

// ParseDateWithFormats attempts to parse a calendar date from string
// using the formats commonly seen in ledger exports.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		DateOnly,              // "2006-01-02"
		time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
		"2006-01-02 15:04:05", // "2006-01-02 15:04:05"
		"02/01/2006",          // "02/01/2006" (day first)
		"2006/01/02",          // "2006/01/02"
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			// Normalize to a date-only value in UTC
			year, month, day := t.Date()
			return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// Date builds a date-only UTC time value
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
