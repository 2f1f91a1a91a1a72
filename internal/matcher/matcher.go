// Package matcher pairs extracted bank transactions against ledger
// transactions under date/amount tolerance and classifies the outcome.
//
// Match is a pure function: no I/O, no shared state, deterministic for
// identical inputs. The matching loop is greedy and input-order
// sensitive by contract — the first bank transaction (in input order)
// to reach the acceptance threshold against a ledger transaction claims
// it, and later bank transactions cannot steal it even with a higher
// score. The scan is O(bank × ledger), which is fine for household
// volumes; a sorted-window index could replace it for much larger
// inputs, provided the input-order tie-breaking is preserved.
package matcher

import (
	"fmt"
	"math"
	"time"

	"budget-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// MatchStatus classifies the outcome of evaluating one transaction
type MatchStatus string

const (
	StatusMatched       MatchStatus = "matched"
	StatusUnmatchedBank MatchStatus = "unmatched_bank"
	StatusUnmatchedApp  MatchStatus = "unmatched_app"
	StatusDiscrepancy   MatchStatus = "discrepancy"
)

// ReconciliationMatch is the outcome of evaluating one bank
// transaction. A matched status always carries a ledger transaction;
// unmatched_bank never does.
type ReconciliationMatch struct {
	BankTransaction models.BankTransaction `json:"bankTransaction"`
	AppTransaction  *models.Transaction    `json:"appTransaction,omitempty"`
	MatchScore      float64                `json:"matchScore"`
	Status          MatchStatus            `json:"status"`
	Issues          []string               `json:"issues,omitempty"`
}

// Summary provides aggregate statistics about a reconciliation run
type Summary struct {
	TotalBank     int `json:"totalBank"`
	TotalApp      int `json:"totalApp"`
	Matched       int `json:"matched"`
	UnmatchedBank int `json:"unmatchedBank"`
	UnmatchedApp  int `json:"unmatchedApp"`

	// BalanceDifference is the signed difference between the total
	// bank amount (magnitudes) and the total ledger amount.
	BalanceDifference decimal.Decimal `json:"balanceDifference"`
}

// ReconciliationResult is the full output of a matching run. Every
// input bank transaction appears exactly once across Matched and
// UnmatchedBank; every ledger transaction exactly once across the
// matched pairs and UnmatchedApp.
type ReconciliationResult struct {
	Matched       []ReconciliationMatch    `json:"matched"`
	UnmatchedBank []models.BankTransaction `json:"unmatchedBank"`
	UnmatchedApp  []models.Transaction     `json:"unmatchedApp"`
	Summary       Summary                  `json:"summary"`
}

// Match reconciles bank transactions against ledger transactions.
//
// The caller is responsible for having filtered appTxs to the relevant
// account and period; Match compares the two lists exactly as given.
// A nil opts uses DefaultMatchingOptions. Invalid options fail fast
// with a configuration error.
func Match(bankTxs []models.BankTransaction, appTxs []models.Transaction, opts *MatchingOptions) (*ReconciliationResult, error) {
	if opts == nil {
		opts = DefaultMatchingOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	matched := make([]ReconciliationMatch, 0, len(bankTxs))
	unmatchedBank := make([]models.BankTransaction, 0)
	unmatchedApp := make([]models.Transaction, 0)

	// Ledger transactions already claimed by an earlier bank
	// transaction; a ledger transaction is never paired twice
	claimed := make(map[string]bool, len(appTxs))

	for _, bankTx := range bankTxs {
		bestIdx := -1
		bestScore := 0.0

		for i := range appTxs {
			appTx := &appTxs[i]
			if claimed[appTx.ID] {
				continue
			}

			amountDiff := amountDifference(&bankTx, appTx)
			if amountDiff.GreaterThan(opts.AmountTolerance) {
				continue
			}

			daysDiff := DaysBetween(bankTx.Date, appTx.Date)
			if daysDiff > opts.DateToleranceDays {
				continue
			}

			// Strictly-higher only: on an equal score the earlier
			// candidate keeps the slot, which removes input-order
			// ambiguity among ledger candidates
			score := scoreMatch(daysDiff, amountDiff)
			if bestIdx < 0 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		if bestIdx >= 0 && bestScore >= MinMatchScore {
			appTx := appTxs[bestIdx]
			claimed[appTx.ID] = true

			var issues []string
			if bestScore < 100 {
				issues = matchIssues(&bankTx, &appTx)
			}

			matched = append(matched, ReconciliationMatch{
				BankTransaction: bankTx,
				AppTransaction:  &appTx,
				MatchScore:      bestScore,
				Status:          StatusMatched,
				Issues:          issues,
			})
		} else {
			unmatchedBank = append(unmatchedBank, bankTx)
		}
	}

	for _, appTx := range appTxs {
		if !claimed[appTx.ID] {
			unmatchedApp = append(unmatchedApp, appTx)
		}
	}

	return &ReconciliationResult{
		Matched:       matched,
		UnmatchedBank: unmatchedBank,
		UnmatchedApp:  unmatchedApp,
		Summary:       summarize(bankTxs, appTxs, matched, unmatchedBank, unmatchedApp),
	}, nil
}

// DaysBetween returns the absolute calendar-day difference between two
// dates, ceiling-rounded so any partial day counts as a full one.
func DaysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// amountDifference compares the bank magnitude against the ledger
// magnitude; the bank's sign convention is not the ledger's concern.
func amountDifference(bankTx *models.BankTransaction, appTx *models.Transaction) decimal.Decimal {
	return bankTx.Amount.Abs().Sub(appTx.Amount).Abs()
}

// scoreMatch computes the 0-100 confidence score for an eligible pair.
// A same-day exact-amount pair scores 100; each day of drift costs
// DatePenaltyPerDay and the amount difference costs up to
// MaxAmountPenalty.
func scoreMatch(daysDiff int, amountDiff decimal.Decimal) float64 {
	score := 100.0 - DatePenaltyPerDay*float64(daysDiff)

	if amountDiff.IsPositive() {
		score -= math.Min(amountDiff.InexactFloat64()*10, MaxAmountPenalty)
	}

	return math.Max(0, score)
}

// matchIssues produces the human-readable discrepancy annotations for a
// match that scored below 100.
func matchIssues(bankTx *models.BankTransaction, appTx *models.Transaction) []string {
	var issues []string

	if daysDiff := DaysBetween(bankTx.Date, appTx.Date); daysDiff > 0 {
		unit := "days"
		if daysDiff == 1 {
			unit = "day"
		}
		issues = append(issues, fmt.Sprintf("Date differs by %d %s", daysDiff, unit))
	}

	if amountDiff := amountDifference(bankTx, appTx); amountDiff.GreaterThan(amountIssueThreshold) {
		issues = append(issues, fmt.Sprintf("Amount differs by €%s", amountDiff.StringFixed(2)))
	}

	return issues
}

func summarize(bankTxs []models.BankTransaction, appTxs []models.Transaction,
	matched []ReconciliationMatch, unmatchedBank []models.BankTransaction, unmatchedApp []models.Transaction) Summary {

	totalBankAmount := decimal.Zero
	for _, tx := range bankTxs {
		totalBankAmount = totalBankAmount.Add(tx.Amount.Abs())
	}

	totalAppAmount := decimal.Zero
	for _, tx := range appTxs {
		totalAppAmount = totalAppAmount.Add(tx.Amount)
	}

	return Summary{
		TotalBank:         len(bankTxs),
		TotalApp:          len(appTxs),
		Matched:           len(matched),
		UnmatchedBank:     len(unmatchedBank),
		UnmatchedApp:      len(unmatchedApp),
		BalanceDifference: totalBankAmount.Sub(totalAppAmount),
	}
}
