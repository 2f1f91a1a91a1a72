package matcher

import (
	"fmt"

	"budget-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// Scoring policy. These values are fixed by the reconciliation contract
// rather than exposed through MatchingOptions; they are named here so
// the policy is visible and testable in one place.
const (
	// MinMatchScore is the acceptance threshold: a candidate pair below
	// this score leaves the bank transaction unmatched.
	MinMatchScore = 80.0

	// DatePenaltyPerDay is subtracted from the score for every calendar
	// day separating the two dates.
	DatePenaltyPerDay = 5.0

	// MaxAmountPenalty caps the amount-difference penalty. Eligibility
	// already bounds the difference via AmountTolerance, so in practice
	// this penalty stays near zero.
	MaxAmountPenalty = 10.0
)

// amountIssueThreshold is the smallest amount difference worth
// reporting as an issue string.
var amountIssueThreshold = decimal.RequireFromString("0.001")

// MatchingOptions is the caller-supplied matching configuration.
type MatchingOptions struct {
	// DateToleranceDays is the maximum absolute day difference for a
	// bank/ledger pair to be considered the same event.
	DateToleranceDays int `json:"date_tolerance_days"`

	// AmountTolerance is the maximum absolute amount difference, in
	// currency units.
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// UseFuzzyMatching is accepted for contract compatibility but has
	// no effect on matching: the engine compares dates and amounts
	// only, never description text.
	UseFuzzyMatching bool `json:"use_fuzzy_matching"`
}

// DefaultMatchingOptions returns the options observed in normal usage:
// two days of date tolerance and one cent of amount tolerance.
func DefaultMatchingOptions() *MatchingOptions {
	return &MatchingOptions{
		DateToleranceDays: 2,
		AmountTolerance:   decimal.RequireFromString("0.01"),
		UseFuzzyMatching:  false,
	}
}

// Validate rejects option values that would produce silently wrong
// scores instead of letting them through.
func (mo *MatchingOptions) Validate() error {
	if mo.DateToleranceDays < 0 {
		return errors.ConfigurationError(
			fmt.Sprintf("date tolerance cannot be negative: %d", mo.DateToleranceDays))
	}

	if mo.AmountTolerance.IsNegative() {
		return errors.ConfigurationError(
			fmt.Sprintf("amount tolerance cannot be negative: %s", mo.AmountTolerance.String()))
	}

	return nil
}

// Clone creates a copy of the matching options
func (mo *MatchingOptions) Clone() *MatchingOptions {
	if mo == nil {
		return nil
	}
	clone := *mo
	return &clone
}

// String returns a human-readable description of the options
func (mo *MatchingOptions) String() string {
	return fmt.Sprintf("MatchingOptions{DateTolerance: %d days, AmountTolerance: %s, FuzzyMatching: %t}",
		mo.DateToleranceDays, mo.AmountTolerance.String(), mo.UseFuzzyMatching)
}
