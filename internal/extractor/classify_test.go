package extractor

import (
	"testing"
	"time"

	"budget-reconciliation-service/internal/models"
)

func TestClassifyDate(t *testing.T) {
	tests := []struct {
		name   string
		cell   string
		want   time.Time
		wantOK bool
	}{
		{
			// Day-first convention: 05/03 is the 5th of March
			name:   "day month year",
			cell:   "05/03/2026",
			want:   models.Date(2026, time.March, 5),
			wantOK: true,
		},
		{
			name:   "single digit day and month",
			cell:   "5/3/2026",
			want:   models.Date(2026, time.March, 5),
			wantOK: true,
		},
		{
			name:   "excel date serial",
			cell:   "45306",
			want:   models.Date(2024, time.January, 15),
			wantOK: true,
		},
		{
			name:   "serial with fractional time of day",
			cell:   "45306.75",
			want:   models.Date(2024, time.January, 15),
			wantOK: true,
		},
		{
			name:   "number below the serial window",
			cell:   "39999",
			wantOK: false,
		},
		{
			name:   "number above the serial window",
			cell:   "50001",
			wantOK: false,
		},
		{
			name:   "impossible calendar day rejected",
			cell:   "31/02/2026",
			wantOK: false,
		},
		{
			name:   "plain text",
			cell:   "Saldo iniziale",
			wantOK: false,
		},
		{
			name:   "empty",
			cell:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyDate(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("ClassifyDate(%q) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ClassifyDate(%q) = %s, want %s",
					tt.cell, got.Format(models.DateOnly), tt.want.Format(models.DateOnly))
			}
		})
	}
}

func TestParseStatementDate_ISOPassThrough(t *testing.T) {
	got, err := ParseStatementDate("2026-3-5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(models.DateOnly) != "2026-03-05" {
		t.Errorf("expected zero-padded 2026-03-05, got %s", got.Format(models.DateOnly))
	}
}

func TestClassifyAmount(t *testing.T) {
	tests := []struct {
		name   string
		cell   string
		want   string
		wantOK bool
	}{
		{name: "negative with dot", cell: "-45.00", want: "-45", wantOK: true},
		{name: "negative with comma", cell: "-45,50", want: "-45.5", wantOK: true},
		{name: "positive integer", cell: "120", want: "120", wantOK: true},
		{name: "euro symbol stripped", cell: "€ 12,30", want: "12.3", wantOK: true},
		{name: "zero is not a transaction", cell: "0", wantOK: false},
		{name: "zero with decimals", cell: "0,00", wantOK: false},
		{name: "text", cell: "Bonifico", wantOK: false},
		{name: "mixed alphanumeric", cell: "IT60X054", wantOK: false},
		{name: "empty", cell: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyAmount(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("ClassifyAmount(%q) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("ClassifyAmount(%q) = %s, want %s", tt.cell, got.String(), tt.want)
			}
		})
	}
}

func TestClassifyDescription(t *testing.T) {
	tests := []struct {
		name   string
		cell   string
		want   string
		wantOK bool
	}{
		{name: "ordinary description", cell: "Pagamento POS Esselunga", want: "Pagamento POS Esselunga", wantOK: true},
		{name: "currency code EUR rejected", cell: "EUR", wantOK: false},
		{name: "currency code USD rejected", cell: "USD", wantOK: false},
		{name: "too short", cell: "ab", wantOK: false},
		{name: "purely numeric rejected", cell: "123456", wantOK: false},
		{name: "three characters is enough", cell: "POS", want: "POS", wantOK: true},
		{name: "surrounding whitespace trimmed", cell: "  Affitto  ", want: "Affitto", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyDescription(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("ClassifyDescription(%q) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ClassifyDescription(%q) = %q, want %q", tt.cell, got, tt.want)
			}
		})
	}
}
