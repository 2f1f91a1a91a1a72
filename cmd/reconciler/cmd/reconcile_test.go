package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestValidateReconcileFlags(t *testing.T) {
	tmpDir := t.TempDir()
	statementPath := filepath.Join(tmpDir, "statement.xlsx")
	ledgerPath := filepath.Join(tmpDir, "ledger.csv")

	if err := os.WriteFile(statementPath, []byte("placeholder"), 0o644); err != nil {
		t.Fatalf("failed to create statement file: %v", err)
	}
	if err := os.WriteFile(ledgerPath, []byte("id,amount,type,date\n"), 0o644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("statement", statementPath)
				viper.Set("ledger", ledgerPath)
				viper.Set("output-format", "console")
			},
			expectError: false,
		},
		{
			name: "missing statement file",
			setupFlags: func() {
				viper.Set("statement", "")
				viper.Set("ledger", ledgerPath)
			},
			expectError:   true,
			errorContains: "statement file is required",
		},
		{
			name: "missing ledger file",
			setupFlags: func() {
				viper.Set("statement", statementPath)
				viper.Set("ledger", "")
			},
			expectError:   true,
			errorContains: "ledger file is required",
		},
		{
			name: "non-existent statement file",
			setupFlags: func() {
				viper.Set("statement", filepath.Join(tmpDir, "missing.xlsx"))
				viper.Set("ledger", ledgerPath)
			},
			expectError:   true,
			errorContains: "file not found",
		},
		{
			name: "directory instead of file",
			setupFlags: func() {
				viper.Set("statement", tmpDir)
				viper.Set("ledger", ledgerPath)
			},
			expectError:   true,
			errorContains: "is a directory",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("statement", statementPath)
				viper.Set("ledger", ledgerPath)
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "invalid start date",
			setupFlags: func() {
				viper.Set("statement", statementPath)
				viper.Set("ledger", ledgerPath)
				viper.Set("output-format", "console")
				viper.Set("start-date", "15/01/2026")
			},
			expectError:   true,
			errorContains: "invalid start date format",
		},
		{
			name: "start date after end date",
			setupFlags: func() {
				viper.Set("statement", statementPath)
				viper.Set("ledger", ledgerPath)
				viper.Set("output-format", "console")
				viper.Set("start-date", "2026-01-31")
				viper.Set("end-date", "2026-01-01")
			},
			expectError:   true,
			errorContains: "start date cannot be after end date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			err := validateReconcileFlags(&cobra.Command{}, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReconcileCommandFlags(t *testing.T) {
	for _, name := range []string{
		"statement",
		"ledger",
		"account",
		"start-date",
		"end-date",
		"date-tolerance",
		"amount-tolerance",
		"fuzzy-matching",
		"output-format",
		"output-file",
		"record-unmatched",
	} {
		if reconcileCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag '%s' not found", name)
		}
	}
}

func TestReconcileCommandHelp(t *testing.T) {
	var helpOutput bytes.Buffer
	reconcileCmd.SetOut(&helpOutput)
	reconcileCmd.Help()

	helpText := helpOutput.String()
	for _, section := range []string{
		"Usage:",
		"Examples:",
		"Flags:",
		"--statement",
		"--ledger",
		"--output-format",
	} {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}
