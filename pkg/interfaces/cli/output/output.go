package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/report"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/csv"
)

// Output file names written under Config.OutputDir
const (
	RestockFile    = "restock_report.csv"
	ManifestFile   = "transfer_manifest.csv"
	AccuracyFile   = "forecast_accuracy.csv"
	JSONFile       = "plan_results.json"
	TextReportFile = "plan_results.txt"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	PlanTime  time.Duration
	// Out receives console output; defaults to stdout
	Out io.Writer
}

// Report bundles the results of one run. Plans that were not requested are nil.
type Report struct {
	Restock    *dto.RestockResult    `json:"restock,omitempty"`
	Transfers  *dto.TransferResult   `json:"transfers,omitempty"`
	Evaluation *dto.EvaluationResult `json:"evaluation,omitempty"`
}

// Generate creates output in the specified format
func Generate(result *Report, config Config) error {
	if config.Out == nil {
		config.Out = os.Stdout
	}

	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput prints the human-readable report and keeps a copy in the output directory
func generateTextOutput(result *Report, config Config) error {
	var buf bytes.Buffer
	writeText(&buf, result, config)

	if _, err := config.Out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write text output: %w", err)
	}

	if config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, TextReportFile)
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 Results saved to: %s\n", filename)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *Report, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Out, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, JSONFile)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per report
func generateCSVOutput(result *Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var saved []string
	save := func(name string, table dto.Table) error {
		filename := filepath.Join(config.OutputDir, name)
		if err := csv.SaveTable(filename, table); err != nil {
			return err
		}
		saved = append(saved, filename)
		return nil
	}

	if result.Restock != nil {
		if err := save(RestockFile, report.RestockTable(result.Restock.Rows)); err != nil {
			return fmt.Errorf("failed to write restock report CSV: %w", err)
		}
	}
	if result.Transfers != nil {
		if err := save(ManifestFile, report.ManifestTable(result.Transfers.Lines)); err != nil {
			return fmt.Errorf("failed to write transfer manifest CSV: %w", err)
		}
	}
	if result.Evaluation != nil {
		if err := save(AccuracyFile, report.AccuracyTable(result.Evaluation)); err != nil {
			return fmt.Errorf("failed to write forecast accuracy CSV: %w", err)
		}
	}

	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 CSV results saved to:\n")
		for _, filename := range saved {
			fmt.Fprintf(config.Out, "  %s\n", filename)
		}
	}
	return nil
}
