package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/replenish/pkg/application/dto"
)

// WriteTable writes a report table as CSV
func WriteTable(w io.Writer, table dto.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Header) {
			return fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(table.Header))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveTable writes a report table to a CSV file
func SaveTable(filename string, table dto.Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}

	if err := WriteTable(file, table); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}
