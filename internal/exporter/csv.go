// Package exporter writes alignment results and rendered figures to disk.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"pkplot/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewCSVWriter creates a new CSV writer rooted at outputDir
func NewCSVWriter(outputDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{outputDir: outputDir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(fileName string, options WriteOptions) error {
	fullPath := filepath.Join(w.outputDir, fileName)

	w.logger.Info("writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return writer.Error()
}

// WriteResiduals writes the time-alignment result as a residual table, one
// row per matched observation.
func (w *CSVWriter) WriteResiduals(fileName string, matched []domain.MatchedObservation) error {
	records := make([][]string, 0, len(matched))
	for _, m := range matched {
		records = append(records, []string{
			m.Group,
			formatFloat(m.Time),
			formatFloat(m.Value),
			formatFloat(m.MatchedTime),
			formatFloat(m.MatchedValue),
			formatFloat(m.Residual),
			string(m.TimeUnit),
		})
	}
	return w.WriteCSV(fileName, WriteOptions{
		Headers:   []string{"group", "time", "observed", "matched_time", "simulated", "residual", "time_unit"},
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteFigure writes a rendered figure to the output directory.
func (w *CSVWriter) WriteFigure(fileName string, png []byte) error {
	fullPath := filepath.Join(w.outputDir, fileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, png, 0644); err != nil {
		return fmt.Errorf("failed to write figure: %w", err)
	}
	w.logger.Info("wrote figure",
		slog.String("full_path", fullPath),
		slog.Int("bytes", len(png)))
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
