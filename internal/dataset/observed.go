// Package dataset loads observed and simulated tabular data into the
// domain types. Observed data comes from Excel workbooks, simulated data
// from a simulation engine's CSV export. Both loaders apply the group
// filtering and renaming stage and tag every point with its time unit.
package dataset

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	ploterrors "pkplot/internal/errors"
	"pkplot/pkg/contracts/domain"
)

// ObservedOptions configures the observed-data loader. Column fields hold
// header fragments matched case-insensitively; empty fields keep the
// defaults. An empty Sheet triggers header-based sheet discovery.
type ObservedOptions struct {
	Sheet        string
	GroupColumn  string
	TimeColumn   string
	ValueColumn  string
	ErrorColumn  string
	TimeUnit     domain.TimeUnit
	GroupFilter  []string          // keep only these groups when non-empty
	GroupRename  map[string]string // applied after filtering
}

func (o *ObservedOptions) setDefaults() {
	if o.GroupColumn == "" {
		o.GroupColumn = "group"
	}
	if o.TimeColumn == "" {
		o.TimeColumn = "time"
	}
	if o.ValueColumn == "" {
		o.ValueColumn = "value"
	}
	if o.ErrorColumn == "" {
		o.ErrorColumn = "error"
	}
	if o.TimeUnit == "" {
		o.TimeUnit = domain.UnitMinute
	}
}

// ObservedLoader reads observed data workbooks.
type ObservedLoader struct {
	logger *slog.Logger
}

// NewObservedLoader creates a new loader
func NewObservedLoader(logger *slog.Logger) *ObservedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObservedLoader{logger: logger}
}

// Load reads an observed-data workbook and extracts one Observation per
// data row. Rows with an empty uncertainty cell get ErrorBar 0 so group
// handling downstream never sees a gap.
func (l *ObservedLoader) Load(filePath string, opts ObservedOptions) ([]domain.Observation, error) {
	opts.setDefaults()

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	rows, sheetName, err := l.findDataSheet(f, opts)
	if err != nil {
		return nil, err
	}
	l.logger.Info("found observed data sheet",
		slog.String("sheet_name", sheetName),
		slog.Int("total_rows", len(rows)))

	header := rows[0]
	groupCol := findColumn(header, opts.GroupColumn)
	timeCol := findColumn(header, opts.TimeColumn)
	valueCol := findColumn(header, opts.ValueColumn)
	errorCol := findColumn(header, opts.ErrorColumn)
	if groupCol < 0 || timeCol < 0 || valueCol < 0 {
		return nil, ploterrors.NewParsingError(
			fmt.Sprintf("sheet %q is missing a group, time or value column", sheetName), nil)
	}

	observations := make([]domain.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		group := cell(row, groupCol)
		if group == "" {
			continue
		}

		timeVal, err := parseFloat(cell(row, timeCol))
		if err != nil {
			return nil, ploterrors.NewParsingError(
				fmt.Sprintf("row %d: invalid time value", i+2), err)
		}
		value, err := parseFloat(cell(row, valueCol))
		if err != nil {
			return nil, ploterrors.NewParsingError(
				fmt.Sprintf("row %d: invalid measured value", i+2), err)
		}

		// Missing uncertainty is normalized to 0, not left null.
		errorBar := 0.0
		if errorCol >= 0 {
			if raw := cell(row, errorCol); raw != "" {
				errorBar, err = parseFloat(raw)
				if err != nil {
					return nil, ploterrors.NewParsingError(
						fmt.Sprintf("row %d: invalid error value", i+2), err)
				}
			}
		}

		observations = append(observations, domain.Observation{
			Group:    group,
			Time:     timeVal,
			Value:    value,
			ErrorBar: errorBar,
			TimeUnit: opts.TimeUnit,
		})
	}

	observations = filterGroups(observations, opts.GroupFilter)
	renameGroups(observations, opts.GroupRename)

	l.logger.Info("loaded observed data",
		slog.String("file", filePath),
		slog.Int("observations", len(observations)))
	return observations, nil
}

// findDataSheet returns the rows of the configured sheet, or scans all
// sheets for one whose header row carries the expected columns.
func (l *ObservedLoader) findDataSheet(f *excelize.File, opts ObservedOptions) ([][]string, string, error) {
	if opts.Sheet != "" {
		rows, err := f.GetRows(opts.Sheet)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read sheet %q: %w", opts.Sheet, err)
		}
		if len(rows) < 2 {
			return nil, "", ploterrors.NewParsingError(fmt.Sprintf("sheet %q has no data rows", opts.Sheet), nil)
		}
		return rows, opts.Sheet, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		header := strings.ToLower(strings.Join(rows[0], " "))
		if strings.Contains(header, opts.GroupColumn) &&
			strings.Contains(header, opts.TimeColumn) &&
			strings.Contains(header, opts.ValueColumn) {
			return rows, name, nil
		}
	}
	return nil, "", ploterrors.NewParsingError("could not find an observed data sheet in file", nil)
}

// NormalizeTimeUnit converts all observations to the target unit in place
// semantics-wise, returning a new slice; inputs stay untouched.
func NormalizeTimeUnit(observations []domain.Observation, to domain.TimeUnit) ([]domain.Observation, error) {
	out := make([]domain.Observation, len(observations))
	for i, o := range observations {
		converted, err := domain.ConvertTime(o.Time, o.TimeUnit, to)
		if err != nil {
			return nil, err
		}
		o.Time = converted
		o.TimeUnit = to
		out[i] = o
	}
	return out, nil
}

// findColumn binds a header fragment to a column: exact header match first,
// then the unit-annotated form, then any substring hit. The ordered passes
// keep "time" from binding to an earlier column like "Time Unit" when a
// "Time [min]" column exists.
func findColumn(header []string, fragment string) int {
	fragment = strings.ToLower(fragment)
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == fragment {
			return i
		}
	}
	for i, h := range header {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(h)), fragment+" [") {
			return i
		}
	}
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), fragment) {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

func filterGroups(observations []domain.Observation, keep []string) []domain.Observation {
	if len(keep) == 0 {
		return observations
	}
	allowed := make(map[string]bool, len(keep))
	for _, g := range keep {
		allowed[g] = true
	}
	out := observations[:0]
	for _, o := range observations {
		if allowed[o.Group] {
			out = append(out, o)
		}
	}
	return out
}

func renameGroups(observations []domain.Observation, rename map[string]string) {
	if len(rename) == 0 {
		return
	}
	for i := range observations {
		if newName, ok := rename[observations[i].Group]; ok {
			observations[i].Group = newName
		}
	}
}
