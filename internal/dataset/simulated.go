package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	ploterrors "pkplot/internal/errors"
	"pkplot/pkg/contracts/domain"
)

// SimulatedOptions configures the simulated-data loader. The CSV export
// carries one time column, an optional individual/run id column, and one
// column per output quantity path. PathGroups maps an output path to the
// group label used to join against observations; paths without a mapping
// keep the path itself as group.
type SimulatedOptions struct {
	TimeColumn       string
	IndividualColumn string
	TimeUnit         domain.TimeUnit
	PathGroups       map[string]string
	PathFilter       []string // keep only these output columns when non-empty
}

func (o *SimulatedOptions) setDefaults() {
	if o.TimeColumn == "" {
		o.TimeColumn = "time"
	}
	if o.IndividualColumn == "" {
		o.IndividualColumn = "individual"
	}
	if o.TimeUnit == "" {
		o.TimeUnit = domain.UnitMinute
	}
}

// NormalizeSampleTimeUnit converts all samples to the target unit,
// returning a new slice; inputs stay untouched. The SimulationSample
// counterpart of NormalizeTimeUnit.
func NormalizeSampleTimeUnit(samples []domain.SimulationSample, to domain.TimeUnit) ([]domain.SimulationSample, error) {
	out := make([]domain.SimulationSample, len(samples))
	for i, s := range samples {
		converted, err := domain.ConvertTime(s.Time, s.TimeUnit, to)
		if err != nil {
			return nil, err
		}
		s.Time = converted
		s.TimeUnit = to
		out[i] = s
	}
	return out, nil
}

// SimulatedLoader reads simulation result exports.
type SimulatedLoader struct {
	logger *slog.Logger
}

// NewSimulatedLoader creates a new loader
func NewSimulatedLoader(logger *slog.Logger) *SimulatedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatedLoader{logger: logger}
}

// Load reads a simulation result CSV file.
func (l *SimulatedLoader) Load(filePath string, opts SimulatedOptions) ([]domain.SimulationSample, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	samples, err := l.Parse(file, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	l.logger.Info("loaded simulated data",
		slog.String("file", filePath),
		slog.Int("samples", len(samples)))
	return samples, nil
}

// Parse reads the wide CSV export and pivots it long: every output column
// of every data row becomes one SimulationSample.
func (l *SimulatedLoader) Parse(r io.Reader, opts SimulatedOptions) ([]domain.SimulationSample, error) {
	opts.setDefaults()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ploterrors.NewParsingError("failed to read CSV header", err)
	}

	timeCol := findColumn(header, opts.TimeColumn)
	if timeCol < 0 {
		return nil, ploterrors.NewParsingError(
			fmt.Sprintf("no time column matching %q in header", opts.TimeColumn), nil)
	}
	individualCol := findColumn(header, opts.IndividualColumn)

	keep := make(map[string]bool, len(opts.PathFilter))
	for _, p := range opts.PathFilter {
		keep[p] = true
	}

	// Every remaining column is an output quantity path.
	type outputColumn struct {
		index int
		path  string
		group string
	}
	var outputs []outputColumn
	for i, h := range header {
		if i == timeCol || i == individualCol {
			continue
		}
		path := strings.TrimSpace(h)
		if path == "" {
			continue
		}
		if len(keep) > 0 && !keep[path] {
			continue
		}
		group := path
		if mapped, ok := opts.PathGroups[path]; ok {
			group = mapped
		}
		outputs = append(outputs, outputColumn{index: i, path: path, group: group})
	}
	if len(outputs) == 0 {
		return nil, ploterrors.NewParsingError("no output columns found in CSV header", nil)
	}

	var samples []domain.SimulationSample
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ploterrors.NewParsingError(fmt.Sprintf("failed to read CSV line %d", line+1), err)
		}
		line++

		timeVal, err := parseFloat(record[timeCol])
		if err != nil {
			return nil, ploterrors.NewParsingError(fmt.Sprintf("line %d: invalid time value", line), err)
		}
		individual := ""
		if individualCol >= 0 {
			individual = strings.TrimSpace(record[individualCol])
		}

		for _, out := range outputs {
			raw := cell(record, out.index)
			if raw == "" {
				continue
			}
			value, err := parseFloat(raw)
			if err != nil {
				return nil, ploterrors.NewParsingError(
					fmt.Sprintf("line %d: invalid value in column %q", line, out.path), err)
			}
			samples = append(samples, domain.SimulationSample{
				IndividualID: individual,
				Group:        out.group,
				Time:         timeVal,
				Value:        value,
				TimeUnit:     opts.TimeUnit,
			})
		}
	}
	return samples, nil
}
