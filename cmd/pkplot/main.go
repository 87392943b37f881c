// Command pkplot loads observed and simulated datasets, aligns them in
// time, and writes comparison figures plus a residual table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"pkplot/internal/alignment"
	"pkplot/internal/config"
	"pkplot/internal/dataset"
	"pkplot/internal/exporter"
	"pkplot/internal/plotmap"
	"pkplot/internal/render"
	"pkplot/pkg/contracts/domain"
)

func main() {
	observedPath := flag.String("observed", "", "observed data workbook (xlsx)")
	simulatedPath := flag.String("simulated", "", "simulation results export (csv)")
	outputDir := flag.String("out", "", "output directory (defaults to config paths.output_dir)")
	groupFilter := flag.String("groups", "", "comma-separated group ids to keep (default: all)")
	groupRename := flag.String("rename", "", "group renames as old=new pairs, comma-separated")
	timeUnit := flag.String("time-unit", "min", "time unit used for matching and display (min or h)")
	observedUnit := flag.String("observed-time-unit", "", "time unit of the observed data (defaults to -time-unit)")
	simulatedUnit := flag.String("simulated-time-unit", "", "time unit of the simulated data (defaults to -time-unit)")
	pathGroups := flag.String("path-groups", "", "output path to group mappings as path=group pairs, comma-separated")
	logY := flag.Bool("log-y", false, "log-scale the concentration axis")
	title := flag.String("title", "Time profile", "figure title")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if *observedPath == "" || *simulatedPath == "" {
		logger.Error("both -observed and -simulated are required")
		flag.Usage()
		os.Exit(2)
	}
	if *outputDir == "" {
		*outputDir = cfg.Paths.OutputDir
	}

	if *observedUnit == "" {
		*observedUnit = *timeUnit
	}
	if *simulatedUnit == "" {
		*simulatedUnit = *timeUnit
	}

	if err := run(context.Background(), logger, cfg, options{
		observedPath:  *observedPath,
		simulatedPath: *simulatedPath,
		outputDir:     *outputDir,
		groupFilter:   splitList(*groupFilter),
		groupRename:   parsePairs(*groupRename),
		pathGroups:    parsePairs(*pathGroups),
		timeUnit:      domain.TimeUnit(*timeUnit),
		observedUnit:  domain.TimeUnit(*observedUnit),
		simulatedUnit: domain.TimeUnit(*simulatedUnit),
		logY:          *logY,
		title:         *title,
	}); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	observedPath  string
	simulatedPath string
	outputDir     string
	groupFilter   []string
	groupRename   map[string]string
	pathGroups    map[string]string
	timeUnit      domain.TimeUnit
	observedUnit  domain.TimeUnit
	simulatedUnit domain.TimeUnit
	logY          bool
	title         string
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts options) error {
	var (
		observations []domain.Observation
		samples      []domain.SimulationSample
	)

	// Both inputs are one-shot reads; load them in parallel.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		observations, err = dataset.NewObservedLoader(logger).Load(opts.observedPath, dataset.ObservedOptions{
			TimeUnit:    opts.observedUnit,
			GroupFilter: opts.groupFilter,
			GroupRename: opts.groupRename,
		})
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = dataset.NewSimulatedLoader(logger).Load(opts.simulatedPath, dataset.SimulatedOptions{
			TimeUnit:   opts.simulatedUnit,
			PathGroups: opts.pathGroups,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load input data: %w", err)
	}

	// Mixed-unit inputs are converted to the matching unit up front; the
	// matcher itself rejects mismatches rather than guessing.
	observations, err := dataset.NormalizeTimeUnit(observations, opts.timeUnit)
	if err != nil {
		return fmt.Errorf("failed to normalize observed time unit: %w", err)
	}
	samples, err = dataset.NormalizeSampleTimeUnit(samples, opts.timeUnit)
	if err != nil {
		return fmt.Errorf("failed to normalize simulated time unit: %w", err)
	}

	matched, err := alignment.NewMatcher(logger).Match(ctx, observations, samples)
	if err != nil {
		return fmt.Errorf("time alignment failed: %w", err)
	}

	writer := exporter.NewCSVWriter(opts.outputDir, logger)
	if err := writer.WriteResiduals("residuals.csv", matched); err != nil {
		return fmt.Errorf("failed to write residual table: %w", err)
	}

	renderer := render.NewChartRenderer(logger)
	renderer.SetSize(cfg.Plot.Width, cfg.Plot.Height)

	profile, err := buildTimeProfile(logger, observations, samples, opts)
	if err != nil {
		return err
	}
	if err := renderFigure(ctx, profile, renderer, writer, "time_profile.png", opts.title); err != nil {
		return err
	}

	// The same series data rendered as different plot types works on deep
	// clones, so per-figure axis tweaks never leak between figures.
	obsVsPred := plotmap.New(logger)
	if err := addObsVsPred(obsVsPred, matched); err != nil {
		return err
	}
	if err := renderFigure(ctx, obsVsPred, renderer, writer, "obs_vs_pred.png", "Observed vs predicted"); err != nil {
		return err
	}

	residuals := plotmap.New(logger)
	if err := addResiduals(residuals, matched); err != nil {
		return err
	}
	if err := renderFigure(ctx, residuals, renderer, writer, "residuals.png", "Residuals over time"); err != nil {
		return err
	}

	logger.Info("workflow complete",
		"output_dir", opts.outputDir,
		"observations", len(observations),
		"samples", len(samples),
		"matched", len(matched),
	)
	return nil
}

func buildTimeProfile(logger *slog.Logger, observations []domain.Observation, samples []domain.SimulationSample, opts options) (*plotmap.DataMapping, error) {
	mapping := plotmap.New(logger)

	for _, group := range groupOrder(observations) {
		points := make([]plotmap.Point, 0)
		for _, o := range observations {
			if o.Group == group {
				points = append(points, plotmap.Point{X: o.Time, Y: o.Value})
			}
		}
		if _, err := mapping.AddObservedSeries(points, group, group+" observed"); err != nil {
			return nil, err
		}
	}

	simGroups := sampleGroupOrder(samples)
	paths := make([]string, 0, len(simGroups))
	partitions := make([][]plotmap.Point, 0, len(simGroups))
	labels := make([]string, 0, len(simGroups))
	for _, group := range simGroups {
		points := make([]plotmap.Point, 0)
		for _, s := range samples {
			if s.Group == group {
				points = append(points, plotmap.Point{X: s.Time, Y: s.Value})
			}
		}
		paths = append(paths, group)
		partitions = append(partitions, points)
		labels = append(labels, group+" simulated")
	}
	if _, err := mapping.AddModelOutputSeries(paths, partitions, labels, simGroups); err != nil {
		return nil, err
	}

	if err := mapping.SetAxisLabel(plotmap.AxisX, "Time ["+string(opts.timeUnit)+"]"); err != nil {
		return nil, err
	}
	if err := mapping.SetAxisLabel(plotmap.AxisY, "Value"); err != nil {
		return nil, err
	}
	if opts.logY {
		if err := mapping.SetAxisScale(plotmap.AxisY, plotmap.ScaleLog); err != nil {
			return nil, err
		}
	}
	return mapping, nil
}

func addObsVsPred(mapping *plotmap.DataMapping, matched []domain.MatchedObservation) error {
	for _, group := range matchedGroupOrder(matched) {
		points := make([]plotmap.Point, 0)
		for _, m := range matched {
			if m.Group == group {
				points = append(points, plotmap.Point{X: m.Value, Y: m.MatchedValue})
			}
		}
		if _, err := mapping.AddObservedSeries(points, group, group); err != nil {
			return err
		}
	}
	if err := mapping.SetAxisLabel(plotmap.AxisX, "Observed"); err != nil {
		return err
	}
	return mapping.SetAxisLabel(plotmap.AxisY, "Predicted")
}

func addResiduals(mapping *plotmap.DataMapping, matched []domain.MatchedObservation) error {
	for _, group := range matchedGroupOrder(matched) {
		points := make([]plotmap.Point, 0)
		for _, m := range matched {
			if m.Group == group {
				points = append(points, plotmap.Point{X: m.Time, Y: m.Residual})
			}
		}
		if _, err := mapping.AddObservedSeries(points, group, group); err != nil {
			return err
		}
	}
	if err := mapping.SetAxisLabel(plotmap.AxisX, "Time"); err != nil {
		return err
	}
	return mapping.SetAxisLabel(plotmap.AxisY, "Simulated - observed")
}

func renderFigure(ctx context.Context, mapping *plotmap.DataMapping, renderer *render.ChartRenderer, writer *exporter.CSVWriter, fileName, title string) error {
	fig, err := mapping.Snapshot(plotmap.PlotOptions{Title: title})
	if err != nil {
		return fmt.Errorf("failed to resolve figure %q: %w", title, err)
	}

	// One legend row per group: the simulated entry donates its encoding to
	// the observed one, then hides.
	legend := render.BuildLegend(fig, render.DefaultPalette)
	overrides := make(map[string]render.LegendOverride)
	hidden := false
	for _, s := range fig.Series {
		if s.Kind != plotmap.KindModelOutput {
			continue
		}
		for _, other := range fig.Series {
			if other.Kind == plotmap.KindObserved && other.Group == s.Group {
				overrides[other.Label] = render.LegendOverride{CopyColorFrom: s.Label}
				overrides[s.Label] = render.LegendOverride{Visible: &hidden}
			}
		}
	}
	renderer.SetLegend(render.ReconcileLegend(legend, overrides))
	defer renderer.SetLegend(nil)

	png, err := mapping.Plot(ctx, renderer, plotmap.PlotOptions{Title: title})
	if err != nil {
		return fmt.Errorf("failed to render figure %q: %w", title, err)
	}
	return writer.WriteFigure(fileName, png)
}

func groupOrder(observations []domain.Observation) []string {
	var order []string
	seen := make(map[string]bool)
	for _, o := range observations {
		if !seen[o.Group] {
			seen[o.Group] = true
			order = append(order, o.Group)
		}
	}
	return order
}

func sampleGroupOrder(samples []domain.SimulationSample) []string {
	var order []string
	seen := make(map[string]bool)
	for _, s := range samples {
		if !seen[s.Group] {
			seen[s.Group] = true
			order = append(order, s.Group)
		}
	}
	return order
}

func matchedGroupOrder(matched []domain.MatchedObservation) []string {
	var order []string
	seen := make(map[string]bool)
	for _, m := range matched {
		if !seen[m.Group] {
			seen[m.Group] = true
			order = append(order, m.Group)
		}
	}
	return order
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePairs(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if found && key != "" {
			out[key] = value
		}
	}
	return out
}
