package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/temperature-dispersion/internal/chart"
	"github.com/couchcryptid/temperature-dispersion/internal/domain"
	"github.com/couchcryptid/temperature-dispersion/internal/dump"
	"github.com/couchcryptid/temperature-dispersion/internal/observability"
	"github.com/couchcryptid/temperature-dispersion/internal/station"
	"github.com/jonboulle/clockwork"
)

// FigureSink stores a rendered chart under a base file name and returns the
// paths it wrote.
type FigureSink interface {
	Write(ctx context.Context, name string, c chart.Chart) ([]string, error)
}

// ObservationStore persists the joined input of a run.
type ObservationStore interface {
	SaveStations(ctx context.Context, records []domain.StationRecord) error
	SaveObservations(ctx context.Context, observations []domain.Observation) error
}

// ReportWriter records the rankings of a run.
type ReportWriter interface {
	Write(ctx context.Context, s domain.Summary) error
}

// Config is the explicit input of a run.
type Config struct {
	StationPath       string
	DumpPath          string
	DumpTable         string
	TopProvinces      int
	MonthsPerProvince int
	Unit              string
}

// Result describes a completed run.
type Result struct {
	domain.Summary

	Files        []string
	Stations     int
	Observations int
	Skipped      int
	StartedAt    time.Time
	Duration     time.Duration
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithStore persists stations and observations after aggregation.
func WithStore(s ObservationStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithReport writes the rankings once the charts are out.
func WithReport(r ReportWriter) Option {
	return func(p *Pipeline) { p.report = r }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline runs load -> extract -> aggregate -> analyse -> render once.
type Pipeline struct {
	cfg     Config
	sink    FigureSink
	store   ObservationStore
	report  ReportWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// New creates a Pipeline writing charts to sink.
func New(cfg Config, sink FigureSink, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.TopProvinces <= 0 {
		p.cfg.TopProvinces = domain.DefaultTopProvinces
	}
	if p.cfg.MonthsPerProvince <= 0 {
		p.cfg.MonthsPerProvince = domain.DefaultMonthsPerProvince
	}
	if p.cfg.DumpTable == "" {
		p.cfg.DumpTable = dump.DefaultTable
	}
	if p.cfg.Unit == "" {
		p.cfg.Unit = DefaultUnit
	}
	return p
}

// Run executes the pipeline once. Missing inputs and an empty monthly
// ranking (domain.ErrNoMonthlyDispersion) are returned as errors; nothing is
// written in either case.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{StartedAt: p.clock.Now()}

	lookup, err := station.Load(p.cfg.StationPath)
	if err != nil {
		return res, err
	}
	res.Stations = lookup.Len()
	p.metrics.StationsLoaded.Set(float64(res.Stations))
	p.logger.Info("stations loaded", "path", p.cfg.StationPath, "cities", res.Stations)

	table, err := p.extract(lookup, &res)
	if err != nil {
		return res, err
	}

	if p.store != nil {
		if err := p.persist(ctx, lookup, table); err != nil {
			return res, err
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	annual := domain.ReduceAnnual(table)
	res.Annual = domain.AnnualDispersion(annual)
	res.TopProvinces = domain.TopProvinces(annual, p.cfg.TopProvinces)
	res.Monthly = domain.MonthlyDispersion(table)
	p.metrics.DispersionEntries.WithLabelValues(kindAnnual).Set(float64(len(res.Annual)))
	p.metrics.DispersionEntries.WithLabelValues(kindMonthly).Set(float64(len(res.Monthly)))

	res.Selection, err = domain.SelectMonths(res.Monthly, p.cfg.MonthsPerProvince)
	if err != nil {
		return res, err
	}
	p.logger.Info("dispersion ranked",
		"top_provinces", res.TopProvinces,
		"selected_province", res.Selection.Province,
		"months", res.Selection.Months,
	)

	for _, fig := range p.figures(annual, table, res.TopProvinces, res.Selection) {
		paths, err := p.sink.Write(ctx, fig.name, fig.chart)
		if err != nil {
			return res, fmt.Errorf("write figure %s: %w", fig.name, err)
		}
		res.Files = append(res.Files, paths...)
		p.metrics.ChartsWritten.WithLabelValues(fig.kind).Inc()
	}

	res.GeneratedAt = p.clock.Now()
	if p.report != nil {
		if err := p.report.Write(ctx, res.Summary); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
	}

	res.Duration = p.clock.Since(res.StartedAt)
	p.metrics.RunDuration.Set(res.Duration.Seconds())
	p.metrics.LastSuccess.Set(float64(res.GeneratedAt.Unix()))
	p.logger.Info("pipeline finished", "files", len(res.Files), "duration", res.Duration)
	return res, nil
}

// extract streams the dump into a MonthTable. The dump file stays open only
// while the target statement is being read.
func (p *Pipeline) extract(lookup *station.Lookup, res *Result) (*domain.MonthTable, error) {
	reader, err := dump.Open(p.cfg.DumpPath, lookup, dump.InsertRules{Table: p.cfg.DumpTable})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	table, err := domain.Aggregate(reader)
	if err != nil {
		return nil, err
	}

	res.Observations = reader.Emitted()
	res.Skipped = reader.Skipped()
	p.metrics.ObservationsExtracted.Add(float64(res.Observations))
	p.metrics.ObservationsSkipped.Add(float64(res.Skipped))
	p.logger.Info("dump extracted",
		"path", p.cfg.DumpPath,
		"table", p.cfg.DumpTable,
		"observations", res.Observations,
		"skipped", res.Skipped,
		"cells", table.Len(),
	)
	return table, nil
}

func (p *Pipeline) persist(ctx context.Context, lookup *station.Lookup, table *domain.MonthTable) error {
	if err := p.store.SaveStations(ctx, lookup.Records()); err != nil {
		return fmt.Errorf("save stations: %w", err)
	}
	if err := p.store.SaveObservations(ctx, table.Observations()); err != nil {
		return fmt.Errorf("save observations: %w", err)
	}
	return nil
}
