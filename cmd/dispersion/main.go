// Command dispersion loads the station table and the temperature dump, ranks
// provinces by the spread of their city temperatures and writes bar charts
// for the most dispersed ones.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/temperature-dispersion/internal/adapter/figures"
	"github.com/couchcryptid/temperature-dispersion/internal/adapter/sqlite"
	"github.com/couchcryptid/temperature-dispersion/internal/chart"
	"github.com/couchcryptid/temperature-dispersion/internal/config"
	"github.com/couchcryptid/temperature-dispersion/internal/domain"
	"github.com/couchcryptid/temperature-dispersion/internal/observability"
	"github.com/couchcryptid/temperature-dispersion/internal/pipeline"
	"github.com/couchcryptid/temperature-dispersion/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		if errors.Is(err, domain.ErrNoMonthlyDispersion) {
			logger.Error("no province has two or more cities reporting the same month")
		}
		logger.Error("pipeline error", "error", err)
		writeMetrics(cfg, metrics, logger)
		os.Exit(1)
	}
	writeMetrics(cfg, metrics, logger)
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []pipeline.Option
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithStore(store))
		logger.Info("sqlite persistence enabled", "path", cfg.SQLitePath)
	}
	if cfg.ReportPath != "" {
		opts = append(opts, pipeline.WithReport(report.NewWorkbook(cfg.ReportPath, logger)))
	}

	sink := figures.NewWriter(cfg.FigureDir, cfg.PNGDir, chart.DefaultOptions(), logger)
	p := pipeline.New(pipeline.Config{
		StationPath:       cfg.StationPath,
		DumpPath:          cfg.DumpPath,
		DumpTable:         cfg.DumpTable,
		TopProvinces:      cfg.TopProvinces,
		MonthsPerProvince: cfg.MonthsPerProvince,
		Unit:              cfg.ChartUnit,
	}, sink, logger, metrics, opts...)

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Annual top provinces: %v\n", res.TopProvinces)
	fmt.Printf("Selected province for monthly charts: %s months: %v\n", res.Selection.Province, res.Selection.Months)
	return nil
}

func writeMetrics(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Error("metrics textfile error", "path", cfg.MetricsTextfile, "error", err)
	}
}
