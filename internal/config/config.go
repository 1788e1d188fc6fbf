package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all run settings, populated from the environment and an
// optional .env file in the working directory.
type Config struct {
	StationPath string
	DumpPath    string
	DumpTable   string
	FigureDir   string
	PNGDir      string

	TopProvinces      int
	MonthsPerProvince int
	ChartUnit         string

	LogLevel  string
	LogFormat string

	// Optional outputs; empty disables them.
	MetricsTextfile string
	ReportPath      string
	SQLitePath      string
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables already present in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	topProvinces, err := positiveInt("TOP_PROVINCES", 2)
	if err != nil {
		return nil, err
	}
	monthsPerProvince, err := positiveInt("MONTHS_PER_PROVINCE", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StationPath:       envOrDefault("STATION_PATH", "station.csv"),
		DumpPath:          envOrDefault("DUMP_PATH", "dump/china_data_insert.sql"),
		DumpTable:         envOrDefault("DUMP_TABLE", "city_temp"),
		FigureDir:         envOrDefault("FIGURE_DIR", "Figure"),
		PNGDir:            os.Getenv("FIGURE_PNG_DIR"),
		TopProvinces:      topProvinces,
		MonthsPerProvince: monthsPerProvince,
		ChartUnit:         envOrDefault("CHART_UNIT", "原始单位"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "text"),
		MetricsTextfile:   os.Getenv("METRICS_TEXTFILE"),
		ReportPath:        os.Getenv("REPORT_PATH"),
		SQLitePath:        os.Getenv("SQLITE_PATH"),
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, errors.New("LOG_FORMAT must be json or text")
	}

	return cfg, nil
}

// envOrDefault returns the variable's value, or def when it is unset or empty.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
