package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/temperature-dispersion/internal/adapter/figures"
	"github.com/couchcryptid/temperature-dispersion/internal/chart"
	"github.com/couchcryptid/temperature-dispersion/internal/domain"
	"github.com/couchcryptid/temperature-dispersion/internal/observability"
	"github.com/couchcryptid/temperature-dispersion/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSink struct {
	names  []string
	charts []chart.Chart
	err    error
}

func (m *mockSink) Write(_ context.Context, name string, c chart.Chart) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.names = append(m.names, name)
	m.charts = append(m.charts, c)
	return []string{name + ".svg"}, nil
}

type mockStore struct {
	stations     []domain.StationRecord
	observations []domain.Observation
}

func (m *mockStore) SaveStations(_ context.Context, records []domain.StationRecord) error {
	m.stations = records
	return nil
}

func (m *mockStore) SaveObservations(_ context.Context, observations []domain.Observation) error {
	m.observations = observations
	return nil
}

type mockReport struct {
	summaries []domain.Summary
}

func (m *mockReport) Write(_ context.Context, s domain.Summary) error {
	m.summaries = append(m.summaries, s)
	return nil
}

// --- fixtures ---

const stationCSV = `id,name,province,city
1,s1,B,b1
2,s2,B,b2
3,s3,A,a1
4,s4,A,a2
5,s5,C,c1
`

// writeFixtures writes a station table and a dump whose city_temp statement
// holds twelve months for every city plus one row for an unknown city.
//
//	a1 = m, a2 = 2m          -> monthly spread m/2, annual spread 3.25
//	b1 = 0, b2 = 10 (40 in July) -> monthly spread 5 (20 in July), annual 6.25
//	c1 alone                 -> never ranked
func writeFixtures(t *testing.T, stations string) pipeline.Config {
	t.Helper()
	dir := t.TempDir()

	var tuples []string
	for m := 1; m <= 12; m++ {
		b2 := 10.0
		if m == 7 {
			b2 = 40
		}
		tuples = append(tuples,
			fmt.Sprintf("(%d,'a1',%d)", m, m),
			fmt.Sprintf("(%d,'a2',%d)", m, 2*m),
			fmt.Sprintf("(%d,'b1',0.0)", m),
			fmt.Sprintf("(%d,'b2',%.1f)", m, b2),
			fmt.Sprintf("(%d,'c1',-3.5)", m),
		)
	}
	tuples = append(tuples, "(1,'nowhere',9.9)")

	sql := "-- dump\n" +
		"CREATE TABLE `city_temp` (month int, city varchar(32), temp double);\n" +
		"INSERT INTO `city_temp` VALUES\n" +
		strings.Join(tuples, ",\n") + ";\n" +
		"INSERT INTO `city_temp` VALUES (1,'a1',999);\n"

	cfg := pipeline.Config{
		StationPath: filepath.Join(dir, "station.csv"),
		DumpPath:    filepath.Join(dir, "dump.sql"),
	}
	require.NoError(t, os.WriteFile(cfg.StationPath, []byte(stations), 0o600))
	require.NoError(t, os.WriteFile(cfg.DumpPath, []byte(sql), 0o600))
	return cfg
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC))
	sink := &mockSink{}
	store := &mockStore{}
	rep := &mockReport{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(cfg, sink, slog.Default(), metrics,
		pipeline.WithClock(clock),
		pipeline.WithStore(store),
		pipeline.WithReport(rep),
	)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, res.TopProvinces)
	assert.Equal(t, domain.Selection{Province: "B", Months: []int{7, 12, 11}}, res.Selection)

	wantNames := []string{
		"annual_mean_B",
		"annual_mean_A",
		"monthly_mean_B_7",
		"monthly_mean_B_12",
		"monthly_mean_B_11",
	}
	if diff := cmp.Diff(wantNames, sink.names); diff != "" {
		t.Errorf("figure names mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, res.Files, len(wantNames))

	assert.Equal(t, 5, res.Stations)
	assert.Equal(t, 60, res.Observations)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, clock.Now(), res.StartedAt)
	assert.Equal(t, clock.Now(), res.GeneratedAt)

	require.Len(t, res.Annual, 2)
	assert.InDelta(t, 6.25, res.Annual[0].Dispersion, 1e-9)
	assert.InDelta(t, 3.25, res.Annual[1].Dispersion, 1e-9)

	assert.Len(t, store.stations, 5)
	assert.Len(t, store.observations, 60)
	require.Len(t, rep.summaries, 1)
	assert.Equal(t, res.Summary, rep.summaries[0])

	assert.InDelta(t, 5, testutil.ToFloat64(metrics.StationsLoaded), 0)
	assert.InDelta(t, 60, testutil.ToFloat64(metrics.ObservationsExtracted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ObservationsSkipped), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DispersionEntries.WithLabelValues("annual")), 0)
	assert.InDelta(t, 24, testutil.ToFloat64(metrics.DispersionEntries.WithLabelValues("monthly")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ChartsWritten.WithLabelValues("annual")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.ChartsWritten.WithLabelValues("monthly")), 0)
}

func TestPipeline_Run_ChartContent(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	cfg.Unit = "°C"
	sink := &mockSink{}

	_, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.charts, 5)

	annualB := sink.charts[0]
	assert.Equal(t, "B 各市全年均温", annualB.Title)
	assert.Equal(t, "全年均温", annualB.XLabel)
	assert.Equal(t, "°C", annualB.Unit)
	assert.Equal(t, []string{"b2", "b1"}, annualB.Labels)
	assert.InDeltaSlice(t, []float64{12.5, 0}, annualB.Values, 1e-9)

	july := sink.charts[2]
	assert.Equal(t, "B 7月各市月均温", july.Title)
	assert.Equal(t, "7月均温", july.XLabel)
	assert.Equal(t, []string{"b2", "b1"}, july.Labels)
	assert.Equal(t, []float64{40, 0}, july.Values)
}

func TestPipeline_Run_DefaultUnit(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	sink := &mockSink{}

	_, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sink.charts)
	assert.Equal(t, pipeline.DefaultUnit, sink.charts[0].Unit)
}

func TestPipeline_Run_CustomLimits(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	cfg.TopProvinces = 1
	cfg.MonthsPerProvince = 1
	sink := &mockSink{}

	res, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"annual_mean_B", "monthly_mean_B_7"}, sink.names)
	assert.Equal(t, []string{"B"}, res.TopProvinces)
}

func TestPipeline_Run_WritesFiles(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	out := filepath.Join(t.TempDir(), "Figure")
	sink := figures.NewWriter(out, "", chart.DefaultOptions(), slog.Default())

	res, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"annual_mean_B.svg", "annual_mean_A.svg", "monthly_mean_B_7.svg"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.Len(t, res.Files, 5)
}

func TestPipeline_Run_NoMonthlyDispersion(t *testing.T) {
	cfg := writeFixtures(t, "id,name,province,city\n1,s1,A,a1\n2,s2,B,b1\n")
	sink := &mockSink{}
	rep := &mockReport{}

	_, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting(),
		pipeline.WithReport(rep),
	).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoMonthlyDispersion)
	assert.Empty(t, sink.names)
	assert.Empty(t, rep.summaries)
}

func TestPipeline_Run_MissingInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pipeline.Config)
		want   string
	}{
		{
			name:   "station table",
			mutate: func(c *pipeline.Config) { c.StationPath += ".missing" },
			want:   "open station table",
		},
		{
			name:   "dump",
			mutate: func(c *pipeline.Config) { c.DumpPath += ".missing" },
			want:   "open dump",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFixtures(t, stationCSV)
			tt.mutate(&cfg)
			sink := &mockSink{}

			_, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, os.ErrNotExist)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, sink.names)
		})
	}
}

func TestPipeline_Run_SinkError(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	sinkErr := errors.New("disk full")

	_, err := pipeline.New(cfg, &mockSink{err: sinkErr}, slog.Default(), observability.NewMetricsForTesting()).Run(context.Background())
	require.ErrorIs(t, err, sinkErr)
	assert.Contains(t, err.Error(), "write figure annual_mean_B")
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	cfg := writeFixtures(t, stationCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &mockSink{}

	_, err := pipeline.New(cfg, sink, slog.Default(), observability.NewMetricsForTesting()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.names)
}

func TestChartNames(t *testing.T) {
	assert.Equal(t, "annual_mean_广东", pipeline.AnnualChartName("广东"))
	assert.Equal(t, "monthly_mean_广东_11", pipeline.MonthlyChartName("广东", 11))
}
