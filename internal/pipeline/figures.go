package pipeline

import (
	"fmt"

	"github.com/couchcryptid/temperature-dispersion/internal/chart"
	"github.com/couchcryptid/temperature-dispersion/internal/domain"
)

// DefaultUnit labels temperatures whose unit the dump does not state.
const DefaultUnit = "原始单位"

const (
	kindAnnual  = "annual"
	kindMonthly = "monthly"
)

type figure struct {
	name  string
	kind  string
	chart chart.Chart
}

// AnnualChartName is the base file name of a province's annual chart.
func AnnualChartName(province string) string {
	return "annual_mean_" + province
}

// MonthlyChartName is the base file name of a province's chart for one month.
func MonthlyChartName(province string, month int) string {
	return fmt.Sprintf("monthly_mean_%s_%d", province, month)
}

// figures lists the annual charts of the top provinces followed by the
// monthly charts of the selected province.
func (p *Pipeline) figures(annual *domain.AnnualTable, table *domain.MonthTable, top []string, sel domain.Selection) []figure {
	out := make([]figure, 0, len(top)+len(sel.Months))
	for _, province := range top {
		out = append(out, figure{
			name: AnnualChartName(province),
			kind: kindAnnual,
			chart: barChart(
				province+" 各市全年均温",
				annual.CityMeans(province),
				"全年均温",
				p.cfg.Unit,
			),
		})
	}
	for _, month := range sel.Months {
		out = append(out, figure{
			name: MonthlyChartName(sel.Province, month),
			kind: kindMonthly,
			chart: barChart(
				fmt.Sprintf("%s %d月各市月均温", sel.Province, month),
				table.MonthValues(sel.Province, month),
				fmt.Sprintf("%d月均温", month),
				p.cfg.Unit,
			),
		})
	}
	return out
}

func barChart(title string, rows []domain.CityValue, xlabel, unit string) chart.Chart {
	c := chart.Chart{
		Title:  title,
		Labels: make([]string, len(rows)),
		Values: make([]float64, len(rows)),
		XLabel: xlabel,
		Unit:   unit,
	}
	for i, r := range rows {
		c.Labels[i] = r.City
		c.Values[i] = r.Value
	}
	return c
}
