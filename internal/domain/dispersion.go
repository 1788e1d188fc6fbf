package domain

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultTopProvinces is how many provinces get an annual chart.
	DefaultTopProvinces = 2
	// DefaultMonthsPerProvince is how many months of the selected province
	// get a monthly chart.
	DefaultMonthsPerProvince = 3

	minCitiesForDispersion = 2
)

// ErrNoMonthlyDispersion means no province ever had two or more cities
// reporting the same month, so there is nothing to select.
var ErrNoMonthlyDispersion = errors.New("no monthly dispersion data found")

// DispersionEntry is one ranked dispersion value. Month is only meaningful
// in the monthly ranking; annual entries leave it zero.
type DispersionEntry struct {
	Dispersion float64
	Province   string
	Month      int
}

// Selection is the province chosen for detail charts and its months in
// ranking order.
type Selection struct {
	Province string
	Months   []int
}

// PopStdDev returns the population standard deviation of values. A single
// value (or none) has no spread and yields 0.
func PopStdDev(values []float64) float64 {
	if len(values) < minCitiesForDispersion {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

// AnnualDispersion ranks provinces by the spread of their city annual means.
// Provinces with fewer than two cities are left out.
func AnnualDispersion(a *AnnualTable) []DispersionEntry {
	var entries []DispersionEntry
	for _, province := range a.provinces {
		values := a.values(province)
		if len(values) < minCitiesForDispersion {
			continue
		}
		entries = append(entries, DispersionEntry{Dispersion: PopStdDev(values), Province: province})
	}
	sortEntries(entries)
	return entries
}

// TopProvinces returns the k provinces with the highest annual dispersion.
// A non-positive k uses DefaultTopProvinces.
func TopProvinces(a *AnnualTable, k int) []string {
	if k <= 0 {
		k = DefaultTopProvinces
	}
	entries := AnnualDispersion(a)
	if len(entries) > k {
		entries = entries[:k]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Province)
	}
	return out
}

// MonthlyDispersion ranks every province|month pair by the spread of the
// city values reported for that month. Pairs with fewer than two cities are
// left out.
func MonthlyDispersion(t *MonthTable) []DispersionEntry {
	var entries []DispersionEntry
	for _, province := range t.provinces {
		byMonth := make(map[int][]float64)
		var order []int
		for _, city := range t.cities[province] {
			for _, m := range t.months[CityKey{Province: province, City: city}] {
				if _, ok := byMonth[m]; !ok {
					order = append(order, m)
				}
				byMonth[m] = append(byMonth[m], t.values[ObservationKey{Province: province, City: city, Month: m}])
			}
		}
		for _, m := range order {
			values := byMonth[m]
			if len(values) < minCitiesForDispersion {
				continue
			}
			entries = append(entries, DispersionEntry{Dispersion: PopStdDev(values), Province: province, Month: m})
		}
	}
	sortEntries(entries)
	return entries
}

// SelectMonths picks the province of the top entry and up to n of its months
// in ranking order. A non-positive n uses DefaultMonthsPerProvince.
func SelectMonths(entries []DispersionEntry, n int) (Selection, error) {
	if len(entries) == 0 {
		return Selection{}, ErrNoMonthlyDispersion
	}
	if n <= 0 {
		n = DefaultMonthsPerProvince
	}
	sel := Selection{Province: entries[0].Province}
	for _, e := range entries {
		if len(sel.Months) == n {
			break
		}
		if e.Province == sel.Province {
			sel.Months = append(sel.Months, e.Month)
		}
	}
	return sel, nil
}

// sortEntries orders entries descending on (dispersion, province, month).
func sortEntries(entries []DispersionEntry) {
	slices.SortStableFunc(entries, func(x, y DispersionEntry) int {
		if c := cmp.Compare(y.Dispersion, x.Dispersion); c != 0 {
			return c
		}
		if c := cmp.Compare(y.Province, x.Province); c != 0 {
			return c
		}
		return cmp.Compare(y.Month, x.Month)
	})
}

// Summary collects the ranking outcome of one run.
type Summary struct {
	TopProvinces []string
	Annual       []DispersionEntry
	Monthly      []DispersionEntry
	Selection    Selection
	GeneratedAt  time.Time
}
