package domain

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// MonthTable holds province -> city -> month -> value. It is built once by
// [Aggregate] and is read-only afterwards.
type MonthTable struct {
	values    map[ObservationKey]float64
	provinces []string
	cities    map[string][]string
	months    map[CityKey][]int
}

// NewMonthTable returns an empty table.
func NewMonthTable() *MonthTable {
	return &MonthTable{
		values: make(map[ObservationKey]float64),
		cities: make(map[string][]string),
		months: make(map[CityKey][]int),
	}
}

// Set stores the observation, overwriting any earlier value for the same
// province|city|month.
func (t *MonthTable) Set(o Observation) {
	key := o.Key()
	if _, ok := t.values[key]; !ok {
		t.index(key)
	}
	t.values[key] = o.Value
}

func (t *MonthTable) index(key ObservationKey) {
	city := key.CityKey()
	if _, ok := t.cities[key.Province]; !ok {
		t.provinces = append(t.provinces, key.Province)
	}
	if _, ok := t.months[city]; !ok {
		t.cities[key.Province] = append(t.cities[key.Province], key.City)
	}
	t.months[city] = append(t.months[city], key.Month)
}

// Value returns the value stored for province|city|month.
func (t *MonthTable) Value(province, city string, month int) (float64, bool) {
	v, ok := t.values[ObservationKey{Province: province, City: city, Month: month}]
	return v, ok
}

// Observations lists every stored cell, grouped by province and city in
// first-seen order.
func (t *MonthTable) Observations() []Observation {
	out := make([]Observation, 0, len(t.values))
	for _, province := range t.provinces {
		for _, city := range t.cities[province] {
			for _, m := range t.months[CityKey{Province: province, City: city}] {
				out = append(out, Observation{
					Province: province,
					City:     city,
					Month:    m,
					Value:    t.values[ObservationKey{Province: province, City: city, Month: m}],
				})
			}
		}
	}
	return out
}

// Len reports the number of stored province|city|month cells.
func (t *MonthTable) Len() int {
	return len(t.values)
}

// MonthValues returns every city of the province that has a value for the
// month, highest value first. Equal values keep first-seen city order.
func (t *MonthTable) MonthValues(province string, month int) []CityValue {
	var out []CityValue
	for _, city := range t.cities[province] {
		if v, ok := t.Value(province, city, month); ok {
			out = append(out, CityValue{City: city, Value: v})
		}
	}
	sortByValueDesc(out)
	return out
}

// Aggregate drains src into a new MonthTable. Observations are applied in
// stream order, so a repeated province|city|month keeps the last value.
func Aggregate(src ObservationSource) (*MonthTable, error) {
	t := NewMonthTable()
	for src.Next() {
		t.Set(src.Observation())
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("aggregate observations: %w", err)
	}
	return t, nil
}

// AnnualTable holds province -> city -> mean of the recorded months.
type AnnualTable struct {
	means     map[CityKey]float64
	provinces []string
	cities    map[string][]string
}

// ReduceAnnual computes the annual mean of every city that has at least one
// recorded month. Months are not calendar weighted.
func ReduceAnnual(t *MonthTable) *AnnualTable {
	a := &AnnualTable{
		means:  make(map[CityKey]float64),
		cities: make(map[string][]string),
	}
	for _, province := range t.provinces {
		for _, city := range t.cities[province] {
			key := CityKey{Province: province, City: city}
			months := t.months[key]
			if len(months) == 0 {
				continue
			}
			values := make([]float64, 0, len(months))
			for _, m := range months {
				values = append(values, t.values[ObservationKey{Province: province, City: city, Month: m}])
			}
			if _, ok := a.cities[province]; !ok {
				a.provinces = append(a.provinces, province)
			}
			a.cities[province] = append(a.cities[province], city)
			a.means[key] = stat.Mean(values, nil)
		}
	}
	return a
}

// CityMeans returns the city means of a province, highest first. Equal means
// keep first-seen city order.
func (a *AnnualTable) CityMeans(province string) []CityValue {
	cities := a.cities[province]
	out := make([]CityValue, 0, len(cities))
	for _, city := range cities {
		out = append(out, CityValue{City: city, Value: a.means[CityKey{Province: province, City: city}]})
	}
	sortByValueDesc(out)
	return out
}

func (a *AnnualTable) values(province string) []float64 {
	cities := a.cities[province]
	out := make([]float64, 0, len(cities))
	for _, city := range cities {
		out = append(out, a.means[CityKey{Province: province, City: city}])
	}
	return out
}

func sortByValueDesc(values []CityValue) {
	slices.SortStableFunc(values, func(x, y CityValue) int {
		return cmp.Compare(y.Value, x.Value)
	})
}
