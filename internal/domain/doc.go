// Package domain models monthly city temperatures joined to their provinces
// and the dispersion analysis run over them.
//
// # Data Sources
//
// Two inputs feed the model. The station reference table maps each city to
// its province (see package station). The SQL dump carries one
// `INSERT INTO city_temp ... VALUES (...), (...);` statement whose tuples are
// `(month, 'city', temperature)` (see package dump). The extractor resolves
// each tuple's province before handing it over, so every [Observation]
// arriving here is already joined.
//
// # Tables
//
// Observations accumulate into a [MonthTable] keyed by
// province|city|month. A later observation for the same key replaces the
// earlier one (last write wins). [ReduceAnnual] folds each city's recorded
// months into an arithmetic mean; missing months are absent, never zero, and
// a city without months never appears in the [AnnualTable].
//
// Both tables remember the order in which provinces, cities and months were
// first seen. Every ordering derived from them (chart rows, ranking input)
// is therefore deterministic for a given dump.
//
// # Dispersion
//
// Dispersion is the population standard deviation (divide by N). The cities
// of a province are the whole population of interest, not a sample.
//
//	Annual:  stddev of the city annual means of one province (≥2 cities)
//	Monthly: stddev of the city values of one province for one month (≥2 cities)
//
// Rankings sort descending on the (dispersion, province[, month]) tuple.
// Equal dispersions therefore fall back to descending province name, then
// descending month. This mirrors how the analysis has always ranked results
// and is kept as-is.
//
// The selected province is the owner of the highest monthly entry; its
// leading months in ranking order drive the per-month charts. An empty
// monthly ranking is reported as [ErrNoMonthlyDispersion].
package domain
