package domain

// StationRecord is one valid row of the station reference table.
type StationRecord struct {
	Province string
	City     string
}

// Observation is a monthly temperature for a city, already joined with the
// province that owns the city.
type Observation struct {
	Province string
	City     string
	Month    int
	Value    float64
}

// Key returns the composite key the observation is stored under.
func (o Observation) Key() ObservationKey {
	return ObservationKey{Province: o.Province, City: o.City, Month: o.Month}
}

// CityKey identifies a city within its province.
type CityKey struct {
	Province string
	City     string
}

// ObservationKey identifies a single province|city|month cell.
type ObservationKey struct {
	Province string
	City     string
	Month    int
}

// CityKey drops the month from the key.
func (k ObservationKey) CityKey() CityKey {
	return CityKey{Province: k.Province, City: k.City}
}

// CityValue pairs a city with a temperature (monthly value or annual mean).
type CityValue struct {
	City  string
	Value float64
}

// ObservationSource is a forward-only stream of observations. Next advances
// the stream and reports whether an observation is available; once it returns
// false the stream is exhausted and Err reports why it stopped.
type ObservationSource interface {
	Next() bool
	Observation() Observation
	Err() error
}
