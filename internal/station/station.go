// Package station loads the weather-station reference table and exposes the
// city -> province lookup used to join dump records.
package station

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/temperature-dispersion/internal/domain"
)

const (
	provinceCol = 2
	cityCol     = 3
	minFields   = 4
)

// Lookup maps a city to the province of its first valid station row.
type Lookup struct {
	provinces map[string]string
	records   []domain.StationRecord
}

// Province returns the province of a city.
func (l *Lookup) Province(city string) (string, bool) {
	p, ok := l.provinces[city]
	return p, ok
}

// Len reports the number of distinct cities.
func (l *Lookup) Len() int {
	return len(l.records)
}

// Records returns the accepted rows in file order, one per city.
func (l *Lookup) Records() []domain.StationRecord {
	out := make([]domain.StationRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Load opens the reference table at path and reads it with Read.
func Load(path string) (*Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station table: %w", err)
	}
	defer f.Close()

	lookup, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read station table %s: %w", path, err)
	}
	return lookup, nil
}

// Read parses a CSV station table. The header row is skipped. Rows with fewer
// than four fields, or with an empty province or city, are ignored. A city
// seen again later keeps its first province.
func Read(r io.Reader) (*Lookup, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	lookup := &Lookup{provinces: make(map[string]string)}

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return lookup, nil
		}
		return nil, err
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return lookup, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) < minFields {
			continue
		}
		province := strings.TrimSpace(row[provinceCol])
		city := strings.TrimSpace(row[cityCol])
		if province == "" || city == "" {
			continue
		}
		if _, seen := lookup.provinces[city]; seen {
			continue
		}
		lookup.provinces[city] = province
		lookup.records = append(lookup.records, domain.StationRecord{Province: province, City: city})
	}
}
