package station_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/temperature-dispersion/internal/domain"
	"github.com/couchcryptid/temperature-dispersion/internal/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationCSV = `id,name,province,city
1,白云,广东,广州
2,宝安,广东,深圳
3,short,row
4,blank-province,,珠海
5,blank-city,湖南,
6,重复,湖北,广州
7,望城, 湖南 , 长沙
`

func TestRead(t *testing.T) {
	lookup, err := station.Read(strings.NewReader(stationCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, lookup.Len())

	tests := []struct {
		city     string
		province string
		found    bool
	}{
		{"广州", "广东", true},
		{"深圳", "广东", true},
		{"长沙", "湖南", true},
		{"珠海", "", false},
		{"name", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			p, ok := lookup.Province(tt.city)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.province, p)
		})
	}

	assert.Equal(t, []domain.StationRecord{
		{Province: "广东", City: "广州"},
		{Province: "广东", City: "深圳"},
		{Province: "湖南", City: "长沙"},
	}, lookup.Records())
}

func TestRead_FirstOccurrenceWins(t *testing.T) {
	input := "h0,h1,h2,h3\n" +
		"a,b,North,Alpha\n" +
		"a,b,South,Alpha\n"

	lookup, err := station.Read(strings.NewReader(input))
	require.NoError(t, err)

	p, ok := lookup.Province("Alpha")
	require.True(t, ok)
	assert.Equal(t, "North", p)
}

func TestRead_HeaderOnlyAndEmpty(t *testing.T) {
	for name, input := range map[string]string{
		"empty":       "",
		"header only": "id,name,province,city\n",
	} {
		t.Run(name, func(t *testing.T) {
			lookup, err := station.Read(strings.NewReader(input))
			require.NoError(t, err)
			assert.Equal(t, 0, lookup.Len())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.csv")
	require.NoError(t, os.WriteFile(path, []byte(stationCSV), 0o644))

	lookup, err := station.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, lookup.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := station.Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "open station table")
}
