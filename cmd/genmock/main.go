// Command genmock writes a synthetic station table and SQL dump that the
// dispersion pipeline can run against. Output is deterministic for a given
// seed.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -provinces 6 -cities 5 -seed 42
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/temperature-dispersion/internal/dump"
)

var provinceNames = []string{
	"黑龙江", "吉林", "辽宁", "河北", "山东", "江苏", "浙江", "福建",
	"广东", "广西", "云南", "四川", "湖南", "湖北", "河南", "山西",
}

type city struct {
	province string
	name     string
	base     float64 // annual mean
	swing    float64 // half the summer/winter difference
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	provinces := flag.Int("provinces", 6, "number of provinces")
	cities := flag.Int("cities", 5, "cities per province")
	seed := flag.Uint64("seed", 42, "random seed")
	table := flag.String("table", dump.DefaultTable, "table name used in the dump")
	flag.Parse()

	if *provinces <= 0 || *provinces > len(provinceNames) {
		return fmt.Errorf("-provinces must be between 1 and %d", len(provinceNames))
	}
	if *cities <= 0 {
		return fmt.Errorf("-cities must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	all := generate(rng, *provinces, *cities)

	if err := os.MkdirAll(filepath.Join(*out, "dump"), 0o755); err != nil {
		return err
	}
	stationPath := filepath.Join(*out, "station.csv")
	if err := writeStations(stationPath, all); err != nil {
		return err
	}
	dumpPath := filepath.Join(*out, "dump", "china_data_insert.sql")
	if err := writeDump(dumpPath, *table, all, rng); err != nil {
		return err
	}

	fmt.Printf("Wrote %d stations to %s\n", len(all), stationPath)
	fmt.Printf("Wrote %d observations to %s\n", len(all)*12, dumpPath)
	return nil
}

func generate(rng *rand.Rand, provinces, cities int) []city {
	var all []city
	for p := range provinces {
		name := provinceNames[p]
		// Provinces further down the list are warmer and spread wider.
		base := -5 + float64(p)*2.5
		spread := 1 + rng.Float64()*float64(p+1)
		for c := range cities {
			all = append(all, city{
				province: name,
				name:     fmt.Sprintf("%s%02d", name, c+1),
				base:     round1(base + rng.NormFloat64()*spread),
				swing:    round1(8 + rng.Float64()*10),
			})
		}
	}
	return all
}

func writeStations(path string, all []city) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"station_id", "station_name", "province", "city", "lat", "lon"}); err != nil {
		return err
	}
	for i, c := range all {
		row := []string{
			strconv.Itoa(50000 + i),
			c.name + "站",
			c.province,
			c.name,
			"0", "0",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeDump(path, table string, all []city, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "-- synthetic temperature dump\n")
	fmt.Fprintf(w, "DROP TABLE IF EXISTS `%s`;\n", table)
	fmt.Fprintf(w, "CREATE TABLE `%s` (\n  `month` int NOT NULL,\n  `city` varchar(64) NOT NULL,\n  `temp` double NOT NULL\n);\n", table)
	fmt.Fprintf(w, "INSERT INTO `%s` VALUES\n", table)

	tuples := make([]string, 0, len(all)*12)
	for _, c := range all {
		for m := 1; m <= 12; m++ {
			// Coldest in January, warmest in July.
			seasonal := -math.Cos(float64(m-1) * math.Pi / 6)
			v := round1(c.base + c.swing*seasonal + rng.NormFloat64()*0.8)
			tuples = append(tuples, fmt.Sprintf("(%d,'%s',%s)", m, c.name, strconv.FormatFloat(v, 'f', 1, 64)))
		}
	}
	fmt.Fprintf(w, "%s;\n", strings.Join(tuples, ",\n"))
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
