// Command genmock generates deterministic provider and sensor export
// fixtures, then runs them through the converter to prove they parse.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/mock -days 2 -devices Bedroom,Kitchen
package main

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mosslantern/usagecsv/internal/convert"
	"github.com/mosslantern/usagecsv/internal/domain"
	"github.com/mosslantern/usagecsv/internal/observability"
)

const (
	dayFormat   = "2006-01-02"
	clockFormat = "15:04"
	stampFormat = "200601021504"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for generated fixtures")
	start := flag.String("start", "2024-12-01", "first day of generated data (YYYY-MM-DD)")
	days := flag.Int("days", 2, "number of days to generate")
	interval := flag.Int("interval", 30, "provider reading interval in minutes")
	sensorInterval := flag.Int("sensor-interval", 60, "sensor reading interval in minutes")
	devices := flag.String("devices", "Bedroom,Kitchen", "comma-separated sensor device names")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return errors.New("missing required flag: -out")
	}
	if *days < 1 || *interval < 1 || *sensorInterval < 1 {
		return errors.New("-days, -interval, and -sensor-interval must be positive")
	}

	startDay, err := time.Parse(dayFormat, *start)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	var inputs []string

	zipPath := filepath.Join(*outDir, "pse_export.zip")
	if err := writeProviderArchive(zipPath, startDay, *days, *interval); err != nil {
		return fmt.Errorf("writing provider archive: %w", err)
	}
	log.Printf("wrote %s", zipPath)
	inputs = append(inputs, zipPath)

	stamp := startDay.AddDate(0, 0, *days).Format(stampFormat)
	for _, device := range strings.Split(*devices, ",") {
		device = strings.TrimSpace(device)
		if device == "" {
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s_export%s.csv", device, stamp))
		rows, err := writeSensorExport(path, startDay, *days, *sensorInterval)
		if err != nil {
			return fmt.Errorf("writing sensor export for %s: %w", device, err)
		}
		log.Printf("wrote %s (%d rows)", path, rows)
		inputs = append(inputs, path)
	}

	// Round-trip the fixtures through the converter so a broken generator
	// fails here instead of inside a test suite.
	convertedDir := filepath.Join(*outDir, "converted")
	if err := os.MkdirAll(convertedDir, 0o755); err != nil {
		return err
	}
	logger := observability.NewLogger("warn", "text")
	conv := convert.New(domain.DefaultCatalog(), logger, observability.NewMetrics())
	written, err := conv.Convert(inputs, convertedDir)
	if err != nil {
		return fmt.Errorf("converting generated fixtures: %w", err)
	}
	for _, path := range written {
		log.Printf("converted: %s", path)
	}
	return nil
}

// writeProviderArchive writes a zip holding an electric and a gas export in
// the provider's layout: account preamble, blank line, TYPE header, data.
func writeProviderArchive(path string, start time.Time, days, interval int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(f)

	electric, err := zw.Create("electric.csv")
	if err != nil {
		f.Close()
		return err
	}
	if err := writeRows(csv.NewWriter(electric), electricRows(start, days, interval)); err != nil {
		f.Close()
		return err
	}

	gas, err := zw.Create("gas.csv")
	if err != nil {
		f.Close()
		return err
	}
	if err := writeRows(csv.NewWriter(gas), gasRows(start, days)); err != nil {
		f.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func providerPreamble(usageHeader string) [][]string {
	return [][]string{
		{"Name", "MOCK CUSTOMER"},
		{"Address", "123 MOCK ST"},
		{"Account Number", "1"},
		{},
		{"TYPE", "DATE", "START TIME", "END TIME", usageHeader, "NOTES"},
	}
}

func electricRows(start time.Time, days, interval int) [][]string {
	rows := providerPreamble("USAGE (kWh)")
	perDay := (24 * 60) / interval
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day).Format(dayFormat)
		for slot := 0; slot < perDay; slot++ {
			begin := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(slot*interval) * time.Minute)
			end := begin.Add(time.Duration(interval) * time.Minute)
			usage := 0.2 + 0.05*float64((day*perDay+slot)%24)
			rows = append(rows, []string{
				"Electric usage",
				date,
				begin.Format(clockFormat),
				end.Format(clockFormat),
				strconv.FormatFloat(usage, 'f', 2, 64),
				"",
			})
		}
	}
	return rows
}

func gasRows(start time.Time, days int) [][]string {
	rows := providerPreamble("USAGE (CCF)")
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day).Format(dayFormat)
		usage := 1.5 + 0.1*float64(day%7)
		rows = append(rows, []string{
			"Natural gas usage",
			date,
			"00:00",
			"23:59",
			strconv.FormatFloat(usage, 'f', 2, 64),
			"",
		})
	}
	return rows
}

func writeSensorExport(path string, start time.Time, days, interval int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(f)
	header := fmt.Sprintf("Timestamp for sample frequency every %d min min", interval)
	rows := [][]string{{header, "Temperature_Fahrenheit", "Relative_Humidity"}}

	total := (days * 24 * 60) / interval
	for i := 0; i < total; i++ {
		ts := start.Add(time.Duration(i*interval) * time.Minute)
		temp := 65.0 + float64((i*3)%120)/10
		humidity := 38.0 + float64((i*7)%250)/10
		rows = append(rows, []string{
			ts.Format(dayFormat + " " + clockFormat),
			strconv.FormatFloat(temp, 'f', 1, 64),
			strconv.FormatFloat(humidity, 'f', 1, 64),
		})
	}

	if err := writeRows(w, rows); err != nil {
		f.Close()
		return 0, err
	}
	return total, f.Close()
}

func writeRows(w *csv.Writer, rows [][]string) error {
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
