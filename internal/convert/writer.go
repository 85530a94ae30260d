package convert

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mosslantern/usagecsv/internal/domain"
)

// writeUsageCSV emits one provider series as
// {outDir}/{name}_{first}_{last}.csv with a unit-tagged usage column.
func writeUsageCSV(outDir string, ut domain.UsageType, series domain.UsageSeries) (string, error) {
	first, last, err := series.DateRange()
	if err != nil {
		return "", fmt.Errorf("%s series: %w", ut.Name, err)
	}

	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, []string{"start", "end", "usage_" + ut.Unit})
	for _, rec := range series {
		rows = append(rows, []string{rec.Start, rec.End, formatFloat(rec.Usage)})
	}

	return writeCSV(filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.csv", ut.Name, first, last)), rows)
}

// writeSensorCSV emits one sensor series as
// {outDir}/{series}_{first}_{last}.csv.
func writeSensorCSV(outDir, name string, series domain.SensorSeries) (string, error) {
	first, last, err := series.DateRange()
	if err != nil {
		return "", fmt.Errorf("%s series: %w", name, err)
	}

	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, []string{"timestamp", "temp_degf", "relative_humidity"})
	for _, rec := range series {
		rows = append(rows, []string{rec.Timestamp, formatFloat(rec.TempF), formatFloat(rec.Humidity)})
	}

	return writeCSV(filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.csv", name, first, last)), rows)
}

// writeCSV writes rows to path, overwriting any existing file.
func writeCSV(path string, rows [][]string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// formatFloat renders a measurement the way the source exports carry them:
// shortest fixed-point form, with integral values keeping a ".0" tail
// (1.5 → "1.5", 45 → "45.0").
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
