// Command validate checks a directory of converted CSV outputs against the
// converter's contracts: file naming, header schema, record formatting, and
// filename date ranges matching the data inside.
//
// Usage:
//
//	go run ./cmd/validate -dir out/ [-catalog catalog.yaml]
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mosslantern/usagecsv/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// outputFile is one converted CSV with its parsed name parts and rows.
type outputFile struct {
	path   string
	series string
	first  string
	last   string
	header []string
	rows   [][]string
	sensor bool
}

func main() {
	dir := flag.String("dir", "", "directory of converted CSV files to validate")
	catalogFile := flag.String("catalog", "", "YAML file overriding the usage type catalog")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *catalogFile); code != 0 {
		os.Exit(code)
	}
}

func run(dir, catalogFile string) int {
	catalog, err := domain.LoadCatalog(catalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	fmt.Println("=== Converted Output Validation ===")
	fmt.Println()

	files, err := loadOutputs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load outputs: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no CSV files in %s\n", dir)
		return 1
	}

	phases := []*phase{
		validateNaming(files),
		validateHeaders(files, catalog),
		validateRecords(files),
		validateDateRanges(files),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	totalRows := 0
	for i := range files {
		totalRows += len(files[i].rows)
	}
	fmt.Printf("\nFiles: %d, data rows: %d\n", len(files), totalRows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadOutputs(dir string) ([]outputFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []outputFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		f, err := loadOutput(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func loadOutput(path string) (outputFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return outputFile{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return outputFile{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(all) == 0 {
		return outputFile{}, fmt.Errorf("%s: empty file", path)
	}

	out := outputFile{path: path, header: all[0], rows: all[1:]}

	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	if parts := strings.Split(name, "_"); len(parts) >= 3 {
		out.series = strings.Join(parts[:len(parts)-2], "_")
		out.first = parts[len(parts)-2]
		out.last = parts[len(parts)-1]
	} else {
		out.series = name
	}
	out.sensor = strings.HasSuffix(out.series, "_temp")
	return out, nil
}

// ── Phase 1: File naming ──
// Every output is named {series}_{first}_{last}.csv with YYYYMMDD dates.

func validateNaming(files []outputFile) *phase {
	p := &phase{name: "Phase 1: File naming"}
	for _, f := range files {
		base := filepath.Base(f.path)
		if f.first == "" || f.last == "" {
			p.errorf("%s: name is not {series}_{first}_{last}.csv", base)
			continue
		}
		first, err := time.Parse("20060102", f.first)
		if err != nil {
			p.errorf("%s: first date %q is not YYYYMMDD", base, f.first)
			continue
		}
		last, err := time.Parse("20060102", f.last)
		if err != nil {
			p.errorf("%s: last date %q is not YYYYMMDD", base, f.last)
			continue
		}
		if last.Before(first) {
			p.errorf("%s: last date precedes first date", base)
		}
	}
	return p
}

// ── Phase 2: Header schema ──
// Usage outputs carry start,end,usage_{unit} for a catalog series; sensor
// outputs carry timestamp,temp_degf,relative_humidity.

func validateHeaders(files []outputFile, catalog domain.Catalog) *phase {
	p := &phase{name: "Phase 2: Header schema"}

	unitsByName := make(map[string]string, len(catalog))
	for _, ut := range catalog {
		unitsByName[ut.Name] = ut.Unit
	}

	for _, f := range files {
		base := filepath.Base(f.path)
		if f.sensor {
			want := []string{"timestamp", "temp_degf", "relative_humidity"}
			if !slices.Equal(f.header, want) {
				p.errorf("%s: header %v, want %v", base, f.header, want)
			}
			continue
		}

		unit, ok := unitsByName[f.series]
		if !ok {
			p.errorf("%s: series %q is not in the catalog", base, f.series)
			continue
		}
		want := []string{"start", "end", "usage_" + unit}
		if !slices.Equal(f.header, want) {
			p.errorf("%s: header %v, want %v", base, f.header, want)
		}
	}
	return p
}

// ── Phase 3: Record formatting ──
// Rows are full-width, timestamps are present, and numeric fields carry an
// explicit decimal point.

func validateRecords(files []outputFile) *phase {
	p := &phase{name: "Phase 3: Record formatting"}
	for _, f := range files {
		base := filepath.Base(f.path)
		if len(f.rows) == 0 {
			p.errorf("%s: no data rows", base)
			continue
		}
		for i, row := range f.rows {
			line := i + 2
			if len(row) != len(f.header) {
				p.errorf("%s line %d: %d fields, want %d", base, line, len(row), len(f.header))
				continue
			}
			if f.sensor {
				checkTimestamp(p, base, line, row[0])
				checkNumber(p, base, line, f.header[1], row[1])
				checkNumber(p, base, line, f.header[2], row[2])
			} else {
				checkTimestamp(p, base, line, row[0])
				checkTimestamp(p, base, line, row[1])
				checkNumber(p, base, line, f.header[2], row[2])
			}
		}
	}
	return p
}

func checkTimestamp(p *phase, file string, line int, v string) {
	if strings.TrimSpace(v) == "" {
		p.errorf("%s line %d: empty timestamp field", file, line)
	}
}

func checkNumber(p *phase, file string, line int, col, v string) {
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		p.errorf("%s line %d: %s %q is not numeric", file, line, col, v)
		return
	}
	if !strings.Contains(v, ".") {
		p.errorf("%s line %d: %s %q lacks a decimal point", file, line, col, v)
	}
}

// ── Phase 4: Date ranges ──
// Re-derives each file's range from its rows and compares with the name.

func validateDateRanges(files []outputFile) *phase {
	p := &phase{name: "Phase 4: Date ranges"}
	for _, f := range files {
		base := filepath.Base(f.path)
		if len(f.rows) == 0 || f.first == "" {
			continue // already reported by earlier phases
		}

		first, last, err := rangeFromRows(f)
		if err != nil {
			p.errorf("%s: %v", base, err)
			continue
		}
		if first != f.first || last != f.last {
			p.errorf("%s: data spans %s..%s but name says %s..%s", base, first, last, f.first, f.last)
		}
	}
	return p
}

func rangeFromRows(f outputFile) (string, string, error) {
	if f.sensor {
		series := make(domain.SensorSeries, 0, len(f.rows))
		for _, row := range f.rows {
			if len(row) > 0 {
				series = append(series, domain.SensorRecord{Timestamp: row[0]})
			}
		}
		return series.DateRange()
	}

	series := make(domain.UsageSeries, 0, len(f.rows))
	for _, row := range f.rows {
		if len(row) > 0 {
			series = append(series, domain.UsageRecord{Start: row[0]})
		}
	}
	return series.DateRange()
}
