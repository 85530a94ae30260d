package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseProviderExport reads one provider CSV from r into acc, keyed by
// usage-type label. Rows are discarded until the header row whose first
// field is "TYPE"; the header itself is consumed. Every later row is
// positional data:
//
//	label, date, start time, end time, usage, notes...
//
// Start and end become "date time" strings. A missing TYPE header, a short
// data row, or a non-numeric usage field fails the whole parse with
// ErrMalformedInput; nothing is skipped mid-stream.
func ParseProviderExport(r io.Reader, acc map[string]UsageSeries) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // preamble rows vary in width

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: no TYPE header row", ErrMalformedInput)
		}
		if err != nil {
			return fmt.Errorf("reading provider export: %w", err)
		}
		if row[0] == "TYPE" {
			break
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading provider export: %w", err)
		}
		if len(row) < 5 {
			return fmt.Errorf("%w: data row has %d fields, want at least 5", ErrMalformedInput, len(row))
		}
		usage, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return fmt.Errorf("%w: usage %q is not numeric", ErrMalformedInput, row[4])
		}

		label, date := row[0], row[1]
		acc[label] = append(acc[label], UsageRecord{
			Start: date + " " + row[2],
			End:   date + " " + row[3],
			Usage: usage,
		})
	}
}

// ParseSensorExport reads one sensor CSV from r into acc under the series
// key derived from filename. The first row is a header and is always
// discarded regardless of content. Data rows are positional:
//
//	timestamp, temperature (°F), relative humidity (%)
//
// An empty file, a short row, or a non-numeric measurement fails with
// ErrMalformedInput.
func ParseSensorExport(r io.Reader, filename string, acc map[string]SensorSeries) error {
	series := SensorSeriesName(filename)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: sensor export %s has no header row", ErrMalformedInput, filepath.Base(filename))
	} else if err != nil {
		return fmt.Errorf("reading sensor export: %w", err)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading sensor export: %w", err)
		}
		if len(row) < 3 {
			return fmt.Errorf("%w: sample row has %d fields, want at least 3", ErrMalformedInput, len(row))
		}
		temp, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return fmt.Errorf("%w: temperature %q is not numeric", ErrMalformedInput, row[1])
		}
		humidity, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return fmt.Errorf("%w: humidity %q is not numeric", ErrMalformedInput, row[2])
		}

		acc[series] = append(acc[series], SensorRecord{
			Timestamp: row[0],
			TempF:     temp,
			Humidity:  humidity,
		})
	}
}

// SensorSeriesName derives the series key from a sensor export path: the
// base name up to the first underscore, lower-cased, with "_temp" appended.
// "Kitchen_export_202412.csv" → "kitchen_temp". A base name without an
// underscore is used whole, extension included.
func SensorSeriesName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), "_")
	return strings.ToLower(name) + "_temp"
}
