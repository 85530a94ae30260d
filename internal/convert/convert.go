// Package convert turns provider and sensor export files into normalized
// per-series CSV files.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mosslantern/usagecsv/internal/archive"
	"github.com/mosslantern/usagecsv/internal/domain"
	"github.com/mosslantern/usagecsv/internal/observability"
)

// Converter runs the parse-and-emit pipeline over one batch of input files.
type Converter struct {
	catalog domain.Catalog
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Converter emitting series under the given catalog.
func New(catalog domain.Catalog, logger *slog.Logger, metrics *observability.Metrics) *Converter {
	return &Converter{
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
	}
}

// Convert classifies every input path by suffix, parses provider archives
// and sensor CSVs into per-series accumulators, then writes one output CSV
// per series into outDir and returns the written paths. Provider series are
// emitted before sensor series, each group in sorted key order.
//
// Parse and write failures abort the run. Unknown usage-type labels do not:
// they are collected and returned joined after every resolvable series has
// been written, so a stray label cannot cost valid series their output.
func (c *Converter) Convert(paths []string, outDir string) ([]string, error) {
	usage := map[string]domain.UsageSeries{}
	sensor := map[string]domain.SensorSeries{}

	for _, path := range paths {
		// The suffix checks are independent, not an if/else chain; a name
		// somehow carrying both suffixes feeds both parsers.
		if strings.HasSuffix(path, ".zip") {
			if err := c.parseArchive(path, usage); err != nil {
				return nil, err
			}
		}
		if strings.HasSuffix(path, ".csv") {
			if err := c.parseSensorFile(path, sensor); err != nil {
				return nil, err
			}
		}
	}

	written := make([]string, 0, len(usage)+len(sensor))
	var unknown []error

	for _, label := range slices.Sorted(maps.Keys(usage)) {
		series := usage[label]
		ut, err := c.catalog.Lookup(label)
		if err != nil {
			unknown = append(unknown, err)
			continue
		}

		path, err := writeUsageCSV(outDir, ut, series)
		if err != nil {
			return written, err
		}
		written = append(written, path)
		c.metrics.FilesWritten.WithLabelValues("provider").Inc()
		c.metrics.RecordsParsed.WithLabelValues("provider").Add(float64(len(series)))
		c.logger.Info("wrote provider series",
			"label", label, "file", filepath.Base(path), "records", len(series))
	}

	for _, name := range slices.Sorted(maps.Keys(sensor)) {
		series := sensor[name]
		path, err := writeSensorCSV(outDir, name, series)
		if err != nil {
			return written, err
		}
		written = append(written, path)
		c.metrics.FilesWritten.WithLabelValues("sensor").Inc()
		c.metrics.RecordsParsed.WithLabelValues("sensor").Add(float64(len(series)))
		c.logger.Info("wrote sensor series",
			"series", name, "file", filepath.Base(path), "records", len(series))
	}

	return written, errors.Join(unknown...)
}

// parseArchive expands a provider zip into a scoped temp directory and runs
// the provider parser over every .csv directly inside it.
func (c *Converter) parseArchive(path string, acc map[string]domain.UsageSeries) error {
	extractDir, err := os.MkdirTemp("", "usagecsv-extract-")
	if err != nil {
		return fmt.Errorf("creating extraction dir: %w", err)
	}
	defer os.RemoveAll(extractDir)

	if err := archive.Expand(path, extractDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return fmt.Errorf("listing extraction dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		f, err := os.Open(filepath.Join(extractDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("opening provider export: %w", err)
		}
		err = domain.ParseProviderExport(f, acc)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		c.logger.Debug("parsed provider export", "archive", filepath.Base(path), "file", entry.Name())
	}
	return nil
}

func (c *Converter) parseSensorFile(path string, acc map[string]domain.SensorSeries) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening sensor export: %w", err)
	}
	defer f.Close()

	if err := domain.ParseSensorExport(f, path, acc); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	c.logger.Debug("parsed sensor export", "file", filepath.Base(path))
	return nil
}
