package domain

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pseExport = `Name,JOHN DOE
Address,"123 MAIN ST"
Account Number,1
Service,Service 1

TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES
Electric usage,2024-12-01,00:00,00:30,1.5,
`

func TestParseProviderExport(t *testing.T) {
	t.Run("single interval", func(t *testing.T) {
		acc := map[string]UsageSeries{}
		err := ParseProviderExport(strings.NewReader(pseExport), acc)

		require.NoError(t, err)
		require.Len(t, acc, 1)
		require.Len(t, acc["Electric usage"], 1)
		assert.Equal(t, UsageRecord{
			Start: "2024-12-01 00:00",
			End:   "2024-12-01 00:30",
			Usage: 1.5,
		}, acc["Electric usage"][0])
	})

	t.Run("mixed series in one file", func(t *testing.T) {
		export := `Name,JOHN DOE

TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES
Electric usage,2024-12-01,00:00,00:30,1.5,
Electric usage,2024-12-01,00:30,01:00,1.25,
Natural gas usage,2024-12-01,00:00,23:59,4.0,estimated
`
		acc := map[string]UsageSeries{}
		require.NoError(t, ParseProviderExport(strings.NewReader(export), acc))

		want := map[string]UsageSeries{
			"Electric usage": {
				{Start: "2024-12-01 00:00", End: "2024-12-01 00:30", Usage: 1.5},
				{Start: "2024-12-01 00:30", End: "2024-12-01 01:00", Usage: 1.25},
			},
			"Natural gas usage": {
				{Start: "2024-12-01 00:00", End: "2024-12-01 23:59", Usage: 4.0},
			},
		}
		if diff := cmp.Diff(want, acc); diff != "" {
			t.Fatalf("accumulated series mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("accumulates across files", func(t *testing.T) {
		first := "TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES\nElectric usage,2024-12-01,00:00,00:30,1.5,\n"
		second := "TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES\nElectric usage,2024-12-02,00:00,00:30,2.5,\n"

		acc := map[string]UsageSeries{}
		require.NoError(t, ParseProviderExport(strings.NewReader(first), acc))
		require.NoError(t, ParseProviderExport(strings.NewReader(second), acc))

		require.Len(t, acc["Electric usage"], 2)
		assert.Equal(t, "2024-12-01 00:00", acc["Electric usage"][0].Start)
		assert.Equal(t, "2024-12-02 00:00", acc["Electric usage"][1].Start)
	})

	t.Run("row count matches data rows", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("Account Number,1\n\nTYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES\n")
		for i := 0; i < 48; i++ {
			sb.WriteString("Electric usage,2024-12-01,00:00,00:30,1.0,\n")
		}

		acc := map[string]UsageSeries{}
		require.NoError(t, ParseProviderExport(strings.NewReader(sb.String()), acc))
		assert.Len(t, acc["Electric usage"], 48)
	})

	t.Run("missing TYPE header", func(t *testing.T) {
		export := "Name,JOHN DOE\nAddress,SOMEWHERE\n"
		err := ParseProviderExport(strings.NewReader(export), map[string]UsageSeries{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.Contains(t, err.Error(), "TYPE")
	})

	t.Run("empty input", func(t *testing.T) {
		err := ParseProviderExport(strings.NewReader(""), map[string]UsageSeries{})
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("non-numeric usage", func(t *testing.T) {
		export := "TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES\nElectric usage,2024-12-01,00:00,00:30,n/a,\n"
		err := ParseProviderExport(strings.NewReader(export), map[string]UsageSeries{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.Contains(t, err.Error(), `"n/a"`)
	})

	t.Run("short data row", func(t *testing.T) {
		export := "TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES\nElectric usage,2024-12-01\n"
		err := ParseProviderExport(strings.NewReader(export), map[string]UsageSeries{})
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("row without notes column", func(t *testing.T) {
		// Some exports drop the trailing NOTES field entirely.
		export := "TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES\nElectric usage,2024-12-01,00:00,00:30,1.5\n"
		acc := map[string]UsageSeries{}

		require.NoError(t, ParseProviderExport(strings.NewReader(export), acc))
		assert.Len(t, acc["Electric usage"], 1)
	})
}

func TestParseSensorExport(t *testing.T) {
	const header = "Timestamp for sample frequency every 1 min min,Temperature_Fahrenheit,Relative_Humidity\n"

	t.Run("two samples", func(t *testing.T) {
		export := header + "2024-12-01 00:00,70.5,45.0\n2024-12-02 00:00,71.0,46.0\n"
		acc := map[string]SensorSeries{}

		require.NoError(t, ParseSensorExport(strings.NewReader(export), "kitchen_export.csv", acc))
		require.Len(t, acc["kitchen_temp"], 2)
		assert.Equal(t, SensorRecord{Timestamp: "2024-12-01 00:00", TempF: 70.5, Humidity: 45.0}, acc["kitchen_temp"][0])
		assert.Equal(t, SensorRecord{Timestamp: "2024-12-02 00:00", TempF: 71.0, Humidity: 46.0}, acc["kitchen_temp"][1])
	})

	t.Run("header is discarded unconditionally", func(t *testing.T) {
		// Even a header that looks like data is dropped.
		export := "2024-11-30 23:59,69.0,44.0\n2024-12-01 00:00,70.5,45.0\n"
		acc := map[string]SensorSeries{}

		require.NoError(t, ParseSensorExport(strings.NewReader(export), "kitchen_export.csv", acc))
		require.Len(t, acc["kitchen_temp"], 1)
		assert.Equal(t, "2024-12-01 00:00", acc["kitchen_temp"][0].Timestamp)
	})

	t.Run("accumulates across files of one device", func(t *testing.T) {
		acc := map[string]SensorSeries{}
		require.NoError(t, ParseSensorExport(strings.NewReader(header+"2024-12-01 00:00,70.5,45.0\n"), "Kitchen_export_202412.csv", acc))
		require.NoError(t, ParseSensorExport(strings.NewReader(header+"2025-01-01 00:00,68.0,50.0\n"), "Kitchen_export_202501.csv", acc))

		require.Len(t, acc, 1)
		assert.Len(t, acc["kitchen_temp"], 2)
	})

	t.Run("empty file", func(t *testing.T) {
		err := ParseSensorExport(strings.NewReader(""), "kitchen_export.csv", map[string]SensorSeries{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("header only", func(t *testing.T) {
		acc := map[string]SensorSeries{}
		require.NoError(t, ParseSensorExport(strings.NewReader(header), "kitchen_export.csv", acc))
		assert.Empty(t, acc)
	})

	t.Run("non-numeric temperature", func(t *testing.T) {
		export := header + "2024-12-01 00:00,--,45.0\n"
		err := ParseSensorExport(strings.NewReader(export), "kitchen_export.csv", map[string]SensorSeries{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.Contains(t, err.Error(), "temperature")
	})

	t.Run("non-numeric humidity", func(t *testing.T) {
		export := header + "2024-12-01 00:00,70.5,err\n"
		err := ParseSensorExport(strings.NewReader(export), "kitchen_export.csv", map[string]SensorSeries{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.Contains(t, err.Error(), "humidity")
	})

	t.Run("short sample row", func(t *testing.T) {
		export := header + "2024-12-01 00:00,70.5\n"
		err := ParseSensorExport(strings.NewReader(export), "kitchen_export.csv", map[string]SensorSeries{})
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
}

func TestSensorSeriesName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "device prefix", path: "Kitchen_export_202412.csv", want: "kitchen_temp"},
		{name: "lower-case input", path: "kitchen_export.csv", want: "kitchen_temp"},
		{name: "full path", path: "/tmp/in/Bedroom_export_202412.csv", want: "bedroom_temp"},
		{name: "timestamped export", path: "Master_export202412260840.csv", want: "master_temp"},
		{name: "no underscore keeps extension", path: "garage.csv", want: "garage.csv_temp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SensorSeriesName(tt.path))
		})
	}
}
