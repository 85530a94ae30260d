package domain

import "strings"

// UsageRecord is one metered interval from a provider export. Start and End
// are the source's "DATE TIME" strings joined verbatim.
type UsageRecord struct {
	Start string
	End   string
	Usage float64
}

// SensorRecord is one temperature/humidity sample from a sensor export.
type SensorRecord struct {
	Timestamp string
	TempF     float64
	Humidity  float64
}

// UsageSeries is an ordered run of provider intervals for one usage type.
type UsageSeries []UsageRecord

// SensorSeries is an ordered run of samples for one sensor.
type SensorSeries []SensorRecord

// DateRange returns the compact YYYYMMDD dates of the first and last
// interval. Fails with ErrEmptySeries when there are no records.
func (s UsageSeries) DateRange() (first, last string, err error) {
	if len(s) == 0 {
		return "", "", ErrEmptySeries
	}
	return compactDate(s[0].Start), compactDate(s[len(s)-1].Start), nil
}

// DateRange returns the compact YYYYMMDD dates of the first and last
// sample. Fails with ErrEmptySeries when there are no records.
func (s SensorSeries) DateRange() (first, last string, err error) {
	if len(s) == 0 {
		return "", "", ErrEmptySeries
	}
	return compactDate(s[0].Timestamp), compactDate(s[len(s)-1].Timestamp), nil
}

// compactDate reduces a "date time" string to its date part with the
// separators stripped: "2024-12-01 00:30" → "20241201".
func compactDate(ts string) string {
	date, _, _ := strings.Cut(ts, " ")
	return strings.ReplaceAll(date, "-", "")
}
