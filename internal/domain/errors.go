package domain

import "errors"

// Sentinel errors for export parsing and series emission.
var (
	// ErrMalformedInput indicates an export that does not match the expected
	// layout: a provider file whose TYPE header never appears, a short data
	// row, or a non-numeric measurement field.
	ErrMalformedInput = errors.New("malformed export input")

	// ErrUnknownUsageType indicates a provider usage-type label with no
	// catalog entry.
	ErrUnknownUsageType = errors.New("unknown usage type")

	// ErrEmptySeries indicates a series with no records, for which no date
	// range (and so no output file name) exists.
	ErrEmptySeries = errors.New("series has no records")
)
