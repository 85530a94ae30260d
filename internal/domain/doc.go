// Package domain models home utility-usage and sensor exports.
//
// # Provider Exports
//
// Provider exports are Puget Sound Energy (PSE) "Download my data" bundles:
// a zip archive holding one CSV per metered service. Each CSV opens with a
// key/value preamble (account holder, address, service number) whose length
// varies by account, followed by a header row whose first field is literally
// "TYPE", followed by interval rows:
//
//	Name,JOHN DOE
//	Address,"123 MAIN ST"
//	Account Number,1234
//	Service,Service 1
//
//	TYPE,DATE,START TIME,END TIME,USAGE (kWh),NOTES
//	Electric usage,2024-12-01,00:00,00:30,1.5,
//
// Electric usage arrives as 30-minute intervals in kWh; natural gas arrives
// as one row per day in CCF. The TYPE label, not the file name, decides
// which series a row belongs to, so one file can carry several series and
// several files can feed one series. Row timestamps are kept as the verbatim
// "DATE START TIME" / "DATE END TIME" strings; nothing here parses times or
// handles zones.
//
// # Sensor Exports
//
// Sensor exports come from Govee thermo-hygrometers: one CSV per device with
// a single header row and one sample per row:
//
//	Timestamp for sample frequency every 1 min min,Temperature_Fahrenheit,Relative_Humidity
//	2024-12-01 00:00,70.5,45.0
//
// The device name is encoded in the file name ("Kitchen_export_202412.csv"):
// everything before the first underscore, lower-cased, names the series, with
// a fixed "_temp" suffix appended ("kitchen_temp").
//
// # Ordering
//
// Both export kinds list rows in ascending time order. Parsing preserves row
// order, and a series' date range is read from its first and last record;
// nothing here sorts.
package domain
