package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "usagecsv",
	Short: "Convert utility and sensor exports to normalized CSV",
	Long: `usagecsv converts utility provider usage archives and thermometer
sensor exports into per-series CSV files with stable names and headers.`,
}
