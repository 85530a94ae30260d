// Command usagecsv converts utility provider and sensor exports to
// normalized CSV, either one-shot from the command line or as a long-lived
// service in front of object storage.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
