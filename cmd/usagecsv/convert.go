package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mosslantern/usagecsv/internal/convert"
	"github.com/mosslantern/usagecsv/internal/domain"
	"github.com/mosslantern/usagecsv/internal/observability"
)

var (
	convertOutDir  string
	convertCatalog string
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] FILE...",
	Short: "Convert provider and sensor exports to normalized CSV",
	Long: `Convert reads provider archive exports (.zip) and sensor exports (.csv)
and writes one normalized CSV per series into the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutDir, "out-dir", "o", ".", "directory for converted CSV files")
	convertCmd.Flags().StringVar(&convertCatalog, "catalog", "", "YAML file overriding the usage type catalog")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	catalog, err := domain.LoadCatalog(convertCatalog)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	if err := os.MkdirAll(convertOutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	logger := observability.NewLogger("warn", "text")
	conv := convert.New(catalog, logger, observability.NewMetrics())

	written, convErr := conv.Convert(args, convertOutDir)
	for _, path := range written {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	}
	return convErr
}
