package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/catalog"
	"github.com/sells-group/asin-match/internal/progress"
)

var (
	runInput     string
	runOutputDir string
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match a catalog file against Amazon",
	Long: `Reads a catalog (CSV or XLSX with product, cost and UPC/EAN columns),
searches Amazon for every product, and writes two CSV files to the output
directory: every candidate listing found, and the best match per product.

Examples:
  # Parse the catalog only
  asin-match run --input products.csv --dry-run

  # Full run, results in ./out
  asin-match run --input products.xlsx --output-dir out`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rows, err := catalog.Load(runInput, catalogColumns())
		if err != nil {
			return eris.Wrap(err, "run: load catalog")
		}
		zap.L().Info("loaded catalog", zap.String("file", runInput), zap.Int("rows", len(rows)))

		if runDryRun {
			return printJSON(cmd.OutOrStdout(), rows)
		}

		env, err := initEnv("run")
		if err != nil {
			return err
		}

		outDir := runOutputDir
		if outDir == "" {
			outDir = cfg.Output.Dir
		}

		rep := progress.Multi(progress.Logger(zap.L()), terminalReporter(cmd.ErrOrStderr()))
		res, err := env.newRunner(outDir, rep, nil).Run(cmd.Context(), rows)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		return printJSON(cmd.OutOrStdout(), res.Summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "catalog file, .csv or .xlsx (required)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for result CSVs (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "parse the catalog and print rows, skip searching")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

// terminalReporter prints progress lines for a person watching the run.
func terminalReporter(w io.Writer) progress.Reporter {
	return progress.ReporterFunc(func(e progress.Event) {
		fmt.Fprintf(w, "[%s] %s\n", e.Phase, e.Message) //nolint:errcheck
	})
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
