package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var (
	exportDir         string
	exportConcurrency int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole site as static files",
	RunE:  exportAction,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "dist", "output directory")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 8, "detail pages generated at once")
}

func exportAction(cmd *cobra.Command, _ []string) error {
	cfg, client, err := loadSource()
	if err != nil {
		return err
	}
	app := spacetraveling.New(cfg, client)
	defer func() { _ = app.Close() }()

	start := time.Now()
	report, err := app.Export(cmd.Context(), exportDir, exportConcurrency)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "exported %d page(s), %s to %s in %s\n",
		report.Pages, humanize.Bytes(uint64(report.Bytes)), exportDir, time.Since(start).Round(time.Millisecond))
	for _, f := range report.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed %s: %v\n", f.Path, f.Err)
	}
	return err
}
