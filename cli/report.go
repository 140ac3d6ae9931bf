package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/export"
)

// The terminal is trusted like a back office, so reports run as this actor.
var cliSupervisor = drawer.Actor{ID: "cli", Name: "Command line", Role: drawer.RoleSupervisor}

func newReportCommand(a *app) *cobra.Command {
	var owner, date, format, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the daily report as csv, xlsx or pdf",
		Long: `Write the daily report for one operator or everyone, for one day or all days.

An empty --out or "-" writes to stdout. A path ending in "/" is a directory
and gets the standard report file name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := export.ForFormat(format)
			if err != nil {
				return err
			}
			q := drawer.ReportQuery{OwnerID: drawer.OwnerID(owner)}
			if date != "" {
				d, err := drawer.ParseDate(date)
				if err != nil {
					return err
				}
				q.Date = d
			}

			engine, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := engine.DailyReport(cmd.Context(), cliSupervisor, q)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), out, renderer, report)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only this operator (default: everyone)")
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default: every day)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func writeReport(stdout io.Writer, path string, rd export.Renderer, r drawer.Report) error {
	if path == "" || path == "-" {
		return rd.Render(stdout, r)
	}
	if path[len(path)-1] == '/' {
		path += export.Filename(r, rd)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := rd.Render(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}
