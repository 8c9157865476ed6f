package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/classplan/config"
	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/solver"
	"github.com/kilianp07/classplan/infra/catalog/csvfile"
	"github.com/kilianp07/classplan/pkg/export"
	"github.com/kilianp07/classplan/qa/scenarios"
)

var solveOpts struct {
	request string
	catalog string
	format  string
	out     string
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a request file against a catalog and export the schedule",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveOpts.request, "request", "r", "", "request file (YAML)")
	solveCmd.Flags().StringVar(&solveOpts.catalog, "catalog", "", "catalog CSV file; defaults to the configured source")
	solveCmd.Flags().StringVarP(&solveOpts.format, "format", "f", "json", "output format: json, csv or ics")
	solveCmd.Flags().StringVarP(&solveOpts.out, "out", "o", "", "output file; defaults to stdout")
	_ = solveCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(solveCmd)
}

// openCatalog fetches from a CSV file when path is set, otherwise from the
// configured source.
func openCatalog(ctx context.Context, cfg *config.Config, path string) (*catalog.Catalog, error) {
	var src catalog.Source
	var err error
	if path != "" {
		src, err = csvfile.New(csvfile.Config{Path: path})
	} else {
		src, err = catalog.NewSource(cfg.Catalog.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog source: %w", err)
	}
	cat, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	return cat, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, solveOpts.catalog != "")
	if err != nil {
		return err
	}
	req, err := scenarios.LoadRequest(solveOpts.request)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	cs, err := req.Constraints()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := openCatalog(ctx, cfg, solveOpts.catalog)
	if err != nil {
		return err
	}
	res, err := solver.New(cfg.Solver).Solve(ctx, cat, cs)
	if err != nil {
		return err
	}
	if !res.Feasible() {
		return fmt.Errorf("no feasible schedule: %s", res.Reason)
	}

	var w io.Writer = cmd.OutOrStdout()
	if solveOpts.out != "" {
		f, err := os.Create(solveOpts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch solveOpts.format {
	case "json":
		return export.WriteJSON(w, cat, res.Assignment)
	case "csv":
		return export.WriteCSV(w, cat, res.Assignment)
	case "ics":
		start, err := cfg.Export.Start(time.Now())
		if err != nil {
			return err
		}
		return export.WriteICS(w, cat, res.Assignment, export.CalendarOptions{TermStart: start, Weeks: cfg.Export.Weeks})
	default:
		return fmt.Errorf("unknown format %q", solveOpts.format)
	}
}
