package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/classplan/app/plugins"
	"github.com/kilianp07/classplan/infra/catalog/csvfile"
	"github.com/kilianp07/classplan/infra/catalog/sqlite"
)

var catalogOpts struct {
	out     string
	csvOut  string
	catalog string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog related commands",
}

var catalogFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the configured catalog once and write the SQLite cache",
	RunE:  runCatalogFetch,
}

var catalogLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List classes in the catalog",
	RunE:  runCatalogLs,
}

var catalogSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available catalog sources and metrics sinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		avail := plugins.Available()
		kinds := make([]string, 0, len(avail))
		for k := range avail {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, avail[k])
		}
		return nil
	},
}

func init() {
	catalogFetchCmd.Flags().StringVarP(&catalogOpts.out, "out", "o", "", "SQLite cache path; defaults to catalog.cache.path")
	catalogFetchCmd.Flags().StringVar(&catalogOpts.csvOut, "csv", "", "also write the catalog as CSV")
	catalogLsCmd.Flags().StringVar(&catalogOpts.catalog, "catalog", "", "catalog CSV file; defaults to the configured source")
	catalogCmd.AddCommand(catalogFetchCmd, catalogLsCmd, catalogSourcesCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	ctx := context.Background()
	cat, err := openCatalog(ctx, cfg, "")
	if err != nil {
		return err
	}
	path := catalogOpts.out
	if path == "" {
		path = cfg.Catalog.Cache.Path
	}
	store, err := sqlite.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(ctx, cat); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	if catalogOpts.csvOut != "" {
		f, err := os.Create(catalogOpts.csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := csvfile.Write(f, cat, ','); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d classes, %d sections written to %s\n", cat.Len(), cat.SectionCount(), path)
	return nil
}

func runCatalogLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, catalogOpts.catalog != "")
	if err != nil {
		return err
	}
	cat, err := openCatalog(context.Background(), cfg, catalogOpts.catalog)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, k := range cat.Classes() {
		secs, _ := cat.Sections(k)
		types, _ := cat.TypesFor(k)
		fmt.Fprintf(tw, "%s\t%s\t%d sections\t%v\n", k, cat.Title(k), len(secs), types)
	}
	return tw.Flush()
}
