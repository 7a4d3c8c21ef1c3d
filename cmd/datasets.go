package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"market-reports/internal/reports/convert"
	reports "market-reports/internal/reports/domain"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List known datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog := cfg.Catalog()
		registry := convert.DefaultRegistry()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATASET\tKIND\tEXT\tVARIANT\tCONVERTER")
		for _, id := range catalog.IDs() {
			ds := catalog[id]
			converter := "-"
			if ds.Kind == reports.KindSpreadsheet {
				converter = "yes"
				if _, err := registry.Lookup(id); err != nil {
					converter = "missing"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ds.ID, ds.Kind, ds.SourceExt, ds.Variant, converter)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
