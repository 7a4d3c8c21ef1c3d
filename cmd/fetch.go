package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	reports "market-reports/internal/reports/domain"
)

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch <dataset> <YYYY-MM-DD>",
	Short: "Print the canonical report for one dataset day",
	Long:  "Reads the report through the cache, downloading and converting it on a miss, and prints the canonical delimited text.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := reports.ParseDay(args[1])
		if err != nil {
			return err
		}
		rt, err := newServices(cmd.Context(), newLogger(), nil)
		if err != nil {
			return err
		}
		defer rt.Close()

		content, err := rt.fetcher.Fetch(cmd.Context(), args[0], day)
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if fetchOut != "" {
			f, err := os.Create(fetchOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		_, err = fmt.Fprint(out, content)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "write to file instead of stdout")
}
