package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "market-reports",
	Short: "Fetch, cache and reshape MISO market reports",
	Long: "Downloads daily MISO market reports, normalises spreadsheet reports to delimited text, " +
		"caches them and assembles multi-day price and load series.",
	SilenceUsage: true,
}

var (
	cfgFile      string
	cacheBackend string
	cacheDir     string
)

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default is $MARKET_REPORTS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "cache backend: filesystem|memory|postgres|s3")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory for the filesystem backend")
}
