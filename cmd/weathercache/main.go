// Command weathercache keeps a persisted list of zip codes and serves their
// weather through a two-tier expiring cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:           "weathercache",
		Short:         "Cached current conditions and forecasts for saved zip codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: weathercache.yaml in . or the user config dir)")
	rootCmd.AddCommand(locationsCmd, conditionsCmd, forecastCmd, cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
