package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/krisalay/weather-cache/weather"
)

var conditionsCmd = &cobra.Command{
	Use:   "conditions",
	Short: "Show current conditions for every saved zip code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctrl := a.controller()
			ctrl.Start()
			defer ctrl.Close()

			syncErr := ctrl.Sync(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ZIP\tNAME\tTEMP\tMIN\tMAX\tWEATHER")
			for _, e := range ctrl.Conditions() {
				c := e.Data
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%.0f\t%s\n",
					e.Zip, c.Name, c.Main.Temp, c.Main.TempMin, c.Main.TempMax, describe(c.Weather))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return syncErr
		})
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast ZIP",
	Short: "Show the daily forecast for a zip code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			fc, err := a.weather.Forecast(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printForecast(cmd.OutOrStdout(), fc)
			return nil
		})
	},
}

func printForecast(out io.Writer, fc weather.Forecast) {
	fmt.Fprintln(out, fc.City.Name)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tMIN\tMAX\tWEATHER")
	for _, d := range fc.List {
		day := time.Unix(d.Dt, 0).Format("Mon Jan 2")
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%s\n", day, d.Temp.Min, d.Temp.Max, describe(d.Weather))
	}
	_ = w.Flush()
}

func describe(conds []weather.Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, c.Description)
	}
	return strings.Join(parts, ", ")
}
