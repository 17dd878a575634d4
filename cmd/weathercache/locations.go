package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var locationsCmd = &cobra.Command{
	Use:     "locations",
	Aliases: []string{"loc"},
	Short:   "Manage saved zip codes",
}

var locationsAddCmd = &cobra.Command{
	Use:   "add ZIP...",
	Short: "Save zip codes; already saved ones are ignored",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			before := len(a.registry.Locations())
			if err := a.registry.AddLocations(cmd.Context(), args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d location(s)\n", len(a.registry.Locations())-before)
			return nil
		})
	},
}

var locationsRemoveCmd = &cobra.Command{
	Use:     "remove ZIP...",
	Aliases: []string{"rm"},
	Short:   "Forget zip codes",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			for _, zip := range args {
				if err := a.registry.RemoveLocation(ctx, zip); err != nil {
					return err
				}
				if a.cfg.Sync.EvictOnRemove {
					if err := a.weather.Conditions().Evict(ctx, zip); err != nil {
						a.logger.Warn("Evicting removed location", slog.String("zip", zip), slog.Any("error", err))
					}
				}
			}
			return nil
		})
	},
}

var locationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print saved zip codes in the order they were added",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			for _, zip := range a.registry.Locations() {
				fmt.Fprintln(cmd.OutOrStdout(), zip)
			}
			return nil
		})
	},
}

func init() {
	locationsCmd.AddCommand(locationsAddCmd, locationsRemoveCmd, locationsListCmd)
}
