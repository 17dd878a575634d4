package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	cache "github.com/krisalay/weather-cache"
	"github.com/krisalay/weather-cache/location"
)

var partitionName string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Look at or drop cached records",
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect [KEY]",
	Short: "Show a cached record, or list every stored key when KEY is omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			p, err := a.partition()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				keys, err := a.db.Keys(ctx, p.QualifiedKey(""))
				if err != nil {
					return err
				}
				for _, k := range keys {
					// an empty root prefix also matches the location list
					if k == location.StorageKey {
						continue
					}
					fmt.Fprintln(out, k)
				}
				return nil
			}

			rec, ok, err := p.Lookup(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not cached", p.QualifiedKey(args[0]))
			}
			fmt.Fprintf(out, "key:     %s\n", p.QualifiedKey(args[0]))
			fmt.Fprintf(out, "created: %s (%s)\n", rec.Created().Format(time.RFC3339), humanize.Time(rec.Created()))
			if ttl, expires := p.TTLSeconds(); expires {
				fmt.Fprintf(out, "expires: %s\n", humanize.Time(rec.Created().Add(time.Duration(ttl)*time.Second)))
			} else {
				fmt.Fprintln(out, "expires: never")
			}
			fmt.Fprintf(out, "size:    %s\n", humanize.Bytes(uint64(len(rec.Value))))
			fmt.Fprintf(out, "value:   %s\n", rec.Value)
			return nil
		})
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete KEY...",
	Short: "Delete cached records from both tiers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			p, err := a.partition()
			if err != nil {
				return err
			}
			for _, k := range args {
				if err := p.Delete(cmd.Context(), k); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

// partition resolves --partition; empty means the root cache.
func (a *app) partition() (*cache.PartitionedCache, error) {
	if partitionName == "" {
		return a.root, nil
	}
	p, ok := a.weather.Partition(partitionName)
	if !ok {
		return nil, fmt.Errorf("unknown partition %q", partitionName)
	}
	return p, nil
}

func init() {
	cacheCmd.PersistentFlags().StringVarP(&partitionName, "partition", "p", "", "partition to use (conditions, forecasts); root when empty")
	cacheCmd.AddCommand(cacheInspectCmd, cacheDeleteCmd)
}
