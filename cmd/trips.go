package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/roadsim/core/triplog"
	"github.com/kilianp07/roadsim/pkg/export"
)

var (
	tripsFormat  string
	tripsVehicle string
	tripsKind    string
	tripsSince   string
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Export the trip log as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE:  runTrips,
}

func init() {
	tripsCmd.Flags().StringVarP(&tripsFormat, "format", "f", "json", "output format (json or csv)")
	tripsCmd.Flags().StringVar(&tripsVehicle, "vehicle", "", "only records of this vehicle id")
	tripsCmd.Flags().StringVar(&tripsKind, "kind", "", "only records of this kind (route_acquired or arrived)")
	tripsCmd.Flags().StringVar(&tripsSince, "since", "", "only records at or after this RFC3339 time")
	rootCmd.AddCommand(tripsCmd)
}

func runTrips(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	q := triplog.Query{VehicleID: tripsVehicle, Kind: tripsKind}
	if tripsSince != "" {
		if q.Start, err = time.Parse(time.RFC3339, tripsSince); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}
	store, err := triplog.Open(cfg.TripLog.Backend, cfg.TripLog.Path, cfg.TripLog.Rotation)
	if err != nil {
		return err
	}
	defer store.Close()
	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	switch tripsFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), records)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), records)
	default:
		return fmt.Errorf("unknown format %q", tripsFormat)
	}
}
