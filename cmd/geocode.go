package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/roadsim/infra/nominatim"
)

var geocodeLimit int

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Print candidate coordinates for an address",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGeocode,
}

func init() {
	geocodeCmd.Flags().IntVarP(&geocodeLimit, "limit", "n", 5, "maximum number of candidates")
	rootCmd.AddCommand(geocodeCmd)
}

func runGeocode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	locs, err := nominatim.New(cfg.Geocoding).Search(cmd.Context(), strings.Join(args, " "), geocodeLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, l := range locs {
		if _, err := fmt.Fprintf(out, "%s,%s\t%s\n", l.Lon, l.Lat, l.DisplayName); err != nil {
			return err
		}
	}
	return nil
}
