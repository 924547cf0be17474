package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/kilianp07/roadsim/app/plugins"
	"github.com/kilianp07/roadsim/core/route"
)

var (
	routeMode    string
	routeGeoJSON bool
)

var routeCmd = &cobra.Command{
	Use:   "route <lon,lat> <lon,lat>",
	Short: "Compute a route between two coordinates",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeMode, "mode", "", "routing backend (osrm or direct), defaults to the configuration")
	routeCmd.Flags().BoolVar(&routeGeoJSON, "geojson", false, "print the route geometry as a GeoJSON feature")
	rootCmd.AddCommand(routeCmd)
}

// parsePoint reads a "lon,lat" pair.
func parsePoint(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("invalid coordinate %q, want lon,lat", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("latitude %q: %w", parts[1], err)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return orb.Point{lon, lat}, nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	from, err := parsePoint(args[0])
	if err != nil {
		return err
	}
	to, err := parsePoint(args[1])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if routeMode != "" {
		cfg.Routing.Mode = routeMode
	}
	router, err := plugins.NewRouter(cfg.Routing)
	if err != nil {
		return err
	}
	r, err := route.Create(cmd.Context(), router, from, to)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if routeGeoJSON {
		f := geojson.NewFeature(r.Geometry())
		f.Properties["length_km"] = r.Length()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	}
	_, err = fmt.Fprintf(out, "length: %.3f km\npoints: %d\n", r.Length(), len(r.Geometry()))
	return err
}
