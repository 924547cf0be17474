package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roadsim/config"
	"github.com/kilianp07/roadsim/core/address"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("2.5763, 44.3499")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{2.5763, 44.3499}, p)

	for _, bad := range []string{"2.5", "a,b", "200,10", "1,2,3"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestRouteDirect(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("routing:\n  mode: direct\n  direct_segments: 4\n"), 0o644))

	out, err := execute(t, "-c", cfg, "route", "2.5763105,44.3499813", "2.576429191630135,44.36004035")
	require.NoError(t, err)
	assert.Contains(t, out, "length: 1.")
	assert.Contains(t, out, "points: 5")
}

func TestAddressesResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "Nowhere") {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write([]byte(`[{"place_id": 1, "lat": "44.35", "lon": "2.57", "display_name": "Rodez"}]`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("geocoding:\n  base_url: "+srv.URL+"\n"), 0o644))
	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(`[
  {"street": "Rue Saint-Just", "city": "Rodez", "country": "France"},
  {"street": "Nowhere", "city": "Rodez", "country": "France"},
  {"street": "Viaduc de Bourran", "city": "Rodez", "country": "France",
   "locations": [{"lat": "44.3557", "lon": "2.5611"}]}
]`), 0o644))
	outPath := filepath.Join(dir, "out.json")

	out, err := execute(t, "-c", cfg, "addresses", "resolve", "--delay", "0s", in, outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "resolved 1, failed 1, total 3")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var records []address.Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 3)
	require.Len(t, records[0].Locations, 1)
	assert.Equal(t, "44.35", records[0].Locations[0].Lat)
	assert.Empty(t, records[1].Locations)
	assert.Equal(t, "2.5611", records[2].Locations[0].Lon)
}

func TestTripsExport(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "trips.jsonl")
	require.NoError(t, os.WriteFile(log, []byte(
		`{"id":"a","vehicle_id":"veh0001","kind":"route_acquired","position":[2.57,44.35],"destination":[2.58,44.36],"route_length_km":1.4,"time":"2025-03-01T08:00:00Z"}
{"id":"b","vehicle_id":"veh0001","kind":"arrived","position":[2.58,44.36],"destination":[2.58,44.36],"route_length_km":1.4,"time":"2025-03-01T08:05:00Z"}
{"id":"c","vehicle_id":"veh0002","kind":"route_acquired","position":[2.57,44.35],"destination":[2.56,44.35],"route_length_km":0.8,"time":"2025-03-01T08:06:00Z"}
`), 0o644))
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("trip_log:\n  backend: jsonl\n  path: "+log+"\n"), 0o644))

	out, err := execute(t, "-c", cfg, "trips", "--format", "csv", "--vehicle", "veh0001", "--kind", "", "--since", "")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "a,veh0001,route_acquired,"))

	out, err = execute(t, "-c", cfg, "trips", "--format", "json", "--vehicle", "", "--kind", "route_acquired", "--since", "2025-03-01T08:01:00Z")
	require.NoError(t, err)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "c", recs[0]["id"])

	_, err = execute(t, "-c", cfg, "trips", "--format", "xml", "--vehicle", "", "--kind", "", "--since", "")
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().IntVarP(&fleetSize, "vehicles", "n", 0, "")
		c.Flags().Float64VarP(&frequencyHz, "frequency", "f", 0, "")
		c.Flags().Int64Var(&seed, "seed", 0, "")
		c.Flags().BoolVar(&autoRedrive, "auto-redrive", false, "")
		require.NoError(t, c.ParseFlags(args))
		return c
	}

	cfg := config.Default()
	require.NoError(t, applyOverrides(newCmd("-n", "25", "--seed", "9", "--auto-redrive"), &cfg))
	assert.Equal(t, 25, cfg.Simulation.FleetSize)
	assert.Equal(t, int64(9), cfg.Simulation.Seed)
	assert.True(t, cfg.Simulation.AutoRedrive)
	assert.Equal(t, 1.0, cfg.Simulation.FrequencyHz)

	cfg = config.Default()
	assert.Error(t, applyOverrides(newCmd("--frequency", "-2"), &cfg))
}
