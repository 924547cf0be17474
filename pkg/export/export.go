// Package export writes trip records for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/roadsim/core/triplog"
)

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, records []triplog.Record) error {
	if records == nil {
		records = []triplog.Record{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteCSV writes the records to w in CSV format, one row per record.
func WriteCSV(w io.Writer, records []triplog.Record) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "vehicle_id", "kind", "time", "lon", "lat", "dest_lon", "dest_lat", "route_length_km"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.ID,
			r.VehicleID,
			r.Kind,
			r.Time.Format(time.RFC3339),
			ftoa(r.Position.Lon()),
			ftoa(r.Position.Lat()),
			ftoa(r.Destination.Lon()),
			ftoa(r.Destination.Lat()),
			ftoa(r.RouteLengthKm),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
