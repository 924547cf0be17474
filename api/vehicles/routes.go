package vehicles

import (
	"net/http"

	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/infra/render"
)

// NewRoutesHandler serves the routes of driving vehicles as a GeoJSON
// FeatureCollection via GET /api/routes.
func NewRoutesHandler(col *fleet.Collection) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		data, err := render.Routes(col.Routes()).MarshalJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write(data)
	})
}
