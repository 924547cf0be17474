// Package api exposes the running simulation over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/kilianp07/roadsim/api/trips"
	"github.com/kilianp07/roadsim/api/vehicles"
	"github.com/kilianp07/roadsim/core/address"
	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/triplog"
	"github.com/kilianp07/roadsim/infra/logger"
)

// NewMux registers every API handler.
func NewMux(col *fleet.Collection, book *address.Book, store triplog.Store, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/vehicles", vehicles.NewStatusHandler(col))
	mux.Handle("/api/vehicles/", vehicles.NewControlHandler(col, book))
	mux.Handle("/api/routes", vehicles.NewRoutesHandler(col))
	mux.Handle("/api/trips", trips.NewLogHandler(store, token))
	return mux
}

// Serve runs h on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	log := logger.New("api")
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
