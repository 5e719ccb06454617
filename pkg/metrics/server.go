package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Route is an extra handler mounted next to /metrics.
type Route struct {
	Pattern string
	Handler http.Handler
}

// NewMux returns the mux StartServer serves.
func NewMux(g prometheus.Gatherer, routes ...Route) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler(g))
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
	}
	return mux
}

// StartServer serves /metrics and routes on loopback in the background and
// returns the server's shutdown function.
func StartServer(port int, g prometheus.Gatherer, routes ...Route) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      NewMux(g, routes...),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
