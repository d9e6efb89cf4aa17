// Package metricsserver exposes the process's Prometheus registry over
// HTTP for a scrape target to poll.
package metricsserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backupd/backupd/internal/logger"
)

// Server serves /metrics on a background HTTP listener.
type Server struct {
	httpServer *http.Server
}

// Start binds a listener on the given port and begins serving /metrics
// in the background. The bind itself happens synchronously, so a port
// already in use surfaces through the returned error; failures after
// that point (e.g. a client connection reset) are logged, not returned.
func Start(port int) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	httpServer := &http.Server{Handler: mux}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	return &Server{httpServer: httpServer}, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
