// Package admin exposes the station's operator surface: health probes,
// Prometheus metrics and a read-only JSON view of the map. It is not the
// consumer API, applications talk to the map in-process.
package admin

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/log"
	"github.com/openv2x/openv2x/pkg/options"
)

// ApplicationID is the consumer identity the admin surface queries under.
const ApplicationID = "station/admin"

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	ldm     *ldm.LocalDynamicMap
	logger  log.Logger
}

// NewServer builds the admin server and its routes.
func NewServer(opts *options.HttpOptions, l *ldm.LocalDynamicMap) *Server {
	s := &Server{
		options: opts,
		ldm:     l,
		logger:  log.Std().WithName("admin"),
	}

	r := mux.NewRouter()

	// Liveness probe.
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Readiness probe. Ready once the admin consumer is registered.
	r.HandleFunc("/readyz", s.handleReadyz)

	r.Handle("/metrics", promhttp.Handler())

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/objects", s.handleObjects).Methods(http.MethodGet)
	v1.HandleFunc("/registrations", s.handleRegistrations).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    opts.Addr,
		Handler: r,
	}
	return s
}

// Start registers the admin consumer, serves until the context ends, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.ldm.RegisterConsumer(ApplicationID, its.AllTags(), nil); err != nil {
		return err
	}
	defer func() {
		if err := s.ldm.DeregisterConsumer(ApplicationID); err != nil {
			s.logger.Error(err, "Failed to deregister admin consumer")
		}
	}()

	ln, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting admin HTTP server", "addr", s.options.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	for _, c := range s.ldm.Consumers() {
		if c.ApplicationID == ApplicationID {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
			return
		}
	}
	http.Error(w, "not ready", http.StatusServiceUnavailable)
}
