package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"robot-service/internal/logger"
	"robot-service/internal/types"
)

// StatusFunc returns the latest telemetry snapshot and whether one exists yet.
type StatusFunc func() (types.Telemetry, bool)

type statusResponse struct {
	Mode      types.RobotMode   `json:"mode"`
	Enabled   bool              `json:"enabled"`
	Cycle     uint64            `json:"cycle"`
	Timestamp time.Time         `json:"timestamp"`
	Commands  map[string]string `json:"commands"`
	Running   []string          `json:"running"`
	Auto      chooserStatus     `json:"auto"`
	Drive     chooserStatus     `json:"drive"`
	Heading   float64           `json:"heading"`
}

type chooserStatus struct {
	Selected string   `json:"selected"`
	Options  []string `json:"options"`
}

// NewHandler serves /metrics, /status and /healthz.
func NewHandler(c *Collector, status StatusFunc, l *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		t, ok := status()
		if !ok {
			http.Error(w, "no telemetry yet", http.StatusServiceUnavailable)
			return
		}
		resp := statusResponse{
			Mode:      t.Mode,
			Enabled:   t.Enabled,
			Cycle:     t.Cycle,
			Timestamp: t.Timestamp,
			Commands:  t.Commands,
			Running:   t.Running,
			Auto:      chooserStatus{Selected: t.AutoSelected, Options: t.AutoOptions},
			Drive:     chooserStatus{Selected: t.DriveSelected, Options: t.DriveOptions},
			Heading:   t.HeadingDegrees,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			l.Warnf("Status response encode failed: %v", err)
		}
	})

	return r
}

type Server struct {
	logger *logger.Logger
	srv    *http.Server
}

func NewServer(addr string, handler http.Handler, l *logger.Logger) *Server {
	return &Server{
		logger: l,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("Starting metrics server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Metrics server failed: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infof("Stopping metrics server")
	return s.srv.Shutdown(ctx)
}
