// HTTP server exposing the backend REST surface over the simulated drone.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"scarecrow-ops/internal/flight"
	"scarecrow-ops/internal/sim"
)

// Server serves the /api surface the dashboard consumes.
type Server struct {
	drone *sim.Drone
	log   *slog.Logger
	http  *http.Server
}

// New wires the router over the given drone.
func New(drone *sim.Drone, log *slog.Logger) *Server {
	s := &Server{drone: drone, log: log}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/connection", func(r chi.Router) {
			r.Get("/wifi", s.handleWiFi)
			r.Post("/ssh", s.handleConnectSSH)
			r.Delete("/ssh", s.handleDisconnectSSH)
			r.Get("/status", s.handleConnectionStatus)
		})

		r.Route("/drone", func(r chi.Router) {
			r.Get("/status", s.handleDroneStatus)
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Post("/return-home", s.handleReturnHome)
			r.Post("/abort", s.handleAbort)
		})

		r.Route("/flights", func(r chi.Router) {
			r.Get("/", s.handleFlights)
			r.Get("/{flightID}", s.handleFlight)
			r.Get("/{flightID}/summary", s.handleFlightSummary)
		})
	})

	s.http = &http.Server{Handler: r}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves on addr until ctx is done, then shuts down gracefully. A
// shutdown triggered by ctx is not an error.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http.Addr = addr
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr <- s.http.Shutdown(shutdownCtx)
	}()
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWiFi(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.CheckWiFi())
}

func (s *Server) handleConnectSSH(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.ConnectSSH())
}

func (s *Server) handleDisconnectSSH(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.DisconnectSSH())
}

func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.Status())
}

func (s *Server) handleDroneStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.DroneStatus())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.StartFlight())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.StopFlight())
}

func (s *Server) handleReturnHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.ReturnHome())
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drone.Abort())
}

func (s *Server) handleFlights(w http.ResponseWriter, r *http.Request) {
	flights := s.drone.Flights()
	if flights == nil {
		// history is a JSON array even when empty
		flights = []flight.Flight{}
	}
	writeJSON(w, http.StatusOK, flights)
}

func (s *Server) handleFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "flightID")
	f, ok := s.drone.Flight(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Flight not found"})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleFlightSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "flightID")
	summary, ok := s.drone.Summary(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Flight not found"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
