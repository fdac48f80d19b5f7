package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

// Server exposes the health and metrics endpoints while a run is in
// progress.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
	chainName  string
}

func NewServer(port string, chainName string, logger logging.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		logger:    logger,
		chainName: chainName,
	}

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting metrics server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server stopped", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"chain":  s.chainName,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
