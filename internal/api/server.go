package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"MarketWatcher/internal/metrics"
	"MarketWatcher/internal/model"
	"MarketWatcher/internal/recorder"
)

const DefaultRecentLimit = 3

// Server exposes the most recent snapshots, a health probe and metrics.
type Server struct {
	addr        string
	rec         recorder.Recorder
	recentLimit int
	srv         *http.Server
}

func NewServer(addr string, rec recorder.Recorder, recentLimit int) *Server {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Server{addr: addr, rec: rec, recentLimit: recentLimit}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/prices", s.handlePrices).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return r
}

// Start listens on addr and serves until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("api shutdown")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("api server starting")
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.rec.FindMostRecent(r.Context(), s.recentLimit)
	if err != nil {
		log.Error().Err(err).Msg("find recent snapshots")
		writeError(w, http.StatusInternalServerError, errors.New("failed to load snapshots"))
		return
	}
	if snaps == nil {
		snaps = []model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
