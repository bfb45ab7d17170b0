package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"clearpoints/internal/config"
	"clearpoints/internal/round"
	"clearpoints/internal/sessions"
	"clearpoints/internal/targets"
	"clearpoints/internal/wshub"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// GameConfig maps the loaded settings onto the round controller's.
func GameConfig(cfg config.GameConfig) round.Config {
	rc := round.DefaultConfig()
	rc.TargetCount = cfg.TargetCount
	rc.MaxTargetCount = cfg.MaxTargetCount
	rc.Layout = targets.Layout{
		FieldSize:  cfg.FieldSize,
		TargetSize: cfg.TargetSize,
	}
	return rc
}

func New(store *sessions.Store) *Server {
	return &Server{
		Sessions: store,
		Hub:      wshub.NewHub(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/configure", s.handleConfigure)
	mux.HandleFunc("POST /sessions/{id}/start", s.handleStart)
	mux.HandleFunc("POST /sessions/{id}/restart", s.handleRestart)
	mux.HandleFunc("POST /sessions/{id}/activate/{value}", s.handleActivate)
	mux.HandleFunc("GET /sessions/{id}/ws", s.handleSocket)
	mux.HandleFunc("GET /sessions/{id}/events", s.handleEvents)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, appCfg config.Config) error {
	ttl := time.Duration(appCfg.SessionTTLMinutes) * time.Minute
	store := sessions.NewStore(GameConfig(appCfg.Game), ttl, clockwork.NewRealClock())
	defer store.Close()

	srv := &http.Server{
		Addr:    "0.0.0.0:" + appCfg.Port,
		Handler: New(store).Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", appCfg.Port).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	// Ends every event stream and socket so Shutdown is not held open.
	store.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
