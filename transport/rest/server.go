package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Start serves the read-only HTTP API: match history, user events and the
// health check.
func Start(logger *slog.Logger, port string, history historyService) error {
	handlers := newHandlers(logger, history)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.ping)
	mux.HandleFunc("/api/history", handlers.matchHistory)
	mux.HandleFunc("/api/users", handlers.userHistory)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
