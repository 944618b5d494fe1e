package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	v1 "github.com/mangashelf/mangashelf/api/v1"
	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/heal"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/store"
	"github.com/mangashelf/mangashelf/version"
	"github.com/mangashelf/mangashelf/worker"
	"go.uber.org/zap"
)

// StartServer starts the HTTP server in the background.
func StartServer(store *store.Store, healer *heal.Healer, healPool *worker.HealPool) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Opts.Host, config.Opts.Port),
		Handler:      setupHandler(store, healer, healPool),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	return server
}

// Shutdown drains in-flight requests before stopping.
func Shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down HTTP server", zap.Error(err))
	}
}

func setupHandler(store *store.Store, healer *heal.Healer, healPool *worker.HealPool) http.Handler {
	router := mux.NewRouter()

	v1.Server(router, store, healer, healPool)

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, "Database Connection Error", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}).Name("healthcheck")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(version.GetCurrentVersion()))
	}).Name("version")

	return router
}
