package v1

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/heal"
	"github.com/mangashelf/mangashelf/middleware"
	"github.com/mangashelf/mangashelf/store"
	"github.com/mangashelf/mangashelf/worker"
)

type Handler struct {
	store    *store.Store
	healer   *heal.Healer
	healPool *worker.HealPool
	router   *mux.Router
}

// Server registers the API and asset routes on the router.
func Server(router *mux.Router, store *store.Store, healer *heal.Healer, healPool *worker.HealPool) {
	handler := &Handler{
		store:    store,
		healer:   healer,
		healPool: healPool,
		router:   router,
	}

	m := middleware.NewMiddleware(config.Opts.JWTSecret)

	sr := router.PathPrefix("/api/v1").Subrouter()
	sr.Use(m.HandleCORS)
	sr.Use(m.Logging)
	sr.Use(m.AuthenticationInterceptor)
	sr.Methods(http.MethodOptions)

	sr.HandleFunc("/books", handler.listBooks).Methods(http.MethodGet)
	sr.HandleFunc("/books", handler.uploadBook).Methods(http.MethodPost)
	sr.HandleFunc("/books/languages", handler.listLanguages).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id:[0-9]+}", handler.getBook).Methods(http.MethodGet)
	sr.HandleFunc("/books/{id:[0-9]+}", handler.deleteBook).Methods(http.MethodDelete)
	sr.HandleFunc("/books/{id:[0-9]+}/stream", handler.streamBook).Methods(http.MethodGet, http.MethodHead)
	sr.HandleFunc("/books/{id:[0-9]+}/download", handler.downloadBook).Methods(http.MethodGet, http.MethodHead)
	sr.HandleFunc("/books/{id:[0-9]+}/pages/{page:[0-9]+}", handler.getPage).Methods(http.MethodGet, http.MethodHead)
	sr.HandleFunc("/maintenance/heal", handler.healAll).Methods(http.MethodPost)

	// Cover assets are addressed by the paths stored on the book rows, so
	// they live outside the /api/v1 prefix. Same middleware chain.
	assets := router.PathPrefix("/").Subrouter()
	assets.Use(m.HandleCORS)
	assets.Use(m.Logging)
	assets.Use(m.AuthenticationInterceptor)
	assets.HandleFunc("/thumbnails/{id:[0-9]+}.jpg", handler.getThumbnail).Methods(http.MethodGet, http.MethodHead)
	assets.HandleFunc("/previews/{id:[0-9]+}.jpg", handler.getPreview).Methods(http.MethodGet, http.MethodHead)
}
