package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/rajachanda/rps/internal/api/apierr"
	"github.com/rajachanda/rps/internal/api/handler"
	apimiddleware "github.com/rajachanda/rps/internal/api/middleware"
	"github.com/rajachanda/rps/internal/middleware"
	"github.com/rajachanda/rps/internal/services/coordinator"
	"github.com/rajachanda/rps/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Coordinator    *coordinator.Coordinator
	Hub            *ws.Hub
	WS             ws.Config
	AllowedOrigins []string
}

// NewRouter creates the HTTP handler: the read-only API under /api/v1 and
// the websocket endpoint at /ws
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Coordinator, cfg.Hub)
	endpoint := ws.NewEndpoint(cfg.Hub, cfg.Coordinator, cfg.WS, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Websocket endpoint; origin is checked by the upgrader
	r.Handle("/ws", endpoint).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", roomHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}
