package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"imposter/internal/service"
	"imposter/internal/transport/rest/handler"
	"imposter/internal/transport/rest/middleware"
	"imposter/internal/transport/ws"
)

// HealthCheck reports whether a backing store is reachable
type HealthCheck func(ctx context.Context) error

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	GameService    *service.GameService
	WSHub          *ws.Hub
	AllowedOrigins []string
	Health         map[string]HealthCheck
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	gameHandler := handler.NewGameHandler(c.GameService)
	wsHandler := ws.NewHandler(c.WSHub, c.GameService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/games", gameHandler.Create).Methods("POST")
	v1.HandleFunc("/games/{token}/join", gameHandler.Join).Methods("POST")

	// Health check
	r.HandleFunc("/health", healthHandler(c.Health)).Methods("GET")

	// Player routes (require player auth)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequirePlayer)

	playerRoutes.HandleFunc("/games/{token}", gameHandler.Get).Methods("GET")
	playerRoutes.HandleFunc("/games/{token}/start", gameHandler.Start).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/scratch", gameHandler.Scratch).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/voting", gameHandler.StartVoting).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/votes", gameHandler.Vote).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/leave", gameHandler.Leave).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/kick", gameHandler.Kick).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/restart", gameHandler.Restart).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/heartbeat", gameHandler.Heartbeat).Methods("POST")
	playerRoutes.HandleFunc("/games/{token}/check-timeout", gameHandler.CheckTimeout).Methods("POST")

	// WebSocket route (token in query param)
	playerRoutes.HandleFunc("/ws/games/{token}", wsHandler.GameWS).Methods("GET")

	origins := c.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsMW := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Retry-After"},
	})

	// CORS first, then access logging
	var h http.Handler = r
	h = hlog.AccessHandler(accessLog)(h)
	h = hlog.RequestIDHandler("requestId", "X-Request-Id")(h)
	h = hlog.NewHandler(log.Logger)(h)
	return corsMW.Handler(h)
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	level := zerolog.DebugLevel
	if status >= http.StatusInternalServerError {
		level = zerolog.WarnLevel
	}
	hlog.FromRequest(r).WithLevel(level).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("check", name).Msg("health check failed")
				result[name] = "down"
				result["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(result)
	}
}
