package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"imposter/internal/cache"
	"imposter/internal/config"
	"imposter/internal/game"
	"imposter/internal/pubsub"
	"imposter/internal/repository"
	"imposter/internal/service"
	"imposter/internal/transport/rest"
	"imposter/internal/transport/ws"
)

// App owns every long-lived dependency of the server
type App struct {
	Config *config.Config

	Redis *redis.Client
	Mongo *mongo.Client
	Bus   pubsub.Bus

	AuthService *service.AuthService
	GameService *service.GameService
	Sweeper     *service.Sweeper
	Hub         *ws.Hub

	Handler http.Handler
}

// New connects to the stores and wires the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	clock := clockwork.NewRealClock()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	a.Redis = redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Redis.Ping(pingCtx).Err(); err != nil {
		a.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info().Str("addr", redisOpts.Addr).Msg("connected to redis")

	var words repository.WordRepo
	if cfg.MongoURI != "" {
		a.Mongo, err = mongo.Connect(pingCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		if err := a.Mongo.Ping(pingCtx, nil); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping mongodb: %w", err)
		}
		words = repository.NewWordRepo(a.Mongo, cfg.MongoDB)
		log.Info().Str("db", cfg.MongoDB).Msg("connected to mongodb")
	} else {
		log.Warn().Msg("MONGO_URI not set, using the bundled word list")
	}

	switch cfg.EventBackend {
	case config.BackendNATS:
		natsCfg := pubsub.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.SubjectPrefix = cfg.EventPrefix
		bus, err := pubsub.NewNATSBus(natsCfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Bus = bus
	default:
		a.Bus = pubsub.NewRedisBus(a.Redis, cfg.EventPrefix)
	}
	log.Info().Str("backend", cfg.EventBackend).Str("prefix", cfg.EventPrefix).Msg("event bus ready")

	deadlines := cache.NewDeadlineCache(a.Redis)
	a.AuthService = service.NewAuthService(cfg.JWTSecret, cfg.Game.SessionTTL, clock)
	a.GameService = service.NewGameService(
		cache.NewSessionCache(a.Redis, cfg.Game.SessionTTL),
		cache.NewLocker(a.Redis, cache.LockOptions{
			TTL:       cfg.Game.LockTTL,
			Attempts:  cfg.Game.LockAttempts,
			RetryBase: cfg.Game.LockRetryBase,
		}),
		cache.NewPresenceCache(a.Redis, cfg.Game.PresenceStale, cfg.Game.SessionTTL),
		deadlines,
		service.NewWordService(words, game.SharedRand),
		a.AuthService,
		service.NewEmitter(a.Bus, clock),
		clock,
		cfg.Game.Rules(),
	)
	a.Sweeper = service.NewSweeper(a.GameService, deadlines, clock, cfg.SweepInterval)
	a.Hub = ws.NewHub()

	a.Handler = rest.NewRouter(&rest.Container{
		AuthService:    a.AuthService,
		GameService:    a.GameService,
		WSHub:          a.Hub,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Health:         a.healthChecks(),
	})
	return a, nil
}

func (a *App) healthChecks() map[string]rest.HealthCheck {
	checks := map[string]rest.HealthCheck{
		"redis": func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() },
	}
	if a.Mongo != nil {
		checks["mongodb"] = func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) }
	}
	if nb, ok := a.Bus.(*pubsub.NATSBus); ok {
		checks["nats"] = func(context.Context) error { return nb.Ping() }
	}
	return checks
}

// Run serves HTTP, relays the event bus into the hub and sweeps overdue
// ballots until ctx is cancelled or one of them fails
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.HTTPPort,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Bus.Run(gctx, a.Hub.Deliver)
	})
	g.Go(func() error {
		return a.Sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases every connection the app opened
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			log.Warn().Err(err).Msg("close event bus")
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("disconnect mongodb")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
}
