package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"imposter/internal/game"
)

// Event channel backends
const (
	BackendRedis = "redis"
	BackendNATS  = "nats"
)

type Config struct {
	HTTPPort string `env:"PORT" envDefault:"8080"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	// MongoURI is optional; without it words come from the bundled pack
	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB" envDefault:"imposter"`

	EventBackend string `env:"EVENT_BACKEND" envDefault:"redis"`
	EventPrefix  string `env:"EVENT_PREFIX" envDefault:"imposter.events"`
	NATSURL      string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5s"`

	Game GameConfig `envPrefix:"GAME_"`
}

// GameConfig holds the game rules and store timings
type GameConfig struct {
	MinPlayers    int `env:"MIN_PLAYERS" envDefault:"3"`
	MaxPlayers    int `env:"MAX_PLAYERS" envDefault:"20"`
	MaxNameLength int `env:"MAX_NAME_LENGTH" envDefault:"20"`

	VotingTimeoutDefault int `env:"VOTING_TIMEOUT_DEFAULT" envDefault:"120"`
	VotingTimeoutMin     int `env:"VOTING_TIMEOUT_MIN" envDefault:"30"`
	VotingTimeoutMax     int `env:"VOTING_TIMEOUT_MAX" envDefault:"180"`

	HeartbeatThrottle time.Duration `env:"HEARTBEAT_THROTTLE" envDefault:"10s"`
	HeartbeatFresh    time.Duration `env:"HEARTBEAT_FRESH" envDefault:"20s"`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	LockTTL       time.Duration `env:"LOCK_TTL" envDefault:"5s"`
	LockAttempts  int           `env:"LOCK_ATTEMPTS" envDefault:"25"`
	LockRetryBase time.Duration `env:"LOCK_RETRY_BASE" envDefault:"20ms"`
	PresenceStale time.Duration `env:"PRESENCE_STALE" envDefault:"75s"`
}

// Rules converts the settings into game rules
func (g GameConfig) Rules() game.Rules {
	return game.Rules{
		MinPlayers:           g.MinPlayers,
		MaxPlayers:           g.MaxPlayers,
		MaxNameLength:        g.MaxNameLength,
		DefaultVotingTimeout: g.VotingTimeoutDefault,
		MinVotingTimeout:     g.VotingTimeoutMin,
		MaxVotingTimeout:     g.VotingTimeoutMax,
		HeartbeatThrottle:    g.HeartbeatThrottle,
		HeartbeatFresh:       g.HeartbeatFresh,
	}
}

// Load reads .env when present, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.EventBackend = strings.ToLower(c.EventBackend)
	if c.EventBackend != BackendRedis && c.EventBackend != BackendNATS {
		return fmt.Errorf("EVENT_BACKEND must be %q or %q, got %q", BackendRedis, BackendNATS, c.EventBackend)
	}

	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	g := c.Game
	switch {
	case g.MinPlayers < 2:
		return fmt.Errorf("GAME_MIN_PLAYERS must be at least 2")
	case g.MaxPlayers < g.MinPlayers:
		return fmt.Errorf("GAME_MAX_PLAYERS must not be below GAME_MIN_PLAYERS")
	case g.VotingTimeoutMin > g.VotingTimeoutMax:
		return fmt.Errorf("GAME_VOTING_TIMEOUT_MIN must not exceed GAME_VOTING_TIMEOUT_MAX")
	case g.VotingTimeoutDefault < g.VotingTimeoutMin || g.VotingTimeoutDefault > g.VotingTimeoutMax:
		return fmt.Errorf("GAME_VOTING_TIMEOUT_DEFAULT must be within the min/max bounds")
	case g.LockAttempts < 1:
		return fmt.Errorf("GAME_LOCK_ATTEMPTS must be at least 1")
	case g.LockTTL <= 0:
		return fmt.Errorf("GAME_LOCK_TTL must be positive")
	case g.SessionTTL <= 0:
		return fmt.Errorf("GAME_SESSION_TTL must be positive")
	}
	return nil
}
