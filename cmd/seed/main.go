package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"imposter/internal/config"
	"imposter/internal/game"
	"imposter/internal/repository"
)

// seed loads the bundled word list into MongoDB. Existing words are kept.
func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.MongoURI == "" {
		log.Fatal().Msg("MONGO_URI is required to seed words")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	repo := repository.NewWordRepo(client, cfg.MongoDB)
	words := game.BuiltinWords()

	inserted, err := repo.Upsert(ctx, words)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed words")
	}
	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count words")
	}
	categories, err := repo.Categories(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list categories")
	}

	log.Info().
		Int("bundled", len(words)).
		Int("inserted", inserted).
		Int64("total", total).
		Strs("categories", categories).
		Str("db", cfg.MongoDB).
		Msg("word list seeded")
}
