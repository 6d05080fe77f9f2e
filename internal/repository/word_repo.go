package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"imposter/internal/game"
)

// ErrNoWords is returned when the collection has nothing to draw from
var ErrNoWords = errors.New("no words available")

// WordRepo reads and seeds secret word packs
type WordRepo interface {
	// Random draws one word, optionally restricted to a category
	Random(ctx context.Context, category string) (*game.Word, error)
	Categories(ctx context.Context) ([]string, error)
	// Upsert inserts words that are not stored yet and returns how many were added
	Upsert(ctx context.Context, words []game.Word) (int, error)
	Count(ctx context.Context) (int64, error)
}

type wordRepo struct {
	collection *mongo.Collection
}

func NewWordRepo(client *mongo.Client, database string) WordRepo {
	db := client.Database(database)
	return &wordRepo{
		collection: db.Collection("words"),
	}
}

func (r *wordRepo) Random(ctx context.Context, category string) (*game.Word, error) {
	pipeline := mongo.Pipeline{}
	if category != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"category": category}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sample", Value: bson.M{"size": 1}}})

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var words []game.Word
	if err := cursor.All(ctx, &words); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return &words[0], nil
}

func (r *wordRepo) Categories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	return categories, nil
}

func (r *wordRepo) Upsert(ctx context.Context, words []game.Word) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(words))
	for _, w := range words {
		filter := bson.M{"word": w.Text, "category": w.Category}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": filter}).
			SetUpsert(true))
	}
	res, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return int(res.UpsertedCount), nil
}

func (r *wordRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
