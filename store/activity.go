package store

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kevinaaaquil/library/models"
)

// InsertActivity appends an entry to the activity feed.
func (db *DB) InsertActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := db.Activities().InsertOne(ctx, a, options.InsertOne())
	return err
}

func (db *DB) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.M{"at": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := db.Activities().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
