// internal/app/system/watch/stream.go
package watch

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Watcher tails one collection's change stream and publishes every mutation
// into the hub. Updates are delivered with the full post-image so subscribers
// can mirror documents without a follow-up read.
type Watcher struct {
	coll *mongo.Collection
	hub  *Hub
	log  *zap.Logger
}

// NewWatcher builds a Watcher for the collection.
func NewWatcher(coll *mongo.Collection, hub *Hub, logger *zap.Logger) *Watcher {
	return &Watcher{coll: coll, hub: hub, log: logger}
}

// resumeDelay is how long Run waits before reopening a failed stream.
const resumeDelay = 2 * time.Second

// Run opens the change stream and pumps it until ctx is cancelled. Stream
// failures (primary stepdown, network blips) are logged and the stream is
// reopened; the driver's resume token handling means no change is observed
// twice within one open stream.
func (w *Watcher) Run(ctx context.Context) {
	for {
		if err := w.pump(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("change stream interrupted, reopening",
				zap.String("collection", w.coll.Name()),
				zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(resumeDelay):
		}
	}
}

type streamEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.Raw `bson:"fullDocument"`
}

func (w *Watcher) pump(ctx context.Context) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}},
		}}},
	}
	stream, err := w.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var ev streamEvent
		if err := stream.Decode(&ev); err != nil {
			w.log.Warn("undecodable change event skipped",
				zap.String("collection", w.coll.Name()),
				zap.Error(err))
			continue
		}
		op := ev.OperationType
		if op == "replace" {
			op = OpUpdate
		}
		w.hub.Publish(Change{
			Collection: w.coll.Name(),
			Op:         op,
			DocID:      ev.DocumentKey.ID,
			Doc:        ev.FullDocument,
		})
	}
	return stream.Err()
}
