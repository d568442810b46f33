package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// MongoStore persists one document per entity, keyed by entity_id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (ms *MongoStore) Get(ctx context.Context, entityID string) (*fusion.SummaryRecord, error) {
	if ms == nil || ms.collection == nil {
		return nil, nil
	}
	res := ms.collection.FindOne(ctx, bson.M{"entity_id": entityID})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	var rec fusion.SummaryRecord
	if err := res.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put overwrites the current summary fields and appends the prior snapshot in
// a single upsert, so the history trail never goes through a read-modify-write.
func (ms *MongoStore) Put(ctx context.Context, record fusion.SummaryRecord, prior *fusion.Snapshot) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	update := bson.M{
		"$set": bson.M{
			"entity_id":       record.EntityID,
			"summary_text":    record.SummaryText,
			"model":           record.ModelID,
			"created_at":      record.CreatedAt,
			"schema_degraded": record.SchemaDegraded,
		},
	}
	if prior != nil {
		update["$push"] = bson.M{"history": *prior}
	}
	opts := options.Update().SetUpsert(true)
	_, err := ms.collection.UpdateOne(ctx, bson.M{"entity_id": record.EntityID}, update, opts)
	return err
}

func (ms *MongoStore) All(ctx context.Context) ([]fusion.SummaryRecord, error) {
	if ms == nil || ms.collection == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "entity_id", Value: 1}})
	cursor, err := ms.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []fusion.SummaryRecord
	for cursor.Next(ctx) {
		var rec fusion.SummaryRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, cursor.Err()
}

func (ms *MongoStore) EntityIDs(ctx context.Context) ([]string, error) {
	if ms == nil || ms.collection == nil {
		return nil, nil
	}
	values, err := ms.collection.Distinct(ctx, "entity_id", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (ms *MongoStore) Export(ctx context.Context, path string) error {
	return exportJSON(ctx, ms, path)
}

// CreateSchema ensures the unique entity index exists.
func (ms *MongoStore) CreateSchema(ctx context.Context) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	_, err := ms.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "entity_id", Value: 1}},
		Options: options.Index().SetName("entity_id").SetUnique(true),
	})
	return err
}

// Close releases the underlying MongoDB client.
func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}
