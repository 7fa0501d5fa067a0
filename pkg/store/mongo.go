package store

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	gerrors "github.com/graingraph/graingraph/pkg/errors"
)

const (
	defaultMongoDatabase   = "graingraph"
	defaultMongoCollection = "checkpoints"
)

// MongoBackend stores one document per key in a collection.
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoEntry is the stored document.
type mongoEntry struct {
	Key  string `bson:"_id"`
	Data []byte `bson:"data"`
}

// NewMongoBackend connects to uri and uses the checkpoints collection of
// database (default "graingraph").
func NewMongoBackend(ctx context.Context, uri, database string) (*MongoBackend, error) {
	if database == "" {
		database = defaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "ping mongodb")
	}
	return &MongoBackend{
		client: client,
		coll:   client.Database(database).Collection(defaultMongoCollection),
	}, nil
}

// Get fetches the document for key.
func (m *MongoBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e mongoEntry
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError(err, "get", key)
	}
	return e.Data, true, nil
}

// Set upserts the document for key.
func (m *MongoBackend) Set(ctx context.Context, key string, data []byte) error {
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, mongoEntry{Key: key, Data: data},
		options.Replace().SetUpsert(true))
	if err != nil {
		return storageError(err, "set", key)
	}
	return nil
}

// SetMany upserts all entries in one unordered bulk write.
func (m *MongoBackend) SetMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(entries))
	for k, v := range entries {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": k}).
			SetReplacement(mongoEntry{Key: k, Data: v}).
			SetUpsert(true))
	}
	if _, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "write %d keys", len(entries))
	}
	return nil
}

// Delete removes the document for key.
func (m *MongoBackend) Delete(ctx context.Context, key string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return storageError(err, "delete", key)
	}
	return nil
}

// List returns ids with prefix, sorted by the server.
func (m *MongoBackend) List(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageError(err, "list", prefix)
	}
	defer cur.Close(ctx)

	var docs []struct {
		Key string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageError(err, "list", prefix)
	}
	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = d.Key
	}
	return keys, nil
}

// Close disconnects the client.
func (m *MongoBackend) Close() error {
	return m.client.Disconnect(context.Background())
}

// Ensure MongoBackend implements Backend.
var _ Backend = (*MongoBackend)(nil)
