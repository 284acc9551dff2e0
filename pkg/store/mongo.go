package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/sample"
)

// MongoConfig configures a MongoDB-backed store.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string `yaml:"uri" json:"uri"`

	// Database is the database holding sample collections.
	Database string `yaml:"database" json:"database"`

	// Collection is the Mongo collection for this sample collection.
	Collection string `yaml:"collection" json:"collection"`

	// AutoPersist is the persist-on-mutate policy for bound samples.
	AutoPersist bool `yaml:"auto_persist" json:"auto_persist"`
}

// MongoStore persists a collection's samples as MongoDB documents, one
// document per sample, with a unique index on filepath.
type MongoStore struct {
	client      *mongo.Client
	coll        *mongo.Collection
	autoPersist bool
	logger      *zap.Logger
}

// NewMongoStore connects to MongoDB and prepares the collection, creating
// the unique filepath index if it does not exist.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to connect to MongoDB").WithDetail("uri", cfg.URI)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "filepath", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		_ = client.Disconnect(ctx)
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to create filepath index").
			WithDetail("collection", cfg.Collection)
	}

	logger.Info("mongo store ready",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return &MongoStore{
		client:      client,
		coll:        coll,
		autoPersist: cfg.AutoPersist,
		logger:      logger,
	}, nil
}

// CreateOrUpdate implements Store. The sample document is upserted keyed by
// its unique filepath.
func (m *MongoStore) CreateOrUpdate(ctx context.Context, s *sample.Sample) (string, error) {
	filter := bson.M{"filepath": s.Filepath()}
	update := bson.M{"$set": s.Document()}

	res, err := m.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return "", curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to upsert sample").WithDetail("filepath", s.Filepath())
	}

	var id primitive.ObjectID
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		id = oid
	} else {
		// existing document: look up its identifier
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := m.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
			return "", curerrors.Wrap(err, curerrors.ErrorTypeConnection,
				"failed to resolve sample identifier").
				WithDetail("filepath", s.Filepath())
		}
		id = doc.ID
	}

	s.SetID(id.Hex())
	return id.Hex(), nil
}

// Get implements Store. Dynamic fields are rehydrated in their raw decoded
// form; typed label reconstruction is the caller's concern.
func (m *MongoStore) Get(ctx context.Context, id string) (*sample.Sample, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, curerrors.Newf(curerrors.ErrorTypeNotFound,
			"invalid sample identifier %q", id)
	}

	var doc bson.M
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, curerrors.Newf(curerrors.ErrorTypeNotFound,
			"sample %q not found", id)
	}
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to load sample").WithDetail("id", id)
	}

	return m.rehydrate(doc), nil
}

// List implements Store, returning samples in insertion (_id) order.
func (m *MongoStore) List(ctx context.Context) ([]*sample.Sample, error) {
	cursor, err := m.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to list samples")
	}
	defer cursor.Close(ctx)

	var out []*sample.Sample
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, curerrors.Wrap(err, curerrors.ErrorTypeData,
				"failed to decode sample document")
		}
		out = append(out, m.rehydrate(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"sample cursor failed")
	}
	return out, nil
}

// Delete implements Store.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return curerrors.Newf(curerrors.ErrorTypeNotFound,
			"invalid sample identifier %q", id)
	}

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to delete sample").WithDetail("id", id)
	}
	if res.DeletedCount == 0 {
		return curerrors.Newf(curerrors.ErrorTypeNotFound,
			"sample %q not found", id)
	}
	return nil
}

// Count implements Store.
func (m *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := m.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to count samples")
	}
	return n, nil
}

// Close implements Store.
func (m *MongoStore) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to disconnect from MongoDB")
	}
	return nil
}

// SaveSample implements sample.Backend.
func (m *MongoStore) SaveSample(s *sample.Sample) error {
	oid, err := primitive.ObjectIDFromHex(s.ID())
	if err != nil {
		return curerrors.Newf(curerrors.ErrorTypeNotFound,
			"invalid sample identifier %q", s.ID())
	}

	_, err = m.coll.UpdateOne(context.Background(),
		bson.M{"_id": oid}, bson.M{"$set": s.Document()})
	if err != nil {
		return curerrors.Wrap(err, curerrors.ErrorTypeConnection,
			"failed to save sample").WithDetail("id", s.ID())
	}
	return nil
}

// AutoPersist implements sample.Backend.
func (m *MongoStore) AutoPersist() bool { return m.autoPersist }

// rehydrate rebuilds a sample from its document form. Built-in attributes
// are restored; dynamic fields are staged raw.
func (m *MongoStore) rehydrate(doc bson.M) *sample.Sample {
	path, _ := doc["filepath"].(string)

	var opts []sample.Option
	if tags, ok := doc["tags"].(bson.A); ok {
		strs := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				strs = append(strs, s)
			}
		}
		opts = append(opts, sample.WithTags(strs...))
	}

	s := sample.New(path, opts...)

	if md, ok := doc["metadata"].(bson.M); ok {
		meta := &sample.ImageMetadata{}
		if v, ok := md["size_bytes"].(int64); ok {
			meta.SizeBytes = v
		}
		if v, ok := md["mime_type"].(string); ok {
			meta.MimeType = v
		}
		if v, ok := md["width"].(int32); ok {
			meta.Width = int(v)
		}
		if v, ok := md["height"].(int32); ok {
			meta.Height = int(v)
		}
		s.SetMetadata(meta)
	}

	for key, value := range doc {
		switch key {
		case "_id", "filepath", "tags", "metadata":
			continue
		}
		s.SetStaged(key, value)
	}

	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		s.SetID(oid.Hex())
	}
	return s
}
