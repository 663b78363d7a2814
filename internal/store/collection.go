package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/monitoring"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Provider hands out the live database handle, or nil while disconnected.
// *database.Manager satisfies it.
type Provider interface {
	Database() *mongo.Database
}

// Collection is a typed repository over one MongoDB collection. The handle
// is looked up on every call so that reconnects are picked up transparently.
type Collection[T any] struct {
	name     string
	provider Provider
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// NewCollection creates a repository for the named collection
func NewCollection[T any](provider Provider, name string) *Collection[T] {
	return &Collection[T]{
		name:     name,
		provider: provider,
		now:      time.Now,
	}
}

// WithMetrics adds metrics collection to the repository
func (c *Collection[T]) WithMetrics(metrics *monitoring.Metrics) *Collection[T] {
	c.metrics = metrics
	return c
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) collection() (*mongo.Collection, error) {
	if c.provider == nil {
		return nil, ErrUnavailable
	}
	db := c.provider.Database()
	if db == nil {
		return nil, ErrUnavailable
	}
	return db.Collection(c.name), nil
}

// List returns every document in the collection
func (c *Collection[T]) List(ctx context.Context) (docs []T, err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "find")
	defer func() { timer.Stop(status(err)) }()

	coll, err := c.collection()
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, classify(err))
	}

	docs = []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, classify(err))
	}
	return docs, nil
}

// Count returns the number of documents in the collection
func (c *Collection[T]) Count(ctx context.Context) (n int64, err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "count")
	defer func() { timer.Stop(status(err)) }()

	coll, err := c.collection()
	if err != nil {
		return 0, err
	}

	n, err = coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, classify(err))
	}
	return n, nil
}

// Get returns the document with the given hex id
func (c *Collection[T]) Get(ctx context.Context, id string) (doc *T, err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "findOne")
	defer func() { timer.Stop(status(err)) }()

	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	coll, err := c.collection()
	if err != nil {
		return nil, err
	}

	doc = new(T)
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(doc); err != nil {
		return nil, classify(err)
	}
	return doc, nil
}

// Insert stores a fully built document. The caller assigns _id.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (_ *T, err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "insert")
	defer func() { timer.Stop(status(err)) }()

	coll, err := c.collection()
	if err != nil {
		return nil, err
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", c.name, classify(err))
	}
	return doc, nil
}

// InsertMany stores documents in one round trip and returns how many landed
func (c *Collection[T]) InsertMany(ctx context.Context, docs []*T) (n int, err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "insertMany")
	defer func() { timer.Stop(status(err)) }()

	if len(docs) == 0 {
		return 0, nil
	}
	coll, err := c.collection()
	if err != nil {
		return 0, err
	}

	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}

	res, err := coll.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", c.name, classify(err))
	}
	return len(res.InsertedIDs), nil
}

// Update applies changes with $set, stamps updatedAt and returns the
// document as it is after the update.
func (c *Collection[T]) Update(ctx context.Context, id string, changes bson.M) (doc *T, err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "update")
	defer func() { timer.Stop(status(err)) }()

	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	coll, err := c.collection()
	if err != nil {
		return nil, err
	}

	set := make(bson.M, len(changes)+1)
	for k, v := range changes {
		set[k] = v
	}
	set["updatedAt"] = c.now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	doc = new(T)
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(doc)
	if err != nil {
		return nil, classify(err)
	}
	return doc, nil
}

// Delete removes the document with the given hex id
func (c *Collection[T]) Delete(ctx context.Context, id string) (err error) {
	timer := monitoring.NewTimer(c.metrics, c.name, "delete")
	defer func() { timer.Stop(status(err)) }()

	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	coll, err := c.collection()
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", c.name, classify(err))
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	default:
		return "error"
	}
}
