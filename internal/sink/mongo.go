package sink

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JonMunkholm/tabular/internal/core"
)

// Collection is the part of a document collection the Mongo sink uses.
// *mongo.Collection satisfies it.
type Collection interface {
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// Mongo writes a table into a document collection, one document per row.
// Existing documents are deleted before inserting.
type Mongo struct {
	Collection Collection
	Name       string
}

// NewMongo creates a document sink. coll may be nil when the document store
// is not configured; writes then fail with core.ErrSinkNotConfigured.
func NewMongo(coll Collection, name string) *Mongo {
	return &Mongo{Collection: coll, Name: name}
}

func (s *Mongo) Target() string { return "mongodb#" + s.Name }

func (s *Mongo) Write(ctx context.Context, t *core.Table) error {
	if s.Collection == nil {
		return fmt.Errorf("%w: document store credentials not set", core.ErrSinkNotConfigured)
	}

	if _, err := s.Collection.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	if t.Len() == 0 {
		return nil
	}

	res, err := s.Collection.InsertMany(ctx, Documents(t))
	if err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}
	if res != nil && len(res.InsertedIDs) != t.Len() {
		return fmt.Errorf("insert documents: inserted %d of %d", len(res.InsertedIDs), t.Len())
	}
	return nil
}

// Documents converts every row to an ordered document keyed by column name.
func Documents(t *core.Table) []interface{} {
	docs := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		doc := make(bson.D, len(t.Columns))
		for j, c := range t.Columns {
			doc[j] = bson.E{Key: c.Name, Value: row[j]}
		}
		docs[i] = doc
	}
	return docs
}

// OpenMongo connects to uri and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}
