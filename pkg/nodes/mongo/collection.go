package mongo

import (
	"context"

	"github.com/dukex/operion-mongo/pkg/credentials"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Collection is the subset of collection methods the node dispatches to.
// Single-document reads return nil when nothing matches.
type Collection interface {
	InsertOne(ctx context.Context, document bson.D) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, documents []bson.D) (*mongo.InsertManyResult, error)
	Find(ctx context.Context, filter bson.D, opts FindOptions) ([]bson.D, error)
	FindOne(ctx context.Context, filter bson.D, opts FindOneOptions) (bson.D, error)
	FindOneAndUpdate(ctx context.Context, filter bson.D, update any, opts FindOneAndUpdateOptions) (bson.D, error)
	Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.D, error)
	UpdateOne(ctx context.Context, filter bson.D, update any, opts UpdateOptions) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter bson.D, update any, opts UpdateOptions) (*mongo.UpdateResult, error)
	ReplaceOne(ctx context.Context, filter, replacement bson.D) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter bson.D) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter bson.D) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter bson.D) (int64, error)
	EstimatedDocumentCount(ctx context.Context) (int64, error)
	Distinct(ctx context.Context, field string, filter bson.D) ([]any, error)
	BulkWrite(ctx context.Context, models []mongo.WriteModel) (*mongo.BulkWriteResult, error)
}

// Database hands out collections and runs transactions.
type Database interface {
	Name() string
	Collection(name string) Collection
	Ping(ctx context.Context) error

	// WithTransaction runs fn inside one transaction. Operations issued with the
	// context passed to fn take part in it. fn may be called more than once
	// when the server reports a transient error.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Connector opens the database described by resolved credentials.
type Connector interface {
	Connect(ctx context.Context, resolved credentials.Resolved) (Database, error)
}

// Collation mirrors the server's collation document.
type Collation struct {
	Locale          string `bson:"locale" validate:"required"`
	CaseLevel       bool   `bson:"caseLevel,omitempty"`
	CaseFirst       string `bson:"caseFirst,omitempty" validate:"omitempty,oneof=upper lower off"`
	Strength        int    `bson:"strength,omitempty" validate:"omitempty,min=1,max=5"`
	NumericOrdering bool   `bson:"numericOrdering,omitempty"`
	Alternate       string `bson:"alternate,omitempty" validate:"omitempty,oneof=non-ignorable shifted"`
	MaxVariable     string `bson:"maxVariable,omitempty" validate:"omitempty,oneof=punct space"`
	Normalization   bool   `bson:"normalization,omitempty"`
	Backwards       bool   `bson:"backwards,omitempty"`
}

// FindOptions are the options accepted by find.
type FindOptions struct {
	Projection bson.D
	Sort       bson.D
	Skip       *int64 `validate:"omitempty,gte=0"`
	Limit      *int64
	BatchSize  *int32 `validate:"omitempty,gte=0"`
	Hint       any
	Collation  *Collation `validate:"omitempty"`
}

// FindOneOptions are the options accepted by findOne.
type FindOneOptions struct {
	Projection bson.D
	Sort       bson.D
	Hint       any
	Collation  *Collation `validate:"omitempty"`
}

// UpdateOptions are the options accepted by updateOne and updateMany.
type UpdateOptions struct {
	Upsert       *bool
	Hint         any
	ArrayFilters bson.A
	Collation    *Collation `validate:"omitempty"`
}

// ReturnDocument selects which version findOneAndUpdate returns.
type ReturnDocument string

const (
	ReturnBefore ReturnDocument = "before"
	ReturnAfter  ReturnDocument = "after"
)

// FindOneAndUpdateOptions are the options accepted by findOneAndUpdate.
type FindOneAndUpdateOptions struct {
	Projection     bson.D
	Sort           bson.D
	Hint           any
	Upsert         *bool
	ReturnDocument ReturnDocument `validate:"omitempty,oneof=before after"`
	ArrayFilters   bson.A
}
