package mongo

import (
	"context"
	"errors"

	"github.com/dukex/operion-mongo/pkg/credentials"
	"github.com/dukex/operion-mongo/pkg/mongoclient"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

// DefaultDatabase is used when neither the credentials nor the connection
// string name a database.
const DefaultDatabase = "test"

// DriverConnector opens databases through a shared client cache.
type DriverConnector struct {
	cache *mongoclient.Cache
}

func NewDriverConnector(cache *mongoclient.Cache) *DriverConnector {
	return &DriverConnector{cache: cache}
}

func (c *DriverConnector) Connect(ctx context.Context, resolved credentials.Resolved) (Database, error) {
	client, err := c.cache.Client(ctx, resolved.ConnectionString)
	if err != nil {
		return nil, err
	}

	return &driverDatabase{client: client, db: client.Database(DatabaseName(resolved))}, nil
}

// Invalidate drops the cached client for resolved so the next Connect dials again.
func (c *DriverConnector) Invalidate(ctx context.Context, resolved credentials.Resolved) error {
	return c.cache.Invalidate(ctx, resolved.ConnectionString)
}

// DatabaseName picks the credentials' database, then the one in the
// connection string, then DefaultDatabase.
func DatabaseName(resolved credentials.Resolved) string {
	if resolved.Database != "" {
		return resolved.Database
	}

	cs, err := connstring.ParseAndValidate(resolved.ConnectionString)
	if err == nil && cs.Database != "" {
		return cs.Database
	}

	return DefaultDatabase
}

type driverDatabase struct {
	client *mongo.Client
	db     *mongo.Database
}

func (d *driverDatabase) Name() string {
	return d.db.Name()
}

func (d *driverDatabase) Ping(ctx context.Context) error {
	return mongoclient.Healthcheck(d.client)(ctx)
}

func (d *driverDatabase) Collection(name string) Collection {
	return &driverCollection{coll: d.db.Collection(name)}
}

func (d *driverDatabase) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := d.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})

	return err
}

type driverCollection struct {
	coll *mongo.Collection
}

func (c *driverCollection) InsertOne(ctx context.Context, document bson.D) (*mongo.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, document)
}

func (c *driverCollection) InsertMany(ctx context.Context, documents []bson.D) (*mongo.InsertManyResult, error) {
	return c.coll.InsertMany(ctx, documents)
}

func (c *driverCollection) Find(ctx context.Context, filter bson.D, opts FindOptions) ([]bson.D, error) {
	findOpts := options.Find()
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	if opts.Sort != nil {
		findOpts.SetSort(opts.Sort)
	}

	if opts.Skip != nil {
		findOpts.SetSkip(*opts.Skip)
	}

	if opts.Limit != nil {
		findOpts.SetLimit(*opts.Limit)
	}

	if opts.BatchSize != nil {
		findOpts.SetBatchSize(*opts.BatchSize)
	}

	if opts.Hint != nil {
		findOpts.SetHint(opts.Hint)
	}

	if opts.Collation != nil {
		findOpts.SetCollation(opts.Collation.driver())
	}

	cursor, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}

	docs := []bson.D{}

	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (c *driverCollection) FindOne(ctx context.Context, filter bson.D, opts FindOneOptions) (bson.D, error) {
	findOpts := options.FindOne()
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	if opts.Sort != nil {
		findOpts.SetSort(opts.Sort)
	}

	if opts.Hint != nil {
		findOpts.SetHint(opts.Hint)
	}

	if opts.Collation != nil {
		findOpts.SetCollation(opts.Collation.driver())
	}

	return decodeSingle(c.coll.FindOne(ctx, filter, findOpts))
}

func (c *driverCollection) FindOneAndUpdate(ctx context.Context, filter bson.D, update any, opts FindOneAndUpdateOptions) (bson.D, error) {
	updateOpts := options.FindOneAndUpdate()
	if opts.Projection != nil {
		updateOpts.SetProjection(opts.Projection)
	}

	if opts.Sort != nil {
		updateOpts.SetSort(opts.Sort)
	}

	if opts.Hint != nil {
		updateOpts.SetHint(opts.Hint)
	}

	if opts.Upsert != nil {
		updateOpts.SetUpsert(*opts.Upsert)
	}

	if opts.ArrayFilters != nil {
		updateOpts.SetArrayFilters(opts.ArrayFilters)
	}

	switch opts.ReturnDocument {
	case ReturnAfter:
		updateOpts.SetReturnDocument(options.After)
	case ReturnBefore:
		updateOpts.SetReturnDocument(options.Before)
	}

	return decodeSingle(c.coll.FindOneAndUpdate(ctx, filter, update, updateOpts))
}

func (c *driverCollection) Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.D, error) {
	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	docs := []bson.D{}

	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (c *driverCollection) UpdateOne(ctx context.Context, filter bson.D, update any, opts UpdateOptions) (*mongo.UpdateResult, error) {
	updateOpts := options.UpdateOne()
	if opts.Upsert != nil {
		updateOpts.SetUpsert(*opts.Upsert)
	}

	if opts.Hint != nil {
		updateOpts.SetHint(opts.Hint)
	}

	if opts.ArrayFilters != nil {
		updateOpts.SetArrayFilters(opts.ArrayFilters)
	}

	if opts.Collation != nil {
		updateOpts.SetCollation(opts.Collation.driver())
	}

	return c.coll.UpdateOne(ctx, filter, update, updateOpts)
}

func (c *driverCollection) UpdateMany(ctx context.Context, filter bson.D, update any, opts UpdateOptions) (*mongo.UpdateResult, error) {
	updateOpts := options.UpdateMany()
	if opts.Upsert != nil {
		updateOpts.SetUpsert(*opts.Upsert)
	}

	if opts.Hint != nil {
		updateOpts.SetHint(opts.Hint)
	}

	if opts.ArrayFilters != nil {
		updateOpts.SetArrayFilters(opts.ArrayFilters)
	}

	if opts.Collation != nil {
		updateOpts.SetCollation(opts.Collation.driver())
	}

	return c.coll.UpdateMany(ctx, filter, update, updateOpts)
}

func (c *driverCollection) ReplaceOne(ctx context.Context, filter, replacement bson.D) (*mongo.UpdateResult, error) {
	return c.coll.ReplaceOne(ctx, filter, replacement)
}

func (c *driverCollection) DeleteOne(ctx context.Context, filter bson.D) (*mongo.DeleteResult, error) {
	return c.coll.DeleteOne(ctx, filter)
}

func (c *driverCollection) DeleteMany(ctx context.Context, filter bson.D) (*mongo.DeleteResult, error) {
	return c.coll.DeleteMany(ctx, filter)
}

func (c *driverCollection) CountDocuments(ctx context.Context, filter bson.D) (int64, error) {
	return c.coll.CountDocuments(ctx, filter)
}

func (c *driverCollection) EstimatedDocumentCount(ctx context.Context) (int64, error) {
	return c.coll.EstimatedDocumentCount(ctx)
}

func (c *driverCollection) Distinct(ctx context.Context, field string, filter bson.D) ([]any, error) {
	res := c.coll.Distinct(ctx, field, filter)
	if err := res.Err(); err != nil {
		return nil, err
	}

	values := []any{}

	err := res.Decode(&values)
	if err != nil {
		return nil, err
	}

	return values, nil
}

func (c *driverCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	return c.coll.BulkWrite(ctx, models)
}

func decodeSingle(res *mongo.SingleResult) (bson.D, error) {
	var doc bson.D

	err := res.Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (c *Collation) driver() *options.Collation {
	return &options.Collation{
		Locale:          c.Locale,
		CaseLevel:       c.CaseLevel,
		CaseFirst:       c.CaseFirst,
		Strength:        c.Strength,
		NumericOrdering: c.NumericOrdering,
		Alternate:       c.Alternate,
		MaxVariable:     c.MaxVariable,
		Normalization:   c.Normalization,
		Backwards:       c.Backwards,
	}
}
