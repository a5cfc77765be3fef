package mongo

import (
	"context"
	"sync"

	"github.com/dukex/operion-mongo/pkg/credentials"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type fakeCall struct {
	Op          Operation
	Filter      bson.D
	Document    bson.D
	Documents   []bson.D
	Pipeline    []bson.D
	Update      any
	Replacement bson.D
	Field       string
	Models      []mongo.WriteModel
	Options     any
}

// fakeCollection records calls. handle may return nil, nil to fall back to
// a canned acknowledged result.
type fakeCollection struct {
	mu     sync.Mutex
	calls  []fakeCall
	handle func(ctx context.Context, call fakeCall) (any, error)
}

func (f *fakeCollection) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]fakeCall(nil), f.calls...)
}

func (f *fakeCollection) invoke(ctx context.Context, call fakeCall, fallback any) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.handle != nil {
		v, err := f.handle(ctx, call)
		if err != nil || v != nil {
			return v, err
		}
	}

	return fallback, nil
}

func as[T any](v any) T {
	t, _ := v.(T)

	return t
}

func (f *fakeCollection) InsertOne(ctx context.Context, document bson.D) (*mongo.InsertOneResult, error) {
	var id any = "generated"

	for _, e := range document {
		if e.Key == "_id" {
			id = e.Value
		}
	}

	v, err := f.invoke(ctx, fakeCall{Op: OperationInsertOne, Document: document}, &mongo.InsertOneResult{InsertedID: id, Acknowledged: true})

	return as[*mongo.InsertOneResult](v), err
}

func (f *fakeCollection) InsertMany(ctx context.Context, documents []bson.D) (*mongo.InsertManyResult, error) {
	ids := make([]any, len(documents))
	for i := range documents {
		ids[i] = i
	}

	v, err := f.invoke(ctx, fakeCall{Op: OperationInsertMany, Documents: documents}, &mongo.InsertManyResult{InsertedIDs: ids, Acknowledged: true})

	return as[*mongo.InsertManyResult](v), err
}

func (f *fakeCollection) Find(ctx context.Context, filter bson.D, opts FindOptions) ([]bson.D, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationFind, Filter: filter, Options: opts}, []bson.D{})

	return as[[]bson.D](v), err
}

func (f *fakeCollection) FindOne(ctx context.Context, filter bson.D, opts FindOneOptions) (bson.D, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationFindOne, Filter: filter, Options: opts}, nil)

	return as[bson.D](v), err
}

func (f *fakeCollection) FindOneAndUpdate(ctx context.Context, filter bson.D, update any, opts FindOneAndUpdateOptions) (bson.D, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationFindOneAndUpdate, Filter: filter, Update: update, Options: opts}, nil)

	return as[bson.D](v), err
}

func (f *fakeCollection) Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.D, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationAggregate, Pipeline: pipeline}, []bson.D{})

	return as[[]bson.D](v), err
}

func (f *fakeCollection) UpdateOne(ctx context.Context, filter bson.D, update any, opts UpdateOptions) (*mongo.UpdateResult, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationUpdateOne, Filter: filter, Update: update, Options: opts}, &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1, Acknowledged: true})

	return as[*mongo.UpdateResult](v), err
}

func (f *fakeCollection) UpdateMany(ctx context.Context, filter bson.D, update any, opts UpdateOptions) (*mongo.UpdateResult, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationUpdateMany, Filter: filter, Update: update, Options: opts}, &mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2, Acknowledged: true})

	return as[*mongo.UpdateResult](v), err
}

func (f *fakeCollection) ReplaceOne(ctx context.Context, filter, replacement bson.D) (*mongo.UpdateResult, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationReplaceOne, Filter: filter, Replacement: replacement}, &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1, Acknowledged: true})

	return as[*mongo.UpdateResult](v), err
}

func (f *fakeCollection) DeleteOne(ctx context.Context, filter bson.D) (*mongo.DeleteResult, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationDeleteOne, Filter: filter}, &mongo.DeleteResult{DeletedCount: 1, Acknowledged: true})

	return as[*mongo.DeleteResult](v), err
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter bson.D) (*mongo.DeleteResult, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationDeleteMany, Filter: filter}, &mongo.DeleteResult{DeletedCount: 3, Acknowledged: true})

	return as[*mongo.DeleteResult](v), err
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter bson.D) (int64, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationCountDocuments, Filter: filter}, int64(7))

	return as[int64](v), err
}

func (f *fakeCollection) EstimatedDocumentCount(ctx context.Context) (int64, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationEstimatedDocumentCount}, int64(42))

	return as[int64](v), err
}

func (f *fakeCollection) Distinct(ctx context.Context, field string, filter bson.D) ([]any, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationDistinct, Field: field, Filter: filter}, []any{"a", "b"})

	return as[[]any](v), err
}

func (f *fakeCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	v, err := f.invoke(ctx, fakeCall{Op: OperationBulkWrite, Models: models}, &mongo.BulkWriteResult{InsertedCount: int64(len(models)), Acknowledged: true})

	return as[*mongo.BulkWriteResult](v), err
}

// fakeDatabase runs transaction callbacks attempts times, like the driver
// retrying on a transient error.
type fakeDatabase struct {
	mu         sync.Mutex
	name       string
	coll       *fakeCollection
	collection string
	pingErr    error
	startErr   error
	commitErr  error
	attempts   int
	txCalls    int
}

func (d *fakeDatabase) Name() string {
	return d.name
}

func (d *fakeDatabase) Collection(name string) Collection {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.collection = name

	return d.coll
}

func (d *fakeDatabase) Ping(context.Context) error {
	return d.pingErr
}

func (d *fakeDatabase) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	d.txCalls++

	if d.startErr != nil {
		return d.startErr
	}

	var err error

	for range max(d.attempts, 1) {
		err = fn(ctx)
	}

	if err != nil {
		return err
	}

	return d.commitErr
}

type fakeConnector struct {
	mu          sync.Mutex
	db          *fakeDatabase
	err         error
	connects    int
	resolved    credentials.Resolved
	invalidated int
}

func newFakeConnector(coll *fakeCollection) *fakeConnector {
	return &fakeConnector{db: &fakeDatabase{name: "app", coll: coll}}
}

func (c *fakeConnector) Connect(_ context.Context, resolved credentials.Resolved) (Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connects++
	c.resolved = resolved

	if c.err != nil {
		return nil, c.err
	}

	return c.db, nil
}

func (c *fakeConnector) Invalidate(context.Context, credentials.Resolved) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidated++

	return nil
}
