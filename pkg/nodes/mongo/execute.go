package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func (r InsertOneRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.InsertOne(ctx, r.Document)
	if err != nil {
		return nil, err
	}

	return fromInsertOne(res), nil
}

func (r InsertManyRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.InsertMany(ctx, r.Documents)
	if err != nil {
		return nil, err
	}

	return fromInsertMany(res), nil
}

func (r FindRequest) do(ctx context.Context, coll Collection) (any, error) {
	docs, err := coll.Find(ctx, r.Filter, r.Options)
	if err != nil {
		return nil, err
	}

	if docs == nil {
		docs = []bson.D{}
	}

	return docs, nil
}

func (r FindOneRequest) do(ctx context.Context, coll Collection) (any, error) {
	doc, err := coll.FindOne(ctx, r.Filter, r.Options)
	if err != nil || doc == nil {
		return nil, err
	}

	return doc, nil
}

func (r FindOneAndUpdateRequest) do(ctx context.Context, coll Collection) (any, error) {
	doc, err := coll.FindOneAndUpdate(ctx, r.Filter, r.Update, r.Options)
	if err != nil || doc == nil {
		return nil, err
	}

	return doc, nil
}

func (r AggregateRequest) do(ctx context.Context, coll Collection) (any, error) {
	docs, err := coll.Aggregate(ctx, r.Pipeline)
	if err != nil {
		return nil, err
	}

	if docs == nil {
		docs = []bson.D{}
	}

	return docs, nil
}

func (r UpdateOneRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.UpdateOne(ctx, r.Filter, r.Update, r.Options)
	if err != nil {
		return nil, err
	}

	return fromUpdate(res), nil
}

func (r UpdateManyRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.UpdateMany(ctx, r.Filter, r.Update, r.Options)
	if err != nil {
		return nil, err
	}

	return fromUpdate(res), nil
}

func (r ReplaceOneRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.ReplaceOne(ctx, r.Filter, r.Replacement)
	if err != nil {
		return nil, err
	}

	return fromUpdate(res), nil
}

func (r DeleteOneRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.DeleteOne(ctx, r.Filter)
	if err != nil {
		return nil, err
	}

	return fromDelete(res), nil
}

func (r DeleteManyRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.DeleteMany(ctx, r.Filter)
	if err != nil {
		return nil, err
	}

	return fromDelete(res), nil
}

func (r CountDocumentsRequest) do(ctx context.Context, coll Collection) (any, error) {
	return coll.CountDocuments(ctx, r.Filter)
}

func (EstimatedDocumentCountRequest) do(ctx context.Context, coll Collection) (any, error) {
	return coll.EstimatedDocumentCount(ctx)
}

func (r DistinctRequest) do(ctx context.Context, coll Collection) (any, error) {
	values, err := coll.Distinct(ctx, r.Field, r.Filter)
	if err != nil {
		return nil, err
	}

	if values == nil {
		values = []any{}
	}

	return values, nil
}

func (r BulkWriteRequest) do(ctx context.Context, coll Collection) (any, error) {
	res, err := coll.BulkWrite(ctx, r.Models)
	if err != nil {
		return nil, err
	}

	return fromBulkWrite(res), nil
}

func (NoopRequest) do(context.Context, Collection) (any, error) {
	return false, nil
}
