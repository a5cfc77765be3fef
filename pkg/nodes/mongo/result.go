package mongo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type insertOneResult struct {
	Acknowledged bool `bson:"acknowledged"`
	InsertedID   any  `bson:"insertedId"`
}

type insertManyResult struct {
	Acknowledged  bool   `bson:"acknowledged"`
	InsertedCount int64  `bson:"insertedCount"`
	InsertedIDs   bson.A `bson:"insertedIds"`
}

type updateResult struct {
	Acknowledged  bool  `bson:"acknowledged"`
	MatchedCount  int64 `bson:"matchedCount"`
	ModifiedCount int64 `bson:"modifiedCount"`
	UpsertedCount int64 `bson:"upsertedCount"`
	UpsertedID    any   `bson:"upsertedId"`
}

type deleteResult struct {
	Acknowledged bool  `bson:"acknowledged"`
	DeletedCount int64 `bson:"deletedCount"`
}

type bulkWriteResult struct {
	Acknowledged  bool   `bson:"acknowledged"`
	InsertedCount int64  `bson:"insertedCount"`
	MatchedCount  int64  `bson:"matchedCount"`
	ModifiedCount int64  `bson:"modifiedCount"`
	DeletedCount  int64  `bson:"deletedCount"`
	UpsertedCount int64  `bson:"upsertedCount"`
	UpsertedIDs   bson.D `bson:"upsertedIds"`
}

func fromInsertOne(r *mongo.InsertOneResult) insertOneResult {
	return insertOneResult{Acknowledged: r.Acknowledged, InsertedID: r.InsertedID}
}

func fromInsertMany(r *mongo.InsertManyResult) insertManyResult {
	ids := bson.A(r.InsertedIDs)
	if ids == nil {
		ids = bson.A{}
	}

	return insertManyResult{
		Acknowledged:  r.Acknowledged,
		InsertedCount: int64(len(r.InsertedIDs)),
		InsertedIDs:   ids,
	}
}

func fromUpdate(r *mongo.UpdateResult) updateResult {
	return updateResult{
		Acknowledged:  r.Acknowledged,
		MatchedCount:  r.MatchedCount,
		ModifiedCount: r.ModifiedCount,
		UpsertedCount: r.UpsertedCount,
		UpsertedID:    r.UpsertedID,
	}
}

func fromDelete(r *mongo.DeleteResult) deleteResult {
	return deleteResult{Acknowledged: r.Acknowledged, DeletedCount: r.DeletedCount}
}

// fromBulkWrite keys upserted ids by operation index.
func fromBulkWrite(r *mongo.BulkWriteResult) bulkWriteResult {
	upserted := bson.D{}
	for _, idx := range slices.Sorted(maps.Keys(r.UpsertedIDs)) {
		upserted = append(upserted, bson.E{Key: fmt.Sprint(idx), Value: r.UpsertedIDs[idx]})
	}

	return bulkWriteResult{
		Acknowledged:  r.Acknowledged,
		InsertedCount: r.InsertedCount,
		MatchedCount:  r.MatchedCount,
		ModifiedCount: r.ModifiedCount,
		DeletedCount:  r.DeletedCount,
		UpsertedCount: r.UpsertedCount,
		UpsertedIDs:   upserted,
	}
}

// maxExactFloat is the largest integer a float64 holds without rounding.
const maxExactFloat = 1 << 53

// toJSONValue converts a BSON-shaped value into plain JSON types using
// relaxed Extended JSON, so ObjectIDs become {"$oid": ...}. Numbers become
// float64, except integers beyond 2^53 which stay int64.
func toJSONValue(value any) (any, error) {
	data, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: value}}, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	var decoded struct {
		V any `json:"v"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	err = dec.Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	return normalizeNumbers(decoded.V), nil
}

func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, elem := range v {
			v[key] = normalizeNumbers(elem)
		}

		return v
	case []any:
		for i, elem := range v {
			v[i] = normalizeNumbers(elem)
		}

		return v
	case json.Number:
		n, err := v.Int64()
		if err == nil && (n > maxExactFloat || n < -maxExactFloat) {
			return n
		}

		f, _ := v.Float64()

		return f
	default:
		return value
	}
}
