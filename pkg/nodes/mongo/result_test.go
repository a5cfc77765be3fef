package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestToJSONValue_InsertOne(t *testing.T) {
	id, err := bson.ObjectIDFromHex("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)

	value, err := toJSONValue(fromInsertOne(&mongo.InsertOneResult{InsertedID: id, Acknowledged: true}))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"acknowledged": true,
		"insertedId":   map[string]any{"$oid": "64b7f0c2a1b2c3d4e5f60718"},
	}, value)
}

func TestToJSONValue_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{
			name:  "insertMany",
			value: fromInsertMany(&mongo.InsertManyResult{InsertedIDs: []any{"a", "b"}, Acknowledged: true}),
			want: map[string]any{
				"acknowledged":  true,
				"insertedCount": float64(2),
				"insertedIds":   []any{"a", "b"},
			},
		},
		{
			name:  "update without upsert",
			value: fromUpdate(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1, Acknowledged: true}),
			want: map[string]any{
				"acknowledged":  true,
				"matchedCount":  float64(1),
				"modifiedCount": float64(1),
				"upsertedCount": float64(0),
				"upsertedId":    nil,
			},
		},
		{
			name:  "delete",
			value: fromDelete(&mongo.DeleteResult{DeletedCount: 4, Acknowledged: true}),
			want:  map[string]any{"acknowledged": true, "deletedCount": float64(4)},
		},
		{
			name: "bulkWrite orders upserted ids by index",
			value: fromBulkWrite(&mongo.BulkWriteResult{
				UpsertedCount: 2,
				UpsertedIDs:   map[int64]any{3: "c", 1: "a"},
				Acknowledged:  true,
			}),
			want: map[string]any{
				"acknowledged":  true,
				"insertedCount": float64(0),
				"matchedCount":  float64(0),
				"modifiedCount": float64(0),
				"deletedCount":  float64(0),
				"upsertedCount": float64(2),
				"upsertedIds":   map[string]any{"1": "a", "3": "c"},
			},
		},
		{
			name:  "documents",
			value: []bson.D{{{Key: "name", Value: "alice"}}, {{Key: "n", Value: int64(3)}}},
			want:  []any{map[string]any{"name": "alice"}, map[string]any{"n": float64(3)}},
		},
		{
			name:  "no document",
			value: nil,
			want:  nil,
		},
		{
			name:  "count",
			value: int64(12),
			want:  float64(12),
		},
		{
			name:  "distinct",
			value: []any{"x", int32(2)},
			want:  []any{"x", float64(2)},
		},
		{
			name:  "noop",
			value: false,
			want:  false,
		},
		{
			name:  "int64 beyond float precision",
			value: bson.D{{Key: "n", Value: int64(9007199254740993)}, {Key: "neg", Value: int64(-9007199254740993)}},
			want:  map[string]any{"n": int64(9007199254740993), "neg": int64(-9007199254740993)},
		},
		{
			name:  "large count",
			value: int64(1 << 60),
			want:  int64(1 << 60),
		},
		{
			name:  "fractional double",
			value: []any{1.5, 2.0},
			want:  []any{1.5, float64(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toJSONValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
