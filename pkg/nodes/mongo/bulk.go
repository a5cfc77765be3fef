package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	errEmptyBulk     = errors.New("at least one operation is required")
	errFilterMissing = errors.New("filter is required; use {} to match every document")
)

type bulkOperation struct {
	Document     bson.D        `bson:"document"`
	Filter       bson.RawValue `bson:"filter"`
	Update       bson.RawValue `bson:"update"`
	Replacement  bson.D        `bson:"replacement"`
	Upsert       *bool         `bson:"upsert"`
	ArrayFilters bson.A        `bson:"arrayFilters"`
	Hint         bson.RawValue `bson:"hint"`
}

// filter returns the entry's filter. Every entry other than insertOne must
// name one explicitly.
func (b bulkOperation) filter() (bson.D, error) {
	if isAbsent(b.Filter) {
		return nil, errFilterMissing
	}

	return rawDocument(b.Filter)
}

// parseBulkOperations reads a list shaped like
// [{"insertOne": {"document": {...}}}, {"updateOne": {"filter": {...}, "update": {...}}}].
func parseBulkOperations(source string) ([]mongo.WriteModel, error) {
	entries, err := parseDocuments(source)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, errEmptyBulk
	}

	models := make([]mongo.WriteModel, 0, len(entries))

	for i, entry := range entries {
		model, err := bulkModel(entry)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}

		models = append(models, model)
	}

	return models, nil
}

func bulkModel(entry bson.D) (mongo.WriteModel, error) {
	if len(entry) != 1 {
		return nil, errors.New("each operation must have exactly one key")
	}

	kind := entry[0].Key

	data, err := bson.Marshal(entry[0].Value)
	if err != nil {
		return nil, fmt.Errorf("%s: expected an object: %w", kind, err)
	}

	var op bulkOperation

	err = bson.Unmarshal(data, &op)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	hint, err := hintOption(op.Hint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	var filter bson.D

	if Operation(kind) != OperationInsertOne {
		filter, err = op.filter()
		if err != nil {
			return nil, fmt.Errorf("%s: filter: %w", kind, err)
		}
	}

	switch Operation(kind) {
	case OperationInsertOne:
		if op.Document == nil {
			return nil, errors.New("insertOne: document is required")
		}

		return mongo.NewInsertOneModel().SetDocument(op.Document), nil

	case OperationUpdateOne, OperationUpdateMany:
		update, err := bulkUpdate(op.Update)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}

		if Operation(kind) == OperationUpdateMany {
			model := mongo.NewUpdateManyModel().SetFilter(filter).SetUpdate(update)
			if op.Upsert != nil {
				model.SetUpsert(*op.Upsert)
			}

			if op.ArrayFilters != nil {
				model.SetArrayFilters(op.ArrayFilters)
			}

			if hint != nil {
				model.SetHint(hint)
			}

			return model, nil
		}

		model := mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update)
		if op.Upsert != nil {
			model.SetUpsert(*op.Upsert)
		}

		if op.ArrayFilters != nil {
			model.SetArrayFilters(op.ArrayFilters)
		}

		if hint != nil {
			model.SetHint(hint)
		}

		return model, nil

	case OperationReplaceOne:
		if op.Replacement == nil {
			return nil, errors.New("replaceOne: replacement is required")
		}

		model := mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(op.Replacement)
		if op.Upsert != nil {
			model.SetUpsert(*op.Upsert)
		}

		if hint != nil {
			model.SetHint(hint)
		}

		return model, nil

	case OperationDeleteOne:
		model := mongo.NewDeleteOneModel().SetFilter(filter)
		if hint != nil {
			model.SetHint(hint)
		}

		return model, nil

	case OperationDeleteMany:
		model := mongo.NewDeleteManyModel().SetFilter(filter)
		if hint != nil {
			model.SetHint(hint)
		}

		return model, nil
	}

	return nil, fmt.Errorf("unknown bulk operation %q", kind)
}

func bulkUpdate(raw bson.RawValue) (any, error) {
	switch raw.Type {
	case bson.TypeEmbeddedDocument:
		return rawDocument(raw)
	case bson.TypeArray:
		return rawDocuments(raw)
	default:
		return nil, errors.New("update is required")
	}
}
