package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Parameter names, shared with the node configuration keys.
const (
	ParamCollection              = "collection"
	ParamOperation               = "operation"
	ParamField                   = "field"
	ParamFilter                  = "filter"
	ParamPipeline                = "pipeline"
	ParamDocument                = "document"
	ParamDocuments               = "documents"
	ParamUpdate                  = "update"
	ParamReplacement             = "replacement"
	ParamOperations              = "operations"
	ParamFindOptions             = "find_options"
	ParamFindOneOptions          = "find_one_options"
	ParamUpdateOptions           = "update_options"
	ParamFindOneAndUpdateOptions = "find_one_and_update_options"
)

// Params returns the rendered value of a parameter for one item, or "" when
// the parameter is not configured.
type Params func(name string) (string, error)

// Request is a fully parsed call against a collection. Each operation has its
// own concrete type.
type Request interface {
	Operation() Operation
	do(ctx context.Context, coll Collection) (any, error)
}

type InsertOneRequest struct {
	Document bson.D
}

type InsertManyRequest struct {
	Documents []bson.D
}

type FindRequest struct {
	Filter  bson.D
	Options FindOptions
}

type FindOneRequest struct {
	Filter  bson.D
	Options FindOneOptions
}

type FindOneAndUpdateRequest struct {
	Filter  bson.D
	Update  any
	Options FindOneAndUpdateOptions
}

type AggregateRequest struct {
	Pipeline []bson.D
}

type UpdateOneRequest struct {
	Filter  bson.D
	Update  any
	Options UpdateOptions
}

type UpdateManyRequest struct {
	Filter  bson.D
	Update  any
	Options UpdateOptions
}

type ReplaceOneRequest struct {
	Filter      bson.D
	Replacement bson.D
}

type DeleteOneRequest struct {
	Filter bson.D
}

type DeleteManyRequest struct {
	Filter bson.D
}

type CountDocumentsRequest struct {
	Filter bson.D
}

type EstimatedDocumentCountRequest struct{}

type DistinctRequest struct {
	Field  string
	Filter bson.D
}

type BulkWriteRequest struct {
	Models []mongo.WriteModel
}

// NoopRequest stands in for an unknown operation when unknown operations are
// tolerated. It succeeds with false and never touches the collection.
type NoopRequest struct {
	Name string
}

func (InsertOneRequest) Operation() Operation              { return OperationInsertOne }
func (InsertManyRequest) Operation() Operation             { return OperationInsertMany }
func (FindRequest) Operation() Operation                   { return OperationFind }
func (FindOneRequest) Operation() Operation                { return OperationFindOne }
func (FindOneAndUpdateRequest) Operation() Operation       { return OperationFindOneAndUpdate }
func (AggregateRequest) Operation() Operation              { return OperationAggregate }
func (UpdateOneRequest) Operation() Operation              { return OperationUpdateOne }
func (UpdateManyRequest) Operation() Operation             { return OperationUpdateMany }
func (ReplaceOneRequest) Operation() Operation             { return OperationReplaceOne }
func (DeleteOneRequest) Operation() Operation              { return OperationDeleteOne }
func (DeleteManyRequest) Operation() Operation             { return OperationDeleteMany }
func (CountDocumentsRequest) Operation() Operation         { return OperationCountDocuments }
func (EstimatedDocumentCountRequest) Operation() Operation { return OperationEstimatedDocumentCount }
func (DistinctRequest) Operation() Operation               { return OperationDistinct }
func (BulkWriteRequest) Operation() Operation              { return OperationBulkWrite }
func (r NoopRequest) Operation() Operation                 { return Operation(r.Name) }

// Resolver turns an item's parameters into a Request.
type Resolver struct {
	// Strict rejects unknown operations. When false they resolve to NoopRequest.
	Strict bool
}

// Resolve builds the request for item index. Failures are returned as
// *OperationResolutionError or *UnsupportedOperationError.
func (r Resolver) Resolve(index int, params Params) (Request, error) {
	rp := resolving{index: index, params: params}

	name, err := rp.raw(ParamOperation)
	if err != nil {
		return nil, err
	}

	op := Operation(strings.TrimSpace(name))
	if op == "" {
		op = DefaultOperation
	}

	if !op.Valid() {
		if r.Strict {
			return nil, &UnsupportedOperationError{Operation: string(op)}
		}

		return NoopRequest{Name: string(op)}, nil
	}

	return rp.build(op)
}

type resolving struct {
	index  int
	params Params
}

func (r resolving) fail(param string, err error) error {
	return &OperationResolutionError{Index: r.index, Parameter: param, Err: err}
}

func (r resolving) raw(name string) (string, error) {
	value, err := r.params(name)
	if err != nil {
		return "", r.fail(name, err)
	}

	return value, nil
}

func (r resolving) document(name string) (bson.D, error) {
	source, err := r.raw(name)
	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(source)
	if err != nil {
		return nil, r.fail(name, err)
	}

	return doc, nil
}

func (r resolving) documents(name string) ([]bson.D, error) {
	source, err := r.raw(name)
	if err != nil {
		return nil, err
	}

	docs, err := parseDocuments(source)
	if err != nil {
		return nil, r.fail(name, err)
	}

	return docs, nil
}

func (r resolving) update() (any, error) {
	source, err := r.raw(ParamUpdate)
	if err != nil {
		return nil, err
	}

	update, err := parseUpdate(source)
	if err != nil {
		return nil, r.fail(ParamUpdate, err)
	}

	return update, nil
}

func parseWith[T any](r resolving, name string, parse func(string) (T, error)) (T, error) {
	var zero T

	source, err := r.raw(name)
	if err != nil {
		return zero, err
	}

	value, err := parse(source)
	if err != nil {
		return zero, r.fail(name, err)
	}

	return value, nil
}

func (r resolving) build(op Operation) (Request, error) {
	switch op {
	case OperationInsertOne:
		doc, err := r.document(ParamDocument)
		if err != nil {
			return nil, err
		}

		return InsertOneRequest{Document: doc}, nil

	case OperationInsertMany:
		docs, err := r.documents(ParamDocuments)
		if err != nil {
			return nil, err
		}

		if len(docs) == 0 {
			return nil, r.fail(ParamDocuments, errors.New("at least one document is required"))
		}

		return InsertManyRequest{Documents: docs}, nil

	case OperationFind:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		opts, err := parseWith(r, ParamFindOptions, parseFindOptions)
		if err != nil {
			return nil, err
		}

		return FindRequest{Filter: filter, Options: opts}, nil

	case OperationFindOne:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		opts, err := parseWith(r, ParamFindOneOptions, parseFindOneOptions)
		if err != nil {
			return nil, err
		}

		return FindOneRequest{Filter: filter, Options: opts}, nil

	case OperationFindOneAndUpdate:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		update, err := r.update()
		if err != nil {
			return nil, err
		}

		opts, err := parseWith(r, ParamFindOneAndUpdateOptions, parseFindOneAndUpdateOptions)
		if err != nil {
			return nil, err
		}

		return FindOneAndUpdateRequest{Filter: filter, Update: update, Options: opts}, nil

	case OperationAggregate:
		pipeline, err := r.documents(ParamPipeline)
		if err != nil {
			return nil, err
		}

		return AggregateRequest{Pipeline: pipeline}, nil

	case OperationUpdateOne, OperationUpdateMany:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		update, err := r.update()
		if err != nil {
			return nil, err
		}

		opts, err := parseWith(r, ParamUpdateOptions, parseUpdateOptions)
		if err != nil {
			return nil, err
		}

		if op == OperationUpdateMany {
			return UpdateManyRequest{Filter: filter, Update: update, Options: opts}, nil
		}

		return UpdateOneRequest{Filter: filter, Update: update, Options: opts}, nil

	case OperationReplaceOne:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		replacement, err := r.document(ParamReplacement)
		if err != nil {
			return nil, err
		}

		return ReplaceOneRequest{Filter: filter, Replacement: replacement}, nil

	case OperationDeleteOne, OperationDeleteMany:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		if op == OperationDeleteMany {
			return DeleteManyRequest{Filter: filter}, nil
		}

		return DeleteOneRequest{Filter: filter}, nil

	case OperationCountDocuments:
		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		return CountDocumentsRequest{Filter: filter}, nil

	case OperationEstimatedDocumentCount:
		return EstimatedDocumentCountRequest{}, nil

	case OperationDistinct:
		field, err := r.raw(ParamField)
		if err != nil {
			return nil, err
		}

		field = strings.TrimSpace(field)
		if field == "" {
			return nil, r.fail(ParamField, errors.New("field name is required"))
		}

		filter, err := r.document(ParamFilter)
		if err != nil {
			return nil, err
		}

		return DistinctRequest{Field: field, Filter: filter}, nil

	case OperationBulkWrite:
		models, err := parseWith(r, ParamOperations, parseBulkOperations)
		if err != nil {
			return nil, err
		}

		return BulkWriteRequest{Models: models}, nil
	}

	return nil, &UnsupportedOperationError{Operation: string(op)}
}
