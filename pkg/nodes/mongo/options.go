package mongo

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// rawOptions is the union of every option key the node accepts. Keys that do
// not apply to an operation are ignored.
type rawOptions struct {
	Projection     bson.RawValue `bson:"projection"`
	Sort           bson.RawValue `bson:"sort"`
	Skip           *int64        `bson:"skip"`
	Limit          *int64        `bson:"limit"`
	BatchSize      *int32        `bson:"batchSize"`
	Hint           bson.RawValue `bson:"hint"`
	Collation      bson.RawValue `bson:"collation"`
	Upsert         *bool         `bson:"upsert"`
	ArrayFilters   bson.RawValue `bson:"arrayFilters"`
	ReturnDocument string        `bson:"returnDocument"`
}

// optionError names the option key that failed to parse.
type optionError struct {
	key string
	err error
}

func (e *optionError) Error() string {
	return e.key + ": " + e.err.Error()
}

func (e *optionError) Unwrap() error {
	return e.err
}

func decodeRawOptions(source string) (rawOptions, error) {
	raw, err := parseExtJSON(source, "{}")
	if err != nil {
		return rawOptions{}, err
	}

	if raw.Type != bson.TypeEmbeddedDocument {
		return rawOptions{}, errNotDocument
	}

	var opts rawOptions

	err = raw.Unmarshal(&opts)
	if err != nil {
		return rawOptions{}, err
	}

	return opts, nil
}

func (r rawOptions) projectionSort() (bson.D, bson.D, error) {
	projection, err := documentOption(r.Projection)
	if err != nil {
		return nil, nil, &optionError{key: "projection", err: err}
	}

	sort, err := documentOption(r.Sort)
	if err != nil {
		return nil, nil, &optionError{key: "sort", err: err}
	}

	return projection, sort, nil
}

func (r rawOptions) hint() (any, error) {
	hint, err := hintOption(r.Hint)
	if err != nil {
		return nil, &optionError{key: "hint", err: err}
	}

	return hint, nil
}

func (r rawOptions) collation() (*Collation, error) {
	collation, err := collationOption(r.Collation)
	if err != nil {
		return nil, &optionError{key: "collation", err: err}
	}

	return collation, nil
}

func (r rawOptions) arrayFilters() (bson.A, error) {
	filters, err := arrayOption(r.ArrayFilters)
	if err != nil {
		return nil, &optionError{key: "arrayFilters", err: err}
	}

	return filters, nil
}

func parseFindOptions(source string) (FindOptions, error) {
	raw, err := decodeRawOptions(source)
	if err != nil {
		return FindOptions{}, err
	}

	projection, sort, err := raw.projectionSort()
	if err != nil {
		return FindOptions{}, err
	}

	hint, err := raw.hint()
	if err != nil {
		return FindOptions{}, err
	}

	collation, err := raw.collation()
	if err != nil {
		return FindOptions{}, err
	}

	opts := FindOptions{
		Projection: projection,
		Sort:       sort,
		Skip:       raw.Skip,
		Limit:      raw.Limit,
		BatchSize:  raw.BatchSize,
		Hint:       hint,
		Collation:  collation,
	}

	return opts, validate.Struct(opts)
}

func parseFindOneOptions(source string) (FindOneOptions, error) {
	raw, err := decodeRawOptions(source)
	if err != nil {
		return FindOneOptions{}, err
	}

	projection, sort, err := raw.projectionSort()
	if err != nil {
		return FindOneOptions{}, err
	}

	hint, err := raw.hint()
	if err != nil {
		return FindOneOptions{}, err
	}

	collation, err := raw.collation()
	if err != nil {
		return FindOneOptions{}, err
	}

	opts := FindOneOptions{
		Projection: projection,
		Sort:       sort,
		Hint:       hint,
		Collation:  collation,
	}

	return opts, validate.Struct(opts)
}

func parseUpdateOptions(source string) (UpdateOptions, error) {
	raw, err := decodeRawOptions(source)
	if err != nil {
		return UpdateOptions{}, err
	}

	hint, err := raw.hint()
	if err != nil {
		return UpdateOptions{}, err
	}

	collation, err := raw.collation()
	if err != nil {
		return UpdateOptions{}, err
	}

	filters, err := raw.arrayFilters()
	if err != nil {
		return UpdateOptions{}, err
	}

	opts := UpdateOptions{
		Upsert:       raw.Upsert,
		Hint:         hint,
		ArrayFilters: filters,
		Collation:    collation,
	}

	return opts, validate.Struct(opts)
}

func parseFindOneAndUpdateOptions(source string) (FindOneAndUpdateOptions, error) {
	raw, err := decodeRawOptions(source)
	if err != nil {
		return FindOneAndUpdateOptions{}, err
	}

	projection, sort, err := raw.projectionSort()
	if err != nil {
		return FindOneAndUpdateOptions{}, err
	}

	hint, err := raw.hint()
	if err != nil {
		return FindOneAndUpdateOptions{}, err
	}

	filters, err := raw.arrayFilters()
	if err != nil {
		return FindOneAndUpdateOptions{}, err
	}

	opts := FindOneAndUpdateOptions{
		Projection:     projection,
		Sort:           sort,
		Hint:           hint,
		Upsert:         raw.Upsert,
		ReturnDocument: ReturnDocument(raw.ReturnDocument),
		ArrayFilters:   filters,
	}

	return opts, validate.Struct(opts)
}
