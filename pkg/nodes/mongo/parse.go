package mongo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	errNotJSON     = errors.New("not valid JSON")
	errNotDocument = errors.New("expected a JSON object")
	errNotArray    = errors.New("expected a JSON array")
	errNotUpdate   = errors.New("expected an update document or a pipeline array")
)

type wrappedValue struct {
	V bson.RawValue `bson:"v"`
}

// parseExtJSON parses source as Extended JSON. Empty source parses as fallback.
func parseExtJSON(source, fallback string) (bson.RawValue, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = fallback
	}

	// Validating first keeps the wrapper below from being escaped.
	if !json.Valid([]byte(source)) {
		return bson.RawValue{}, errNotJSON
	}

	var w wrappedValue

	err := bson.UnmarshalExtJSON([]byte(`{"v":`+source+`}`), false, &w)
	if err != nil {
		return bson.RawValue{}, err
	}

	return w.V, nil
}

func parseDocument(source string) (bson.D, error) {
	raw, err := parseExtJSON(source, "{}")
	if err != nil {
		return nil, err
	}

	return rawDocument(raw)
}

func parseDocuments(source string) ([]bson.D, error) {
	raw, err := parseExtJSON(source, "[]")
	if err != nil {
		return nil, err
	}

	return rawDocuments(raw)
}

// parseUpdate accepts an update document or an aggregation pipeline.
func parseUpdate(source string) (any, error) {
	raw, err := parseExtJSON(source, "{}")
	if err != nil {
		return nil, err
	}

	switch raw.Type {
	case bson.TypeEmbeddedDocument:
		return rawDocument(raw)
	case bson.TypeArray:
		return rawDocuments(raw)
	default:
		return nil, errNotUpdate
	}
}

func rawDocument(raw bson.RawValue) (bson.D, error) {
	if raw.Type != bson.TypeEmbeddedDocument {
		return nil, errNotDocument
	}

	var doc bson.D

	err := raw.Unmarshal(&doc)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		doc = bson.D{}
	}

	return doc, nil
}

func rawDocuments(raw bson.RawValue) ([]bson.D, error) {
	if raw.Type != bson.TypeArray {
		return nil, errNotArray
	}

	var docs []bson.D

	err := raw.Unmarshal(&docs)
	if err != nil {
		return nil, fmt.Errorf("array elements must be objects: %w", err)
	}

	if docs == nil {
		docs = []bson.D{}
	}

	return docs, nil
}

func isAbsent(raw bson.RawValue) bool {
	return raw.IsZero() || raw.Type == bson.TypeNull || raw.Type == bson.TypeUndefined
}

// documentOption reads an option given either as an object or as a JSON
// string holding one.
func documentOption(raw bson.RawValue) (bson.D, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	if raw.Type == bson.TypeString {
		source := strings.TrimSpace(raw.StringValue())
		if source == "" {
			return nil, nil
		}

		return parseDocument(source)
	}

	return rawDocument(raw)
}

// arrayOption reads an option given either as an array or as a JSON string holding one.
func arrayOption(raw bson.RawValue) (bson.A, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	if raw.Type == bson.TypeString {
		source := strings.TrimSpace(raw.StringValue())
		if source == "" {
			return nil, nil
		}

		parsed, err := parseExtJSON(source, "[]")
		if err != nil {
			return nil, err
		}

		raw = parsed
	}

	if raw.Type != bson.TypeArray {
		return nil, errNotArray
	}

	var values bson.A

	err := raw.Unmarshal(&values)
	if err != nil {
		return nil, err
	}

	return values, nil
}

// hintOption accepts an index name or an index key document.
func hintOption(raw bson.RawValue) (any, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	switch raw.Type {
	case bson.TypeString:
		name := strings.TrimSpace(raw.StringValue())
		if name == "" {
			return nil, nil
		}

		return name, nil
	case bson.TypeEmbeddedDocument:
		return rawDocument(raw)
	default:
		return nil, errors.New("hint must be an index name or an index key document")
	}
}

// collationOption accepts a locale name or a collation document.
func collationOption(raw bson.RawValue) (*Collation, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	switch raw.Type {
	case bson.TypeString:
		locale := strings.TrimSpace(raw.StringValue())
		if locale == "" {
			return nil, nil
		}

		return &Collation{Locale: locale}, nil
	case bson.TypeEmbeddedDocument:
		var collation Collation

		err := raw.Unmarshal(&collation)
		if err != nil {
			return nil, err
		}

		return &collation, nil
	default:
		return nil, errors.New("collation must be a locale or a collation document")
	}
}
