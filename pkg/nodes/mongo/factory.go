package mongo

import (
	"context"
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/credentials"
	"github.com/dukex/operion-mongo/pkg/models"
	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"github.com/dukex/operion-mongo/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
)

const credentialTestSuccess = "Connection successful!"

// Factory creates mongo nodes that share one connector.
type Factory struct {
	connector Connector
	logger    *slog.Logger
	tracer    trace.Tracer
}

type FactoryOption func(*Factory)

func WithTracer(tracer trace.Tracer) FactoryOption {
	return func(f *Factory) {
		f.tracer = tracer
	}
}

// NewFactory creates a mongo node factory.
func NewFactory(connector Connector, logger *slog.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{
		connector: connector,
		logger:    logger.With("module", "mongo_node"),
		tracer:    otelhelper.Tracer(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create creates a new mongo node.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewNode(id, config, f.connector, f.logger, f.tracer)
}

func (f *Factory) ID() string {
	return NodeType
}

func (f *Factory) Name() string {
	return "MongoDB"
}

func (f *Factory) Description() string {
	return "Runs a MongoDB collection operation for every input item, optionally inside one transaction"
}

func (f *Factory) CredentialType() string {
	return credentials.Type
}

// TestCredentials resolves the credentials and pings the server.
func (f *Factory) TestCredentials(ctx context.Context, raw map[string]any) models.CredentialTestResult {
	resolved, err := credentials.ResolveMap(raw)
	if err != nil {
		return models.CredentialTestResult{Status: models.CredentialTestError, Message: err.Error()}
	}

	db, err := f.connector.Connect(ctx, resolved)
	if err == nil {
		err = db.Ping(ctx)
	}

	if err != nil {
		f.logger.WarnContext(ctx, "Credential test failed", "error", err)

		return models.CredentialTestResult{Status: models.CredentialTestError, Message: err.Error()}
	}

	return models.CredentialTestResult{Status: models.CredentialTestOK, Message: credentialTestSuccess}
}

func optionsSchema(properties map[string]any) map[string]any {
	return map[string]any{
		"type":                 []string{"object", "string"},
		"properties":           properties,
		"additionalProperties": true,
	}
}

var (
	projectionProperty = map[string]any{
		"type":        []string{"object", "string"},
		"description": "Fields to include or exclude",
		"examples":    []any{map[string]any{"_id": 0}},
	}
	sortProperty = map[string]any{
		"type":        []string{"object", "string"},
		"description": "Sort specification",
		"examples":    []any{map[string]any{"_id": -1}},
	}
	hintProperty = map[string]any{
		"type":        []string{"object", "string"},
		"description": "Index name or index key document to force",
	}
	collationProperty = map[string]any{
		"type":        []string{"object", "string"},
		"description": "Collation locale, or a full collation document",
		"examples":    []any{"en", map[string]any{"locale": "en", "strength": 2}},
	}
	upsertProperty = map[string]any{
		"type":        "boolean",
		"description": "Insert a document when nothing matches",
		"default":     false,
	}
	arrayFiltersProperty = map[string]any{
		"type":        []string{"array", "string"},
		"description": "Filters selecting array elements to update",
	}
)

// Schema returns the JSON schema for mongo node configuration.
func (f *Factory) Schema() map[string]any {
	operations := make([]string, len(Operations))
	for i, op := range Operations {
		operations[i] = op.String()
	}

	jsonValue := func(description string, examples ...any) map[string]any {
		return map[string]any{
			"type":        []string{"object", "array", "string"},
			"description": description,
			"examples":    examples,
		}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			ParamCollection: map[string]any{
				"type":        "string",
				"description": "Collection name. Rendered once per execution using the first item",
				"minLength":   1,
				"examples":    []string{"users", "{{ .vars.collection }}"},
			},
			ParamOperation: map[string]any{
				"type":        "string",
				"description": "Operation to run. Supports templating so each item can choose its own",
				"default":     DefaultOperation.String(),
				"examples":    append(operations, "{{ .json.op }}"),
			},
			ParamField: map[string]any{
				"type":        "string",
				"description": "Field name for distinct",
			},
			ParamFilter:      jsonValue("Query filter (Extended JSON)", `{"status": "active"}`, map[string]any{"_id": map[string]any{"$oid": "{{ .json.id }}"}}),
			ParamPipeline:    jsonValue("Aggregation pipeline", []any{map[string]any{"$match": map[string]any{}}}),
			ParamDocument:    jsonValue("Document for insertOne", `{{ json .json }}`),
			ParamDocuments:   jsonValue("Documents for insertMany", `{{ json .json.rows }}`),
			ParamUpdate:      jsonValue("Update document or pipeline", map[string]any{"$set": map[string]any{"status": "{{ .json.status }}"}}),
			ParamReplacement: jsonValue("Replacement document for replaceOne", `{{ json .json }}`),
			ParamOperations: jsonValue("Operations for bulkWrite",
				[]any{map[string]any{"insertOne": map[string]any{"document": map[string]any{"x": 1}}}},
			),
			ParamFindOptions: optionsSchema(map[string]any{
				"projection": projectionProperty,
				"sort":       sortProperty,
				"skip":       map[string]any{"type": "integer", "minimum": 0},
				"limit":      map[string]any{"type": "integer", "description": "Max number of results to return"},
				"batchSize":  map[string]any{"type": "integer", "minimum": 0},
				"hint":       hintProperty,
				"collation":  collationProperty,
			}),
			ParamFindOneOptions: optionsSchema(map[string]any{
				"projection": projectionProperty,
				"sort":       sortProperty,
				"hint":       hintProperty,
				"collation":  collationProperty,
			}),
			ParamUpdateOptions: optionsSchema(map[string]any{
				"upsert":       upsertProperty,
				"hint":         hintProperty,
				"arrayFilters": arrayFiltersProperty,
				"collation":    collationProperty,
			}),
			ParamFindOneAndUpdateOptions: optionsSchema(map[string]any{
				"projection":   projectionProperty,
				"sort":         sortProperty,
				"hint":         hintProperty,
				"upsert":       upsertProperty,
				"arrayFilters": arrayFiltersProperty,
				"returnDocument": map[string]any{
					"type":    "string",
					"enum":    []string{string(ReturnBefore), string(ReturnAfter)},
					"default": string(ReturnBefore),
				},
			}),
			ConfigRunInTransaction: map[string]any{
				"type":        "boolean",
				"description": "Run every item in one transaction. Requires a replica set",
				"default":     false,
			},
			ConfigContinueOnFail: map[string]any{
				"type":        "boolean",
				"description": "Attach failures to items instead of failing the execution",
				"default":     false,
			},
			ConfigStrictOperations: map[string]any{
				"type":        "boolean",
				"description": "Reject unknown operations. When false they produce a result of false",
				"default":     true,
			},
			ConfigMaxConcurrency: map[string]any{
				"type":        "integer",
				"description": "Maximum number of items in flight. 0 means unbounded",
				"minimum":     0,
				"default":     0,
			},
		},
		"required": []string{ParamCollection},
		"examples": []map[string]any{
			{
				ParamCollection: "users",
				ParamOperation:  "findOne",
				ParamFilter:     `{"email": "{{ .json.email }}"}`,
			},
			{
				ParamCollection:      "orders",
				ParamOperation:       "insertOne",
				ParamDocument:        `{{ json .json }}`,
				ConfigContinueOnFail: true,
			},
		},
	}
}
