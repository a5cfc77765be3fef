package registry

import (
	"github.com/dukex/operion-mongo/pkg/nodes/mongo"
	"go.opentelemetry.io/otel/trace"
)

// RegisterDefaultNodes registers the built-in node factories.
func (r *Registry) RegisterDefaultNodes(connector mongo.Connector, tracer trace.Tracer) {
	r.RegisterNode(mongo.NewFactory(connector, r.logger, mongo.WithTracer(tracer)))
}
