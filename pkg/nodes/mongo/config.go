package mongo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/operion-mongo/pkg/template"
)

// Config keys that are not item parameters.
const (
	ConfigRunInTransaction = "run_in_transaction"
	ConfigContinueOnFail   = "continue_on_fail"
	ConfigStrictOperations = "strict_operations"
	ConfigMaxConcurrency   = "max_concurrency"
)

// templateParams are the config keys rendered per item.
var templateParams = []string{
	ParamCollection,
	ParamOperation,
	ParamField,
	ParamFilter,
	ParamPipeline,
	ParamDocument,
	ParamDocuments,
	ParamUpdate,
	ParamReplacement,
	ParamOperations,
	ParamFindOptions,
	ParamFindOneOptions,
	ParamUpdateOptions,
	ParamFindOneAndUpdateOptions,
}

// Config is the parsed node configuration.
type Config struct {
	RunInTransaction bool
	ContinueOnFail   bool
	StrictOperations bool
	MaxConcurrency   int

	templates map[string]*template.Template
}

// ParseConfig compiles every parameter template. Structured values are
// serialized to JSON first, so templates may appear inside them.
func ParseConfig(config map[string]any) (Config, error) {
	cfg := Config{
		StrictOperations: true,
		templates:        make(map[string]*template.Template, len(templateParams)),
	}

	for _, name := range templateParams {
		value, ok := config[name]
		if !ok || value == nil {
			continue
		}

		source, err := templateSource(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid '%s': %w", name, err)
		}

		tmpl, err := template.Compile(name, source)
		if err != nil {
			return Config{}, err
		}

		cfg.templates[name] = tmpl
	}

	collection, ok := cfg.templates[ParamCollection]
	if !ok || strings.TrimSpace(collection.Source()) == "" {
		return Config{}, fmt.Errorf("missing required field '%s': %w", ParamCollection, ErrCollectionRequired)
	}

	var err error

	if cfg.RunInTransaction, err = boolOption(config, ConfigRunInTransaction, false); err != nil {
		return Config{}, err
	}

	if cfg.ContinueOnFail, err = boolOption(config, ConfigContinueOnFail, false); err != nil {
		return Config{}, err
	}

	if cfg.StrictOperations, err = boolOption(config, ConfigStrictOperations, true); err != nil {
		return Config{}, err
	}

	if cfg.MaxConcurrency, err = intOption(config, ConfigMaxConcurrency); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Template returns the compiled template for a parameter, if configured.
func (c Config) Template(name string) (*template.Template, bool) {
	tmpl, ok := c.templates[name]

	return tmpl, ok
}

func templateSource(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func boolOption(config map[string]any, key string, fallback bool) (bool, error) {
	value, ok := config[key]
	if !ok || value == nil {
		return fallback, nil
	}

	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("'%s' must be a boolean", key)
	}

	return b, nil
}

func intOption(config map[string]any, key string) (int, error) {
	value, ok := config[key]
	if !ok || value == nil {
		return 0, nil
	}

	var n int

	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' must be an integer", key)
		}

		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	default:
		return 0, fmt.Errorf("'%s' must be a number", key)
	}

	if n < 0 {
		return 0, fmt.Errorf("'%s' must not be negative", key)
	}

	return n, nil
}
