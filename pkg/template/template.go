// Package template renders node parameters against per-item data.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/dukex/operion-mongo/pkg/models"
)

// Template is a parsed parameter. Parameters without actions are static and
// render without executing the template engine.
type Template struct {
	name   string
	source string
	tmpl   *template.Template
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(max int) int {
		if max <= 0 {
			return 0
		}

		num := make([]byte, 1)

		_, err := rand.Read(num)
		if err != nil {
			return 0
		}

		return int(num[0]) % max
	},
	"json": func(v any) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}

		return string(data), nil
	},
}

// Compile parses source once so it can be rendered for many items.
func Compile(name, source string) (*Template, error) {
	t := &Template{name: name, source: source}

	if !strings.Contains(source, "{{") {
		return t, nil
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}

	t.tmpl = tmpl

	return t, nil
}

// MustCompile is like Compile but panics on error. Intended for constants.
func MustCompile(name, source string) *Template {
	t, err := Compile(name, source)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *Template) Name() string {
	return t.name
}

func (t *Template) Source() string {
	return t.source
}

// IsStatic reports whether the template renders to its source for every item.
func (t *Template) IsStatic() bool {
	return t.tmpl == nil
}

// Render executes the template against data.
func (t *Template) Render(data any) (string, error) {
	if t.tmpl == nil {
		return t.source, nil
	}

	var buf strings.Builder

	err := t.tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", t.name, err)
	}

	return buf.String(), nil
}

// Scope holds the template data shared by every item of one invocation.
// The process environment is read at most once per scope, on first use.
type Scope struct {
	executionCtx *models.ExecutionContext
	env          func() map[string]any
}

func NewScope(executionCtx *models.ExecutionContext) *Scope {
	if executionCtx == nil {
		executionCtx = &models.ExecutionContext{}
	}

	return &Scope{
		executionCtx: executionCtx,
		env:          sync.OnceValue(getEnvVars),
	}
}

// ItemData builds the data exposed to templates for the item at index.
func (s *Scope) ItemData(item models.Item, index int) map[string]any {
	return map[string]any{
		"json":      item.JSON,
		"index":     index,
		"vars":      s.executionCtx.Variables,
		"variables": s.executionCtx.Variables,
		"metadata":  s.executionCtx.Metadata,
		"env":       s.env(),
		"execution": map[string]any{
			"id":          s.executionCtx.ID,
			"workflow_id": s.executionCtx.WorkflowID,
		},
	}
}

var environ = os.Environ

// getEnvVars returns environment variables as a map.
func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
