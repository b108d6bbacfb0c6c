package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

type registeredTool struct {
	spec   ToolSpec
	schema *gojsonschema.Schema
}

// Registry holds the tool set in registration order. It is filled at startup
// and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	tools  []registeredTool
	byName map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

func (r *Registry) Register(spec ToolSpec) error {
	name := spec.Name()
	if name == "" || spec.Invoke == nil {
		return fmt.Errorf("%w: %q needs a name and an invoke function", ErrInvalidToolSpec, name)
	}

	raw, err := json.Marshal(spec.Function.Parameters)
	if err != nil {
		return fmt.Errorf("%w: %s parameters: %v", ErrInvalidToolSpec, name, err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %s schema: %v", ErrInvalidToolSpec, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, name)
	}

	r.byName[name] = len(r.tools)
	r.tools = append(r.tools, registeredTool{spec: spec, schema: schema})
	return nil
}

// List returns the tools in registration order.
func (r *Registry) List() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.spec)
	}
	return specs
}

func (r *Registry) Names() []string {
	specs := r.List()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name())
	}
	return names
}

func (r *Registry) Lookup(name string) (ToolSpec, bool) {
	t, ok := r.lookup(name)
	if !ok {
		return ToolSpec{}, false
	}
	return t.spec, true
}

// APITools returns the model-facing schemas.
func (r *Registry) APITools() []api.Tool {
	specs := r.List()
	out := make([]api.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Tool)
	}
	return out
}

// Validate checks args against the declared parameter schema.
func (r *Registry) Validate(name string, args api.ToolCallFunctionArguments) error {
	t, ok := r.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolUnregistered, name)
	}

	var doc any = map[string]any{}
	if args != nil {
		doc = map[string]any(args)
	}

	result, err := t.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}

	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidArguments, name, strings.Join(problems, "; "))
	}

	return nil
}

// Invoke runs a tool and always returns an observation. Unknown tools and
// panics are reported as text.
func (r *Registry) Invoke(ctx context.Context, name string, args api.ToolCallFunctionArguments) (observation string) {
	t, ok := r.lookup(name)
	if !ok {
		return fmt.Sprintf("An error occurred while calling %s: %v", name, ErrToolUnregistered)
	}

	if args == nil {
		args = api.ToolCallFunctionArguments{}
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Tool panicked", zap.String("tool", name), zap.Any("panic", rec))
			observation = fmt.Sprintf("An error occurred while running %s: %v", name, rec)
		}
		logger.Info("Tool finished", zap.String("tool", name), zap.Duration("duration", time.Since(start)))
	}()

	return t.spec.Invoke(ctx, args)
}

func (r *Registry) lookup(name string) (registeredTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return registeredTool{}, false
	}
	return r.tools[idx], true
}
