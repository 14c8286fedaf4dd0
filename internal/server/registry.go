package server

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// ErrUnknownTool is returned when a tools/call names an unregistered tool.
var ErrUnknownTool = errors.New("unknown tool")

// ErrToolPanicked is returned when a tool handler panics. The panic is
// recovered so one bad request cannot take down the server.
var ErrToolPanicked = errors.New("tool panicked")

// Tool represents an MCP tool definition
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Handler executes a tool with raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

type registeredTool struct {
	Tool
	handler Handler
}

// defaulter is implemented by argument structs that fill in optional values
// before validation.
type defaulter interface {
	setDefaults()
}

// Registry maps tool names to typed handlers.
//
// Registry is safe for concurrent use, although the server registers all
// tools before serving.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*registeredTool
	order    []string
	validate *validator.Validate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]*registeredTool),
		validate: validator.New(),
	}
}

// Register adds a tool whose arguments decode into A.
//
// The input schema is reflected from A's json and jsonschema tags. On each
// call the arguments are decoded, defaulted (if *A implements setDefaults)
// and validated against A's validate tags before fn runs. A panic in fn is
// returned as ErrToolPanicked. Registering the same name twice panics.
func Register[A any](r *Registry, name, description string, fn func(context.Context, *A) (interface{}, error)) {
	handler := func(ctx context.Context, raw json.RawMessage) (result interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.KV(xlog.ERROR, "tool", name, "panic", p, "stack", string(debug.Stack()))
				result, err = nil, errors.Wrapf(ErrToolPanicked, "%s: %v", name, p)
			}
		}()

		args := new(A)
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, args); err != nil {
				return nil, errors.Wrap(err, "invalid arguments")
			}
		}
		if d, ok := any(args).(defaulter); ok {
			d.setDefaults()
		}
		if err := r.validate.Struct(args); err != nil {
			return nil, errors.Wrap(err, "invalid arguments")
		}
		return fn(ctx, args)
	}

	r.add(&registeredTool{
		Tool: Tool{
			Name:        name,
			Description: description,
			InputSchema: reflectSchema(new(A)),
		},
		handler: handler,
	})
}

func (r *Registry) add(t *registeredTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", t.Name))
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Definitions returns all tools in registration order.
func (r *Registry) Definitions() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Tool)
	}
	return defs
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTool, "%s", name)
	}
	return t.handler(ctx, args)
}

// reflectSchema builds an inline object schema for v's type.
func reflectSchema(v interface{}) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(v)
	// MCP clients expect a bare object schema
	s.Version = ""
	s.ID = ""
	return s
}
