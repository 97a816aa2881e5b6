package agent

import (
	"context"
	"sort"

	"github.com/alanpramil7/agent-v1/llm"
)

// Tool is a callable capability exposed to the reasoning loop. Execute must
// return either a textual result or an error; it must never let a fault
// escape the boundary in any other way, and it must be safe to retry.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// FuncTool wraps a plain function as a Tool.
type FuncTool struct {
	ToolName   string
	ToolDesc   string
	ToolParams map[string]any
	Fn         func(ctx context.Context, args map[string]any) (string, error)
}

func (f *FuncTool) Name() string               { return f.ToolName }
func (f *FuncTool) Description() string        { return f.ToolDesc }
func (f *FuncTool) Parameters() map[string]any { return f.ToolParams }
func (f *FuncTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return f.Fn(ctx, args)
}

// Registry is a static name-to-tool mapping resolved once at startup. It is
// read-only after construction and shared across conversations.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools. Later tools shadow
// earlier ones with the same name.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns a tool by name or nil.
func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// Names returns all tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Schemas returns the tool descriptors in a stable, name-sorted order so the
// model sees the same tool listing on every call.
func (r *Registry) Schemas() []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
