package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/droidbridge/droidbridge/commands"
)

// ToolHandler executes one tool call. Arguments arrive unmodified; the
// handler is responsible for its own validation.
type ToolHandler func(ctx context.Context, args json.RawMessage) ([]commands.Content, error)

// Tool is one named, schema-described operation exposed to clients.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     ToolHandler
}

// ToolDescriptor is the client-facing shape returned by tools/list.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Envelope is the uniform result wrapper for every tool call. Errors carry a
// single human-readable text item; kinds and internal details never reach
// the wire.
type Envelope struct {
	Content []commands.Content `json:"content"`
	IsError bool               `json:"isError"`
}

func errorEnvelope(message string) Envelope {
	return Envelope{
		Content: []commands.Content{commands.TextContent(message)},
		IsError: true,
	}
}

// Registry maps tool names to handlers. It is populated at startup and
// immutable afterwards; Dispatch is safe for concurrent use.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice is a programming
// error and fails fast.
func (r *Registry) Register(t Tool) {
	if t.Name == "" {
		panic("server: tool registered with empty name")
	}
	if t.Handler == nil {
		panic(fmt.Sprintf("server: tool %q registered without handler", t.Name))
	}
	if _, exists := r.tools[t.Name]; exists {
		panic(fmt.Sprintf("server: tool %q registered twice", t.Name))
	}
	r.tools[t.Name] = t
}

// List returns descriptors for every registered tool, sorted by name.
func (r *Registry) List() []ToolDescriptor {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make([]ToolDescriptor, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		schema := t.InputSchema
		if schema == nil {
			schema = map[string]interface{}{"type": "object"}
		}
		descriptors = append(descriptors, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return descriptors
}

// Dispatch looks the tool up by exact name, executes it and converts the
// outcome into an Envelope. Declared failures become their client-facing
// message; undeclared faults (including panics) are logged and surfaced as a
// generic message.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) Envelope {
	tool, exists := r.tools[name]
	if !exists {
		return errorEnvelope(fmt.Sprintf("tool not found: %s", name))
	}

	contents, err := safeInvoke(ctx, tool, args)
	if err != nil {
		var toolErr *commands.Error
		if errors.As(err, &toolErr) {
			log.WithFields(log.Fields{"tool": name, "kind": toolErr.Kind.String()}).
				Warnf("tool call failed: %v", err)
			return errorEnvelope(toolErr.Message)
		}

		log.WithField("tool", name).Errorf("tool call failed: %v", err)
		return errorEnvelope("tool execution failed")
	}

	return Envelope{Content: contents}
}

func safeInvoke(ctx context.Context, tool Tool, args json.RawMessage) (contents []commands.Content, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in tool %s: %v", tool.Name, rec)
		}
	}()
	return tool.Handler(ctx, args)
}
