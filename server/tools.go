package server

import (
	"context"
	"encoding/json"

	"github.com/droidbridge/droidbridge/commands"
)

func objectSchema(required []string, props map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

// decodeArgs parses tool arguments. Absent arguments decode into the zero
// request; malformed JSON is an invalid-params failure.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return commands.InvalidParams("invalid arguments: %v", err)
	}
	return nil
}

// BuildRegistry wires every tool over the given collaborators. Registration
// happens once at startup; the registry is immutable afterwards.
func BuildRegistry(deps commands.Deps) *Registry {
	r := NewRegistry()

	r.Register(Tool{
		Name: "screen_state",
		Description: "Get the current screen state as a compact element table. " +
			"Optionally includes an annotated screenshot.",
		InputSchema: objectSchema(nil, map[string]interface{}{
			"include_screenshot": map[string]interface{}{
				"type":        "boolean",
				"description": "Also return an annotated JPEG screenshot (default false)",
			},
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.ScreenStateRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.ScreenStateCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "tap",
		Description: "Tap the screen at the given pixel coordinates.",
		InputSchema: objectSchema([]string{"x", "y"}, map[string]interface{}{
			"x": intProp("Horizontal coordinate in screen pixels"),
			"y": intProp("Vertical coordinate in screen pixels"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.TapRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.TapCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "long_press",
		Description: "Long-press the screen at the given pixel coordinates.",
		InputSchema: objectSchema([]string{"x", "y"}, map[string]interface{}{
			"x": intProp("Horizontal coordinate in screen pixels"),
			"y": intProp("Vertical coordinate in screen pixels"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.TapRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.LongPressCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "swipe",
		Description: "Swipe from one point to another. Use to scroll offscreen items into view.",
		InputSchema: objectSchema([]string{"x1", "y1", "x2", "y2"}, map[string]interface{}{
			"x1":          intProp("Start x"),
			"y1":          intProp("Start y"),
			"x2":          intProp("End x"),
			"y2":          intProp("End y"),
			"duration_ms": intProp("Swipe duration in milliseconds (default 300)"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.SwipeRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.SwipeCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "input_text",
		Description: "Type text into the currently focused input field.",
		InputSchema: objectSchema([]string{"text"}, map[string]interface{}{
			"text": stringProp("Text to type"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.TextRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.TextCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "press_button",
		Description: "Press a hardware button: home, back, power, volume_up, volume_down or enter.",
		InputSchema: objectSchema([]string{"button"}, map[string]interface{}{
			"button": stringProp("Button name"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.ButtonRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.ButtonCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "launch_app",
		Description: "Launch an application by package name.",
		InputSchema: objectSchema([]string{"package"}, map[string]interface{}{
			"package": stringProp("Application package name"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.AppRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.LaunchAppCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "terminate_app",
		Description: "Force-stop an application by package name.",
		InputSchema: objectSchema([]string{"package"}, map[string]interface{}{
			"package": stringProp("Application package name"),
		}),
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			var req commands.AppRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return commands.TerminateAppCommand(ctx, deps, req)
		},
	})

	r.Register(Tool{
		Name:        "list_apps",
		Description: "List installed application packages.",
		Handler: func(ctx context.Context, args json.RawMessage) ([]commands.Content, error) {
			return commands.ListAppsCommand(ctx, deps)
		},
	})

	return r
}
