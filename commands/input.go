package commands

import "context"

// TapRequest carries coordinates in screen pixels.
type TapRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SwipeRequest describes a swipe from (x1,y1) to (x2,y2).
type SwipeRequest struct {
	X1         int `json:"x1"`
	Y1         int `json:"y1"`
	X2         int `json:"x2"`
	Y2         int `json:"y2"`
	DurationMs int `json:"duration_ms,omitempty"`
}

// TextRequest carries text to type into the focused field.
type TextRequest struct {
	Text string `json:"text"`
}

// ButtonRequest names a hardware button to press.
type ButtonRequest struct {
	Button string `json:"button"`
}

const defaultSwipeDurationMs = 300

func validateCoord(name string, v int) error {
	if v < 0 {
		return InvalidParams("'%s' must be non-negative, got %d", name, v)
	}
	return nil
}

func TapCommand(ctx context.Context, deps Deps, req TapRequest) ([]Content, error) {
	if err := validateCoord("x", req.X); err != nil {
		return nil, err
	}
	if err := validateCoord("y", req.Y); err != nil {
		return nil, err
	}
	if err := deps.Gestures.Tap(ctx, req.X, req.Y); err != nil {
		return nil, ActionFailed("tap failed", err)
	}
	return okContent, nil
}

func LongPressCommand(ctx context.Context, deps Deps, req TapRequest) ([]Content, error) {
	if err := validateCoord("x", req.X); err != nil {
		return nil, err
	}
	if err := validateCoord("y", req.Y); err != nil {
		return nil, err
	}
	if err := deps.Gestures.LongPress(ctx, req.X, req.Y); err != nil {
		return nil, ActionFailed("long press failed", err)
	}
	return okContent, nil
}

func SwipeCommand(ctx context.Context, deps Deps, req SwipeRequest) ([]Content, error) {
	for _, c := range []struct {
		name string
		v    int
	}{{"x1", req.X1}, {"y1", req.Y1}, {"x2", req.X2}, {"y2", req.Y2}} {
		if err := validateCoord(c.name, c.v); err != nil {
			return nil, err
		}
	}
	if req.DurationMs < 0 {
		return nil, InvalidParams("'duration_ms' must be non-negative, got %d", req.DurationMs)
	}
	duration := req.DurationMs
	if duration == 0 {
		duration = defaultSwipeDurationMs
	}
	if err := deps.Gestures.Swipe(ctx, req.X1, req.Y1, req.X2, req.Y2, duration); err != nil {
		return nil, ActionFailed("swipe failed", err)
	}
	return okContent, nil
}

func TextCommand(ctx context.Context, deps Deps, req TextRequest) ([]Content, error) {
	if req.Text == "" {
		return nil, InvalidParams("'text' is required")
	}
	if err := deps.Gestures.InputText(ctx, req.Text); err != nil {
		return nil, ActionFailed("text input failed", err)
	}
	return okContent, nil
}

func ButtonCommand(ctx context.Context, deps Deps, req ButtonRequest) ([]Content, error) {
	if req.Button == "" {
		return nil, InvalidParams("'button' is required")
	}
	if err := deps.Gestures.PressButton(ctx, req.Button); err != nil {
		return nil, ActionFailed("button press failed", err)
	}
	return okContent, nil
}
