// Package devices provides the collaborator interfaces the tool handlers are
// built against, plus the concrete providers: an adb-backed fallback and a
// client for the on-device companion agent.
package devices

import (
	"context"
	"image"

	"github.com/droidbridge/droidbridge/screen"
)

// Introspector enumerates windows and resolves element trees. The agent
// provider implements the full multi-window contract; the adb provider only
// supplies a single active root, which the normalizer reports as degraded.
type Introspector = screen.Introspector

// ScreenCapturer grabs the current screen as a bitmap, already resized so
// neither dimension exceeds the given maximum.
type ScreenCapturer interface {
	IsAvailable() bool
	CaptureResized(ctx context.Context, maxWidth, maxHeight int) (image.Image, error)
}

// ScreenMeta reports display geometry.
type ScreenMeta interface {
	CurrentScreenInfo(ctx context.Context) (screen.ScreenInfo, error)
}

// Gestures executes touch and key input on the device.
type Gestures interface {
	Tap(ctx context.Context, x, y int) error
	LongPress(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error
	InputText(ctx context.Context, text string) error
	PressButton(ctx context.Context, button string) error
}

// AppInfo is one installed package.
type AppInfo struct {
	Package string `json:"package"`
}

// AppManager launches, terminates and lists applications.
type AppManager interface {
	LaunchApp(ctx context.Context, pkg string) error
	TerminateApp(ctx context.Context, pkg string) error
	ListApps(ctx context.Context) ([]AppInfo, error)
}
