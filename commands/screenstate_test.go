package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidbridge/droidbridge/screen"
)

type stubIntrospector struct {
	ready bool
	root  *screen.Node
}

func (s *stubIntrospector) IsReady() bool { return s.ready }

func (s *stubIntrospector) ListWindows(ctx context.Context) ([]screen.RawWindow, error) {
	return nil, errors.New("window enumeration not supported")
}

func (s *stubIntrospector) ActiveRoot(ctx context.Context) (*screen.Node, error) {
	if s.root == nil {
		return nil, errors.New("no active root")
	}
	return s.root, nil
}

type stubCapture struct {
	available bool
	err       error
}

func (s stubCapture) IsAvailable() bool { return s.available }

func (s stubCapture) CaptureResized(ctx context.Context, maxW, maxH int) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return image.NewNRGBA(image.Rect(0, 0, 270, 600)), nil
}

type stubMeta struct {
	info screen.ScreenInfo
	err  error
}

func (s stubMeta) CurrentScreenInfo(ctx context.Context) (screen.ScreenInfo, error) {
	return s.info, s.err
}

func testRoot() *screen.Node {
	return &screen.Node{
		ID:        "root",
		ClassName: "android.widget.FrameLayout",
		Bounds:    screen.Rect{Right: 1080, Bottom: 2400},
		Enabled:   true,
		Visible:   true,
		Children: []screen.Node{{
			ID:        "btn1",
			ClassName: "android.widget.Button",
			Text:      "OK",
			Bounds:    screen.Rect{Left: 50, Top: 800, Right: 250, Bottom: 1000},
			Clickable: true,
			Enabled:   true,
			Visible:   true,
		}},
	}
}

func screenStateDeps() Deps {
	return Deps{
		Introspector: &stubIntrospector{ready: true, root: testRoot()},
		Capture:      stubCapture{available: true},
		Meta:         stubMeta{info: screen.ScreenInfo{Width: 1080, Height: 2400, DensityDPI: 420, Orientation: screen.Portrait}},
	}
}

func TestScreenStateTextOnly(t *testing.T) {
	contents, err := ScreenStateCommand(context.Background(), screenStateDeps(), ScreenStateRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	assert.Equal(t, "text", contents[0].Type)
	assert.Contains(t, contents[0].Text, "screen:1080x2400 density:420 orientation:portrait")
	assert.Contains(t, contents[0].Text, "btn1")
}

func TestScreenStateWithScreenshot(t *testing.T) {
	contents, err := ScreenStateCommand(context.Background(), screenStateDeps(), ScreenStateRequest{IncludeScreenshot: true})
	require.NoError(t, err)
	require.Len(t, contents, 2)

	assert.Equal(t, "text", contents[0].Type)
	assert.Equal(t, "image", contents[1].Type)
	assert.Equal(t, "image/jpeg", contents[1].MimeType)

	imgBytes, err := base64.StdEncoding.DecodeString(contents[1].Data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(imgBytes, []byte{0xff, 0xd8}))
}

func TestScreenStateIntrospectionNotReady(t *testing.T) {
	deps := screenStateDeps()
	deps.Introspector = &stubIntrospector{ready: false}

	_, err := ScreenStateCommand(context.Background(), deps, ScreenStateRequest{})
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, KindPermissionDenied, toolErr.Kind)
}

func TestScreenStateCaptureUnavailable(t *testing.T) {
	deps := screenStateDeps()
	deps.Capture = stubCapture{available: false}

	_, err := ScreenStateCommand(context.Background(), deps, ScreenStateRequest{IncludeScreenshot: true})
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, KindPermissionDenied, toolErr.Kind)
	assert.Contains(t, toolErr.Message, "screen capture is not available")
}

func TestScreenStateNilCapture(t *testing.T) {
	deps := screenStateDeps()
	deps.Capture = nil

	// text-only works without any capture collaborator
	contents, err := ScreenStateCommand(context.Background(), deps, ScreenStateRequest{})
	require.NoError(t, err)
	assert.Len(t, contents, 1)

	// requesting a screenshot does not
	_, err = ScreenStateCommand(context.Background(), deps, ScreenStateRequest{IncludeScreenshot: true})
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, KindPermissionDenied, toolErr.Kind)
}

func TestScreenStateCaptureError(t *testing.T) {
	deps := screenStateDeps()
	deps.Capture = stubCapture{available: true, err: errors.New("screencap exited 1")}

	_, err := ScreenStateCommand(context.Background(), deps, ScreenStateRequest{IncludeScreenshot: true})
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, KindActionFailed, toolErr.Kind)
	assert.ErrorContains(t, errors.Unwrap(toolErr), "screencap")
}

func TestScreenStateMetaError(t *testing.T) {
	deps := screenStateDeps()
	deps.Meta = stubMeta{err: errors.New("wm size failed")}

	_, err := ScreenStateCommand(context.Background(), deps, ScreenStateRequest{})
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, KindActionFailed, toolErr.Kind)
}

func TestScreenStateNoRootAnywhere(t *testing.T) {
	deps := screenStateDeps()
	deps.Introspector = &stubIntrospector{ready: true, root: nil}

	_, err := ScreenStateCommand(context.Background(), deps, ScreenStateRequest{})
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, KindActionFailed, toolErr.Kind)
}

func TestScreenStateDegradedNote(t *testing.T) {
	// the stub introspector cannot enumerate windows, so the document must
	// carry the degraded marker
	contents, err := ScreenStateCommand(context.Background(), screenStateDeps(), ScreenStateRequest{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(contents[0].Text, "DEGRADED"))
}

func TestDepsNormalizeDefaults(t *testing.T) {
	d := Deps{}.Normalize()
	assert.Equal(t, DefaultScreenshotQuality, d.ScreenshotQuality)
	assert.Equal(t, DefaultScreenshotMaxDim, d.ScreenshotMaxDim)

	d = Deps{ScreenshotQuality: 101, ScreenshotMaxDim: -1}.Normalize()
	assert.Equal(t, DefaultScreenshotQuality, d.ScreenshotQuality)
	assert.Equal(t, DefaultScreenshotMaxDim, d.ScreenshotMaxDim)

	d = Deps{ScreenshotQuality: 90, ScreenshotMaxDim: 720}.Normalize()
	assert.Equal(t, 90, d.ScreenshotQuality)
	assert.Equal(t, 720, d.ScreenshotMaxDim)
}
