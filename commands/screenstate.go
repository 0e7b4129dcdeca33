package commands

import (
	"context"
	"encoding/base64"

	log "github.com/sirupsen/logrus"

	"github.com/droidbridge/droidbridge/screen"
	"github.com/droidbridge/droidbridge/utils"
)

// ScreenStateRequest carries the arguments of the screen_state tool.
type ScreenStateRequest struct {
	IncludeScreenshot bool `json:"include_screenshot"`
}

// ScreenStateCommand builds the compact screen-state document and, when
// requested, an annotated JPEG screenshot. The returned content list always
// starts with the text item; the image item, when present, is second.
//
// Everything is built fresh for this call: the snapshot, the serialized text
// and the annotated bitmap are derived from the same capture and discarded
// with the response.
func ScreenStateCommand(ctx context.Context, deps Deps, req ScreenStateRequest) ([]Content, error) {
	deps = deps.Normalize()

	if !deps.Introspector.IsReady() {
		return nil, PermissionDenied("ui introspection is not ready on the device")
	}

	info, err := deps.Meta.CurrentScreenInfo(ctx)
	if err != nil {
		return nil, ActionFailed("could not read screen metadata", err)
	}

	snap, err := screen.BuildSnapshot(ctx, deps.Introspector)
	if err != nil {
		return nil, ActionFailed("could not capture ui snapshot", err)
	}

	text := screen.Serialize(snap, info)
	contents := []Content{TextContent(text)}

	if !req.IncludeScreenshot {
		return contents, nil
	}

	if deps.Capture == nil || !deps.Capture.IsAvailable() {
		return nil, PermissionDenied("screen capture is not available on the device")
	}

	bitmap, err := deps.Capture.CaptureResized(ctx, deps.ScreenshotMaxDim, deps.ScreenshotMaxDim)
	if err != nil {
		return nil, ActionFailed("could not capture screenshot", err)
	}

	targets := screen.AnnotationTargets(snap)
	annotated, err := screen.Annotate(bitmap, targets, info.Width, info.Height)
	if err != nil {
		return nil, ActionFailed("could not annotate screenshot", err)
	}

	jpegBytes, err := utils.EncodeJPEG(annotated, deps.ScreenshotQuality)
	if err != nil {
		return nil, ActionFailed("could not encode screenshot", err)
	}

	log.Debugf("screen_state: %d windows (degraded=%v), %d annotation targets, %d image bytes",
		len(snap.Windows), snap.Degraded, len(targets), len(jpegBytes))

	contents = append(contents, ImageContent(base64.StdEncoding.EncodeToString(jpegBytes), "image/jpeg"))
	return contents, nil
}
