// Package commands implements the tool handlers exposed through the server's
// registry. Every handler receives its collaborators explicitly; there is no
// process-wide device state.
package commands

import (
	"github.com/droidbridge/droidbridge/devices"
)

// Content is one item of a tool result. Type is "text" or "image"; image
// items carry base64 data plus a MIME type.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextContent builds a text content item.
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// ImageContent builds an image content item from already-encoded bytes.
func ImageContent(base64Data, mimeType string) Content {
	return Content{Type: "image", Data: base64Data, MimeType: mimeType}
}

// Deps bundles the collaborator interfaces the tool handlers need. The
// server constructs one Deps at startup and hands it to every handler;
// tests substitute fakes.
type Deps struct {
	Introspector devices.Introspector
	Capture      devices.ScreenCapturer
	Meta         devices.ScreenMeta
	Gestures     devices.Gestures
	Apps         devices.AppManager

	// ScreenshotQuality is the JPEG quality (1-100) for screen_state images.
	ScreenshotQuality int

	// ScreenshotMaxDim caps the longer screenshot dimension in pixels.
	ScreenshotMaxDim int
}

const (
	DefaultScreenshotQuality = 80
	DefaultScreenshotMaxDim  = 1080
)

// Normalize fills unset tuning fields with defaults.
func (d Deps) Normalize() Deps {
	if d.ScreenshotQuality <= 0 || d.ScreenshotQuality > 100 {
		d.ScreenshotQuality = DefaultScreenshotQuality
	}
	if d.ScreenshotMaxDim <= 0 {
		d.ScreenshotMaxDim = DefaultScreenshotMaxDim
	}
	return d
}

var okContent = []Content{TextContent("ok")}
