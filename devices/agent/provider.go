package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/droidbridge/droidbridge/screen"
	"github.com/droidbridge/droidbridge/utils"
)

// wireWindow is one window entry as reported by the agent's ui.windows.
type wireWindow struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Package  string `json:"package,omitempty"`
	Activity string `json:"activity,omitempty"`
	Layer    int    `json:"layer"`
	Focused  bool   `json:"focused"`
}

type windowsResult struct {
	Windows []wireWindow `json:"windows"`
}

type treeResult struct {
	Root *screen.Node `json:"root"`
}

type captureResult struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// Introspector

func (c *Client) IsReady() bool {
	return c.HealthCheck() == nil
}

// ListWindows enumerates windows. Each returned window carries a root
// supplier that resolves its tree lazily, so one vanished window does not
// fail the whole snapshot.
func (c *Client) ListWindows(ctx context.Context) ([]screen.RawWindow, error) {
	raw, err := c.call(ctx, "ui.windows", nil)
	if err != nil {
		return nil, err
	}

	var result windowsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ui.windows response: %w", err)
	}

	windows := make([]screen.RawWindow, 0, len(result.Windows))
	for _, w := range result.Windows {
		windowID := w.ID
		windows = append(windows, screen.RawWindow{
			ID:       w.ID,
			Type:     w.Type,
			Title:    w.Title,
			Package:  w.Package,
			Activity: w.Activity,
			Layer:    w.Layer,
			Focused:  w.Focused,
			Root: func(ctx context.Context) (*screen.Node, error) {
				return c.resolveTree(ctx, windowID)
			},
		})
	}
	return windows, nil
}

func (c *Client) resolveTree(ctx context.Context, windowID int) (*screen.Node, error) {
	raw, err := c.callWithTimeout(ctx, "ui.tree", map[string]interface{}{"windowId": windowID}, 15*time.Second)
	if err != nil {
		return nil, err
	}

	var result treeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ui.tree response: %w", err)
	}
	if result.Root == nil {
		return nil, fmt.Errorf("window %d has no element tree", windowID)
	}
	return result.Root, nil
}

func (c *Client) ActiveRoot(ctx context.Context) (*screen.Node, error) {
	raw, err := c.callWithTimeout(ctx, "ui.tree", map[string]interface{}{}, 15*time.Second)
	if err != nil {
		return nil, err
	}

	var result treeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ui.tree response: %w", err)
	}
	if result.Root == nil {
		return nil, fmt.Errorf("no active element tree")
	}
	return result.Root, nil
}

// ScreenMeta

func (c *Client) CurrentScreenInfo(ctx context.Context) (screen.ScreenInfo, error) {
	raw, err := c.call(ctx, "screen.info", nil)
	if err != nil {
		return screen.ScreenInfo{}, err
	}

	var info screen.ScreenInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return screen.ScreenInfo{}, fmt.Errorf("failed to parse screen.info response: %w", err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return screen.ScreenInfo{}, fmt.Errorf("agent reported invalid screen size %dx%d", info.Width, info.Height)
	}
	return info, nil
}

// ScreenCapturer

func (c *Client) IsAvailable() bool {
	return c.HealthCheck() == nil
}

func (c *Client) CaptureResized(ctx context.Context, maxWidth, maxHeight int) (image.Image, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid max dimensions %dx%d", maxWidth, maxHeight)
	}

	params := map[string]interface{}{
		"maxWidth":  maxWidth,
		"maxHeight": maxHeight,
		"format":    "png",
	}
	raw, err := c.callWithTimeout(ctx, "screen.capture", params, 30*time.Second)
	if err != nil {
		return nil, err
	}

	var result captureResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse screen.capture response: %w", err)
	}

	pngBytes, err := base64.StdEncoding.DecodeString(result.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screen.capture data: %w", err)
	}

	img, err := utils.DecodePNG(pngBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	// the agent is asked to resize, but older agents ignore the maxima
	return utils.ResizeToFit(img, maxWidth, maxHeight), nil
}
