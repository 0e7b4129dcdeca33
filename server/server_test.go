package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidbridge/droidbridge/commands"
	"github.com/droidbridge/droidbridge/devices"
	"github.com/droidbridge/droidbridge/screen"
)

// --- fake device collaborators ---

type fakeIntrospector struct {
	root *screen.Node
}

func (f *fakeIntrospector) IsReady() bool { return true }

func (f *fakeIntrospector) ListWindows(ctx context.Context) ([]screen.RawWindow, error) {
	return []screen.RawWindow{{
		ID:      42,
		Type:    "application",
		Package: "com.example.app",
		Focused: true,
		Root: func(ctx context.Context) (*screen.Node, error) {
			return f.root, nil
		},
	}}, nil
}

func (f *fakeIntrospector) ActiveRoot(ctx context.Context) (*screen.Node, error) {
	return f.root, nil
}

type fakeCapture struct{}

func (fakeCapture) IsAvailable() bool { return true }

func (fakeCapture) CaptureResized(ctx context.Context, maxW, maxH int) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 270, 600))
	for i := range img.Pix {
		img.Pix[i] = 0x20
	}
	img.Set(10, 10, color.NRGBA{R: 0xff, A: 0xff})
	return img, nil
}

type fakeMeta struct{}

func (fakeMeta) CurrentScreenInfo(ctx context.Context) (screen.ScreenInfo, error) {
	return screen.ScreenInfo{Width: 1080, Height: 2400, DensityDPI: 420, Orientation: screen.Portrait}, nil
}

type fakeGestures struct {
	taps  []string
	texts []string
}

func (f *fakeGestures) Tap(ctx context.Context, x, y int) error {
	f.taps = append(f.taps, "tap")
	return nil
}
func (f *fakeGestures) LongPress(ctx context.Context, x, y int) error { return nil }
func (f *fakeGestures) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	return nil
}
func (f *fakeGestures) InputText(ctx context.Context, text string) error {
	f.texts = append(f.texts, text)
	return nil
}
func (f *fakeGestures) PressButton(ctx context.Context, button string) error { return nil }

type fakeApps struct{}

func (fakeApps) LaunchApp(ctx context.Context, pkg string) error    { return nil }
func (fakeApps) TerminateApp(ctx context.Context, pkg string) error { return nil }
func (fakeApps) ListApps(ctx context.Context) ([]devices.AppInfo, error) {
	return []devices.AppInfo{{Package: "com.zulu"}, {Package: "com.alpha"}}, nil
}

func testDeps(gestures *fakeGestures) commands.Deps {
	root := &screen.Node{
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
	return commands.Deps{
		Introspector: &fakeIntrospector{root: root},
		Capture:      fakeCapture{},
		Meta:         fakeMeta{},
		Gestures:     gestures,
		Apps:         fakeApps{},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeGestures) {
	t.Helper()
	gestures := &fakeGestures{}
	srv, err := NewServer(BuildRegistry(testDeps(gestures)), testToken, false)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, gestures
}

func postRPC(t *testing.T, ts *httptest.Server, token string, body string) (*http.Response, JSONRPCResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/rpc", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return resp, rpcResp
}

func decodeEnvelope(t *testing.T, result interface{}) Envelope {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

// --- transport tests ---

func TestNewServerRequiresToken(t *testing.T) {
	_, err := NewServer(NewRegistry(), "", false)
	assert.Error(t, err)
}

func TestBannerNeedsNoAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRPCRequiresAuth(t *testing.T) {
	ts, gestures := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/rpc",
		strings.NewReader(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"tap","arguments":{"x":1,"y":1}},"id":1}`))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, gestures.taps, "unauthorized request must not be dispatched")
}

func TestRPCMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/rpc", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRPCParseError(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken, `{not json`)
	errObj, ok := rpcResp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, ErrCodeParseError, errObj["code"])
}

func TestRPCInvalidVersion(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken, `{"jsonrpc":"1.0","method":"tools/list","id":1}`)
	errObj, ok := rpcResp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, ErrCodeInvalidRequest, errObj["code"])
}

func TestRPCMissingID(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken, `{"jsonrpc":"2.0","method":"tools/list"}`)
	errObj, ok := rpcResp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, ErrCodeInvalidRequest, errObj["code"])
}

func TestRPCMethodNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken, `{"jsonrpc":"2.0","method":"no/such","id":7}`)
	errObj, ok := rpcResp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, ErrCodeMethodNotFound, errObj["code"])
}

func TestToolsList(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken, `{"jsonrpc":"2.0","method":"tools/list","id":1}`)
	require.Nil(t, rpcResp.Error)

	result, ok := rpcResp.Result.(map[string]interface{})
	require.True(t, ok)
	tools, ok := result["tools"].([]interface{})
	require.True(t, ok)

	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{
		"input_text", "launch_app", "list_apps", "long_press",
		"press_button", "screen_state", "swipe", "tap", "terminate_app",
	}, names)
}

func TestToolsCallTap(t *testing.T) {
	ts, gestures := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"tap","arguments":{"x":100,"y":200}},"id":1}`)
	require.Nil(t, rpcResp.Error)

	env := decodeEnvelope(t, rpcResp.Result)
	assert.False(t, env.IsError)
	require.Len(t, env.Content, 1)
	assert.Equal(t, "ok", env.Content[0].Text)
	assert.Len(t, gestures.taps, 1)
}

func TestToolsCallInvalidArguments(t *testing.T) {
	ts, gestures := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"tap","arguments":{"x":-5,"y":200}},"id":1}`)
	require.Nil(t, rpcResp.Error, "tool failures travel in the envelope, not as rpc errors")

	env := decodeEnvelope(t, rpcResp.Result)
	assert.True(t, env.IsError)
	assert.Contains(t, env.Content[0].Text, "'x' must be non-negative")
	assert.Empty(t, gestures.taps)
}

func TestToolsCallMissingName(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"arguments":{}},"id":1}`)
	errObj, ok := rpcResp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, ErrCodeInvalidRequest, errObj["code"])
}

func TestToolsCallUnknownTool(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"reboot"},"id":1}`)
	require.Nil(t, rpcResp.Error)

	env := decodeEnvelope(t, rpcResp.Result)
	assert.True(t, env.IsError)
	assert.Equal(t, "tool not found: reboot", env.Content[0].Text)
}

func TestScreenStateEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"screen_state","arguments":{"include_screenshot":true}},"id":1}`)
	require.Nil(t, rpcResp.Error)

	env := decodeEnvelope(t, rpcResp.Result)
	require.False(t, env.IsError, "unexpected tool error: %+v", env.Content)
	require.Len(t, env.Content, 2)

	// text item first
	assert.Equal(t, "text", env.Content[0].Type)
	assert.Contains(t, env.Content[0].Text, "screen:1080x2400")
	assert.Contains(t, env.Content[0].Text, "btn1")

	// image item second, valid base64 JPEG
	assert.Equal(t, "image", env.Content[1].Type)
	assert.Equal(t, "image/jpeg", env.Content[1].MimeType)
	imgBytes, err := base64.StdEncoding.DecodeString(env.Content[1].Data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(imgBytes, []byte{0xff, 0xd8}), "expected JPEG magic")
}

func TestScreenStateTextOnlyByDefault(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"screen_state"},"id":1}`)
	require.Nil(t, rpcResp.Error)

	env := decodeEnvelope(t, rpcResp.Result)
	require.False(t, env.IsError)
	require.Len(t, env.Content, 1)
	assert.Equal(t, "text", env.Content[0].Type)
}

func TestListAppsSorted(t *testing.T) {
	ts, _ := newTestServer(t)

	_, rpcResp := postRPC(t, ts, testToken,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_apps"},"id":1}`)
	require.Nil(t, rpcResp.Error)

	env := decodeEnvelope(t, rpcResp.Result)
	require.False(t, env.IsError)
	assert.Equal(t, "com.alpha\ncom.zulu", env.Content[0].Text)
}

func TestCORSPreflight(t *testing.T) {
	gestures := &fakeGestures{}
	srv, err := NewServer(BuildRegistry(testDeps(gestures)), testToken, true)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/rpc", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
