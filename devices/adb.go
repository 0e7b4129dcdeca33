package devices

import (
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"

	"github.com/droidbridge/droidbridge/screen"
	"github.com/droidbridge/droidbridge/utils"
)

// geometryCache holds per-serial display geometry. Physical size and density
// never change for a given device, so repeated wm calls are avoided; the
// cache is collaborator-side state, nothing in the request pipeline caches.
var geometryCache, _ = lru.New[string, screen.ScreenInfo](16)

// ADBDevice is the adb-backed collaborator set. It implements Introspector
// (degraded single-root mode only: adb cannot enumerate windows), plus
// capture, metadata, gestures and app management.
type ADBDevice struct {
	serial string
}

func NewADBDevice(serial string) *ADBDevice {
	return &ADBDevice{serial: serial}
}

func (d *ADBDevice) Serial() string {
	return d.serial
}

func (d *ADBDevice) runAdb(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := args
	if d.serial != "" {
		cmdArgs = append([]string{"-s", d.serial}, args...)
	}
	cmd := exec.CommandContext(ctx, "adb", cmdArgs...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// ListADBSerials returns the serials of all devices in "device" state.
func ListADBSerials(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "adb", "devices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run 'adb devices': %w", err)
	}
	return parseAdbDevicesOutput(string(out)), nil
}

func parseAdbDevicesOutput(output string) []string {
	var serials []string
	lines := strings.Split(output, "\n")
	for i := 1; i < len(lines); i++ {
		parts := strings.Fields(strings.TrimSpace(lines[i]))
		if len(parts) == 2 && parts[1] == "device" {
			serials = append(serials, parts[0])
		}
	}
	return serials
}

// Introspector

func (d *ADBDevice) IsReady() bool {
	if _, err := exec.LookPath("adb"); err != nil {
		return false
	}
	out, err := d.runAdb(context.Background(), "get-state")
	return err == nil && strings.TrimSpace(string(out)) == "device"
}

// ListWindows always fails: uiautomator exposes only the active hierarchy.
// The normalizer falls back to ActiveRoot and marks the snapshot degraded.
func (d *ADBDevice) ListWindows(ctx context.Context) ([]screen.RawWindow, error) {
	return nil, fmt.Errorf("window enumeration is not supported over adb")
}

func (d *ADBDevice) ActiveRoot(ctx context.Context) (*screen.Node, error) {
	out, err := d.runAdb(ctx, "exec-out", "uiautomator", "dump", "/dev/tty")
	if err != nil {
		return nil, err
	}

	// uiautomator appends "UI hierchary dumped to: /dev/tty" after the XML
	raw := string(out)
	if end := strings.LastIndex(raw, "</hierarchy>"); end >= 0 {
		raw = raw[:end+len("</hierarchy>")]
	}

	return ParseUIAutomatorXML([]byte(raw))
}

// uiaNode mirrors one <node> element of uiautomator output.
type uiaNode struct {
	Class         string    `xml:"class,attr"`
	Text          string    `xml:"text,attr"`
	ContentDesc   string    `xml:"content-desc,attr"`
	ResourceID    string    `xml:"resource-id,attr"`
	Bounds        string    `xml:"bounds,attr"`
	Clickable     bool      `xml:"clickable,attr"`
	LongClickable bool      `xml:"long-clickable,attr"`
	Scrollable    bool      `xml:"scrollable,attr"`
	Enabled       bool      `xml:"enabled,attr"`
	Focusable     bool      `xml:"focusable,attr"`
	Password      bool      `xml:"password,attr"`
	Visible       *bool     `xml:"visible-to-user,attr"`
	Children      []uiaNode `xml:"node"`
}

type uiaHierarchy struct {
	XMLName  xml.Name  `xml:"hierarchy"`
	Rotation int       `xml:"rotation,attr"`
	Children []uiaNode `xml:"node"`
}

var boundsRe = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

// ParseUIAutomatorXML converts a uiautomator dump into an element tree.
// Synthetic pre-order ids are assigned because uiautomator provides none.
func ParseUIAutomatorXML(data []byte) (*screen.Node, error) {
	var h uiaHierarchy
	if err := xml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse uiautomator dump: %w", err)
	}
	if len(h.Children) == 0 {
		return nil, fmt.Errorf("uiautomator dump contains no nodes")
	}

	seq := 0
	root := convertUIANode(&h.Children[0], &seq)
	return root, nil
}

func convertUIANode(u *uiaNode, seq *int) *screen.Node {
	*seq++
	n := &screen.Node{
		ID:            fmt.Sprintf("e%d", *seq),
		ClassName:     u.Class,
		Text:          u.Text,
		ContentDesc:   u.ContentDesc,
		ResourceID:    u.ResourceID,
		Bounds:        parseBounds(u.Bounds),
		Clickable:     u.Clickable,
		LongClickable: u.LongClickable,
		Scrollable:    u.Scrollable,
		Editable:      u.Password || strings.Contains(u.Class, "EditText"),
		Enabled:       u.Enabled,
		Focusable:     u.Focusable,
		// older uiautomator versions omit visible-to-user; everything it
		// dumps is onscreen there
		Visible: u.Visible == nil || *u.Visible,
	}
	if n.ResourceID != "" {
		n.ID = fmt.Sprintf("%s#%d", n.ResourceID, *seq)
	}

	for i := range u.Children {
		n.Children = append(n.Children, *convertUIANode(&u.Children[i], seq))
	}
	return n
}

func parseBounds(s string) screen.Rect {
	m := boundsRe.FindStringSubmatch(s)
	if m == nil {
		return screen.Rect{}
	}
	l, _ := strconv.Atoi(m[1])
	t, _ := strconv.Atoi(m[2])
	r, _ := strconv.Atoi(m[3])
	b, _ := strconv.Atoi(m[4])
	return screen.Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// ScreenMeta

// CurrentScreenInfo reads display geometry via wm. The adb fallback reports
// the natural (portrait-mounted) orientation; the agent provider reports the
// live rotation.
func (d *ADBDevice) CurrentScreenInfo(ctx context.Context) (screen.ScreenInfo, error) {
	if info, ok := geometryCache.Get(d.serial); ok {
		return info, nil
	}

	sizeOut, err := d.runAdb(ctx, "shell", "wm", "size")
	if err != nil {
		return screen.ScreenInfo{}, err
	}
	width, height, err := ParseWMSize(string(sizeOut))
	if err != nil {
		return screen.ScreenInfo{}, err
	}

	densityOut, err := d.runAdb(ctx, "shell", "wm", "density")
	if err != nil {
		return screen.ScreenInfo{}, err
	}
	density, err := ParseWMDensity(string(densityOut))
	if err != nil {
		return screen.ScreenInfo{}, err
	}

	info := screen.ScreenInfo{
		Width:       width,
		Height:      height,
		DensityDPI:  density,
		Orientation: screen.Portrait,
	}
	if width > height {
		info.Orientation = screen.Landscape
	}

	geometryCache.Add(d.serial, info)
	return info, nil
}

var (
	wmSizeRe    = regexp.MustCompile(`(?m)^(?:Override|Physical) size:\s*(\d+)x(\d+)`)
	wmDensityRe = regexp.MustCompile(`(?m)^(?:Override|Physical) density:\s*(\d+)`)
)

// ParseWMSize extracts width and height from 'wm size' output, preferring an
// override size when one is set.
func ParseWMSize(out string) (int, int, error) {
	matches := wmSizeRe.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, 0, fmt.Errorf("unexpected 'wm size' output: %q", strings.TrimSpace(out))
	}
	m := matches[len(matches)-1]
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid screen size %dx%d", w, h)
	}
	return w, h, nil
}

// ParseWMDensity extracts the dpi from 'wm density' output.
func ParseWMDensity(out string) (int, error) {
	matches := wmDensityRe.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("unexpected 'wm density' output: %q", strings.TrimSpace(out))
	}
	d, _ := strconv.Atoi(matches[len(matches)-1][1])
	if d <= 0 {
		return 0, fmt.Errorf("invalid density %d", d)
	}
	return d, nil
}

// ScreenCapturer

func (d *ADBDevice) IsAvailable() bool {
	_, err := exec.LookPath("adb")
	return err == nil
}

func (d *ADBDevice) CaptureResized(ctx context.Context, maxWidth, maxHeight int) (image.Image, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid max dimensions %dx%d", maxWidth, maxHeight)
	}

	pngBytes, err := d.runAdb(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}

	img, err := utils.DecodePNG(pngBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	return utils.ResizeToFit(img, maxWidth, maxHeight), nil
}

// Gestures

func (d *ADBDevice) Tap(ctx context.Context, x, y int) error {
	_, err := d.runAdb(ctx, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

func (d *ADBDevice) LongPress(ctx context.Context, x, y int) error {
	// a swipe that stays in place is a long press
	sx, sy := strconv.Itoa(x), strconv.Itoa(y)
	_, err := d.runAdb(ctx, "shell", "input", "swipe", sx, sy, sx, sy, "600")
	return err
}

func (d *ADBDevice) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	_, err := d.runAdb(ctx, "shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), strconv.Itoa(durationMs))
	return err
}

func (d *ADBDevice) InputText(ctx context.Context, text string) error {
	// 'input text' treats %s as a space and chokes on literal spaces
	escaped := strings.ReplaceAll(text, " ", "%s")
	_, err := d.runAdb(ctx, "shell", "input", "text", escaped)
	return err
}

var buttonKeycodes = map[string]string{
	"home":        "3",
	"back":        "4",
	"power":       "26",
	"volume_up":   "24",
	"volume_down": "25",
	"enter":       "66",
}

func (d *ADBDevice) PressButton(ctx context.Context, button string) error {
	keycode, exists := buttonKeycodes[button]
	if !exists {
		return fmt.Errorf("unsupported button: %s", button)
	}
	_, err := d.runAdb(ctx, "shell", "input", "keyevent", keycode)
	return err
}

// AppManager

func (d *ADBDevice) LaunchApp(ctx context.Context, pkg string) error {
	out, err := d.runAdb(ctx, "shell", "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", pkg, err)
	}
	if strings.Contains(string(out), "No activities found") {
		return fmt.Errorf("no launchable activity in %s", pkg)
	}
	return nil
}

func (d *ADBDevice) TerminateApp(ctx context.Context, pkg string) error {
	if _, err := d.runAdb(ctx, "shell", "am", "force-stop", pkg); err != nil {
		return fmt.Errorf("failed to terminate %s: %w", pkg, err)
	}
	return nil
}

func (d *ADBDevice) ListApps(ctx context.Context) ([]AppInfo, error) {
	out, err := d.runAdb(ctx, "shell", "pm", "list", "packages")
	if err != nil {
		return nil, err
	}
	apps := ParsePackageList(string(out))
	log.Debugf("device %s reports %d packages", d.serial, len(apps))
	return apps, nil
}

// ParsePackageList parses 'pm list packages' output ("package:com.x" lines).
func ParsePackageList(out string) []AppInfo {
	var apps []AppInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if pkg, ok := strings.CutPrefix(line, "package:"); ok && pkg != "" {
			apps = append(apps, AppInfo{Package: pkg})
		}
	}
	return apps
}
