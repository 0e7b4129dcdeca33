// Package screen builds compact, agent-consumable representations of the
// device UI: it normalizes raw window snapshots into an ordered Snapshot,
// serializes kept elements into a tab-separated text document, and annotates
// screenshots with element bounds.
package screen

import "fmt"

// Rect is an integer pixel rectangle in screen coordinates. The source does
// not guarantee right >= left or bottom >= top; degenerate rectangles are
// valid input and are tolerated everywhere.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.Left, r.Top, r.Right, r.Bottom)
}

// Node is a single UI element in a window's element tree. A Node exclusively
// owns its children; trees are built fresh per snapshot and never mutated.
type Node struct {
	ID            string `json:"id"`
	ClassName     string `json:"className"`
	Text          string `json:"text,omitempty"`
	ContentDesc   string `json:"contentDescription,omitempty"`
	ResourceID    string `json:"resourceId,omitempty"`
	Bounds        Rect   `json:"bounds"`
	Clickable     bool   `json:"clickable"`
	LongClickable bool   `json:"longClickable"`
	Scrollable    bool   `json:"scrollable"`
	Editable      bool   `json:"editable"`
	Enabled       bool   `json:"enabled"`
	Visible       bool   `json:"visible"`
	Focusable     bool   `json:"focusable"`
	Children      []Node `json:"children,omitempty"`
}

// WindowType classifies a window. Unknown source values map to WindowOther.
type WindowType string

const (
	WindowApplication WindowType = "application"
	WindowSystem      WindowType = "system"
	WindowInputMethod WindowType = "input-method"
	WindowOverlay     WindowType = "accessibility-overlay"
	WindowOther       WindowType = "other"
)

// WindowTypeFromString maps a collaborator-reported type string onto the
// known vocabulary, defaulting to WindowOther.
func WindowTypeFromString(s string) WindowType {
	switch WindowType(s) {
	case WindowApplication, WindowSystem, WindowInputMethod, WindowOverlay:
		return WindowType(s)
	default:
		return WindowOther
	}
}

// WindowData is one normalized window of a Snapshot.
type WindowData struct {
	WindowID   int        `json:"windowId"`
	Type       WindowType `json:"windowType"`
	Package    string     `json:"packageName,omitempty"`
	Title      string     `json:"title,omitempty"`
	Activity   string     `json:"activityName,omitempty"`
	Layer      int        `json:"layer"`
	Focused    bool       `json:"focused"`
	Root       *Node      `json:"tree"`
}

// Orientation of the display.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ScreenInfo describes the display the element bounds were measured against.
type ScreenInfo struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	DensityDPI  int         `json:"densityDpi"`
	Orientation Orientation `json:"orientation"`
}

// Snapshot is one immutable capture of all currently known windows, built
// fresh per request and discarded once the response is assembled. Degraded is
// set when the introspection collaborator could not enumerate multiple
// windows and a single synthetic window (id 0) was built instead.
type Snapshot struct {
	Windows  []WindowData `json:"windows"`
	Degraded bool         `json:"degraded"`
}

// AnnotationTarget is a kept, visible node reduced to what the annotator
// needs: an id for the label and the unscaled bounds.
type AnnotationTarget struct {
	ID     string
	Bounds Rect
}

// AnnotationTargets collects every node of the snapshot that is both kept by
// the serializer's filter and visible, in the same order the serializer
// emits rows.
func AnnotationTargets(snap *Snapshot) []AnnotationTarget {
	var targets []AnnotationTarget
	for _, w := range snap.Windows {
		walkNodes(w.Root, func(n *Node) {
			if keepNode(n) && n.Visible {
				targets = append(targets, AnnotationTarget{ID: n.ID, Bounds: n.Bounds})
			}
		})
	}
	return targets
}

// walkNodes visits the tree in pre-order. Filtering is per-node, never
// subtree-pruning: children of a dropped node are still visited.
func walkNodes(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := range n.Children {
		walkNodes(&n.Children[i], visit)
	}
}
