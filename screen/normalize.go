package screen

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// RootSupplier resolves the element tree of one window. Resolution can fail
// independently per window (the window may have closed between enumeration
// and resolution).
type RootSupplier func(ctx context.Context) (*Node, error)

// RawWindow is a window as reported by the introspection collaborator,
// before normalization.
type RawWindow struct {
	ID       int
	Type     string
	Title    string
	Package  string
	Activity string
	Layer    int
	Focused  bool
	Root     RootSupplier
}

// Introspector is the UI-introspection collaborator. ListWindows may return
// an empty list (or an error) on devices where window enumeration is not
// available; ActiveRoot is the degraded-mode fallback that resolves the tree
// of whatever window currently holds focus.
type Introspector interface {
	IsReady() bool
	ListWindows(ctx context.Context) ([]RawWindow, error)
	ActiveRoot(ctx context.Context) (*Node, error)
}

// BuildSnapshot normalizes whatever the introspector can supply into a
// non-empty Snapshot.
//
// Windows whose root fails to resolve are skipped without aborting the
// others. If after enumeration and resolution zero or one usable window
// remains, a single synthetic window with id 0 is built from whatever root is
// available and the snapshot is marked degraded.
func BuildSnapshot(ctx context.Context, intro Introspector) (*Snapshot, error) {
	raw, err := intro.ListWindows(ctx)
	if err != nil {
		log.Debugf("window enumeration unavailable, falling back to active root: %v", err)
		raw = nil
	}

	type resolved struct {
		win  RawWindow
		root *Node
	}

	var usable []resolved
	for _, w := range raw {
		if w.Root == nil {
			log.Warnf("window %d has no root supplier, skipping", w.ID)
			continue
		}
		root, err := w.Root(ctx)
		if err != nil || root == nil {
			log.Warnf("failed to resolve root of window %d, skipping: %v", w.ID, err)
			continue
		}
		usable = append(usable, resolved{win: w, root: root})
	}

	if len(usable) > 1 {
		snap := &Snapshot{Windows: make([]WindowData, 0, len(usable))}
		for _, r := range usable {
			snap.Windows = append(snap.Windows, WindowData{
				WindowID: r.win.ID,
				Type:     WindowTypeFromString(r.win.Type),
				Package:  r.win.Package,
				Title:    r.win.Title,
				Activity: r.win.Activity,
				Layer:    r.win.Layer,
				Focused:  r.win.Focused,
				Root:     r.root,
			})
		}
		return snap, nil
	}

	// Degraded: zero or one usable window. Build a single synthetic window
	// (id 0) from whatever root is available.
	win := WindowData{WindowID: 0, Type: WindowOther, Focused: true}
	if len(usable) == 1 {
		r := usable[0]
		win.Type = WindowTypeFromString(r.win.Type)
		win.Package = r.win.Package
		win.Title = r.win.Title
		win.Activity = r.win.Activity
		win.Root = r.root
	} else {
		root, err := intro.ActiveRoot(ctx)
		if err != nil {
			return nil, fmt.Errorf("no window root available: %w", err)
		}
		if root == nil {
			return nil, fmt.Errorf("no window root available")
		}
		win.Root = root
	}

	return &Snapshot{Windows: []WindowData{win}, Degraded: true}, nil
}
