package screen

import (
	"fmt"
	"strings"
)

// FormatVersion identifies the compact text contract. The legend lines, the
// window-type vocabulary and the column order are part of this contract;
// clients parse against the exact strings, so any change here bumps the
// version.
const FormatVersion = 1

// Legend lines, emitted verbatim at the top of every document.
const (
	legendStructural = "note: structural-only nodes are omitted"
	legendFlags      = "note: flags legend: on=onscreen off=offscreen"
	legendOffscreen  = "note: offscreen items require a scroll-into-view action before interaction"

	degradedNote = "note: DEGRADED window enumeration unavailable, single-window capture"

	columnHeader = "id\tclass\ttext\tdesc\tres_id\tbounds\tflags"
)

// maxFieldLen is the rune limit for text and description fields.
const maxFieldLen = 100

// Serialize renders the snapshot and screen metadata into the compact text
// document. Output is deterministic: the same inputs always produce the same
// bytes.
func Serialize(snap *Snapshot, info ScreenInfo) string {
	var b strings.Builder

	b.WriteString(legendStructural)
	b.WriteByte('\n')
	b.WriteString(legendFlags)
	b.WriteByte('\n')
	b.WriteString(legendOffscreen)
	b.WriteByte('\n')

	fmt.Fprintf(&b, "screen:%dx%d density:%d orientation:%s\n",
		info.Width, info.Height, info.DensityDPI, info.Orientation)

	if snap.Degraded {
		b.WriteString(degradedNote)
		b.WriteByte('\n')
	}

	for i := range snap.Windows {
		writeWindow(&b, &snap.Windows[i])
	}

	return b.String()
}

func writeWindow(b *strings.Builder, w *WindowData) {
	fmt.Fprintf(b, "--- window:%d type:%s", w.WindowID, windowTypeLabel(w.Type))
	if w.Package != "" {
		fmt.Fprintf(b, " pkg:%s", w.Package)
	}
	if w.Activity != "" {
		fmt.Fprintf(b, " activity:%s", w.Activity)
	}
	b.WriteByte('\n')
	b.WriteString(columnHeader)
	b.WriteByte('\n')

	walkNodes(w.Root, func(n *Node) {
		if keepNode(n) {
			writeRow(b, n)
		}
	})
}

// windowTypeLabel maps the type enum onto the uppercase header vocabulary.
func windowTypeLabel(t WindowType) string {
	switch t {
	case WindowApplication:
		return "APPLICATION"
	case WindowSystem:
		return "SYSTEM"
	case WindowInputMethod:
		return "INPUT_METHOD"
	case WindowOverlay:
		return "OVERLAY"
	default:
		return "OTHER"
	}
}

// keepNode decides whether a node appears in the output. Purely structural
// containers (no text, description or resource id, and not interactive) are
// dropped; their children are still visited independently.
func keepNode(n *Node) bool {
	if n.Text != "" || n.ContentDesc != "" || n.ResourceID != "" {
		return true
	}
	return n.Clickable || n.LongClickable || n.Scrollable || n.Editable
}

func writeRow(b *strings.Builder, n *Node) {
	b.WriteString(n.ID)
	b.WriteByte('\t')
	b.WriteString(n.ClassName)
	b.WriteByte('\t')
	b.WriteString(fieldText(n.Text))
	b.WriteByte('\t')
	b.WriteString(fieldText(n.ContentDesc))
	b.WriteByte('\t')
	b.WriteString(n.ResourceID)
	b.WriteByte('\t')
	b.WriteString(n.Bounds.String())
	b.WriteByte('\t')
	b.WriteString(flagString(n))
	b.WriteByte('\n')
}

// fieldText sanitizes a free-text field for the tab-separated format and
// truncates it to maxFieldLen runes. Truncation is by whole characters, never
// mid-rune, and adds no marker.
func fieldText(s string) string {
	if strings.ContainsAny(s, "\t\n\r") {
		s = strings.Map(func(r rune) rune {
			switch r {
			case '\t', '\n', '\r':
				return ' '
			}
			return r
		}, s)
	}

	runes := []rune(s)
	if len(runes) > maxFieldLen {
		return string(runes[:maxFieldLen])
	}
	return s
}

// flagString renders the node flags in fixed order. Visibility is always
// present; the remaining flags appear only when set.
func flagString(n *Node) string {
	flags := make([]string, 0, 7)
	if n.Visible {
		flags = append(flags, "on")
	} else {
		flags = append(flags, "off")
	}
	if n.Clickable {
		flags = append(flags, "clk")
	}
	if n.LongClickable {
		flags = append(flags, "lclk")
	}
	if n.Scrollable {
		flags = append(flags, "scr")
	}
	if n.Editable {
		flags = append(flags, "edt")
	}
	if n.Enabled {
		flags = append(flags, "ena")
	}
	if n.Focusable {
		flags = append(flags, "foc")
	}
	return strings.Join(flags, ",")
}
