package wiring

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a diagram to Graphviz DOT format. The board is a single
// record node with one port per used pin; each component is a box, and every
// connection becomes a labeled edge. The resulting DOT string can be rendered
// with [RenderSVG] or [RenderPNG].
func ToDOT(d *Diagram) string {
	var buf bytes.Buffer
	buf.WriteString("graph wiring {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  board [shape=record, fillcolor=lightblue, label=%q];\n", boardLabel(d))
	for _, component := range d.Components() {
		fmt.Fprintf(&buf, "  %q [fillcolor=white];\n", component)
	}

	buf.WriteString("\n")
	for _, c := range d.Connections {
		label := c.Terminal
		if c.Purpose != "" {
			label += "\n" + c.Purpose
		}
		fmt.Fprintf(&buf, "  board:%q -- %q [label=%q, fontsize=10];\n", portID(c.BoardPin), c.Component, label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func boardLabel(d *Diagram) string {
	parts := []string{d.Board}
	seen := make(map[string]bool)
	for _, c := range d.Connections {
		if !seen[c.BoardPin] {
			seen[c.BoardPin] = true
			parts = append(parts, fmt.Sprintf("<%s> %s", portID(c.BoardPin), c.BoardPin))
		}
	}
	return strings.Join(parts, " | ")
}

// portID makes a pin name safe for use as a record port.
func portID(pin string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, pin)
}

// RenderSVG renders a DOT diagram to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT diagram to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
