// Package wiring derives a hardware wiring diagram for a sketch.
//
// The oracle is asked for a pin-by-pin connection table; the rows are parsed
// into Connections and can be rendered as a Graphviz diagram showing the
// board on one side and each component on the other.
package wiring

import (
	"context"
	"fmt"
	"strings"

	"github.com/sketchforge/sketchforge/pkg/oracle"
)

// Connection is one wire between a board pin and a component terminal.
type Connection struct {
	BoardPin  string `json:"board_pin"`
	Component string `json:"component"`
	Terminal  string `json:"terminal"`
	Purpose   string `json:"purpose,omitempty"`
}

// Diagram is the full wiring plan for one sketch.
type Diagram struct {
	Board       string       `json:"board"`
	Connections []Connection `json:"connections"`

	// Notes holds reply lines that were not parseable as connections.
	// They are usually safety remarks worth showing to the user.
	Notes []string `json:"notes,omitempty"`
}

// Components returns the distinct component names in first-seen order.
func (d *Diagram) Components() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range d.Connections {
		if !seen[c.Component] {
			seen[c.Component] = true
			out = append(out, c.Component)
		}
	}
	return out
}

// Suggest asks the oracle for the wiring of the given source and parses the
// reply. A reply with no parseable connection rows is an error; notes alone
// are not a wiring plan.
func Suggest(ctx context.Context, o oracle.Oracle, source, board string) (*Diagram, error) {
	reply, err := o.Generate(ctx, oracle.WiringPrompt(source, board))
	if err != nil {
		return nil, fmt.Errorf("wiring: %w", err)
	}
	d := Parse(reply, board)
	if len(d.Connections) == 0 {
		return nil, fmt.Errorf("wiring: no connections in oracle reply")
	}
	return d, nil
}

// Parse extracts connection rows from free-form oracle text. A row is a
// pipe-separated line: board pin | component | terminal | purpose. The
// purpose column is optional; lines with fewer than three columns become
// notes.
func Parse(text, board string) *Diagram {
	d := &Diagram{Board: board}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isTableDecoration(line) {
			continue
		}
		cols := splitRow(line)
		if len(cols) < 3 {
			d.Notes = append(d.Notes, line)
			continue
		}
		conn := Connection{
			BoardPin:  cols[0],
			Component: cols[1],
			Terminal:  cols[2],
		}
		if len(cols) > 3 {
			conn.Purpose = strings.Join(cols[3:], " | ")
		}
		d.Connections = append(d.Connections, conn)
	}
	return d
}

// isTableDecoration drops markdown table rules and header rows the oracle
// sometimes adds despite the prompt.
func isTableDecoration(line string) bool {
	stripped := strings.Trim(line, "|-+: ")
	if stripped == "" {
		return true
	}
	lower := strings.ToLower(line)
	return strings.Contains(lower, "board pin") && strings.Contains(lower, "component")
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	var cols []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "[]")
		if p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}
