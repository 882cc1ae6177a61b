package diagram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	asciiForward  = " ──▶ "
	asciiBackward = " ◀── "
	asciiGap      = "     "
)

// statusTag returns a short ASCII indicator for a status string.
func statusTag(status string) string {
	switch status {
	case "complete":
		return "[OK]"
	case "error":
		return "[FAIL]"
	case "running":
		return "[RUN]"
	case "skipped":
		return "[SKIP]"
	case "pending":
		return "[PEND]"
	default:
		return ""
	}
}

// RenderASCII renders a Model as boxes arranged like the layout: the top row
// flows left to right, a connector drops from its last box, and the bottom
// row flows right to left.
func RenderASCII(model *Model) string {
	var b strings.Builder

	if model.Title != "" {
		b.WriteString(fmt.Sprintf("=== %s ===\n\n", model.Title))
	}
	if len(model.Nodes) == 0 {
		b.WriteString("(no steps)\n")
		return b.String()
	}

	boxes := makeBoxes(model.Nodes)
	cols := 0
	for _, n := range model.Nodes {
		if n.Col+1 > cols {
			cols = n.Col + 1
		}
	}

	for r := range model.Rows {
		cells := make([]*asciiBox, cols)
		for _, n := range model.Nodes {
			if n.Row == r {
				cells[n.Col] = boxes[n.ID]
			}
		}
		connector := asciiForward
		if r > 0 {
			connector = asciiBackward
		}
		renderRow(&b, cells, connector)

		if r < len(model.Rows)-1 {
			renderDrop(&b, cols-1, boxes[model.Nodes[0].ID].width)
		}
	}

	b.WriteByte('\n')
	for _, n := range model.Nodes {
		if n.Status != nil && n.Status.Error != "" {
			b.WriteString(fmt.Sprintf("! %s: %s\n", n.ID, n.Status.Error))
		}
	}
	if model.Status != "" {
		b.WriteString(fmt.Sprintf("run: %s\n", model.Status))
	}

	return b.String()
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBoxes renders every node into a box of the same width and height so
// that columns line up across rows.
func makeBoxes(nodes []*Node) map[string]*asciiBox {
	contents := make([][]string, len(nodes))
	maxLen, maxLines := 0, 0
	for i, node := range nodes {
		lines := []string{firstLine(node.Label)}
		if node.Status != nil {
			if tag := statusTag(node.Status.Status); tag != "" {
				lines = append(lines, tag)
			}
			if node.Status.DurationMs > 0 {
				lines = append(lines, fmt.Sprintf("%dms", node.Status.DurationMs))
			}
		}
		if node.Summary != nil {
			lines = append(lines, fmt.Sprint(node.Summary))
		}
		for _, l := range lines {
			maxLen = max(maxLen, utf8.RuneCountInString(l))
		}
		maxLines = max(maxLines, len(lines))
		contents[i] = lines
	}

	width := maxLen + 4 // 2 border + 2 padding
	boxes := make(map[string]*asciiBox, len(nodes))
	for i, node := range nodes {
		lines := make([]string, 0, maxLines+2)
		lines = append(lines, "┌"+strings.Repeat("─", width-2)+"┐")
		for j := 0; j < maxLines; j++ {
			content := ""
			if j < len(contents[i]) {
				content = contents[i][j]
			}
			pad := strings.Repeat(" ", maxLen-utf8.RuneCountInString(content))
			lines = append(lines, "│ "+content+pad+" │")
		}
		lines = append(lines, "└"+strings.Repeat("─", width-2)+"┘")
		boxes[node.ID] = &asciiBox{lines: lines, width: width}
	}
	return boxes
}

// renderRow writes one layout row. Empty cells are blank; the connector is
// drawn on the label line between two occupied neighbours.
func renderRow(b *strings.Builder, cells []*asciiBox, connector string) {
	height := 0
	for _, c := range cells {
		if c != nil {
			height = len(c.lines)
			break
		}
	}
	width := 0
	for _, c := range cells {
		if c != nil {
			width = c.width
			break
		}
	}

	for line := 0; line < height; line++ {
		var row strings.Builder
		for col, c := range cells {
			if col > 0 {
				if line == 1 && cells[col-1] != nil && c != nil {
					row.WriteString(connector)
				} else {
					row.WriteString(asciiGap)
				}
			}
			if c == nil {
				row.WriteString(strings.Repeat(" ", width))
			} else {
				row.WriteString(c.lines[line])
			}
		}
		b.WriteString(strings.TrimRight(row.String(), " "))
		b.WriteByte('\n')
	}
}

// renderDrop draws the cross-row connector under the centre of column col.
func renderDrop(b *strings.Builder, col, boxWidth int) {
	indent := strings.Repeat(" ", col*(boxWidth+utf8.RuneCountInString(asciiGap))+boxWidth/2)
	b.WriteString(indent + "│\n")
	b.WriteString(indent + "▼\n")
}

// firstLine returns only the first line of a multi-line label.
func firstLine(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		return s[:i]
	}
	return s
}
