// Package layout computes the geometry of the pipeline diagram. The result
// depends on the number of steps only, never on their identity or status.
package layout

import "fmt"

// Geometry constants. They are fixed so that Compute stays a pure function of
// the step count.
const (
	// NodeWidth is the width of every node box.
	NodeWidth = 160.0
	// NodeHeight is the height of every node box.
	NodeHeight = 56.0
	// GapX is the horizontal gap between neighbouring boxes in a row.
	GapX = 48.0
	// GapY is the vertical gap between the two rows of the U layout.
	GapY = 64.0
	// EdgeBend is how far the control point of a same-row connector is lifted
	// above the straight line between its endpoints.
	EdgeBend = 6.0

	// SingleRowMax is the largest step count drawn on a single row.
	SingleRowMax = 3
	// MaxRows is the number of rows the U layout uses. Larger step counts make
	// the rows longer; a third row is never added.
	MaxRows = 2
)

// Node is the placement of the step at position Index.
type Node struct {
	Index int     `json:"index"`
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Edge connects two consecutive nodes.
type Edge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Path   Path   `json:"path"`
	PathID string `json:"pathId"`
}

// Graph is the full diagram geometry and its bounding box.
type Graph struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CrossRow reports whether e joins the two rows of a U layout.
func (g Graph) CrossRow(e Edge) bool {
	return g.Nodes[e.From].Row != g.Nodes[e.To].Row
}

// Compute lays out stepCount nodes. Counts up to SingleRowMax form one row;
// larger counts fold into a U: the top row runs left to right and the bottom
// row runs back right to left, its first node under the last top node.
// Negative counts are treated as zero.
func Compute(stepCount int) Graph {
	if stepCount <= 0 {
		return Graph{Nodes: []Node{}, Edges: []Edge{}}
	}

	nodes := make([]Node, stepCount)
	if stepCount <= SingleRowMax {
		for i := range nodes {
			nodes[i] = place(i, 0, i)
		}
	} else {
		top := (stepCount + 1) / 2
		for i := 0; i < top; i++ {
			nodes[i] = place(i, 0, i)
		}
		for i := 0; i < stepCount-top; i++ {
			nodes[top+i] = place(top+i, 1, top-1-i)
		}
	}

	edges := make([]Edge, 0, stepCount-1)
	for i := 0; i+1 < stepCount; i++ {
		edges = append(edges, connect(nodes[i], nodes[i+1]))
	}

	g := Graph{Nodes: nodes, Edges: edges}
	for _, n := range nodes {
		g.Width = max(g.Width, n.X+NodeWidth)
		g.Height = max(g.Height, n.Y+NodeHeight)
	}
	return g
}

func place(index, row, col int) Node {
	return Node{
		Index: index,
		Row:   row,
		Col:   col,
		X:     float64(col) * (NodeWidth + GapX),
		Y:     float64(row) * (NodeHeight + GapY),
	}
}

func connect(from, to Node) Edge {
	var p Path
	if from.Row == to.Row {
		p = horizontal(from, to)
	} else {
		p = vertical(from, to)
	}
	return Edge{
		From:   from.Index,
		To:     to.Index,
		Path:   p,
		PathID: fmt.Sprintf("edge-%d-%d", from.Index, to.Index),
	}
}

// horizontal joins the facing sides of two boxes on the same row with a
// shallow quadratic curve.
func horizontal(from, to Node) Path {
	midY := from.Y + NodeHeight/2
	start := Point{X: from.X, Y: midY}
	end := Point{X: to.X + NodeWidth, Y: to.Y + NodeHeight/2}
	if to.X > from.X {
		start.X = from.X + NodeWidth
		end.X = to.X
	}
	ctrl := Point{X: (start.X + end.X) / 2, Y: (start.Y+end.Y)/2 - EdgeBend}
	return Path{Kind: Quadratic, Start: start, Controls: []Point{ctrl}, End: end}
}

// vertical joins the bottom centre of from to the top centre of to with a
// cubic curve bending at the vertical midpoint.
func vertical(from, to Node) Path {
	start := Point{X: from.X + NodeWidth/2, Y: from.Y + NodeHeight}
	end := Point{X: to.X + NodeWidth/2, Y: to.Y}
	midY := (start.Y + end.Y) / 2
	return Path{
		Kind:     Cubic,
		Start:    start,
		Controls: []Point{{X: start.X, Y: midY}, {X: end.X, Y: midY}},
		End:      end,
	}
}
