package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsAndCols(g Graph) (rows, cols []int) {
	for _, n := range g.Nodes {
		rows = append(rows, n.Row)
		cols = append(cols, n.Col)
	}
	return rows, cols
}

func TestCompute_Empty(t *testing.T) {
	g := Compute(0)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Zero(t, g.Width)
	assert.Zero(t, g.Height)
}

func TestCompute_NegativeClampsToEmpty(t *testing.T) {
	assert.Equal(t, Compute(0), Compute(-4))
}

func TestCompute_SingleNode(t *testing.T) {
	g := Compute(1)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, Node{Index: 0, Row: 0, Col: 0, X: 0, Y: 0}, g.Nodes[0])
	assert.Empty(t, g.Edges)
	assert.Equal(t, NodeWidth, g.Width)
	assert.Equal(t, NodeHeight, g.Height)
}

func TestCompute_ThreeIsSingleRow(t *testing.T) {
	g := Compute(3)
	rows, cols := rowsAndCols(g)
	assert.Equal(t, []int{0, 0, 0}, rows)
	assert.Equal(t, []int{0, 1, 2}, cols)
	assert.Equal(t, []float64{0, 208, 416}, []float64{g.Nodes[0].X, g.Nodes[1].X, g.Nodes[2].X})
	assert.Equal(t, 576.0, g.Width)
	assert.Equal(t, 56.0, g.Height)
	for _, e := range g.Edges {
		assert.False(t, g.CrossRow(e))
	}
}

func TestCompute_FourIsFirstUShape(t *testing.T) {
	g := Compute(4)
	rows, cols := rowsAndCols(g)
	assert.Equal(t, []int{0, 0, 1, 1}, rows)
	assert.Equal(t, []int{0, 1, 1, 0}, cols)
	assert.Equal(t, NodeHeight+GapY, g.Nodes[2].Y)
	assert.Equal(t, g.Nodes[1].X, g.Nodes[2].X, "first bottom node sits under the last top node")
	assert.Equal(t, 368.0, g.Width)
	assert.Equal(t, 176.0, g.Height)
}

func TestCompute_FiveStepsWrapRightToLeft(t *testing.T) {
	g := Compute(5)
	rows, cols := rowsAndCols(g)
	assert.Equal(t, []int{0, 0, 0, 1, 1}, rows)
	assert.Equal(t, []int{0, 1, 2, 2, 1}, cols)
	require.Len(t, g.Edges, 4)

	var cross []Edge
	for _, e := range g.Edges {
		if g.CrossRow(e) {
			cross = append(cross, e)
		}
	}
	require.Len(t, cross, 1)
	assert.Equal(t, 2, cross[0].From)
	assert.Equal(t, 3, cross[0].To)
}

func TestCompute_EdgeCountAndCrossRow(t *testing.T) {
	for n := 0; n <= 12; n++ {
		g := Compute(n)
		assert.Len(t, g.Edges, max(n-1, 0), "n=%d", n)

		crossing := 0
		for i, e := range g.Edges {
			assert.Equal(t, i, e.From)
			assert.Equal(t, i+1, e.To)
			if g.CrossRow(e) {
				crossing++
				assert.Equal(t, 0, g.Nodes[e.From].Row)
				assert.Equal(t, 1, g.Nodes[e.To].Row)
			}
		}
		if n > SingleRowMax {
			assert.Equal(t, 1, crossing, "n=%d", n)
		} else {
			assert.Zero(t, crossing, "n=%d", n)
		}
	}
}

func TestCompute_NeverMoreThanTwoRows(t *testing.T) {
	g := Compute(42)
	top := 0
	for _, n := range g.Nodes {
		assert.Less(t, n.Row, MaxRows)
		if n.Row == 0 {
			top++
		}
	}
	assert.Equal(t, 21, top)
	assert.Equal(t, 20, g.Nodes[21].Col)
	assert.Equal(t, 0, g.Nodes[41].Col)

	odd := Compute(41)
	assert.Equal(t, 20, odd.Nodes[21].Col)
	assert.Equal(t, 1, odd.Nodes[40].Col)
}

func TestCompute_BoundingBox(t *testing.T) {
	for n := 1; n <= 12; n++ {
		g := Compute(n)
		var w, h float64
		for _, node := range g.Nodes {
			w = max(w, node.X+NodeWidth)
			h = max(h, node.Y+NodeHeight)
		}
		assert.Equal(t, w, g.Width, "n=%d", n)
		assert.Equal(t, h, g.Height, "n=%d", n)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	for n := 0; n <= 12; n++ {
		if diff := cmp.Diff(Compute(n), Compute(n)); diff != "" {
			t.Fatalf("n=%d differs between calls (-first +second):\n%s", n, diff)
		}
	}
}

func TestEdgePaths(t *testing.T) {
	g := Compute(4)

	right := g.Edges[0]
	assert.Equal(t, "edge-0-1", right.PathID)
	assert.Equal(t, Quadratic, right.Path.Kind)
	assert.Equal(t, Point{X: 160, Y: 28}, right.Path.Start)
	assert.Equal(t, Point{X: 208, Y: 28}, right.Path.End)
	assert.Equal(t, []Point{{X: 184, Y: 22}}, right.Path.Controls)
	assert.Equal(t, "M 160 28 Q 184 22 208 28", right.Path.D())

	down := g.Edges[1]
	assert.Equal(t, Cubic, down.Path.Kind)
	assert.Equal(t, Point{X: 288, Y: 56}, down.Path.Start)
	assert.Equal(t, Point{X: 288, Y: 120}, down.Path.End)
	assert.Equal(t, []Point{{X: 288, Y: 88}, {X: 288, Y: 88}}, down.Path.Controls)
	assert.Equal(t, "M 288 56 C 288 88 288 88 288 120", down.Path.D())

	left := g.Edges[2]
	assert.Equal(t, Quadratic, left.Path.Kind)
	assert.Equal(t, Point{X: 208, Y: 148}, left.Path.Start)
	assert.Equal(t, Point{X: 160, Y: 148}, left.Path.End)
}
