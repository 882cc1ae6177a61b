package layout

import (
	"strconv"
	"strings"
)

// PathKind is the curve family of an edge path.
type PathKind string

const (
	Quadratic PathKind = "quadratic"
	Cubic     PathKind = "cubic"
)

// Point is a 2D coordinate in diagram space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is a Bezier curve: one control point for Quadratic, two for Cubic.
type Path struct {
	Kind     PathKind `json:"kind"`
	Start    Point    `json:"start"`
	Controls []Point  `json:"controls"`
	End      Point    `json:"end"`
}

// D returns the path in SVG path-data notation, e.g. "M 160 28 Q 184 22 208 28".
func (p Path) D() string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, p.Start)
	switch p.Kind {
	case Cubic:
		b.WriteString(" C ")
	default:
		b.WriteString(" Q ")
	}
	for _, c := range p.Controls {
		writePoint(&b, c)
		b.WriteByte(' ')
	}
	writePoint(&b, p.End)
	return b.String()
}

func writePoint(b *strings.Builder, pt Point) {
	b.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
}
