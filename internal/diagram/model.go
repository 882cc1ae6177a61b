package diagram

// Model is the intermediate representation used by all renderers: the run
// state joined with the layout geometry.
type Model struct {
	Title  string
	Status string // run status
	Width  float64
	Height float64
	Nodes  []*Node
	Edges  []Edge
	// Rows holds node IDs per layout row in left-to-right visual order.
	Rows [][]string
}

// Node is one step placed on the canvas.
type Node struct {
	ID      string
	Label   string
	Index   int
	Row     int
	Col     int
	X       float64
	Y       float64
	Status  *StatusOverlay
	Summary any
}

// StatusOverlay carries the runtime state of a node.
type StatusOverlay struct {
	Status     string // from schema.StepStatus
	DurationMs int64
	Error      string
}

// Edge connects consecutive steps.
type Edge struct {
	From     string
	To       string
	PathID   string
	D        string // SVG path data
	CrossRow bool
}

// Node returns the node with the given ID, or nil.
func (m *Model) Node(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
