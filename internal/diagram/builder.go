package diagram

import (
	"sort"

	"github.com/rendis/pipetrace/internal/layout"
	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/pkg/schema"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	title     string
	summaries map[schema.StepID]any
}

// WithTitle sets the model title.
func WithTitle(title string) BuildOption {
	return func(c *buildConfig) { c.title = title }
}

// WithSummaries attaches per-step summary values to the nodes.
func WithSummaries(summaries map[schema.StepID]any) BuildOption {
	return func(c *buildConfig) { c.summaries = summaries }
}

// Build joins state with graph. Node i of the graph is bound to step i of the
// state, so graph must have been computed for len(state.Steps).
func Build(state pipeline.State, graph layout.Graph, opts ...BuildOption) (*Model, error) {
	if len(graph.Nodes) != len(state.Steps) {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"layout has %d nodes for %d steps", len(graph.Nodes), len(state.Steps)).
			WithDetails(map[string]any{"nodes": len(graph.Nodes), "steps": len(state.Steps)})
	}

	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	nodes := make([]*Node, len(state.Steps))
	for i, step := range state.Steps {
		g := graph.Nodes[i]
		nodes[i] = &Node{
			ID:      string(step.ID),
			Label:   step.Label,
			Index:   g.Index,
			Row:     g.Row,
			Col:     g.Col,
			X:       g.X,
			Y:       g.Y,
			Status:  overlay(step),
			Summary: cfg.summaries[step.ID],
		}
		if nodes[i].Label == "" {
			nodes[i].Label = nodes[i].ID
		}
	}

	edges := make([]Edge, len(graph.Edges))
	for i, e := range graph.Edges {
		edges[i] = Edge{
			From:     nodes[e.From].ID,
			To:       nodes[e.To].ID,
			PathID:   e.PathID,
			D:        e.Path.D(),
			CrossRow: graph.CrossRow(e),
		}
	}

	return &Model{
		Title:  cfg.title,
		Status: string(state.Status),
		Width:  graph.Width,
		Height: graph.Height,
		Nodes:  nodes,
		Edges:  edges,
		Rows:   buildRows(nodes),
	}, nil
}

// overlay maps a step to its status overlay. Error text comes from an
// ErrorMessage payload.
func overlay(step pipeline.Step) *StatusOverlay {
	o := &StatusOverlay{Status: string(step.Status)}
	if d, ok := step.Duration(); ok {
		o.DurationMs = d.Milliseconds()
	}
	if step.Status == schema.StepError {
		if msg, ok := step.Data.(pipeline.ErrorMessage); ok {
			o.Error = string(msg)
		}
	}
	return o
}

func buildRows(nodes []*Node) [][]string {
	var byRow [][]*Node
	for _, n := range nodes {
		for len(byRow) <= n.Row {
			byRow = append(byRow, nil)
		}
		byRow[n.Row] = append(byRow[n.Row], n)
	}
	rows := make([][]string, len(byRow))
	for r, row := range byRow {
		sort.Slice(row, func(i, j int) bool { return row[i].Col < row[j].Col })
		ids := make([]string, len(row))
		for i, n := range row {
			ids[i] = n.ID
		}
		rows[r] = ids
	}
	return rows
}
