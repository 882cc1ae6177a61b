package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a Model as a Mermaid flowchart string.
func RenderMermaid(model *Model) string {
	var b strings.Builder

	b.WriteString("flowchart LR\n")

	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}
	if model.Status != "" {
		b.WriteString(fmt.Sprintf("    %%%% run: %s\n", model.Status))
	}

	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", mermaidSafeID(node.ID), mermaidEscapeLabel(nodeCaption(node))))
	}

	for _, edge := range model.Edges {
		arrow := "-->"
		if edge.CrossRow {
			arrow = "-.->"
		}
		b.WriteString(fmt.Sprintf("    %s %s %s\n", mermaidSafeID(edge.From), arrow, mermaidSafeID(edge.To)))
	}

	b.WriteString("\n")
	b.WriteString("    classDef complete fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef error fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")
	b.WriteString("    classDef running fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef pending fill:#6b6b6b,stroke:#4a4a4a,color:#fff\n")
	b.WriteString("    classDef skipped fill:#4a4a4a,stroke:#333,color:#aaa,stroke-dasharray:5 5\n")

	for _, node := range model.Nodes {
		if node.Status == nil {
			continue
		}
		if cls := mermaidStatusClass(node.Status.Status); cls != "" {
			b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(node.ID), cls))
		}
	}

	return b.String()
}

// nodeCaption is the label followed by the duration and the error, if any.
func nodeCaption(node *Node) string {
	caption := node.Label
	if node.Status == nil {
		return caption
	}
	if node.Status.DurationMs > 0 {
		caption += fmt.Sprintf(" (%dms)", node.Status.DurationMs)
	}
	if node.Status.Error != "" {
		caption += ": " + node.Status.Error
	}
	return caption
}

func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

func mermaidEscapeLabel(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "\n", " ")
	return r.Replace(s)
}

func mermaidStatusClass(status string) string {
	switch status {
	case "complete", "error", "running", "pending", "skipped":
		return status
	default:
		return ""
	}
}
