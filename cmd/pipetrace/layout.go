package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/rendis/pipetrace/internal/layout"
)

func runLayout(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", 5, "number of steps")
	format := fs.String("format", "json", "output format: json, paths")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g := layout.Compute(*n)
	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "paths":
		for _, e := range g.Edges {
			fmt.Fprintf(stdout, "%s\t%s\n", e.PathID, e.Path.D())
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}
