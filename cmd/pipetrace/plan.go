package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/rendis/pipetrace/internal/catalog"
	"github.com/rendis/pipetrace/pkg/schema"
)

func runPlan(ctx context.Context, args []string, cfg Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	catalogPath := fs.String("catalog", cfg.CatalogPath, "step catalog YAML (default: built-in)")
	format := fs.String("format", "text", "output format: text, json")
	options := optionsFlag{}
	fs.Var(options, "opt", "run option key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := loadCatalog(*catalogPath, logger)
	if err != nil {
		return err
	}

	enabled, err := cat.Plan(ctx, options)
	if err != nil {
		return err
	}

	defs := make([]schema.StepDefinition, 0, len(enabled))
	for _, id := range enabled {
		entry, _ := cat.Entry(id)
		defs = append(defs, schema.StepDefinition{ID: id, Label: entry.Label})
	}

	switch *format {
	case "text":
		for _, d := range defs {
			fmt.Fprintf(stdout, "%s\t%s\n", d.ID, d.Label)
		}
		return nil
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"enabled": defs})
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

// loadCatalog loads the catalog at path, or the built-in one, and logs its
// validation warnings.
func loadCatalog(path string, logger *slog.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for _, w := range cat.Warnings() {
		logger.Warn("catalog warning", slog.String("path", w.Path), slog.String("message", w.Message))
	}
	return cat, nil
}
