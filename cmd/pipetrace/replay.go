package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rendis/pipetrace/internal/diagram"
	"github.com/rendis/pipetrace/internal/journal"
	"github.com/rendis/pipetrace/internal/layout"
	"github.com/rendis/pipetrace/internal/logging"
	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/internal/streaming"
	"github.com/rendis/pipetrace/internal/trace"
	"github.com/rendis/pipetrace/pkg/schema"
)

// replayReport is the json output of the replay command.
type replayReport struct {
	RunID       string                `json:"run_id,omitempty"`
	Journal     string                `json:"journal_sha256"`
	Actions     int                   `json:"actions"`
	State       pipeline.State        `json:"state"`
	Layout      layout.Graph          `json:"layout"`
	Summaries   map[schema.StepID]any `json:"summaries,omitempty"`
	Escalations []schema.StepID       `json:"escalations,omitempty"`
	Rewound     int                   `json:"rewound,omitempty"`
	Events      map[string]int        `json:"events"`
}

func runReplay(ctx context.Context, args []string, cfg Config, logger *slog.Logger, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	catalogPath := fs.String("catalog", cfg.CatalogPath, "step catalog YAML (default: built-in)")
	format := fs.String("format", "ascii", "output format: ascii, mermaid, json")
	strict := fs.Bool("strict", cfg.Strict, "reject out-of-sequence actions")
	summaries := fs.Bool("summaries", true, "evaluate catalog summaries")
	rewind := fs.Int("rewind", 0, "undo the last N applied actions before rendering")
	record := fs.String("record", "", "write the applied actions, timestamped, as a journal to this file")
	options := optionsFlag{}
	fs.Var(options, "opt", "run option key=value used by escalation rules (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("replay needs exactly one journal file (or - for stdin)")
	}
	switch *format {
	case "ascii", "mermaid", "json":
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if *rewind < 0 {
		return fmt.Errorf("rewind must not be negative")
	}

	cat, err := loadCatalog(*catalogPath, logger)
	if err != nil {
		return err
	}

	data, err := readJournal(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	digest, err := sha256Hex(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("hash journal: %w", err)
	}

	reader, err := journal.NewValidatingReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	actions, err := reader.ReadAll()
	if err != nil {
		return err
	}
	logger.Debug("journal loaded", slog.Int("actions", len(actions)), slog.String("sha256", digest))

	var recorder *journal.Writer
	if *record != "" {
		f, err := os.Create(*record)
		if err != nil {
			return fmt.Errorf("create record journal: %w", err)
		}
		defer f.Close()
		recorder = journal.NewWriter(f, journal.WithTimestamps(time.Now))
	}

	hub := streaming.NewMemoryHub(len(actions) + *rewind + 1)
	events, cancel, err := hub.Subscribe(ctx, streaming.EventFilter{})
	if err != nil {
		return err
	}

	tracker := trace.New(
		trace.WithReducer(cat.Reducer()),
		trace.WithStrict(*strict),
		trace.WithLogger(logger),
		trace.WithHub(hub),
		trace.WithHistoryLimit(cfg.HistoryLimit),
	)

	report := replayReport{Journal: digest, Actions: len(actions), Events: map[string]int{}}
	for i, a := range actions {
		state, err := tracker.Dispatch(ctx, a)
		if err != nil {
			cancel()
			return fmt.Errorf("action %d (%s): %w", i+1, a.Kind(), err)
		}
		if recorder != nil {
			if err := recorder.Write(a); err != nil {
				cancel()
				return err
			}
		}
		failed, ok := a.(pipeline.StepError)
		if !ok {
			continue
		}
		escalate, err := cat.Escalate(ctx, options, state, failed.ID)
		if err != nil {
			cancel()
			return err
		}
		if escalate {
			report.Escalations = append(report.Escalations, failed.ID)
			stepCtx := logging.WithStepID(logging.WithRunID(ctx, tracker.RunID()), string(failed.ID))
			logging.LogWith(stepCtx, logger).Warn("step failure escalates to the run",
				slog.String("error", failed.Message))
		}
	}

	for ; report.Rewound < *rewind; report.Rewound++ {
		if _, err := tracker.Undo(ctx); err != nil {
			cancel()
			return fmt.Errorf("rewind %d: %w", report.Rewound+1, err)
		}
	}

	cancel()
	for e := range events {
		report.Events[e.EventType]++
	}

	state := tracker.State()
	report.RunID = tracker.RunID()
	report.State = state
	report.Layout = tracker.Layout()
	if *summaries {
		if report.Summaries, err = cat.Summaries(ctx, state); err != nil {
			return err
		}
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	title := report.RunID
	if title == "" {
		title = "idle"
	}
	model, err := diagram.Build(state, report.Layout,
		diagram.WithTitle(title),
		diagram.WithSummaries(report.Summaries))
	if err != nil {
		return err
	}
	if *format == "mermaid" {
		_, err = io.WriteString(stdout, diagram.RenderMermaid(model))
	} else {
		_, err = io.WriteString(stdout, diagram.RenderASCII(model))
	}
	return err
}

func readJournal(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read journal from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return data, nil
}
