package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rendis/pipetrace/internal/logging"
)

const usageText = `usage: pipetrace <command> [flags]

commands:
  layout   print the diagram geometry for a step count
  plan     list the steps a catalog enables for a set of run options
  replay   apply a JSON-lines action journal and render the final run
  version  print the version
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}

	cfg := loadConfig()
	logger := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)

	var err error
	switch args[0] {
	case "layout":
		err = runLayout(args[1:], stdout, stderr)
	case "plan":
		err = runPlan(ctx, args[1:], cfg, logger, stdout, stderr)
	case "replay":
		err = runReplay(ctx, args[1:], cfg, logger, stdin, stdout, stderr)
	case "version", "--version", "-v":
		printVersion(stdout)
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usageText)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usageText)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
