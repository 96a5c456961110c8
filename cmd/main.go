package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.rexl.dev/internal/observability"
	"go.rexl.dev/internal/record"
	"go.rexl.dev/pkg"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rexl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: rexl [-record file.yaml] [-validate] [-format] [-v] [-trace] [-metrics] EXPR")
		fs.PrintDefaults()
	}

	recordPath := fs.String("record", "", "YAML `file` with the schema and data identifiers resolve against")
	validate := fs.Bool("validate", false, "type-check the expression before evaluating it")
	format := fs.Bool("format", false, "print the canonical form of the expression")
	verbose := fs.Bool("v", false, "log pipeline phases and identifier resolution")
	tracing := fs.Bool("trace", false, "print an OpenTelemetry span per pipeline phase after the run")
	metrics := fs.Bool("metrics", false, "print the OpenTelemetry phase metrics after the run")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	source := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(source) == "" {
		fs.Usage()
		return 2
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var (
		types  rexl.TypeResolver
		values rexl.ValueResolver
	)
	if *recordPath != "" {
		rec, err := record.LoadFile(*recordPath)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		types, values = rec.DescribeIdentifier, rec.ResolveIdentifier
	}

	telemetry, err := observability.NewTelemetry(*tracing, *metrics)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	ctx := context.Background()
	r := observability.NewRunner(append(telemetry.RunnerOptions(), observability.WithLogger(logger))...)

	j := job{source: source, format: *format, validate: *validate, types: types, values: values}
	code := j.run(ctx, r, stdout, stderr)

	if err := telemetry.Report(ctx, stderr); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	return code
}

// job is one expression run through the pipeline.
type job struct {
	source   string
	format   bool
	validate bool
	types    rexl.TypeResolver
	values   rexl.ValueResolver
}

func (j job) run(ctx context.Context, r *observability.Runner, stdout, stderr io.Writer) int {
	x, err := r.Compile(ctx, j.source)
	if err != nil {
		printError(stderr, j.source, err)
		return 1
	}

	if j.format {
		fmt.Fprintln(stdout, x)
	}

	if j.validate {
		t, err := r.Validate(ctx, x, j.types)
		if err != nil {
			printError(stderr, j.source, err)
			return 1
		}
		fmt.Fprintln(stdout, "type:", t)
	}

	v, err := r.Evaluate(ctx, x, j.values)
	if err != nil {
		printError(stderr, j.source, err)
		return 1
	}

	fmt.Fprintln(stdout, v)
	return 0
}

func printError(w io.Writer, source string, err error) {
	e, ok := rexl.AsError(err)
	if !ok {
		fmt.Fprintln(w, "Error:", err)
		return
	}

	switch e.Kind {
	case rexl.KindTokenizer:
		fmt.Fprintln(w, "Bad character:", e.Message)
	case rexl.KindParser:
		fmt.Fprintln(w, "Bad expression:", e.Message)
	case rexl.KindValidator:
		fmt.Fprintln(w, "Invalid expression:", e.Message)
	case rexl.KindEvaluator:
		fmt.Fprintln(w, "Evaluation failed:", e.Message)
	}

	fmt.Fprintln(w, e.Snippet(source))
}
