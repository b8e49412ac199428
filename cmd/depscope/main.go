// Command depscope gathers the Kubernetes resource state of a namespaced
// application deployment and writes it as a hierarchical, cross-linked
// report document.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/depscope/depscope/pkg/gather"
	"github.com/depscope/depscope/pkg/kube"
	"github.com/depscope/depscope/pkg/registry"
	"github.com/depscope/depscope/pkg/report"
	"github.com/depscope/depscope/pkg/serializer"
)

// fileTimestampLayout names report files written into a directory.
const fileTimestampLayout = "2006-01-02T15_04_05"

func main() {
	cmd := &cli.Command{
		Name:  "depscope",
		Usage: "Collect a point-in-time report of an application deployment in a Kubernetes namespace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "namespace", Aliases: []string{"n"}, Usage: "target namespace (default: current kubeconfig context)"},
			&cli.StringFlag{Name: "kubeconfig", Usage: "path to kubeconfig (default: KUBECONFIG, then ~/.kube/config, then in-cluster)"},
			&cli.BoolFlag{Name: "metrics", Value: true, Usage: "attach pod and node usage from the metrics API"},
			&cli.BoolFlag{Name: "logs", Usage: "attach recent log lines per pod container (slower)"},
			&cli.IntFlag{Name: "tail-lines", Value: 10, Usage: "log lines per container when --logs is set"},
			&cli.BoolFlag{Name: "definitions", Usage: "include full resource definitions in the output"},
			&cli.StringSliceFlag{Name: "kinds", Usage: "restrict collection to these kind names (repeatable, default: all registered kinds)"},
			&cli.StringSliceFlag{Name: "owned-group", Usage: "CRD API group suffix treated as application-owned (repeatable)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file or directory (default: stdout)"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "output format (json, yaml, table)"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "per-query timeout against the cluster API"},
			&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "maximum concurrent resource fetches"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "log-json", Usage: "write logs as JSON"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	configureLogging(cmd.Bool("debug"), cmd.Bool("log-json"))

	output := cmd.String("output")
	format := serializer.Format(cmd.String("format"))
	if !cmd.IsSet("format") && output != "" {
		format = serializer.FormatFromPath(output)
	}
	if format.IsUnknown() {
		return fmt.Errorf("unknown output format: %q, valid formats are: json, yaml, table", format)
	}

	var clients *kube.Clients
	var err error
	if kubeconfig := cmd.String("kubeconfig"); kubeconfig != "" {
		clients, err = kube.BuildClients(kubeconfig)
	} else {
		clients, err = kube.GetClients()
	}
	if err != nil {
		return err
	}

	reg := registry.Default()
	if kinds := cmd.StringSlice("kinds"); len(kinds) > 0 {
		reg, err = reg.Filter(kinds)
		if err != nil {
			return err
		}
	}

	namespace := cmd.String("namespace")
	if namespace == "" {
		namespace = kube.CurrentNamespace(cmd.String("kubeconfig"))
	}
	if namespace == "" {
		return fmt.Errorf("no namespace determinable; use --namespace")
	}

	options := report.Options{
		IncludeMetrics:       cmd.Bool("metrics"),
		IncludeLogSnips:      cmd.Bool("logs"),
		LogTailLines:         int64(cmd.Int("tail-lines")),
		IncludeDefinitions:   cmd.Bool("definitions"),
		FetchTimeout:         cmd.Duration("timeout"),
		MaxConcurrentFetches: int(cmd.Int("concurrency")),
	}

	g := &gather.Gatherer{
		Clients:            clients,
		Registry:           reg,
		Namespace:          namespace,
		Options:            options,
		OwnedGroupSuffixes: cmd.StringSlice("owned-group"),
	}

	doc, err := g.Run(ctx)
	if err != nil {
		return err
	}

	writer, err := newWriter(format, output, doc.Metadata().Gathered)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil {
			slog.Warn("failed to close output", slog.String("error", closeErr.Error()))
		}
	}()

	return writer.Serialize(ctx, doc.Export())
}

// newWriter resolves the output destination. A directory gets a
// timestamped data file inside it; a file path or stdout is used as is.
func newWriter(format serializer.Format, output string, gathered time.Time) (*serializer.Writer, error) {
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		ext := "json"
		if format == serializer.FormatYAML {
			ext = "yaml"
		} else if format == serializer.FormatTable {
			ext = "txt"
		}
		name := fmt.Sprintf("depscope_report_%s.%s", gathered.Format(fileTimestampLayout), ext)
		output = filepath.Join(output, name)
	}

	return serializer.NewFileWriterOrStdout(format, output)
}

func configureLogging(debug, asJSON bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
