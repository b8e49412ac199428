// Package gather runs the collection pipeline end to end: fetch,
// normalize, resolve, enrich, assemble. One run produces one immutable
// report document; nothing is shared or cached across runs.
package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/depscope/depscope/pkg/assembler"
	"github.com/depscope/depscope/pkg/enrich"
	"github.com/depscope/depscope/pkg/fetcher"
	"github.com/depscope/depscope/pkg/kube"
	"github.com/depscope/depscope/pkg/normalizer"
	"github.com/depscope/depscope/pkg/registry"
	"github.com/depscope/depscope/pkg/report"
	"github.com/depscope/depscope/pkg/resolver"
)

// Gatherer wires the pipeline stages for one target deployment.
type Gatherer struct {
	// Clients give the pipeline its read-only API surfaces. Required.
	Clients *kube.Clients

	// Registry declares the tracked kinds. Nil uses registry.Default().
	Registry *registry.Registry

	// OwnedGroupSuffixes augments the registry with the application's own
	// CRD kinds discovered under matching API groups.
	OwnedGroupSuffixes []string

	// Namespace is the target namespace. Required.
	Namespace string

	// Options control enrichment and fetch behavior.
	Options report.Options

	// Grouping overrides the component grouping rules. Zero value uses
	// resolver.DefaultGroupingRules().
	Grouping resolver.GroupingRules
}

// Run executes one collection pass and returns the assembled document.
// Only conditions that make assembly impossible (no namespace, no clients)
// are returned as errors; everything else degrades to unavailable or
// absent states inside the document.
func (g *Gatherer) Run(ctx context.Context) (*report.Document, error) {
	if g.Clients == nil {
		return nil, fmt.Errorf("no cluster clients supplied")
	}
	if g.Namespace == "" {
		return nil, fmt.Errorf("no namespace determinable")
	}

	reg := g.Registry
	if reg == nil {
		reg = registry.Default()
	}

	start := time.Now()
	defer func() {
		gatherDuration.Observe(time.Since(start).Seconds())
	}()

	slog.Debug("starting report gathering",
		slog.String("namespace", g.Namespace),
		slog.Int("kinds", len(reg.Specs())))

	// Augment the registry with the application's own CRD kinds. Failure
	// here only narrows the report.
	if len(g.OwnedGroupSuffixes) > 0 {
		if err := reg.DiscoverOwned(g.Clients.Discovery(), g.OwnedGroupSuffixes); err != nil {
			slog.Warn("CRD discovery failed, reporting registered kinds only",
				slog.String("error", err.Error()))
		}
	}

	// Fetch
	sets, err := g.stageFetch(ctx, reg)
	if err != nil {
		gatherTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// Normalize
	stageStart := time.Now()
	norm := &normalizer.Normalizer{Registry: reg}
	records, warnings := norm.Normalize(sets)
	stageDuration.WithLabelValues("normalize").Observe(time.Since(stageStart).Seconds())

	// Resolve
	stageStart = time.Now()
	res := resolver.New(reg.Kinds(), records)
	res.Run()
	grouping := g.Grouping
	if grouping.NameAnnotation == "" && len(grouping.LabelKeys) == 0 {
		grouping = resolver.DefaultGroupingRules()
	}
	groups := res.Groups(grouping)
	stageDuration.WithLabelValues("resolve").Observe(time.Since(stageStart).Seconds())

	// Enrich
	stageStart = time.Now()
	if g.Options.IncludeMetrics {
		me := &enrich.MetricsEnricher{Dynamic: g.Clients.Dynamic, Namespace: g.Namespace}
		me.Enrich(ctx, records)
	}
	if g.Options.IncludeLogSnips {
		le := &enrich.LogEnricher{
			Core:      g.Clients.Core,
			Namespace: g.Namespace,
			TailLines: g.Options.LogTailLines,
			Timeout:   g.Options.FetchTimeout,
		}
		le.Enrich(ctx, records["Pod"])
	}
	stageDuration.WithLabelValues("enrich").Observe(time.Since(stageStart).Seconds())

	// Server version is overview garnish; its absence is not fatal.
	serverVersion, err := g.Clients.Discovery().ServerVersion()
	if err != nil {
		slog.Warn("server version unavailable", slog.String("error", err.Error()))
		serverVersion = nil
	}

	// Assemble
	stageStart = time.Now()
	doc, err := assembler.Assemble(assembler.Inputs{
		Namespace:     g.Namespace,
		Registry:      reg,
		Sets:          sets,
		Records:       records,
		Groups:        groups,
		ServerVersion: serverVersion,
		Warnings:      warnings,
		Options:       g.Options,
	})
	stageDuration.WithLabelValues("assemble").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		gatherTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to assemble report: %w", err)
	}

	total := 0
	for _, kind := range doc.Kinds() {
		total += len(doc.RecordsOfKind(kind))
	}
	recordCount.Set(float64(total))
	gatherTotal.WithLabelValues("success").Inc()

	slog.Debug("report gathering complete",
		slog.Int("records", total),
		slog.Int("unavailable_kinds", len(doc.UnavailableKinds())))

	return doc, nil
}

func (g *Gatherer) stageFetch(ctx context.Context, reg *registry.Registry) (map[string]*report.RawResourceSet, error) {
	stageStart := time.Now()
	defer func() {
		stageDuration.WithLabelValues("fetch").Observe(time.Since(stageStart).Seconds())
	}()

	f := &fetcher.Fetcher{
		Dynamic:     g.Clients.Dynamic,
		Registry:    reg,
		Namespace:   g.Namespace,
		Timeout:     g.Options.FetchTimeout,
		Parallelism: g.Options.MaxConcurrentFetches,
	}
	sets, err := f.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cluster resources: %w", err)
	}
	return sets, nil
}
