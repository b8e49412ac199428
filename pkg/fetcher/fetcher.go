// Package fetcher issues one best-effort list query per registered kind
// against the target namespace. Queries fan out in parallel under a bounded
// worker pool; each writes to its own output slot, so no locking is needed.
// A failed or timed-out fetch yields a set flagged unavailable rather than
// an error, so the report can mark absent sections distinctly from empty
// ones.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"

	"github.com/depscope/depscope/pkg/registry"
	"github.com/depscope/depscope/pkg/report"
)

const (
	// DefaultParallelism bounds the fetch fan-out when none is configured.
	DefaultParallelism = 4

	// DefaultTimeout bounds each per-kind query when none is configured.
	DefaultTimeout = 30 * time.Second

	// defaultQPS throttles list calls so a wide registry does not hammer
	// the API server.
	defaultQPS = 20
)

// Fetcher queries the cluster for every kind in its registry.
type Fetcher struct {
	// Dynamic issues the list calls. Required.
	Dynamic dynamic.Interface

	// Registry declares the kinds to fetch. Required.
	Registry *registry.Registry

	// Namespace scopes queries for namespaced kinds. Cluster-scoped kinds
	// are listed without a namespace filter.
	Namespace string

	// Timeout bounds each per-kind query. Zero means DefaultTimeout.
	Timeout time.Duration

	// Parallelism bounds the fan-out. Zero means DefaultParallelism.
	Parallelism int

	// Limiter throttles API calls. Nil installs a default limiter.
	Limiter *rate.Limiter
}

// Fetch lists every registered kind and returns one RawResourceSet per
// kind, keyed by kind name. Item order within a set is preserved from the
// API response. The only returned error is context cancellation; every
// per-kind failure degrades to an unavailable set.
func (f *Fetcher) Fetch(ctx context.Context) (map[string]*report.RawResourceSet, error) {
	if f.Dynamic == nil || f.Registry == nil {
		return nil, fmt.Errorf("fetcher requires a dynamic client and a registry")
	}

	specs := f.Registry.Specs()

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	parallelism := f.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	limiter := f.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(defaultQPS), parallelism)
	}

	// one slot per kind; slots are written only by their own goroutine
	slots := make([]*report.RawResourceSet, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, spec := range specs {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			slots[i] = f.fetchKind(ctx, spec, timeout)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch aborted: %w", err)
	}

	sets := make(map[string]*report.RawResourceSet, len(specs))
	for _, set := range slots {
		sets[set.Kind] = set
	}
	return sets, nil
}

// fetchKind lists a single kind, converting every failure into an
// unavailable set.
func (f *Fetcher) fetchKind(ctx context.Context, spec registry.KindSpec, timeout time.Duration) *report.RawResourceSet {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resource := f.Dynamic.Resource(spec.GroupVersionResource())

	var lister dynamic.ResourceInterface = resource
	if spec.Namespaced {
		lister = resource.Namespace(f.Namespace)
	}

	list, err := lister.List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("resource kind unavailable",
			slog.String("kind", spec.Kind),
			slog.String("group", spec.Group),
			slog.String("error", err.Error()))
		return &report.RawResourceSet{Kind: spec.Kind, Available: false}
	}

	slog.Debug("fetched resource kind",
		slog.String("kind", spec.Kind),
		slog.Int("count", len(list.Items)))

	return &report.RawResourceSet{
		Kind:      spec.Kind,
		Items:     list.Items,
		Available: true,
	}
}
