package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/depscope/depscope/pkg/report"
)

// DefaultTailLines is the log snippet length when none is configured.
const DefaultTailLines = 10

// LogEnricher attaches recent log lines to each container of each Pod
// record. Failures are isolated per container: a container that cannot
// produce logs yields an empty snippet without blocking its siblings.
type LogEnricher struct {
	// Core issues the log requests. Required unless fetch is set.
	Core kubernetes.Interface

	// Namespace of the pods being enriched.
	Namespace string

	// TailLines caps the snippet length. Zero means DefaultTailLines.
	TailLines int64

	// Timeout bounds each per-container request. Zero means no extra bound
	// beyond the caller's context.
	Timeout time.Duration

	// fetch overrides the log transport in tests.
	fetch func(ctx context.Context, pod, container string) ([]byte, error)
}

// Enrich fetches log snippets for every container of every pod record.
// Strictly additive; never returns an error.
func (e *LogEnricher) Enrich(ctx context.Context, pods []*report.ResourceRecord) {
	tail := e.TailLines
	if tail <= 0 {
		tail = DefaultTailLines
	}

	fetch := e.fetch
	if fetch == nil {
		fetch = func(ctx context.Context, pod, container string) ([]byte, error) {
			req := e.Core.CoreV1().Pods(e.Namespace).GetLogs(pod, &corev1.PodLogOptions{
				Container: container,
				TailLines: ptr.To(tail),
			})
			return req.DoRaw(ctx)
		}
	}

	for _, pod := range pods {
		snips := make(map[string][]string)

		for _, container := range containerNames(pod) {
			lines, err := e.fetchContainer(ctx, fetch, pod.Identity.Name, container)
			if err != nil {
				// never started, still creating, or request timed out
				slog.Debug("log snippet unavailable",
					slog.String("pod", pod.Identity.Name),
					slog.String("container", container),
					slog.String("error", err.Error()))
				snips[container] = []string{}
				continue
			}
			snips[container] = lines
		}

		if len(snips) > 0 {
			pod.Enrichment.LogSnips = snips
		}
	}
}

func (e *LogEnricher) fetchContainer(ctx context.Context, fetch func(context.Context, string, string) ([]byte, error), pod, container string) ([]string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	raw, err := fetch(ctx, pod, container)
	if err != nil {
		return nil, err
	}

	text := strings.TrimRight(string(raw), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// containerNames lists regular and init containers from the pod
// definition, in declaration order.
func containerNames(pod *report.ResourceRecord) []string {
	var names []string
	for _, field := range []string{"initContainers", "containers"} {
		entries, _, _ := unstructured.NestedSlice(pod.Definition, "spec", field)
		for _, entry := range entries {
			container, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := container["name"].(string); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
