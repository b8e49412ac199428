package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/depscope/depscope/pkg/report"
)

// Metrics API group/version served by metrics-server.
var (
	podMetricsGVR  = schema.GroupVersionResource{Group: "metrics.k8s.io", Version: "v1beta1", Resource: "pods"}
	nodeMetricsGVR = schema.GroupVersionResource{Group: "metrics.k8s.io", Version: "v1beta1", Resource: "nodes"}
)

// MetricsEnricher attaches usage snapshots to Pod and Node records. The
// metrics API is optional cluster equipment; when it is not installed or
// not permitted, the whole pass is skipped with a single warning and no
// record carries metrics.
type MetricsEnricher struct {
	// Dynamic issues the metrics list calls. Required.
	Dynamic dynamic.Interface

	// Namespace scopes the pod metrics query.
	Namespace string
}

// Enrich queries pod and node metrics and attaches them to matching
// records. Strictly additive; never returns an error for unavailability.
func (e *MetricsEnricher) Enrich(ctx context.Context, records map[string][]*report.ResourceRecord) {
	e.enrichPods(ctx, records["Pod"])
	e.enrichNodes(ctx, records["Node"])
}

func (e *MetricsEnricher) enrichPods(ctx context.Context, pods []*report.ResourceRecord) {
	if len(pods) == 0 {
		return
	}

	list, err := e.Dynamic.Resource(podMetricsGVR).Namespace(e.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("pod metrics unavailable, skipping metrics enrichment",
			slog.String("error", err.Error()))
		return
	}

	byName := make(map[string]*report.MetricsSnapshot, len(list.Items))
	for i := range list.Items {
		item := &list.Items[i]
		byName[item.GetName()] = podSnapshot(item)
	}

	attached := 0
	for _, pod := range pods {
		if snap, ok := byName[pod.Identity.Name]; ok {
			pod.Enrichment.Metrics = snap
			attached++
		}
	}
	slog.Debug("attached pod metrics", slog.Int("pods", attached))
}

func (e *MetricsEnricher) enrichNodes(ctx context.Context, nodes []*report.ResourceRecord) {
	if len(nodes) == 0 {
		return
	}

	list, err := e.Dynamic.Resource(nodeMetricsGVR).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("node metrics unavailable, skipping metrics enrichment",
			slog.String("error", err.Error()))
		return
	}

	byName := make(map[string]*report.MetricsSnapshot, len(list.Items))
	for i := range list.Items {
		item := &list.Items[i]
		cpu, mem := usageOf(item.Object, "usage")
		byName[item.GetName()] = &report.MetricsSnapshot{CPU: cpu, Memory: mem}
	}

	for _, node := range nodes {
		if snap, ok := byName[node.Identity.Name]; ok {
			node.Enrichment.Metrics = snap
		}
	}
}

// podSnapshot sums container usage into pod totals and keeps the
// per-container breakdown.
func podSnapshot(item *unstructured.Unstructured) *report.MetricsSnapshot {
	snap := &report.MetricsSnapshot{Containers: map[string]report.ContainerUsage{}}

	var totalCPU, totalMem resource.Quantity

	containers, _, _ := unstructured.NestedSlice(item.Object, "containers")
	for _, entry := range containers {
		container, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := container["name"].(string)
		cpu, mem := usageOf(container, "usage")
		if name == "" {
			continue
		}

		snap.Containers[name] = report.ContainerUsage{CPU: cpu, Memory: mem}

		if q, err := resource.ParseQuantity(cpu); err == nil {
			totalCPU.Add(q)
		}
		if q, err := resource.ParseQuantity(mem); err == nil {
			totalMem.Add(q)
		}
	}

	snap.CPU = totalCPU.String()
	snap.Memory = totalMem.String()
	return snap
}

// usageOf pulls cpu and memory quantity strings from a usage map.
func usageOf(obj map[string]any, field string) (cpu, memory string) {
	usage, ok := obj[field].(map[string]any)
	if !ok {
		return "", ""
	}
	cpu = fmt.Sprintf("%v", usage["cpu"])
	memory = fmt.Sprintf("%v", usage["memory"])
	if usage["cpu"] == nil {
		cpu = ""
	}
	if usage["memory"] == nil {
		memory = ""
	}
	return cpu, memory
}
