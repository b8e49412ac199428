package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fakeclient "k8s.io/client-go/kubernetes/fake"

	"github.com/depscope/depscope/pkg/report"
)

func podRecord(name string, containers ...string) *report.ResourceRecord {
	entries := make([]any, 0, len(containers))
	for _, c := range containers {
		entries = append(entries, map[string]any{"name": c})
	}
	return &report.ResourceRecord{
		Identity: report.Identity{Kind: "Pod", Namespace: testNamespace, Name: name},
		Definition: map[string]any{
			"kind": "Pod",
			"metadata": map[string]any{
				"name":      name,
				"namespace": testNamespace,
			},
			"spec": map[string]any{"containers": entries},
		},
	}
}

func TestLogEnricher_SnippetPerContainer(t *testing.T) {
	pod := podRecord("web-1", "app", "sidecar")

	e := &LogEnricher{
		Namespace: testNamespace,
		fetch: func(_ context.Context, podName, container string) ([]byte, error) {
			return fmt.Appendf(nil, "%s line 1\n%s line 2\n", container, container), nil
		},
	}
	e.Enrich(t.Context(), []*report.ResourceRecord{pod})

	snips := pod.Enrichment.LogSnips
	require.Len(t, snips, 2)
	assert.Equal(t, []string{"app line 1", "app line 2"}, snips["app"])
	assert.Equal(t, []string{"sidecar line 1", "sidecar line 2"}, snips["sidecar"])
}

func TestLogEnricher_FailedContainerIsolated(t *testing.T) {
	pod := podRecord("web-1", "app", "broken")

	e := &LogEnricher{
		Namespace: testNamespace,
		fetch: func(_ context.Context, _, container string) ([]byte, error) {
			if container == "broken" {
				return nil, errors.New("container is waiting to start")
			}
			return []byte("ok\n"), nil
		},
	}
	e.Enrich(t.Context(), []*report.ResourceRecord{pod})

	snips := pod.Enrichment.LogSnips
	require.Len(t, snips, 2, "failed container keeps its entry")
	assert.Equal(t, []string{"ok"}, snips["app"])
	assert.Empty(t, snips["broken"])
}

func TestLogEnricher_InitContainersIncluded(t *testing.T) {
	pod := podRecord("web-1", "app")
	spec := pod.Definition["spec"].(map[string]any)
	spec["initContainers"] = []any{map[string]any{"name": "setup"}}

	var order []string
	e := &LogEnricher{
		Namespace: testNamespace,
		fetch: func(_ context.Context, _, container string) ([]byte, error) {
			order = append(order, container)
			return []byte{}, nil
		},
	}
	e.Enrich(t.Context(), []*report.ResourceRecord{pod})

	assert.Equal(t, []string{"setup", "app"}, order, "init containers come first")
}

func TestLogEnricher_PodWithoutContainersUntouched(t *testing.T) {
	pod := &report.ResourceRecord{
		Identity:   report.Identity{Kind: "Pod", Namespace: testNamespace, Name: "bare"},
		Definition: map[string]any{},
	}

	e := &LogEnricher{
		Namespace: testNamespace,
		fetch: func(context.Context, string, string) ([]byte, error) {
			t.Fatal("no containers means no fetches")
			return nil, nil
		},
	}
	e.Enrich(t.Context(), []*report.ResourceRecord{pod})

	assert.Nil(t, pod.Enrichment.LogSnips)
}

func TestLogEnricher_FakeClientTransport(t *testing.T) {
	pod := podRecord("web-1", "app")

	e := &LogEnricher{Core: fakeclient.NewClientset(), Namespace: testNamespace}
	e.Enrich(t.Context(), []*report.ResourceRecord{pod})

	snips := pod.Enrichment.LogSnips
	require.Len(t, snips, 1)
	assert.Equal(t, []string{"fake logs"}, snips["app"])
}
