package gather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	fakeclient "k8s.io/client-go/kubernetes/fake"
	clienttesting "k8s.io/client-go/testing"

	"github.com/depscope/depscope/pkg/kube"
	"github.com/depscope/depscope/pkg/registry"
	"github.com/depscope/depscope/pkg/report"
	"github.com/depscope/depscope/pkg/resolver"
)

const testNamespace = "apps"

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		registry.KindSpec{Kind: "Pod", Version: "v1", Resource: "pods", Namespaced: true},
		registry.KindSpec{Kind: "Node", Version: "v1", Resource: "nodes"},
		registry.KindSpec{Kind: "Service", Version: "v1", Resource: "services", Namespaced: true},
		registry.KindSpec{Kind: "Deployment", Group: "apps", Version: "v1", Resource: "deployments", Namespaced: true},
		registry.KindSpec{Kind: "ReplicaSet", Group: "apps", Version: "v1", Resource: "replicasets", Namespaced: true},
	)
	require.NoError(t, err)
	return reg
}

func listKinds() map[schema.GroupVersionResource]string {
	return map[schema.GroupVersionResource]string{
		{Version: "v1", Resource: "pods"}:                                "PodList",
		{Version: "v1", Resource: "nodes"}:                               "NodeList",
		{Version: "v1", Resource: "services"}:                            "ServiceList",
		{Group: "apps", Version: "v1", Resource: "deployments"}:          "DeploymentList",
		{Group: "apps", Version: "v1", Resource: "replicasets"}:          "ReplicaSetList",
		{Group: "metrics.k8s.io", Version: "v1beta1", Resource: "pods"}:  "PodMetricsList",
		{Group: "metrics.k8s.io", Version: "v1beta1", Resource: "nodes"}: "NodeMetricsList",
	}
}

func seedObjects() []runtime.Object {
	return []runtime.Object{
		&unstructured.Unstructured{Object: map[string]any{
			"apiVersion": "v1",
			"kind":       "Pod",
			"metadata": map[string]any{
				"name":      "web-1",
				"namespace": testNamespace,
				"labels":    map[string]any{"app": "web"},
				"ownerReferences": []any{map[string]any{
					"apiVersion": "apps/v1",
					"kind":       "ReplicaSet",
					"name":       "web-rs",
					"controller": true,
				}},
			},
			"spec": map[string]any{
				"nodeName":   "node-a",
				"containers": []any{map[string]any{"name": "app", "image": "nginx"}},
			},
		}},
		&unstructured.Unstructured{Object: map[string]any{
			"apiVersion": "apps/v1",
			"kind":       "ReplicaSet",
			"metadata": map[string]any{
				"name":      "web-rs",
				"namespace": testNamespace,
				"labels":    map[string]any{"app": "web"},
				"ownerReferences": []any{map[string]any{
					"apiVersion": "apps/v1",
					"kind":       "Deployment",
					"name":       "web",
					"controller": true,
				}},
			},
		}},
		&unstructured.Unstructured{Object: map[string]any{
			"apiVersion": "apps/v1",
			"kind":       "Deployment",
			"metadata": map[string]any{
				"name":      "web",
				"namespace": testNamespace,
				"labels":    map[string]any{"app": "web"},
			},
		}},
		&unstructured.Unstructured{Object: map[string]any{
			"apiVersion": "v1",
			"kind":       "Service",
			"metadata": map[string]any{
				"name":      "web",
				"namespace": testNamespace,
				"labels":    map[string]any{"app": "web"},
			},
			"spec": map[string]any{"selector": map[string]any{"app": "web"}},
		}},
		&unstructured.Unstructured{Object: map[string]any{
			"apiVersion": "v1",
			"kind":       "Node",
			"metadata":   map[string]any{"name": "node-a"},
			"status": map[string]any{
				"capacity": map[string]any{"cpu": "4", "memory": "16Gi"},
			},
		}},
	}
}

func testClients(objects ...runtime.Object) (*kube.Clients, *dynamicfake.FakeDynamicClient) {
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds(), objects...)
	return &kube.Clients{Core: fakeclient.NewClientset(), Dynamic: dyn}, dyn
}

func TestRun_FullPass(t *testing.T) {
	clients, _ := testClients(seedObjects()...)

	g := &Gatherer{
		Clients:   clients,
		Registry:  testRegistry(t),
		Namespace: testNamespace,
		Options:   report.Options{IncludeMetrics: true, IncludeLogSnips: true},
	}
	doc, err := g.Run(t.Context())
	require.NoError(t, err)

	assert.Empty(t, doc.UnavailableKinds())
	assert.Empty(t, doc.Warnings())

	pods := doc.RecordsOfKind("Pod")
	require.Len(t, pods, 1)
	pod := pods[0]

	chain := resolver.OwnerChain(pod)
	require.Len(t, chain, 2)
	assert.Equal(t, "web-rs", chain[0].Name)
	assert.Equal(t, "web", chain[1].Name)

	runsOn := pod.RelationshipsOfType(report.RelationRunsOn)
	require.Len(t, runsOn, 1)
	assert.True(t, runsOn[0].Resolved)

	exposed := pod.RelationshipsOfType(report.RelationExposedBy)
	require.Len(t, exposed, 1)
	assert.Equal(t, "web", exposed[0].Target.Name)

	assert.Nil(t, pod.Enrichment.Metrics, "no metrics API in the fake, enrichment skips quietly")
	require.NotNil(t, pod.Enrichment.LogSnips)
	assert.Equal(t, []string{"fake logs"}, pod.Enrichment.LogSnips["app"])

	overview := doc.Overview()
	assert.Equal(t, 1, overview.NodeCount)
	assert.Equal(t, "4", overview.CPUCapacity)
	require.Len(t, overview.Images, 1)
	assert.Equal(t, "nginx:latest", overview.Images[0].Ref)

	groups := doc.ComponentGroups()
	require.GreaterOrEqual(t, len(groups), 2)
	assert.Equal(t, "web", groups[0].Name)
	assert.Len(t, groups[0].Members, 4)
	assert.Equal(t, report.UngroupedComponent, groups[len(groups)-1].Name)
	assert.Len(t, groups[len(groups)-1].Members, 1, "the node carries no app label")
}

func TestRun_ForbiddenKindDegrades(t *testing.T) {
	clients, dyn := testClients(seedObjects()...)
	dyn.PrependReactor("list", "nodes", func(clienttesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewForbidden(schema.GroupResource{Resource: "nodes"}, "", nil)
	})

	g := &Gatherer{
		Clients:   clients,
		Registry:  testRegistry(t),
		Namespace: testNamespace,
	}
	doc, err := g.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []string{"Node"}, doc.UnavailableKinds())
	assert.Empty(t, doc.RecordsOfKind("Node"))

	pods := doc.RecordsOfKind("Pod")
	require.Len(t, pods, 1)
	runsOn := pods[0].RelationshipsOfType(report.RelationRunsOn)
	require.Len(t, runsOn, 1)
	assert.False(t, runsOn[0].Resolved, "node reference survives as unresolved text")
}

func TestRun_EnrichmentTogglesAreStructural(t *testing.T) {
	run := func(opts report.Options) *report.Document {
		clients, _ := testClients(seedObjects()...)
		g := &Gatherer{
			Clients:   clients,
			Registry:  testRegistry(t),
			Namespace: testNamespace,
			Options:   opts,
		}
		doc, err := g.Run(t.Context())
		require.NoError(t, err)
		return doc
	}

	bare := run(report.Options{})
	enriched := run(report.Options{IncludeLogSnips: true})

	assert.Equal(t, bare.Kinds(), enriched.Kinds())
	for _, kind := range bare.Kinds() {
		assert.Len(t, enriched.RecordsOfKind(kind), len(bare.RecordsOfKind(kind)))
	}

	assert.Nil(t, bare.RecordsOfKind("Pod")[0].Enrichment.LogSnips)
	assert.NotNil(t, enriched.RecordsOfKind("Pod")[0].Enrichment.LogSnips)
}

func TestRun_RequiresClientsAndNamespace(t *testing.T) {
	_, err := (&Gatherer{Namespace: testNamespace}).Run(t.Context())
	require.Error(t, err)

	clients, _ := testClients()
	_, err = (&Gatherer{Clients: clients}).Run(t.Context())
	require.Error(t, err)
}
