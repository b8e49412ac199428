package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	fakediscovery "k8s.io/client-go/discovery/fake"
	fakeclient "k8s.io/client-go/kubernetes/fake"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	kinds := r.Kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, "Pod", kinds[0], "pods drive controller resolution and must come first")

	pod, ok := r.Lookup("Pod")
	require.True(t, ok)
	assert.True(t, pod.Namespaced)
	assert.Equal(t, "pods", pod.Resource)

	node, ok := r.Lookup("Node")
	require.True(t, ok)
	assert.False(t, node.Namespaced, "Node is cluster-scoped")

	deploy, ok := r.Lookup("Deployment")
	require.True(t, ok)
	assert.Equal(t, "apps", deploy.GroupVersionResource().Group)
}

func TestRegistry_AddRejectsDuplicates(t *testing.T) {
	r, err := New(KindSpec{Kind: "Pod", Version: "v1", Resource: "pods", Namespaced: true})
	require.NoError(t, err)

	err = r.Add(KindSpec{Kind: "Pod", Version: "v1", Resource: "pods", Namespaced: true})
	assert.Error(t, err)
}

func TestRegistry_AddRejectsIncompleteSpec(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	assert.Error(t, r.Add(KindSpec{Kind: "Pod"}))
	assert.Error(t, r.Add(KindSpec{Resource: "pods", Version: "v1"}))
}

func TestRegistry_Filter(t *testing.T) {
	sub, err := Default().Filter([]string{"Node", "Pod"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Pod", "Node"}, sub.Kinds(), "registration order wins over request order")

	_, ok := sub.Lookup("Deployment")
	assert.False(t, ok)
}

func TestRegistry_FilterUnknownKindSuggests(t *testing.T) {
	_, err := Default().Filter([]string{"Deploymnet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "Deployment"`)
}

func TestRegistry_FilterUnknownKindWithoutNeighbor(t *testing.T) {
	_, err := Default().Filter([]string{"VirtualService"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestRegistry_Suggest(t *testing.T) {
	r := Default()

	assert.Equal(t, "Pod", r.Suggest("Pods"))
	assert.Equal(t, "Deployment", r.Suggest("Deploymnet"))
	assert.Equal(t, "", r.Suggest("VirtualService"), "nothing within edit distance")
}

// preferredDiscovery works around FakeDiscovery.ServerPreferredResources
// being a stub that always returns nil.
type preferredDiscovery struct {
	*fakediscovery.FakeDiscovery
}

func (d *preferredDiscovery) ServerPreferredResources() ([]*metav1.APIResourceList, error) {
	return d.Resources, nil
}

func TestRegistry_DiscoverOwned(t *testing.T) {
	client := fakeclient.NewClientset()
	disco := client.Discovery().(*fakediscovery.FakeDiscovery)
	disco.Resources = []*metav1.APIResourceList{
		{
			GroupVersion: "widgets.example.com/v1alpha1",
			APIResources: []metav1.APIResource{
				{Name: "widgetpools", Kind: "WidgetPool", Namespaced: true, Verbs: []string{"list", "get"}},
				{Name: "widgetpools/status", Kind: "WidgetPool", Namespaced: true, Verbs: []string{"get"}},
				{Name: "widgetlocks", Kind: "WidgetLock", Namespaced: true, Verbs: []string{"get"}},
			},
		},
		{
			GroupVersion: "apps/v1",
			APIResources: []metav1.APIResource{
				{Name: "deployments", Kind: "Deployment", Namespaced: true, Verbs: []string{"list"}},
			},
		},
	}

	r, err := New()
	require.NoError(t, err)
	require.NoError(t, r.DiscoverOwned(&preferredDiscovery{disco}, []string{"example.com"}))

	spec, ok := r.Lookup("WidgetPool")
	require.True(t, ok)
	assert.True(t, spec.AppOwned)
	assert.True(t, spec.Namespaced)
	assert.Equal(t, "widgetpools", spec.Resource)
	assert.Equal(t, "widgets.example.com", spec.Group)

	_, ok = r.Lookup("WidgetLock")
	assert.False(t, ok, "kinds without the list verb are skipped")

	_, ok = r.Lookup("Deployment")
	assert.False(t, ok, "groups outside the owned suffixes are skipped")
}

func TestRegistry_DiscoverOwnedKeepsExisting(t *testing.T) {
	client := fakeclient.NewClientset()
	disco := client.Discovery().(*fakediscovery.FakeDiscovery)
	disco.Resources = []*metav1.APIResourceList{
		{
			GroupVersion: "widgets.example.com/v2",
			APIResources: []metav1.APIResource{
				{Name: "widgets", Kind: "Widget", Namespaced: true, Verbs: []string{"list"}},
			},
		},
	}

	r, err := New(KindSpec{Kind: "Widget", Group: "widgets.example.com", Version: "v1", Resource: "widgets", Namespaced: true})
	require.NoError(t, err)
	require.NoError(t, r.DiscoverOwned(&preferredDiscovery{disco}, []string{"example.com"}))

	spec, _ := r.Lookup("Widget")
	assert.Equal(t, "v1", spec.Version, "registered kinds are not overwritten by discovery")
	assert.Len(t, r.Specs(), 1)
}
