// Package registry holds the explicit configuration of resource kinds
// tracked by a collection pass. The registry is passed into the fetcher
// and normalizer at construction time so tests can run against synthetic
// kind lists instead of an implicit global.
package registry

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// KindSpec declares one tracked resource kind: how to query it and how to
// treat it in the report.
type KindSpec struct {
	// Kind is the Kubernetes kind name, e.g. "Pod".
	Kind string

	// Group and Version identify the API group; Group is empty for core.
	Group   string
	Version string

	// Resource is the plural resource name used in API paths, e.g. "pods".
	Resource string

	// Namespaced is false for cluster-scoped kinds such as Node.
	Namespaced bool

	// AppOwned marks kinds provided by the application's own CRDs rather
	// than generic Kubernetes kinds.
	AppOwned bool
}

// GroupVersionResource returns the GVR used for dynamic list calls.
func (s KindSpec) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: s.Group, Version: s.Version, Resource: s.Resource}
}

// GroupVersionKind returns the GVK of the spec.
func (s KindSpec) GroupVersionKind() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: s.Group, Version: s.Version, Kind: s.Kind}
}

// Registry is an ordered collection of kind specs. Order is preserved as
// the suggested display order of the final report.
type Registry struct {
	specs  []KindSpec
	byKind map[string]KindSpec
}

// New builds a registry from the given specs. Duplicate kind names are
// rejected since identity is keyed by kind within a pass.
func New(specs ...KindSpec) (*Registry, error) {
	r := &Registry{byKind: make(map[string]KindSpec, len(specs))}
	for _, spec := range specs {
		if err := r.Add(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a spec, preserving insertion order.
func (r *Registry) Add(spec KindSpec) error {
	if spec.Kind == "" || spec.Resource == "" || spec.Version == "" {
		return fmt.Errorf("incomplete kind spec: %+v", spec)
	}
	if _, exists := r.byKind[spec.Kind]; exists {
		return fmt.Errorf("duplicate kind %q in registry", spec.Kind)
	}
	r.specs = append(r.specs, spec)
	r.byKind[spec.Kind] = spec
	return nil
}

// Specs returns the registered specs in insertion order.
func (r *Registry) Specs() []KindSpec {
	out := make([]KindSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Kinds returns the registered kind names in insertion order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec.Kind)
	}
	return out
}

// Lookup finds a spec by kind name.
func (r *Registry) Lookup(kind string) (KindSpec, bool) {
	spec, ok := r.byKind[kind]
	return spec, ok
}

// Filter returns a registry restricted to the named kinds, preserving
// registration order regardless of request order. Unknown names fail with
// a nearest-match suggestion when a registered kind is close enough.
func (r *Registry) Filter(kinds []string) (*Registry, error) {
	requested := make(map[string]bool, len(kinds))
	for _, kind := range kinds {
		if _, ok := r.byKind[kind]; !ok {
			if suggestion := r.Suggest(kind); suggestion != "" {
				return nil, fmt.Errorf("unknown kind %q (did you mean %q?)", kind, suggestion)
			}
			return nil, fmt.Errorf("unknown kind %q", kind)
		}
		requested[kind] = true
	}

	kept := make([]KindSpec, 0, len(requested))
	for _, spec := range r.specs {
		if requested[spec.Kind] {
			kept = append(kept, spec)
		}
	}
	return New(kept...)
}

// Suggest returns the registered kind name closest to the given one, for
// "did you mean" messages on unknown kinds. Returns the empty string when
// nothing is within an edit distance of 3.
func (r *Registry) Suggest(kind string) string {
	const maxDistance = 3

	best := ""
	bestDistance := maxDistance + 1
	for _, spec := range r.specs {
		if d := levenshtein.ComputeDistance(kind, spec.Kind); d < bestDistance {
			best = spec.Kind
			bestDistance = d
		}
	}
	return best
}

// Default returns the registry of generic Kubernetes kinds tracked for a
// namespaced application deployment, in display order. Pods come first:
// their owner references drive controller resolution. Node is the only
// cluster-scoped kind and is fetched without a namespace filter.
func Default() *Registry {
	r, err := New(
		KindSpec{Kind: "Pod", Version: "v1", Resource: "pods", Namespaced: true},
		KindSpec{Kind: "Node", Version: "v1", Resource: "nodes"},
		KindSpec{Kind: "Service", Version: "v1", Resource: "services", Namespaced: true},
		KindSpec{Kind: "ConfigMap", Version: "v1", Resource: "configmaps", Namespaced: true},
		KindSpec{Kind: "Secret", Version: "v1", Resource: "secrets", Namespaced: true},
		KindSpec{Kind: "Deployment", Group: "apps", Version: "v1", Resource: "deployments", Namespaced: true},
		KindSpec{Kind: "ReplicaSet", Group: "apps", Version: "v1", Resource: "replicasets", Namespaced: true},
		KindSpec{Kind: "StatefulSet", Group: "apps", Version: "v1", Resource: "statefulsets", Namespaced: true},
		KindSpec{Kind: "DaemonSet", Group: "apps", Version: "v1", Resource: "daemonsets", Namespaced: true},
		KindSpec{Kind: "Job", Group: "batch", Version: "v1", Resource: "jobs", Namespaced: true},
		KindSpec{Kind: "CronJob", Group: "batch", Version: "v1", Resource: "cronjobs", Namespaced: true},
		KindSpec{Kind: "Ingress", Group: "networking.k8s.io", Version: "v1", Resource: "ingresses", Namespaced: true},
	)
	if err != nil {
		// the static list above is known good
		panic(err)
	}
	return r
}
