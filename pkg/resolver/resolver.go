// Package resolver computes cross-references between normalized resource
// records: scheduling placement (pod to node and its inverse), controller
// owner chains, service exposure, envFrom configuration references, and
// component grouping.
//
// Resolution never fails a pass. A link whose target is not in the
// collected set is recorded as unresolved; the target identity is kept so
// it can render as plain text. Ambiguous targets are left unresolved
// rather than guessed: only an exact (kind, namespace, name) match
// resolves.
package resolver

import (
	"log/slog"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/depscope/depscope/pkg/report"
)

// maxOwnerDepth bounds the owner-chain walk against malformed reference
// cycles the seen-set does not catch.
const maxOwnerDepth = 8

// Resolver links the records of one collection pass in place. Construct
// with New, then call Run once; enrichment and assembly happen afterward
// and must not alter the links.
type Resolver struct {
	kinds   []string
	records map[string][]*report.ResourceRecord
	index   map[report.Identity]*report.ResourceRecord
}

// New builds a resolver over the kind-to-records mapping. The kind list
// fixes iteration order so resolution is deterministic for identical
// inputs.
func New(kinds []string, records map[string][]*report.ResourceRecord) *Resolver {
	index := make(map[report.Identity]*report.ResourceRecord)
	for _, kind := range kinds {
		for _, rec := range records[kind] {
			index[rec.Identity] = rec
		}
	}
	return &Resolver{kinds: kinds, records: records, index: index}
}

// Run computes and attaches every link type.
func (r *Resolver) Run() {
	r.linkPodsToNodes()
	r.linkOwners()
	r.extendPodOwnerChains()
	r.linkServicesToPods()
	r.linkPodEnvSources()
}

// Resolve looks a record up by exact identity.
func (r *Resolver) Resolve(id report.Identity) (*report.ResourceRecord, bool) {
	rec, ok := r.index[id]
	return rec, ok
}

// linkPodsToNodes matches each pod's declared node assignment against the
// Node records. An unscheduled pod gets no link; a pod on a node outside
// the fetched set keeps the node name as an unresolved link.
func (r *Resolver) linkPodsToNodes() {
	for _, pod := range r.records["Pod"] {
		nodeName, _, _ := unstructured.NestedString(pod.Definition, "spec", "nodeName")
		if nodeName == "" {
			continue
		}

		target := report.Identity{Kind: "Node", Name: nodeName}
		node, ok := r.index[target]

		pod.AddRelationship(report.Relationship{
			Type:     report.RelationRunsOn,
			Target:   target,
			Resolved: ok,
		})
		if ok {
			node.AddRelationship(report.Relationship{
				Type:     report.RelationRuns,
				Target:   pod.Identity,
				Resolved: true,
			})
		} else {
			slog.Debug("pod scheduled onto node outside collection scope",
				slog.String("pod", pod.Identity.String()),
				slog.String("node", nodeName))
		}
	}
}

// linkOwners attaches each record's immediate owner references: ownedBy on
// the child and the owns inverse on the owner when it was fetched. Owner
// kinds outside the registry stay as unresolved links.
func (r *Resolver) linkOwners() {
	for _, kind := range r.kinds {
		for _, rec := range r.records[kind] {
			for _, ref := range ownerRefs(rec) {
				owner, ok := r.index[ref]
				rec.AddRelationship(report.Relationship{
					Type:     report.RelationOwnedBy,
					Target:   ref,
					Resolved: ok,
				})
				if ok {
					owner.AddRelationship(report.Relationship{
						Type:     report.RelationOwns,
						Target:   rec.Identity,
						Resolved: true,
					})
				}
			}
		}
	}
}

// extendPodOwnerChains walks each pod's owner chain upward past the
// immediate controller (pod to replicaset to deployment, pod to job to
// cronjob) and records the full chain on the pod, so a UI can group a pod
// under its top-level controller. The walk stops at the first owner that
// was not fetched or is not tracked.
func (r *Resolver) extendPodOwnerChains() {
	for _, pod := range r.records["Pod"] {
		seen := map[report.Identity]bool{pod.Identity: true}

		current := pod
		for depth := 0; depth < maxOwnerDepth; depth++ {
			next, ok := r.controllerOf(current)
			if !ok || seen[next.Identity] {
				break
			}
			seen[next.Identity] = true

			pod.AddRelationship(report.Relationship{
				Type:     report.RelationOwnedBy,
				Target:   next.Identity,
				Resolved: true,
			})
			current = next
		}
	}
}

// controllerOf returns the fetched record for a resource's controlling
// owner, preferring the reference marked controller when there are many.
func (r *Resolver) controllerOf(rec *report.ResourceRecord) (*report.ResourceRecord, bool) {
	refs := ownerRefs(rec)
	if len(refs) == 0 {
		return nil, false
	}

	for _, ref := range refs {
		if owner, ok := r.index[ref]; ok {
			return owner, true
		}
	}
	return nil, false
}

// linkServicesToPods matches each service's selector against pod labels in
// the same namespace and records the exposure on the pod. Services without
// selectors (headless external services) are skipped.
func (r *Resolver) linkServicesToPods() {
	for _, svc := range r.records["Service"] {
		selector, _, _ := unstructured.NestedStringMap(svc.Definition, "spec", "selector")
		if len(selector) == 0 {
			continue
		}

		for _, pod := range r.records["Pod"] {
			if pod.Identity.Namespace != svc.Identity.Namespace {
				continue
			}
			if !labelsMatch(pod.Labels, selector) {
				continue
			}
			pod.AddRelationship(report.Relationship{
				Type:     report.RelationExposedBy,
				Target:   svc.Identity,
				Resolved: true,
			})
		}
	}
}

// linkPodEnvSources attaches the ConfigMaps and Secrets a pod's containers
// pull environment from through envFrom. References to objects outside the
// fetched set stay unresolved.
func (r *Resolver) linkPodEnvSources() {
	for _, pod := range r.records["Pod"] {
		for _, ref := range envSourceRefs(pod) {
			target, ok := r.index[ref]
			pod.AddRelationship(report.Relationship{
				Type:     report.RelationReferences,
				Target:   ref,
				Resolved: ok,
			})
			if ok {
				target.AddRelationship(report.Relationship{
					Type:     report.RelationReferencedBy,
					Target:   pod.Identity,
					Resolved: true,
				})
			}
		}
	}
}

// envSourceRefs extracts configMapRef and secretRef names from every
// container's envFrom entries, in declaration order.
func envSourceRefs(pod *report.ResourceRecord) []report.Identity {
	var refs []report.Identity
	for _, field := range []string{"initContainers", "containers"} {
		containers, _, _ := unstructured.NestedSlice(pod.Definition, "spec", field)
		for _, entry := range containers {
			container, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			sources, _ := container["envFrom"].([]any)
			for _, src := range sources {
				source, ok := src.(map[string]any)
				if !ok {
					continue
				}
				if name := envSourceName(source, "configMapRef"); name != "" {
					refs = append(refs, report.Identity{Kind: "ConfigMap", Namespace: pod.Identity.Namespace, Name: name})
				}
				if name := envSourceName(source, "secretRef"); name != "" {
					refs = append(refs, report.Identity{Kind: "Secret", Namespace: pod.Identity.Namespace, Name: name})
				}
			}
		}
	}
	return refs
}

func envSourceName(source map[string]any, key string) string {
	ref, ok := source[key].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := ref["name"].(string)
	return name
}

// labelsMatch reports whether every selector entry is present with the
// same value.
func labelsMatch(labels, selector map[string]string) bool {
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}

// ownerRefs extracts a record's metadata.ownerReferences as identities in
// the record's own namespace, with the controlling reference first.
func ownerRefs(rec *report.ResourceRecord) []report.Identity {
	raw, found, err := unstructured.NestedSlice(rec.Definition, "metadata", "ownerReferences")
	if !found || err != nil {
		return nil
	}

	var controller []report.Identity
	var others []report.Identity
	for _, entry := range raw {
		ref, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := ref["kind"].(string)
		name, _ := ref["name"].(string)
		if kind == "" || name == "" {
			continue
		}

		id := report.Identity{
			Kind:      kind,
			Namespace: rec.Identity.Namespace,
			Name:      name,
		}
		if isController, _ := ref["controller"].(bool); isController {
			controller = append(controller, id)
		} else {
			others = append(others, id)
		}
	}
	return append(controller, others...)
}

// OwnerChain returns a record's resolved owner chain in walk order,
// nearest controller first. The chain stops at the first unresolved link,
// so a pod whose replicaset was not fetched yields an empty chain while
// the dangling reference stays visible in its relationships.
func OwnerChain(rec *report.ResourceRecord) []report.Identity {
	var chain []report.Identity
	for _, rel := range rec.RelationshipsOfType(report.RelationOwnedBy) {
		if !rel.Resolved {
			break
		}
		chain = append(chain, rel.Target)
	}
	return chain
}
