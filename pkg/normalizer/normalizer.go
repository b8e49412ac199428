// Package normalizer converts raw fetch results into canonical resource
// records. Malformed entries are skipped with a recorded warning; they
// never abort the pass.
package normalizer

import (
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/depscope/depscope/pkg/registry"
	"github.com/depscope/depscope/pkg/report"
)

// lastAppliedConfigAnnotation is dropped from retained definitions to keep
// the data file small; it duplicates the definition itself.
const lastAppliedConfigAnnotation = "kubectl.kubernetes.io/last-applied-configuration"

// Normalizer builds ResourceRecords from RawResourceSets.
type Normalizer struct {
	// Registry supplies kind order and scope flags. Required.
	Registry *registry.Registry
}

// Normalize converts each entry of each set into a ResourceRecord,
// aggregated into a mapping from kind to records in fetch order. A set
// missing from the input (or flagged unavailable) yields a defined, empty
// record list so every configured kind stays present downstream.
//
// Returned warnings cover entries rejected for identity extraction and
// duplicate identities within a kind.
func (n *Normalizer) Normalize(sets map[string]*report.RawResourceSet) (map[string][]*report.ResourceRecord, []report.Warning) {
	records := make(map[string][]*report.ResourceRecord, len(n.Registry.Specs()))
	var warnings []report.Warning

	for _, spec := range n.Registry.Specs() {
		// defined for every kind, even with nothing to normalize
		records[spec.Kind] = []*report.ResourceRecord{}

		set, ok := sets[spec.Kind]
		if !ok || !set.Available {
			continue
		}

		seen := make(map[report.Identity]bool, len(set.Items))
		for i := range set.Items {
			rec, err := n.normalizeEntry(spec, &set.Items[i])
			if err != nil {
				warnings = append(warnings, report.Warning{
					Kind:    spec.Kind,
					Message: err.Error(),
				})
				slog.Warn("skipping malformed resource entry",
					slog.String("kind", spec.Kind),
					slog.String("error", err.Error()))
				continue
			}
			if seen[rec.Identity] {
				warnings = append(warnings, report.Warning{
					Kind:    spec.Kind,
					Message: fmt.Sprintf("duplicate identity %s", rec.Identity),
				})
				continue
			}
			seen[rec.Identity] = true
			records[spec.Kind] = append(records[spec.Kind], rec)
		}

		slog.Debug("normalized resource kind",
			slog.String("kind", spec.Kind),
			slog.Int("records", len(records[spec.Kind])))
	}

	return records, warnings
}

func (n *Normalizer) normalizeEntry(spec registry.KindSpec, obj *unstructured.Unstructured) (*report.ResourceRecord, error) {
	name := obj.GetName()
	if name == "" {
		return nil, fmt.Errorf("definition missing metadata.name")
	}

	identity := report.Identity{Kind: spec.Kind, Name: name}
	if spec.Namespaced {
		identity.Namespace = obj.GetNamespace()
	}

	// absent maps normalize to empty; the distinction is not observable
	// downstream
	labels := obj.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	annotations := obj.GetAnnotations()
	if annotations == nil {
		annotations = map[string]string{}
	}
	delete(annotations, lastAppliedConfigAnnotation)

	return &report.ResourceRecord{
		Identity:    identity,
		Labels:      labels,
		Annotations: annotations,
		Definition:  slimDefinition(obj),
	}, nil
}

// slimDefinition deep-copies the original document and drops the bulky
// bookkeeping fields that have no reporting value.
func slimDefinition(obj *unstructured.Unstructured) map[string]any {
	def := obj.DeepCopy().Object

	unstructured.RemoveNestedField(def, "metadata", "managedFields")
	unstructured.RemoveNestedField(def, "metadata", "annotations", lastAppliedConfigAnnotation)

	return def
}
