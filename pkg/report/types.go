package report

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Identity uniquely names a resource within one collection pass.
// Namespace is empty for cluster-scoped kinds.
type Identity struct {
	Kind      string `json:"kind" yaml:"kind"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name" yaml:"name"`
}

// String returns the identity in kind/namespace/name form, omitting the
// namespace segment for cluster-scoped resources.
func (id Identity) String() string {
	if id.Namespace == "" {
		return fmt.Sprintf("%s/%s", id.Kind, id.Name)
	}
	return fmt.Sprintf("%s/%s/%s", id.Kind, id.Namespace, id.Name)
}

// RelationType classifies a link between two resource records.
type RelationType string

const (
	// RelationOwnedBy links a resource to a controller in its owner chain.
	RelationOwnedBy RelationType = "ownedBy"

	// RelationOwns is the inverse of RelationOwnedBy.
	RelationOwns RelationType = "owns"

	// RelationRunsOn links a Pod to the Node it is scheduled onto.
	RelationRunsOn RelationType = "runsOn"

	// RelationRuns is the inverse of RelationRunsOn.
	RelationRuns RelationType = "runs"

	// RelationExposedBy links a Pod to a Service whose selector matches it.
	RelationExposedBy RelationType = "exposedBy"

	// RelationReferences links a Pod to a ConfigMap or Secret its
	// containers draw environment from.
	RelationReferences RelationType = "references"

	// RelationReferencedBy is the inverse of RelationReferences.
	RelationReferencedBy RelationType = "referencedBy"
)

// Relationship is a typed link to another resource identity. Resolved is
// false when the target was not found in the collection pass; the target
// identity is still carried so it can render as plain text.
type Relationship struct {
	Type     RelationType `json:"type" yaml:"type"`
	Target   Identity     `json:"target" yaml:"target"`
	Resolved bool         `json:"resolved" yaml:"resolved"`
}

// MetricsSnapshot holds point-in-time usage attached by metrics enrichment.
// Quantities are kept in their canonical string form (for example "250m",
// "512Mi"). Containers is populated for Pods only.
type MetricsSnapshot struct {
	CPU        string                    `json:"cpu" yaml:"cpu"`
	Memory     string                    `json:"memory" yaml:"memory"`
	Containers map[string]ContainerUsage `json:"containers,omitempty" yaml:"containers,omitempty"`
}

// ContainerUsage holds per-container usage within a Pod metrics snapshot.
type ContainerUsage struct {
	CPU    string `json:"cpu" yaml:"cpu"`
	Memory string `json:"memory" yaml:"memory"`
}

// Enrichment carries optional, best-effort data attached after relationship
// resolution. A nil Metrics or LogSnips means the corresponding enrichment
// pass was disabled or unavailable for this record.
type Enrichment struct {
	Metrics *MetricsSnapshot `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// LogSnips maps container name to its most recent log lines. A container
	// whose log fetch failed keeps an empty (non-nil) slice so it is
	// distinguishable from a container that was never attempted.
	LogSnips map[string][]string `json:"logSnips,omitempty" yaml:"logSnips,omitempty"`
}

// ResourceRecord is the canonical unit of the model: one fetched resource,
// its extracted matching attributes, its full definition, and the links
// attached during resolution.
type ResourceRecord struct {
	Identity    Identity
	Labels      map[string]string
	Annotations map[string]string

	// Definition is the full original document, retained verbatim (minus
	// managedFields and the last-applied-configuration annotation) for
	// display and for attribute lookups not explicitly modeled.
	Definition map[string]any

	Relationships []Relationship
	Enrichment    Enrichment
}

// AddRelationship appends a link to the record. Links are append-only;
// duplicates (same type and target) are ignored.
func (r *ResourceRecord) AddRelationship(rel Relationship) {
	for _, existing := range r.Relationships {
		if existing.Type == rel.Type && existing.Target == rel.Target {
			return
		}
	}
	r.Relationships = append(r.Relationships, rel)
}

// RelationshipsOfType returns the record's links of the given type in
// insertion order.
func (r *ResourceRecord) RelationshipsOfType(t RelationType) []Relationship {
	var out []Relationship
	for _, rel := range r.Relationships {
		if rel.Type == t {
			out = append(out, rel)
		}
	}
	return out
}

// RawResourceSet is the unprocessed result of one fetch: the kind, the raw
// definitions, and whether the fetch succeeded. Available false means the
// kind could not be retrieved (permission, timeout, not found), which is
// distinct from an empty Items list. Discarded after normalization.
type RawResourceSet struct {
	Kind      string
	Items     []unstructured.Unstructured
	Available bool
}

// ComponentGroup is a named grouping of records sharing a common component
// value. Created during assembly; read-only afterward.
type ComponentGroup struct {
	Name    string     `json:"name" yaml:"name"`
	Members []Identity `json:"members" yaml:"members"`
}

// UngroupedComponent is the bucket name for records carrying no component
// label. It always appears in the report, even when empty membership would
// otherwise drop it.
const UngroupedComponent = "(ungrouped)"

// ImageUsage records one container image and the pod containers running it.
type ImageUsage struct {
	Ref       string   `json:"ref" yaml:"ref"`
	Locations []string `json:"locations" yaml:"locations"`
}

// ClusterOverview holds cluster-wide facts independent of any single
// resource kind, computed once from the full Node and Pod sets.
type ClusterOverview struct {
	ServerVersion  string       `json:"serverVersion,omitempty" yaml:"serverVersion,omitempty"`
	ServerPlatform string       `json:"serverPlatform,omitempty" yaml:"serverPlatform,omitempty"`
	NodeCount      int          `json:"nodeCount" yaml:"nodeCount"`
	CPUCapacity    string       `json:"cpuCapacity,omitempty" yaml:"cpuCapacity,omitempty"`
	MemoryCapacity string       `json:"memoryCapacity,omitempty" yaml:"memoryCapacity,omitempty"`
	Images         []ImageUsage `json:"images,omitempty" yaml:"images,omitempty"`
}

// Warning records a non-fatal data-quality condition observed during the
// pass, such as a definition missing its name.
type Warning struct {
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message string `json:"message" yaml:"message"`
}
