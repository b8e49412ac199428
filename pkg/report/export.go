package report

const (
	// APIDomain is the API domain for exported report documents.
	APIDomain = "depscope.dev"

	// APIVersion is the current export schema version.
	APIVersion = "v1alpha1"

	// FullAPIVersion is the complete apiVersion string.
	FullAPIVersion = APIDomain + "/" + APIVersion

	// ExportKind is the kind value of an exported report document.
	ExportKind = "DeploymentReport"
)

// Export is the serializable projection of a Document. It exists so the
// Document itself can stay immutable while serialization collaborators get
// a plain struct tree with stable field names.
type Export struct {
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Kind       string `json:"kind" yaml:"kind"`

	Metadata Metadata        `json:"metadata" yaml:"metadata"`
	Overview ClusterOverview `json:"overview" yaml:"overview"`

	Resources   []KindSection    `json:"resources" yaml:"resources"`
	Components  []ComponentGroup `json:"components" yaml:"components"`
	Warnings    []Warning        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Unavailable []string         `json:"unavailableKinds,omitempty" yaml:"unavailableKinds,omitempty"`
}

// KindSection is the exported view of one resource kind. Available false
// marks a section that could not be retrieved, which rendering must show
// distinctly from a section with zero records.
type KindSection struct {
	Kind      string         `json:"kind" yaml:"kind"`
	Available bool           `json:"available" yaml:"available"`
	Count     int            `json:"count" yaml:"count"`
	Records   []RecordExport `json:"records,omitempty" yaml:"records,omitempty"`
}

// RecordExport is the exported view of one resource record. Definition is
// populated only when the pass ran with IncludeDefinitions.
type RecordExport struct {
	Name          string            `json:"name" yaml:"name"`
	Namespace     string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Labels        map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations   map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Relationships []Relationship    `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Enrichment    Enrichment        `json:"enrichment,omitzero" yaml:"enrichment,omitempty"`
	Definition    map[string]any    `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// Export projects the document into its serializable form, honoring the
// IncludeDefinitions option recorded at gather time.
func (d *Document) Export() *Export {
	out := &Export{
		APIVersion:  FullAPIVersion,
		Kind:        ExportKind,
		Metadata:    d.meta,
		Overview:    d.overview,
		Components:  d.ComponentGroups(),
		Warnings:    d.Warnings(),
		Unavailable: d.UnavailableKinds(),
	}

	for _, kind := range d.kinds {
		recs := d.records[kind]
		section := KindSection{
			Kind:      kind,
			Available: !d.unavailable[kind],
			Count:     len(recs),
		}
		for _, rec := range recs {
			exported := RecordExport{
				Name:          rec.Identity.Name,
				Namespace:     rec.Identity.Namespace,
				Labels:        rec.Labels,
				Annotations:   rec.Annotations,
				Relationships: rec.Relationships,
				Enrichment:    rec.Enrichment,
			}
			if d.meta.Options.IncludeDefinitions {
				exported.Definition = rec.Definition
			}
			section.Records = append(section.Records, exported)
		}
		out.Resources = append(out.Resources, section)
	}

	return out
}
