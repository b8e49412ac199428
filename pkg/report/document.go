package report

import "time"

// Metadata describes one report generation run.
type Metadata struct {
	Gathered  time.Time `json:"gathered" yaml:"gathered"`
	RunID     string    `json:"runID" yaml:"runID"`
	Namespace string    `json:"namespace" yaml:"namespace"`
	Options   Options   `json:"options" yaml:"options"`
}

// Document is the root, immutable output of a collection pass. It is built
// once by the assembler and then handed unchanged to rendering and export
// collaborators, which access it only through the read-only methods below.
type Document struct {
	meta        Metadata
	overview    ClusterOverview
	kinds       []string
	records     map[string][]*ResourceRecord
	unavailable map[string]bool
	index       map[Identity]*ResourceRecord
	groups      []ComponentGroup
	warnings    []Warning
}

// NewDocument constructs a Document from assembled parts. It is intended
// for the assembler only; the kind order given is preserved as the
// suggested display order.
func NewDocument(meta Metadata, overview ClusterOverview, kinds []string,
	records map[string][]*ResourceRecord, unavailable map[string]bool,
	groups []ComponentGroup, warnings []Warning) *Document {

	index := make(map[Identity]*ResourceRecord)
	for _, recs := range records {
		for _, rec := range recs {
			index[rec.Identity] = rec
		}
	}

	return &Document{
		meta:        meta,
		overview:    overview,
		kinds:       kinds,
		records:     records,
		unavailable: unavailable,
		index:       index,
		groups:      groups,
		warnings:    warnings,
	}
}

// Metadata returns the generation metadata for this run.
func (d *Document) Metadata() Metadata { return d.meta }

// Overview returns the cluster-wide facts computed for this run.
func (d *Document) Overview() ClusterOverview { return d.overview }

// Kinds returns every kind configured for the pass, in display order.
// Every returned kind has a defined (possibly empty) record list.
func (d *Document) Kinds() []string {
	out := make([]string, len(d.kinds))
	copy(out, d.kinds)
	return out
}

// RecordsOfKind returns the records of the given kind in fetch order.
// The result is defined (possibly empty) for every configured kind.
func (d *Document) RecordsOfKind(kind string) []*ResourceRecord {
	return d.records[kind]
}

// Unavailable reports whether the given kind could not be retrieved, as
// opposed to retrieved and found empty.
func (d *Document) Unavailable(kind string) bool {
	return d.unavailable[kind]
}

// UnavailableKinds returns the kinds that could not be retrieved, in
// display order, so rendering can warn that the report may be incomplete.
func (d *Document) UnavailableKinds() []string {
	var out []string
	for _, kind := range d.kinds {
		if d.unavailable[kind] {
			out = append(out, kind)
		}
	}
	return out
}

// ComponentGroups returns the component index in first-seen order, with
// the ungrouped bucket last.
func (d *Document) ComponentGroups() []ComponentGroup {
	out := make([]ComponentGroup, len(d.groups))
	copy(out, d.groups)
	return out
}

// Resolve looks up a record by identity. The second return is false for
// dangling references, which callers render as plain text.
func (d *Document) Resolve(id Identity) (*ResourceRecord, bool) {
	rec, ok := d.index[id]
	return rec, ok
}

// Warnings returns the non-fatal conditions recorded during the pass.
func (d *Document) Warnings() []Warning {
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}
