// Package assembler merges the outputs of a collection pass into one
// immutable report document. Assembly performs no network or disk I/O; it
// is a pure, deterministic combination step given its inputs.
package assembler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/version"

	"github.com/depscope/depscope/pkg/registry"
	"github.com/depscope/depscope/pkg/report"
)

// Inputs carries everything the assembler combines.
type Inputs struct {
	// Namespace the pass targeted. Required.
	Namespace string

	// Registry declares the configured kinds and their display order.
	// Required.
	Registry *registry.Registry

	// Sets are the raw fetch results, used only for availability flags.
	Sets map[string]*report.RawResourceSet

	// Records is the normalized, resolved, enriched kind-to-records
	// mapping.
	Records map[string][]*report.ResourceRecord

	// Groups is the component index, ungrouped bucket last.
	Groups []report.ComponentGroup

	// ServerVersion is best-effort server version info; nil when the
	// version endpoint was unavailable.
	ServerVersion *version.Info

	// Warnings recorded by earlier stages.
	Warnings []report.Warning

	// Options the pass ran with, recorded in generation metadata.
	Options report.Options

	// Now overrides the generation timestamp; zero means time.Now().
	Now time.Time

	// RunID overrides the generated run identifier; empty means a fresh
	// UUID.
	RunID string
}

// Assemble validates the inputs and combines them into a Document. Every
// configured kind appears in the output, possibly empty or marked
// unavailable, so rendering never special-cases a missing section. Only
// conditions that make assembly itself impossible return an error.
func Assemble(in Inputs) (*report.Document, error) {
	if in.Registry == nil {
		return nil, fmt.Errorf("no kind registry supplied")
	}
	if in.Namespace == "" {
		return nil, fmt.Errorf("no namespace determinable")
	}

	gathered := in.Now
	if gathered.IsZero() {
		gathered = time.Now()
	}
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	kinds := in.Registry.Kinds()

	records := make(map[string][]*report.ResourceRecord, len(kinds))
	unavailable := make(map[string]bool, len(kinds))
	for _, kind := range kinds {
		recs := in.Records[kind]
		if recs == nil {
			recs = []*report.ResourceRecord{}
		}
		records[kind] = recs

		set, ok := in.Sets[kind]
		unavailable[kind] = !ok || !set.Available
	}

	groups := in.Groups
	if groups == nil {
		groups = []report.ComponentGroup{{Name: report.UngroupedComponent}}
	}

	meta := report.Metadata{
		Gathered:  gathered,
		RunID:     runID,
		Namespace: in.Namespace,
		Options:   in.Options,
	}

	overview := computeOverview(records["Node"], records["Pod"], in.ServerVersion)

	return report.NewDocument(meta, overview, kinds, records, unavailable, groups, in.Warnings), nil
}
