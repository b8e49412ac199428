package serializer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/depscope/depscope/pkg/report"
)

// NoLower keeps interior capitals so "ConfigMap" does not become
// "Configmap".
var titler = cases.Title(language.English, cases.NoLower)

// renderTable writes a hierarchical text view of the report: overview,
// per-kind sections with availability, and the component index. Meant for
// terminal viewing; the structured formats carry the full data.
func renderTable(w io.Writer, export *report.Export) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Deployment Report (namespace %s)\n", export.Metadata.Namespace)
	fmt.Fprintf(&b, "Gathered: %s (run %s)\n", export.Metadata.Gathered.Format("Mon, 02 Jan 2006 15:04 MST"), export.Metadata.RunID)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Cluster\n")
	if export.Overview.ServerVersion != "" {
		fmt.Fprintf(&b, "  Server:   %s (%s)\n", export.Overview.ServerVersion, export.Overview.ServerPlatform)
	}
	fmt.Fprintf(&b, "  Nodes:    %d\n", export.Overview.NodeCount)
	if export.Overview.CPUCapacity != "" {
		fmt.Fprintf(&b, "  Capacity: cpu %s, memory %s\n", export.Overview.CPUCapacity, export.Overview.MemoryCapacity)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Resources\n")
	for _, section := range export.Resources {
		heading := titler.String(section.Kind)
		if !section.Available {
			fmt.Fprintf(&b, "  %-14s could not be retrieved\n", heading)
			continue
		}
		fmt.Fprintf(&b, "  %-14s %d\n", heading, section.Count)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Components\n")
	for _, group := range export.Components {
		fmt.Fprintf(&b, "  %s (%d)\n", group.Name, len(group.Members))
		for _, member := range group.Members {
			fmt.Fprintf(&b, "    %s\n", member)
		}
	}

	if len(export.Warnings) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Warnings\n")
		for _, warning := range export.Warnings {
			fmt.Fprintf(&b, "  [%s] %s\n", warning.Kind, warning.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
