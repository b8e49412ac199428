package assembler

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/distribution/reference"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/version"

	"github.com/depscope/depscope/pkg/report"
)

// computeOverview derives cluster-wide facts from the Node set plus the
// container-image inventory from the Pod set.
func computeOverview(nodes, pods []*report.ResourceRecord, sv *version.Info) report.ClusterOverview {
	overview := report.ClusterOverview{NodeCount: len(nodes)}

	if sv != nil {
		overview.ServerVersion = sv.GitVersion
		overview.ServerPlatform = sv.Platform
	}

	var totalCPU, totalMem resource.Quantity
	for _, node := range nodes {
		capacity, found, _ := unstructured.NestedStringMap(node.Definition, "status", "capacity")
		if !found {
			continue
		}
		if q, err := resource.ParseQuantity(capacity["cpu"]); err == nil {
			totalCPU.Add(q)
		}
		if q, err := resource.ParseQuantity(capacity["memory"]); err == nil {
			totalMem.Add(q)
		}
	}
	if len(nodes) > 0 {
		overview.CPUCapacity = totalCPU.String()
		overview.MemoryCapacity = totalMem.String()
	}

	overview.Images = imageInventory(pods)
	return overview
}

// imageInventory collects the unique container images across all pods with
// the locations running them, sorted by image reference for determinism.
// Image strings are normalized to their familiar form so "nginx" and
// "docker.io/library/nginx:latest" collapse into one entry.
func imageInventory(pods []*report.ResourceRecord) []report.ImageUsage {
	locations := make(map[string][]string)

	for _, pod := range pods {
		prefix := fmt.Sprintf("%s/%s", pod.Identity.Namespace, pod.Identity.Name)

		for _, field := range []string{"initContainers", "containers"} {
			entries, _, _ := unstructured.NestedSlice(pod.Definition, "spec", field)
			for _, entry := range entries {
				container, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				image, _ := container["image"].(string)
				name, _ := container["name"].(string)
				if image == "" {
					continue
				}
				ref := normalizeImage(image)
				locations[ref] = append(locations[ref], fmt.Sprintf("%s:%s", prefix, name))
			}
		}
	}

	images := make([]report.ImageUsage, 0, len(locations))
	for ref, locs := range locations {
		images = append(images, report.ImageUsage{Ref: ref, Locations: locs})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Ref < images[j].Ref })
	return images
}

func normalizeImage(image string) string {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		slog.Debug("unparseable image reference", slog.String("image", image))
		return image
	}
	return reference.FamiliarString(reference.TagNameOnly(named))
}
