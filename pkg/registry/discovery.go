package registry

import (
	"log/slog"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
)

// DiscoverOwned walks the server's preferred API resources and appends any
// listable kind whose group matches one of the given group suffixes to the
// registry, marked AppOwned. This picks up the application's CRDs without
// hardcoding them.
//
// Discovery failures are tolerated: partial results are used and anything
// that cannot be discovered is simply not tracked. Kinds already registered
// are left untouched.
func (r *Registry) DiscoverOwned(disco discovery.DiscoveryInterface, groupSuffixes []string) error {
	if len(groupSuffixes) == 0 {
		return nil
	}

	lists, err := disco.ServerPreferredResources()
	if err != nil {
		if !discovery.IsGroupDiscoveryFailedError(err) {
			return err
		}
		// stale or broken aggregated APIs; use what was discovered
		slog.Warn("partial API discovery", slog.String("error", err.Error()))
	}

	for _, list := range lists {
		if list == nil {
			continue
		}
		gv, err := schema.ParseGroupVersion(list.GroupVersion)
		if err != nil {
			continue
		}
		if !matchesSuffix(gv.Group, groupSuffixes) {
			continue
		}

		for _, res := range list.APIResources {
			// skip subresources like "foos/status"
			if res.Name == "" || strings.Contains(res.Name, "/") {
				continue
			}
			if !listable(res.Verbs) {
				continue
			}
			if _, exists := r.Lookup(res.Kind); exists {
				continue
			}

			spec := KindSpec{
				Kind:       res.Kind,
				Group:      gv.Group,
				Version:    gv.Version,
				Resource:   res.Name,
				Namespaced: res.Namespaced,
				AppOwned:   true,
			}
			if err := r.Add(spec); err != nil {
				slog.Warn("skipping discovered kind",
					slog.String("kind", res.Kind),
					slog.String("error", err.Error()))
				continue
			}
			slog.Debug("discovered app-owned kind",
				slog.String("kind", res.Kind),
				slog.String("group", gv.Group),
				slog.String("resource", res.Name))
		}
	}

	return nil
}

func matchesSuffix(group string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if group == suffix || strings.HasSuffix(group, "."+suffix) {
			return true
		}
	}
	return false
}

func listable(verbs []string) bool {
	for _, v := range verbs {
		if v == "list" {
			return true
		}
	}
	return false
}
