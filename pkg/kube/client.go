// Package kube constructs the Kubernetes clients used by a collection
// pass: the typed clientset (discovery, server version, pod logs) and the
// dynamic client (per-kind list calls).
package kube

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Clients bundles the API surfaces a collection pass needs. All queries
// issued through it are read-only.
type Clients struct {
	Core       kubernetes.Interface
	Dynamic    dynamic.Interface
	RestConfig *rest.Config
}

// Discovery returns the discovery client backing the typed clientset.
func (c *Clients) Discovery() discovery.DiscoveryInterface {
	return c.Core.Discovery()
}

var (
	clientOnce    sync.Once
	cachedClients *Clients
	clientErr     error
)

// GetClients returns singleton clients, creating them on first call.
// Subsequent calls return the cached clients for connection reuse.
//
// Configuration is discovered from, in order:
//   - KUBECONFIG environment variable
//   - ~/.kube/config (default location)
//   - in-cluster service account (when running as a Pod)
//
// For a custom kubeconfig path, use BuildClients directly.
func GetClients() (*Clients, error) {
	clientOnce.Do(func() {
		cachedClients, clientErr = BuildClients("")
	})
	return cachedClients, clientErr
}

// BuildClients creates clients from the given kubeconfig file, bypassing
// the singleton cache. An empty path uses the automatic discovery chain
// described on GetClients.
func BuildClients(kubeconfig string) (*Clients, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")

		if kubeconfig == "" {
			kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
			if _, err := os.Stat(kubeconfig); os.IsNotExist(err) {
				kubeconfig = ""
			}
		}
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config: %w", err)
	}

	core, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Clients{Core: core, Dynamic: dyn, RestConfig: config}, nil
}

// CurrentNamespace returns the namespace of the active kubeconfig context,
// or empty when none is set. Used as the fallback when no namespace is
// given on the command line.
func CurrentNamespace(kubeconfig string) string {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})
	ns, _, err := clientConfig.Namespace()
	if err != nil {
		return ""
	}
	return ns
}
