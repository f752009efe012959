// Package k8s wraps the cluster query interface the convergence poller
// observes, plus the handful of mutations platform provisioning needs.
//
// Queries are cheap point-in-time reads and are called at high frequency by
// the poller; nothing here caches across calls.
package k8s

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps Kubernetes API operations for bootstrap coordination.
type Client struct {
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
}

// NewClient creates a client from a kubeconfig file (the admin config
// written by control-plane initialization).
func NewClient(kubeconfigPath string) (*Client, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Client{clientset: clientset, dynamic: dynamicClient}, nil
}

// NewForClientset wraps an existing clientset. Used by tests with a fake.
func NewForClientset(cs kubernetes.Interface) *Client {
	return &Client{clientset: cs}
}

// NodeCount returns the number of registered nodes. Transient duplicate
// listings can inflate this; callers compare with >= rather than ==.
func (c *Client) NodeCount(ctx context.Context) (int, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}
	return len(nodes.Items), nil
}

// ReadyNodeCount returns the number of nodes whose Ready condition is true.
func (c *Client) ReadyNodeCount(ctx context.Context) (int, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}

	ready := 0
	for _, node := range nodes.Items {
		if isNodeReady(&node) {
			ready++
		}
	}
	return ready, nil
}

// NodeNames returns the registered node names in listing order.
func (c *Client) NodeNames(ctx context.Context) ([]string, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	names := make([]string, 0, len(nodes.Items))
	for _, node := range nodes.Items {
		names = append(names, node.Name)
	}
	return names, nil
}

// PodCounts returns the total and running pod counts in a namespace.
func (c *Client) PodCounts(ctx context.Context, namespace string) (total, running int, err error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}

	for _, pod := range pods.Items {
		total++
		if pod.Status.Phase == corev1.PodRunning || pod.Status.Phase == corev1.PodSucceeded {
			running++
		}
	}
	return total, running, nil
}

// AllPodsRunning reports whether the namespace has at least one pod and
// every pod in it is running (or has run to completion).
func (c *Client) AllPodsRunning(ctx context.Context, namespace string) (bool, error) {
	total, running, err := c.PodCounts(ctx, namespace)
	if err != nil {
		return false, err
	}
	return total > 0 && running == total, nil
}

// EnsureNamespace creates a namespace if it does not already exist.
func (c *Client) EnsureNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err := c.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create namespace %s: %w", name, err)
	}
	return nil
}

// LabelNode sets a label on a node, overwriting any existing value.
func (c *Client) LabelNode(ctx context.Context, nodeName, key, value string) error {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, nodeName, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get node %s: %w", nodeName, err)
	}

	if node.Labels == nil {
		node.Labels = make(map[string]string)
	}
	node.Labels[key] = value

	if _, err := c.clientset.CoreV1().Nodes().Update(ctx, node, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to label node %s: %w", nodeName, err)
	}
	return nil
}

// Apply applies a multi-document YAML manifest through the dynamic client,
// creating or updating each object. Used for the network fabric manifest.
func (c *Client) Apply(ctx context.Context, manifest string) error {
	decoder := yaml.NewYAMLOrJSONDecoder(strings.NewReader(manifest), 4096)

	for {
		var obj unstructured.Unstructured
		err := decoder.Decode(&obj)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to decode manifest: %w", err)
		}

		if len(obj.Object) == 0 {
			continue
		}

		gvk := obj.GroupVersionKind()
		gvr := schema.GroupVersionResource{
			Group:    gvk.Group,
			Version:  gvk.Version,
			Resource: resourceForKind(gvk.Kind),
		}

		ri := c.dynamic.Resource(gvr).Namespace(obj.GetNamespace())
		if obj.GetNamespace() == "" {
			ri = c.dynamic.Resource(gvr)
		}

		if _, err := ri.Create(ctx, &obj, metav1.CreateOptions{}); err != nil {
			// Re-runs are expected: fall back to update.
			if _, err := ri.Update(ctx, &obj, metav1.UpdateOptions{}); err != nil {
				return fmt.Errorf("failed to apply %s/%s: %w", obj.GetKind(), obj.GetName(), err)
			}
		}
	}

	return nil
}

// isNodeReady checks the node's Ready condition.
func isNodeReady(node *corev1.Node) bool {
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

// resourceForKind maps a Kubernetes kind to its resource name. Covers the
// kinds present in the fabric manifest; anything else falls through to the
// naive plural.
func resourceForKind(kind string) string {
	switch kind {
	case "Deployment":
		return "deployments"
	case "DaemonSet":
		return "daemonsets"
	case "Service":
		return "services"
	case "ConfigMap":
		return "configmaps"
	case "Secret":
		return "secrets"
	case "ServiceAccount":
		return "serviceaccounts"
	case "ClusterRole":
		return "clusterroles"
	case "ClusterRoleBinding":
		return "clusterrolebindings"
	case "Role":
		return "roles"
	case "RoleBinding":
		return "rolebindings"
	case "Namespace":
		return "namespaces"
	case "CustomResourceDefinition":
		return "customresourcedefinitions"
	case "PodDisruptionBudget":
		return "poddisruptionbudgets"
	case "NetworkPolicy":
		return "networkpolicies"
	default:
		return strings.ToLower(kind) + "s"
	}
}
