package openwhisk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	nodes      []string
	labels     map[string]string
	namespaces []string
}

func (f *fakeCluster) NodeNames(context.Context) ([]string, error) {
	return f.nodes, nil
}

func (f *fakeCluster) LabelNode(_ context.Context, nodeName, key, value string) error {
	if f.labels == nil {
		f.labels = make(map[string]string)
	}
	f.labels[nodeName+"/"+key] = value
	return nil
}

func (f *fakeCluster) EnsureNamespace(_ context.Context, name string) error {
	f.namespaces = append(f.namespaces, name)
	return nil
}

type fakeHelm struct {
	calls  int
	ns     string
	values map[string]interface{}
}

func (f *fakeHelm) InstallOrUpgrade(_ []byte, namespace, _, _, _, _ string, values map[string]interface{}) error {
	f.calls++
	f.ns = namespace
	f.values = values
	return nil
}

func TestLabelNodes_SplitsCoreAndInvoker(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{nodes: []string{"ow1", "ow2", "ow3", "ow4"}}
	d := &Deployer{Cluster: cluster, InvokerCount: 2}

	require.NoError(t, d.LabelNodes(context.Background()))
	assert.Equal(t, "core", cluster.labels["ow1/openwhisk-role"])
	assert.Equal(t, "core", cluster.labels["ow2/openwhisk-role"])
	assert.Equal(t, "invoker", cluster.labels["ow3/openwhisk-role"])
	assert.Equal(t, "invoker", cluster.labels["ow4/openwhisk-role"])
}

func TestLabelNodes_RejectsAllInvokers(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{nodes: []string{"ow1", "ow2"}}
	d := &Deployer{Cluster: cluster, InvokerCount: 2}

	assert.Error(t, d.LabelNodes(context.Background()))
}

func TestValues_FromParameters(t *testing.T) {
	t.Parallel()

	d := &Deployer{InvokerCount: 2, InvokerEngine: "docker", SchedulerEnabled: true}

	values, err := d.Values()
	require.NoError(t, err)

	invoker := values["invoker"].(map[string]interface{})
	assert.Equal(t, 2, invoker["count"])
	factory := invoker["containerFactory"].(map[string]interface{})
	assert.Equal(t, "docker", factory["impl"])

	scheduler := values["scheduler"].(map[string]interface{})
	assert.Equal(t, true, scheduler["enabled"])
}

func TestValues_FileOverlaidByParameters(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mycluster.yaml")
	content := `
whisk:
  ingress:
    apiHostName: 10.10.1.1
invoker:
  count: 99
  jvmHeapMB: 512
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	d := &Deployer{ValuesFile: path, InvokerCount: 1, InvokerEngine: "kubernetes"}

	values, err := d.Values()
	require.NoError(t, err)

	// Operator parameters win over the file.
	invoker := values["invoker"].(map[string]interface{})
	assert.Equal(t, 1, invoker["count"])
	// Unrelated file entries survive the merge.
	assert.NotNil(t, invoker["jvmHeapMB"])
	whisk := values["whisk"].(map[string]interface{})
	assert.NotNil(t, whisk["ingress"])
}

func TestValues_MissingFileIsFine(t *testing.T) {
	t.Parallel()

	d := &Deployer{ValuesFile: "/nonexistent/mycluster.yaml", InvokerCount: 1, InvokerEngine: "kubernetes"}
	_, err := d.Values()
	assert.NoError(t, err)
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	kubeconfig := filepath.Join(t.TempDir(), "admin.conf")
	require.NoError(t, os.WriteFile(kubeconfig, []byte("apiVersion: v1\nkind: Config\n"), 0600))

	cluster := &fakeCluster{nodes: []string{"ow1", "ow2"}}
	helm := &fakeHelm{}
	d := &Deployer{
		Cluster:        cluster,
		Helm:           helm,
		KubeconfigPath: kubeconfig,
		Namespace:      "openwhisk",
		ReleaseName:    "owdev",
		InvokerCount:   1,
		InvokerEngine:  "kubernetes",
	}

	require.NoError(t, d.Deploy(context.Background()))
	assert.Equal(t, 1, helm.calls)
	assert.Equal(t, "openwhisk", helm.ns)
	assert.Contains(t, cluster.namespaces, "openwhisk")
	assert.Equal(t, "invoker", cluster.labels["ow2/openwhisk-role"])
}
