package machines

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcbench/core/model"
)

type scriptedProber struct {
	outputs map[string]string
	fail    string
}

func (p scriptedProber) Output(ctx context.Context, args ...string) (string, error) {
	key := strings.Join(args, " ")
	if key == p.fail {
		return "", errors.New("command not found")
	}
	return p.outputs[key], nil
}

const x86Summary = `Architecture:        x86_64
CPU(s):              8
Thread(s) per core:  2
Core(s) per socket:  4
Socket(s):           1
NUMA node(s):        1
Model name:          Intel(R) Xeon(R) CPU E3-1270 v6 @ 3.80GHz
`

const x86Caches = `# The following is the parsable format
# CPU,L1d:L1i:L2:L3
0,0:0:0:0
1,1:1:1:0
2,2:2:2:0
3,3:3:3:0
4,0:0:0:0
5,1:1:1:0
6,2:2:2:0
7,3:3:3:0
`

func prober(summary, caches string) scriptedProber {
	return scriptedProber{outputs: map[string]string{
		"lscpu":              summary,
		"lscpu -p=CPU,CACHE": caches,
	}}
}

func TestX86Detect(t *testing.T) {
	info, err := NewX86_64().Detect(context.Background(), prober(x86Summary, x86Caches))
	require.NoError(t, err)

	assert.Equal(t, "x86_64", info.Arch)
	assert.Equal(t, "Intel(R) Xeon(R) CPU E3-1270 v6 @ 3.80GHz", info.Name)
	assert.Equal(t, 8, info.Topology.Threads)
	assert.Equal(t, 2, info.Topology.L2Span)
	assert.Equal(t, 8, info.Topology.L3Span)

	sorted := append([]int(nil), info.Affinity...)
	sort.Ints(sorted)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, sorted)
}

func TestDetectReportsTopologyErrors(t *testing.T) {
	p := prober(x86Summary, x86Caches)
	p.fail = "lscpu"
	_, err := NewX86_64().Detect(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTopologyDetection)

	_, err = NewX86_64().Detect(context.Background(), prober("Architecture: x86_64\n", x86Caches))
	assert.ErrorIs(t, err, model.ErrTopologyDetection)

	_, err = NewX86_64().Detect(context.Background(), prober(x86Summary, "garbage\n"))
	var te *model.TopologyError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "lscpu -p=CPU,CACHE", te.Command)
}

func TestAarch64Names(t *testing.T) {
	cases := []struct {
		name    string
		summary map[string]string
		want    string
	}{
		{"model name wins", map[string]string{"Model name": "Neoverse-N1", "CPU(s)": "16", "Socket(s)": "4"}, "Neoverse-N1"},
		{"d03", map[string]string{"CPU(s)": "16", "Socket(s)": "4", "NUMA node(s)": "1"}, "D03"},
		{"d05", map[string]string{"CPU(s)": "64", "Socket(s)": "2", "NUMA node(s)": "4"}, "D05"},
		{"amberwing", map[string]string{"CPU(s)": "46", "Core(s) per socket": "46", "NUMA node(s)": "1"}, "Amberwing"},
		{"thunderx2", map[string]string{"CPU(s)": "224", "Core(s) per socket": "28", "NUMA node(s)": "2"}, "ThunderX2"},
		{"thunderx2 clusters", map[string]string{"CPU(s)": "224", "Socket(s)": "-", "Core(s) per cluster": "28", "NUMA node(s)": "2"}, "ThunderX2"},
		{"unknown", map[string]string{"CPU(s)": "4", "Socket(s)": "1"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, aarch64Name(tc.summary))
		})
	}
}

const neoverseSummary = `Architecture:           aarch64
  CPU op-mode(s):       32-bit, 64-bit
  Byte Order:           Little Endian
CPU(s):                 8
  On-line CPU(s) list:  0-7
Vendor ID:              ARM
  Model name:           Neoverse-N1
    Model:              1
    Thread(s) per core: 1
    Core(s) per cluster: 8
    Socket(s):          -
    Cluster(s):         1
NUMA:
  NUMA node(s):         1
  NUMA node0 CPU(s):    0-7
`

const neoverseCaches = `# CPU,L1d:L1i:L2:L3
0,0:0:0:0
1,1:1:1:0
2,2:2:2:0
3,3:3:3:0
4,4:4:4:0
5,5:5:5:0
6,6:6:6:0
7,7:7:7:0
`

func TestAarch64DetectClusterLayout(t *testing.T) {
	info, err := NewAarch64().Detect(context.Background(), prober(neoverseSummary, neoverseCaches))
	require.NoError(t, err)

	assert.Equal(t, "aarch64", info.Arch)
	assert.Equal(t, "Neoverse-N1", info.Name)
	assert.Equal(t, 8, info.Topology.Threads)
	assert.Equal(t, 1, info.Topology.Sockets)
	assert.Equal(t, 8, info.Topology.CoresPerSocket)
	assert.Equal(t, 1, info.Topology.L2Span)
	assert.Equal(t, 8, info.Topology.L3Span)

	sorted := append([]int(nil), info.Affinity...)
	sort.Ints(sorted)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, sorted)
}

func TestFeaturesIgnoreForeignArch(t *testing.T) {
	assert.Empty(t, features("sparc64"))
}
