package results

import "path/filepath"

// Wrappers maps process-wrapper executables to the number of leading argv
// tokens they consume before the wrapped binary.
var Wrappers = map[string]int{
	"taskset": 2,
	"perf":    2,
}

// BinaryName extracts the benchmark binary from argv, skipping wrappers.
func BinaryName(args []string) string {
	i := 0
	for i < len(args) {
		n, ok := Wrappers[filepath.Base(args[i])]
		if !ok {
			break
		}
		i += n
	}
	if i >= len(args) {
		return ""
	}
	return filepath.Base(args[i])
}

// Cluster groups the results of repeated runs of one binary.
type Cluster struct {
	Name    string
	Results []ExecutionResult
}

// ClusterByName groups results by binary name. Clusters appear in order of
// first occurrence and keep their results in input order.
func ClusterByName(results []ExecutionResult) []Cluster {
	index := map[string]int{}
	var out []Cluster
	for _, r := range results {
		name := BinaryName(r.Args)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Cluster{Name: name})
		}
		out[i].Results = append(out[i].Results, r)
	}
	return out
}
