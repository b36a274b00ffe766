// Package topology derives CPU pinning order from host topology facts.
package topology

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Info holds the architecture facts the affinity planner consumes. It is
// derived once per machine and treated as immutable.
type Info struct {
	Threads        int `yaml:"threads"`
	ThreadsPerCore int `yaml:"threads_per_core"`
	CoresPerSocket int `yaml:"cores_per_socket"`
	Sockets        int `yaml:"sockets"`
	NUMANodes      int `yaml:"numa_nodes"`
	L2Span         int `yaml:"l2_span"`
	L3Span         int `yaml:"l3_span"`
}

// Level is one resource-sharing level of the topology.
type Level string

const (
	LevelSocket Level = "socket"
	LevelNode   Level = "node"
	LevelL3     Level = "l3"
	LevelL2     Level = "l2"
	LevelCore   Level = "core"
)

// Span returns the number of logical cores sharing the given level, or 0
// when the level is unknown for this host.
func (i Info) Span(level Level) int {
	switch level {
	case LevelCore:
		return i.ThreadsPerCore
	case LevelSocket:
		return i.ThreadsPerCore * i.CoresPerSocket
	case LevelNode:
		if i.NUMANodes <= 0 {
			return 0
		}
		return i.Threads / i.NUMANodes
	case LevelL3:
		return i.L3Span
	case LevelL2:
		return i.L2Span
	default:
		return 0
	}
}

var (
	errMissingKey = errors.New("missing key")
	errBadValue   = errors.New("unparsable value")
)

// ParseSummary reads `lscpu` output into a key/value mapping.
func ParseSummary(output string) map[string]string {
	out := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// FromSummary builds Info from an `lscpu` summary. Cache spans are filled
// separately by ApplyCacheSpans.
func FromSummary(summary map[string]string) (Info, error) {
	var (
		info Info
		err  error
	)
	if info.Threads, err = intKey(summary, "CPU(s)"); err != nil {
		return Info{}, err
	}
	if info.ThreadsPerCore, err = intKey(summary, "Thread(s) per core"); err != nil {
		return Info{}, err
	}
	// Arm hosts may report clusters instead of sockets and print "-" for
	// the socket count.
	info.CoresPerSocket = optionalInt(summary, "Core(s) per socket")
	if info.CoresPerSocket == 0 {
		info.CoresPerSocket = optionalInt(summary, "Core(s) per cluster")
	}
	info.Sockets = optionalInt(summary, "Socket(s)")
	info.NUMANodes = optionalInt(summary, "NUMA node(s)")
	if info.Threads <= 0 {
		return Info{}, fmt.Errorf("CPU(s): %w: %d", errBadValue, info.Threads)
	}
	if info.Sockets == 0 {
		info.Sockets = 1
	}
	if info.NUMANodes == 0 {
		info.NUMANodes = 1
	}
	if info.CoresPerSocket == 0 && info.ThreadsPerCore > 0 {
		info.CoresPerSocket = info.Threads / (info.ThreadsPerCore * info.Sockets)
	}
	return info, nil
}

// ApplyCacheSpans fills L2/L3 spans from `lscpu -p=CPU,CACHE` output. Each
// span counts the CPUs sharing CPU 0's cache instance.
func ApplyCacheSpans(info Info, parsable string) (Info, error) {
	ids := map[int][]string{}
	scanner := bufio.NewScanner(strings.NewReader(parsable))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cpuField, cacheField, ok := strings.Cut(line, ",")
		if !ok {
			return info, fmt.Errorf("cache line %q: %w", line, errBadValue)
		}
		cpu, err := strconv.Atoi(cpuField)
		if err != nil {
			return info, fmt.Errorf("cache line %q: %w", line, errBadValue)
		}
		ids[cpu] = strings.Split(cacheField, ":")
	}
	if err := scanner.Err(); err != nil {
		return info, err
	}
	first, ok := ids[0]
	if !ok {
		return info, fmt.Errorf("cpu 0 cache ids: %w", errMissingKey)
	}
	// Columns are L1d:L1i:L2[:L3].
	if len(first) >= 3 {
		info.L2Span = sharing(ids, 2, first[2])
	}
	if len(first) >= 4 {
		info.L3Span = sharing(ids, 3, first[3])
	}
	return info, nil
}

func sharing(ids map[int][]string, column int, id string) int {
	if id == "" {
		return 0
	}
	n := 0
	for _, cols := range ids {
		if len(cols) > column && cols[column] == id {
			n++
		}
	}
	return n
}

func intKey(summary map[string]string, key string) (int, error) {
	raw, ok := summary[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, errMissingKey)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, errBadValue)
	}
	return value, nil
}

// optionalInt returns 0 for a missing, "-" or non-numeric value.
func optionalInt(summary map[string]string, key string) int {
	v, err := strconv.Atoi(summary[key])
	if err != nil || v < 0 {
		return 0
	}
	return v
}
