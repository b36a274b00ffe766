package topology

import (
	"fmt"
	"math/big"
	"sort"
)

// Rule places one topology level in the walk order. Lower priority values
// are walked first.
type Rule struct {
	Level    Level
	Priority int
}

// Collapse drops Drop when its span equals the span of Keep: the pair then
// describes the same sharing group and the finer level adds no isolation.
type Collapse struct {
	Keep Level
	Drop Level
}

// DefaultRules walks from the coarsest sharing level to the finest.
var DefaultRules = []Rule{
	{Level: LevelSocket, Priority: 0},
	{Level: LevelNode, Priority: 1},
	{Level: LevelL3, Priority: 2},
	{Level: LevelL2, Priority: 3},
	{Level: LevelCore, Priority: 4},
}

// DefaultCollapses removes redundant levels before walking.
var DefaultCollapses = []Collapse{
	{Keep: LevelNode, Drop: LevelCore},
	{Keep: LevelSocket, Drop: LevelNode},
	{Keep: LevelL3, Drop: LevelL2},
}

// Planner orders logical cores so that earlier entries are expected to see
// less interference from sibling work. The order is a tunable heuristic:
// rules and collapses can be replaced without touching the walk.
type Planner struct {
	Rules     []Rule
	Collapses []Collapse
}

// DefaultPlanner uses DefaultRules and DefaultCollapses.
func DefaultPlanner() Planner {
	return Planner{Rules: DefaultRules, Collapses: DefaultCollapses}
}

// Plan returns the affinity list for info using the default planner.
func Plan(info Info) ([]int, error) {
	return DefaultPlanner().Plan(info)
}

// Plan returns every index in [0, info.Threads) exactly once, priority
// first. Core 0 is treated as the noisiest core and placed after all
// level representatives.
func (p Planner) Plan(info Info) ([]int, error) {
	if info.Threads <= 0 {
		return nil, fmt.Errorf("plan affinity: thread count %d", info.Threads)
	}
	threads := info.Threads

	dropped := map[Level]bool{}
	for _, c := range p.Collapses {
		keep, drop := info.Span(c.Keep), info.Span(c.Drop)
		if keep > 0 && keep == drop {
			dropped[c.Drop] = true
		}
	}

	rules := append([]Rule(nil), p.Rules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	claimed := make([]bool, threads)
	out := make([]int, 0, threads)
	claim := func(idx int) {
		if idx < threads && !claimed[idx] {
			claimed[idx] = true
			out = append(out, idx)
		}
	}

	for _, rule := range rules {
		if dropped[rule.Level] {
			continue
		}
		span := info.Span(rule.Level)
		if span <= 0 {
			continue
		}
		if span == 1 {
			claim(0)
		}
		for idx := 2; idx < threads; idx += span {
			claim(idx)
		}
	}

	claim(0)
	for idx := 0; idx < threads; idx++ {
		claim(idx)
	}
	return out, nil
}

// TasksetMask renders the first n cores of affinity as a hexadecimal CPU
// mask accepted by taskset. n <= 0 or n beyond the list selects every core.
func TasksetMask(affinity []int, n int) string {
	if n <= 0 || n > len(affinity) {
		n = len(affinity)
	}
	mask := new(big.Int)
	for _, cpu := range affinity[:n] {
		mask.SetBit(mask, cpu, 1)
	}
	return "0x" + mask.Text(16)
}
