package model

import (
	"math/rand"
	"sort"
)

// Placement builds the initial job to processor assignment of a Solution.
type Placement interface {
	Place(p *Problem) []int
	Name() string
}

// RoundRobin assigns job i to processor i mod processors.
type RoundRobin struct{}

func (RoundRobin) Name() string { return "round_robin" }

func (RoundRobin) Place(p *Problem) []int {
	asn := make([]int, p.NumJobs())
	for j := range asn {
		asn[j] = j % p.processors
	}
	return asn
}

// RandomPlacement assigns every job to a uniformly drawn processor.
type RandomPlacement struct {
	Rng *rand.Rand
}

func (RandomPlacement) Name() string { return "random" }

func (r RandomPlacement) Place(p *Problem) []int {
	asn := make([]int, p.NumJobs())
	for j := range asn {
		asn[j] = r.Rng.Intn(p.processors)
	}
	return asn
}

// LongestFirst is the LPT greedy rule: jobs sorted by decreasing duration are
// placed one by one on the least loaded processor. Ties go to the lowest
// index so the result is deterministic.
type LongestFirst struct{}

func (LongestFirst) Name() string { return "longest_first" }

func (LongestFirst) Place(p *Problem) []int {
	order := make([]int, p.NumJobs())
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.durations[order[a]] > p.durations[order[b]]
	})
	loads := make([]int64, p.processors)
	asn := make([]int, p.NumJobs())
	for _, j := range order {
		target := 0
		for k := 1; k < len(loads); k++ {
			if loads[k] < loads[target] {
				target = k
			}
		}
		asn[j] = target
		loads[target] += p.durations[j]
	}
	return asn
}

// PlacementByName resolves a configured placement. The rng is only used by
// the random placement.
func PlacementByName(name string, rng *rand.Rand) (Placement, error) {
	switch name {
	case "", "round_robin":
		return RoundRobin{}, nil
	case "random":
		if rng == nil {
			return nil, NewConfigError("placement", "random placement needs a random source")
		}
		return RandomPlacement{Rng: rng}, nil
	case "longest_first":
		return LongestFirst{}, nil
	default:
		return nil, NewConfigError("placement", "unknown placement %q", name)
	}
}
