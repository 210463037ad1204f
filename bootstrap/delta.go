package bootstrap

import (
	"sort"

	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/replication"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// SourceTarget means "source ships this range to target".
type SourceTarget struct {
	Source topology.Endpoint
	Target topology.Endpoint
}

// NewToken is one newcomer's (token, endpoint) pair, the driver's
// input to the ring delta calculator.
type NewToken struct {
	Token    partitioner.Token
	Endpoint topology.Endpoint
}

// PlanEntry is one range and the (source,target) pairs that must ship
// it. Plan is a slice rather than a map[Range][]SourceTarget because
// Range embeds a Token ([]byte), which Go can't use as a map key.
type PlanEntry struct {
	Range partitioner.Range
	Work  []SourceTarget
}

// Plan is the ring delta calculator's output.
type Plan []PlanEntry

// rangeReplicaSet is the split step's working set: a range paired with
// the replicas it inherited, found by linear scan since Range can't
// key a map.
type rangeReplicaSet struct {
	Range    partitioner.Range
	Replicas []topology.Endpoint
}

// CalculateRangeDelta is the pure ring delta calculator: given the
// current ring and a set of newcomer tokens, it returns which existing
// replica must ship which range to which newcomer. It never mutates
// md; it operates on a cloned snapshot throughout.
func CalculateRangeDelta(md *topology.TokenMetadata, newcomers []NewToken, strategy replication.Strategy) Plan {
	clone := md.Clone()

	// step 1: remove the newcomers' tokens so they aren't counted as
	// existing replicas yet.
	for _, nc := range newcomers {
		clone.RemoveNormal(nc.Token)
	}

	// step 2: old ranges and their replicas, over the newcomer-free ring.
	oldRanges := clone.PrimaryRanges()
	oldReplicaSets := strategy.ConstructRangeToEndpointMap(oldRanges, clone)

	// step 3: split step. each new token splits the old range
	// containing it into two subranges, each inheriting a *copy* of
	// the original range's replica list.
	working := make([]rangeReplicaSet, len(oldReplicaSets))
	for i, rr := range oldReplicaSets {
		working[i] = rangeReplicaSet{Range: rr.Range, Replicas: rr.Replicas}
	}

	for _, nc := range newcomers {
		idx, found := findContainingIndex(working, nc.Token)
		if !found {
			// the ring had no members, so there is no old range to
			// split; with one or more members the ranges cover the
			// whole ring.
			continue
		}
		containing := working[idx]
		r1, r2 := containing.Range.Split(nc.Token)

		working = append(working[:idx], working[idx+1:]...)
		working = append(working,
			rangeReplicaSet{Range: r1, Replicas: copyReplicas(containing.Replicas)},
			rangeReplicaSet{Range: r2, Replicas: copyReplicas(containing.Replicas)},
		)
	}

	// step 4: add the newcomer tokens and recompute ranges/replicas
	// over the augmented ring.
	for _, nc := range newcomers {
		clone.AddNormal(nc.Token, nc.Endpoint)
	}
	newRanges := clone.PrimaryRanges()
	newReplicaSets := strategy.ConstructRangeToEndpointMap(newRanges, clone)

	// step 5: diff old vs new replica lists per range; every replica
	// present in new but not old is a target; pick a source from the
	// old replica list, favoring whichever source has shipped the
	// fewest ranges so far this calculation.
	outgoing := make(map[string]int)
	var plan Plan

	sort.Slice(newReplicaSets, func(i, j int) bool {
		return rangeLess(newReplicaSets[i].Range, newReplicaSets[j].Range)
	})

	for _, rr := range newReplicaSets {
		oldReplicas := replicasFor(working, rr.Range) // nil if not found -> empty

		var pairs []SourceTarget
		for _, target := range rr.Replicas {
			if containsEndpoint(oldReplicas, target) {
				continue
			}
			if len(oldReplicas) == 0 {
				// nothing to ship from; this range has no pre-existing
				// replica (can only happen on the very first nodes of
				// a cluster, where the "replica set changed" property
				// is vacuously satisfied by there being no prior data).
				continue
			}
			source := pickSource(oldReplicas, outgoing)
			if source.Equal(target) {
				continue
			}
			outgoing[source.String()]++
			pairs = append(pairs, SourceTarget{Source: source, Target: target})
		}
		if len(pairs) > 0 {
			plan = append(plan, PlanEntry{Range: rr.Range, Work: pairs})
		}
	}

	return plan
}

func findContainingIndex(sets []rangeReplicaSet, t partitioner.Token) (int, bool) {
	for i, s := range sets {
		if s.Range.Contains(t) {
			return i, true
		}
	}
	return 0, false
}

func replicasFor(sets []rangeReplicaSet, r partitioner.Range) []topology.Endpoint {
	for _, s := range sets {
		if s.Range.Equal(r) {
			return s.Replicas
		}
	}
	return nil
}

func copyReplicas(in []topology.Endpoint) []topology.Endpoint {
	out := make([]topology.Endpoint, len(in))
	copy(out, in)
	return out
}

func containsEndpoint(list []topology.Endpoint, e topology.Endpoint) bool {
	for _, o := range list {
		if o.Equal(e) {
			return true
		}
	}
	return false
}

// pickSource chooses the old replica with the fewest outgoing
// assignments so far, ties broken by list order - a deterministic
// skew-minimizing policy.
func pickSource(candidates []topology.Endpoint, outgoing map[string]int) topology.Endpoint {
	best := candidates[0]
	bestCount := outgoing[best.String()]
	for _, c := range candidates[1:] {
		if n := outgoing[c.String()]; n < bestCount {
			best = c
			bestCount = n
		}
	}
	return best
}

func rangeLess(a, b partitioner.Range) bool {
	if c := a.Left.Compare(b.Left); c != 0 {
		return c < 0
	}
	return a.Right.Compare(b.Right) < 0
}
