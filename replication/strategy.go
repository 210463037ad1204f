// Package replication maps a range to its replica set: the
// constructRangeToEndpointMap(ranges, tokenMap) collaborator the ring
// delta calculator builds on.
package replication

import (
	"sort"

	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// RangeReplicas pairs a range with its replica set. A slice of these
// stands in for what would otherwise be map[Range][]Endpoint - Range
// embeds a Token, which is a []byte and so isn't comparable, and can't
// back a Go map key.
type RangeReplicas struct {
	Range    partitioner.Range
	Replicas []topology.Endpoint
}

// Strategy assigns replicas to ranges given a token metadata snapshot.
type Strategy interface {
	ConstructRangeToEndpointMap(ranges []partitioner.Range, md *topology.TokenMetadata) []RangeReplicas
}

// SimpleStrategy replicates each range to the next ReplicationFactor
// distinct endpoints walking clockwise from the range's owner,
// single-datacenter only.
type SimpleStrategy struct {
	ReplicationFactor uint32
}

func NewSimpleStrategy(rf uint32) *SimpleStrategy {
	return &SimpleStrategy{ReplicationFactor: rf}
}

func (s *SimpleStrategy) ConstructRangeToEndpointMap(ranges []partitioner.Range, md *topology.TokenMetadata) []RangeReplicas {
	sorted := md.SortedTokens()
	endpointOf := func(t partitioner.Token) (topology.Endpoint, bool) {
		return md.EndpointFor(t)
	}

	out := make([]RangeReplicas, 0, len(ranges))
	rf := int(s.ReplicationFactor)
	if rf > len(sorted) {
		rf = len(sorted)
	}

	for _, r := range ranges {
		// the range's Right edge is the owning token.
		idx := sort.Search(len(sorted), func(i int) bool {
			return sorted[i].Compare(r.Right) >= 0
		})
		if idx == len(sorted) {
			idx = 0
		}

		replicas := make([]topology.Endpoint, 0, rf)
		seen := make(map[string]bool, rf)
		for i := 0; len(replicas) < rf && i < len(sorted); i++ {
			t := sorted[(idx+i)%len(sorted)]
			e, ok := endpointOf(t)
			if !ok {
				continue
			}
			key := e.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			replicas = append(replicas, e)
		}
		out = append(out, RangeReplicas{Range: r, Replicas: replicas})
	}
	return out
}
