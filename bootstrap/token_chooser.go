package bootstrap

import (
	"context"
	"time"

	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// ChooseInitialToken picks the most loaded peer (ties broken by
// first-seen in a stable iteration order), asks it for a split point,
// and returns the proposed token; Start is what adopts it locally.
// Blocking, but bounded by
// Config.TokenRequestTimeout.
func ChooseInitialToken(ctx *Context) (partitioner.Token, error) {
	start := time.Now()
	defer ctx.statsTiming("token.request.time", start)

	loads := ctx.LoadBalancer.GetLoadInfo()
	target, ok := mostLoaded(loads)
	if !ok {
		return nil, ErrNoBootstrapSources
	}

	ctx.statsInc("token.request.count", 1)

	reqCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.TokenRequestTimeout)
	defer cancel()

	resp, err := ctx.Transport.SendRR(reqCtx, target, &TokenRequest{})
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, ErrTokenRequestTimeout
		}
		return nil, err
	}

	tokenResp, ok := resp.(*TokenResponse)
	if !ok {
		return nil, &message.ErrMalformedMessage{Reason: "expected bootstrapToken reply"}
	}

	return partitioner.FromString(tokenResp.Token)
}

// mostLoaded returns the endpoint with the highest load, breaking ties
// by the first endpoint seen during a deterministic sort of the map
// keys so callers get a stable pick across repeated calls with the
// same input.
func mostLoaded(loads map[topology.Endpoint]float64) (topology.Endpoint, bool) {
	var best topology.Endpoint
	var bestLoad float64
	found := false

	order := sortedEndpoints(loads)
	for _, e := range order {
		load := loads[e]
		if !found || load > bestLoad {
			best = e
			bestLoad = load
			found = true
		}
	}
	return best, found
}

func sortedEndpoints(loads map[topology.Endpoint]float64) []topology.Endpoint {
	out := make([]topology.Endpoint, 0, len(loads))
	for e := range loads {
		out = append(out, e)
	}
	// String ordering stands in for "first-seen": the load map itself
	// carries no arrival order once collapsed into a snapshot.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].String() < out[j-1].String(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// BootstrapTokenVerbHandler answers a TokenRequest by splitting the
// peer's own primary range into two roughly equal halves and replying
// with the midpoint.
func BootstrapTokenVerbHandler(ctx *Context) message.Handler {
	return func(from string, msg message.Message) (message.Message, error) {
		_ = msg

		self := ctx.Self
		primary, ok := primaryRangeOf(ctx.Metadata, self, ctx.Partitioner)
		if !ok {
			return nil, ErrUnexpectedSplitCount
		}

		splits := partitioner.GetSplits(ctx.Partitioner, primary.Left, primary.Right, 2)
		if len(splits) != 3 {
			return nil, ErrUnexpectedSplitCount
		}

		midpoint := splits[1]
		return &TokenResponse{Token: midpoint.String()}, nil
	}
}

// primaryRangeOf finds the primary range owned by self in md's current
// snapshot.
func primaryRangeOf(md *topology.TokenMetadata, self topology.Endpoint, part partitioner.Partitioner) (partitioner.Range, bool) {
	for _, r := range md.PrimaryRanges() {
		e, ok := md.EndpointFor(r.Right)
		if ok && e.Equal(self) {
			return r, true
		}
	}
	return partitioner.Range{}, false
}
