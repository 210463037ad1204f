package bootstrap

import (
	"fmt"
	"path/filepath"

	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// targetsOwedBySelf filters plan down to the ranges ctx must ship, and
// groups them by the target that's missing each one.
func targetsOwedBySelf(ctx *Context, plan Plan) map[topology.Endpoint][]partitioner.Range {
	out := make(map[topology.Endpoint][]partitioner.Range)
	for _, entry := range plan {
		for _, pair := range entry.Work {
			if !pair.Source.Equal(ctx.Self) {
				continue
			}
			key := pair.Target
			out[key] = append(out[key], entry.Range)
		}
	}
	return out
}

// AssignWork opens ctx's local copy of each owed range and builds one
// InitiateMessage per target, registering every file with ctx's
// StreamManager so a later DELETE/STREAM verdict can be resolved.
func AssignWork(ctx *Context, owed map[topology.Endpoint][]partitioner.Range) (map[topology.Endpoint]*InitiateMessage, error) {
	out := make(map[topology.Endpoint]*InitiateMessage, len(owed))

	for target, ranges := range owed {
		msg := &InitiateMessage{}
		for _, r := range ranges {
			localPath := rangeFilePath(ctx, r)
			path, size, err := ctx.Store.OpenForStreaming(localPath)
			if err != nil {
				return nil, fmt.Errorf("opening %s for streaming to %s: %w", localPath, target, err)
			}
			sc := StreamContext{
				Table:         ctx.Store.DataDirectory(),
				TargetFile:    path,
				ExpectedBytes: size,
			}
			msg.Contexts = append(msg.Contexts, sc)
			ctx.streamManager.RegisterShipped(target, sc)
		}
		out[target] = msg
	}

	return out, nil
}

// rangeFilePath derives the on-disk name of the file backing range r,
// in the shipped-filename shape so the receiving
// ParseSSTableFilename/DistinctEntryFor grouping applies on the other
// end unchanged.
func rangeFilePath(ctx *Context, r partitioner.Range) string {
	stem := fmt.Sprintf("%s_%s", r.Left.String(), r.Right.String())
	name := ShippedFilename(stem, 0, DataKind)
	return filepath.Join(ctx.Store.DataDirectory(), name)
}
