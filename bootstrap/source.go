package bootstrap

import (
	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/replication"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// DispatchBootstrapWork is the source-side reaction to a topology
// change: every node computes the same Plan from the same
// TokenMetadata snapshot and newcomer list (carried over gossip),
// then autonomously pushes an InitiateMessage to each target it owes
// data to. No range-request message exists on the
// wire; the push is unprompted, which is why every node must derive
// the identical plan independently.
func DispatchBootstrapWork(ctx *Context, md *topology.TokenMetadata, newcomers []NewToken, strategy replication.Strategy) (Plan, error) {
	plan := CalculateRangeDelta(md, newcomers, strategy)

	owed := targetsOwedBySelf(ctx, plan)
	if len(owed) == 0 {
		return plan, nil
	}

	initiates, err := AssignWork(ctx, owed)
	if err != nil {
		return nil, err
	}

	for target, msg := range initiates {
		ctx.statsInc("source.initiate.sent", 1)
		if err := ctx.Transport.SendOneWay(target, msg); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// BootstrapInitiateDoneVerbHandler is the source-side receiver for the
// newcomer's one-way ack that files have been allocated. Nothing to do
// here - RegisterShipped already ran at send time - but it's the hook
// point for source-side observability.
func BootstrapInitiateDoneVerbHandler(ctx *Context) message.Handler {
	return func(from string, msg message.Message) (message.Message, error) {
		ctx.statsInc("source.initiate_done.received", 1)
		return nil, nil
	}
}

// BootstrapTerminateVerbHandler is the source-side receiver for a
// newcomer's per-file verdict: DELETE frees the slot
// and checks whether the peer is now fully served; STREAM re-sends the
// same file under a fresh InitiateMessage.
func BootstrapTerminateVerbHandler(ctx *Context) message.Handler {
	return func(from string, msg message.Message) (message.Message, error) {
		term, ok := msg.(*TerminateMessage)
		if !ok {
			return nil, &message.ErrMalformedMessage{Reason: "expected bootstrapTerminate"}
		}

		target, err := topology.ParseEndpoint(from)
		if err != nil {
			return nil, err
		}

		switch term.Status.Action {
		case ActionDelete:
			done := ctx.streamManager.Finalize(target, term.Status.File)
			ctx.statsInc("source.terminate.delete", 1)
			if done {
				ctx.statsInc("source.peer_done", 1)
			}
		case ActionStream:
			stored, ok := ctx.streamManager.Repeat(target, term.Status.File)
			ctx.statsInc("source.terminate.stream", 1)
			if ok {
				if err := ctx.Transport.SendOneWay(target, &InitiateMessage{Contexts: []StreamContext{stored}}); err != nil {
					return nil, err
				}
			}
		default:
			logger.Infof("bootstrap: unknown terminate action %q from %s for %s", term.Status.Action, from, term.Status.File)
		}

		return nil, nil
	}
}
