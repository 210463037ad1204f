package bootstrap

import (
	"time"

	"github.com/kickboxerdb/ringkeeper/gossip"
	"github.com/kickboxerdb/ringkeeper/partitioner"
)

// Start is the top-level driver: settle, choose a
// token, announce it, compute the delta plan for self, and either
// finish immediately (no ranges owed) or return the plan so the
// caller can wait on completion. Guards against being run twice for
// the same node.
func Start(ctx *Context) (Plan, error) {
	if ctx.Metadata.IsNormal(ctx.Self) || ctx.Metadata.IsBootstrapping(ctx.Self) {
		return nil, ErrAlreadyBootstrapped
	}

	logger.Infof("bootstrap: starting for %s", ctx.Self)
	start := time.Now()
	defer ctx.statsTiming("driver.total.time", start)

	time.Sleep(LoadInfoSettleDelay)

	done := make(chan struct{})
	timer := time.AfterFunc(ctx.Config.TokenRequestTimeout, func() { close(done) })
	ctx.LoadBalancer.WaitForLoadInfo(done)
	timer.Stop()

	token, err := resolveToken(ctx)
	if err != nil {
		logger.Warningf("bootstrap: %s could not resolve a token: %v", ctx.Self, err)
		return nil, err
	}

	ctx.Metadata.AddBootstrapping(token, ctx.Self)
	ctx.Gossip.AddApplicationState(gossip.BootstrapModeKey, token.String())
	ctx.statsInc("driver.token.chosen", 1)
	logger.Infof("bootstrap: %s chose token %s", ctx.Self, token)

	newcomers := []NewToken{{Token: token, Endpoint: ctx.Self}}
	plan := CalculateRangeDelta(ctx.Metadata, newcomers, ctx.Strategy)

	if len(plan) == 0 {
		logger.Infof("bootstrap: %s owes no ranges, finishing immediately", ctx.Self)
		FinishBootstrap(ctx)
		return plan, nil
	}

	return plan, nil
}

// resolveToken honors Config.InitialToken when set, otherwise runs the
// token chooser.
func resolveToken(ctx *Context) (partitioner.Token, error) {
	if ctx.Config.InitialToken != nil {
		return partitioner.Token(ctx.Config.InitialToken), nil
	}
	return ChooseInitialToken(ctx)
}

// FinishBootstrap promotes the local token out of the bootstrapping
// set and clears BOOTSTRAP_MODE, the terminal step once every source
// has reported its peer done.
func FinishBootstrap(ctx *Context) {
	if token, ok := ctx.Metadata.BootstrappingTokenFor(ctx.Self); ok {
		ctx.Metadata.PromoteBootstrapping(token)
	}
	ctx.Gossip.RemoveApplicationState(gossip.BootstrapModeKey)
	ctx.statsInc("driver.finished", 1)
	logger.Infof("bootstrap: %s finished bootstrapping", ctx.Self)
}
