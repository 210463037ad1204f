package bootstrap

import "time"

// LoadInfoSettleDelay is the pause before collecting load info, giving
// gossip time to stabilize after a fresh process start. A var, not a
// const, so tests can shrink it.
var LoadInfoSettleDelay = 30 * time.Second

// Config bundles the driver's startup knobs, passed in explicitly
// rather than read from global flags or singletons.
type Config struct {
	// InitialToken, if non-nil, short-circuits the token chooser.
	InitialToken []byte

	// TokenRequestTimeout bounds the token-chooser RPC.
	TokenRequestTimeout time.Duration

	// ReplicationFactor is the cluster's replication factor. The ring
	// delta calculator does not read it; replica placement comes from
	// Context.Strategy.
	ReplicationFactor uint32

	// DataDirectory is the root directory streamed tables are
	// installed under.
	DataDirectory string
}

// DefaultConfig returns reasonable defaults for a freshly started node.
func DefaultConfig() Config {
	return Config{
		TokenRequestTimeout: 10 * time.Second,
		ReplicationFactor:   1,
	}
}
