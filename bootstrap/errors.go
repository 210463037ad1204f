package bootstrap

import "errors"

// ErrNoBootstrapSources is the fatal join-time error raised when the
// load balancer has no peer load reports to choose a token-split
// source from.
var ErrNoBootstrapSources = errors.New("bootstrap: no sources available to choose an initial token from")

// ErrTokenRequestTimeout is returned when the token-split RPC does not
// complete before Config.TokenRequestTimeout.
var ErrTokenRequestTimeout = errors.New("bootstrap: timed out waiting for a token split reply")

// ErrAlreadyBootstrapped guards against running the driver twice for
// the same node.
var ErrAlreadyBootstrapped = errors.New("bootstrap: this node has already bootstrapped")

// ErrUnexpectedSplitCount surfaces a malformed getSplits(2) response
// from the partitioner collaborator - an assertion failure, not a
// recoverable condition.
var ErrUnexpectedSplitCount = errors.New("bootstrap: partitioner returned an unexpected number of split points")
