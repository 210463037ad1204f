package bootstrap

import (
	"testing"
	"time"

	"github.com/kickboxerdb/ringkeeper/loadbalancer"
	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/replication"
	"github.com/kickboxerdb/ringkeeper/topology"
)

func TestMostLoadedPicksHighestLoad(t *testing.T) {
	loads := map[topology.Endpoint]float64{
		endpoint(1): 10,
		endpoint(2): 50,
		endpoint(3): 20,
	}
	got, ok := mostLoaded(loads)
	if !ok {
		t.Fatal("expected mostLoaded to find a candidate")
	}
	if !got.Equal(endpoint(2)) {
		t.Errorf("mostLoaded = %v, want %v", got, endpoint(2))
	}
}

func TestMostLoadedTiesAreDeterministic(t *testing.T) {
	loads := map[topology.Endpoint]float64{
		endpoint(3): 10,
		endpoint(1): 10,
		endpoint(2): 10,
	}
	first, _ := mostLoaded(loads)
	for i := 0; i < 10; i++ {
		got, _ := mostLoaded(loads)
		if !got.Equal(first) {
			t.Fatalf("mostLoaded is not deterministic across repeated calls: got %v, then %v", first, got)
		}
	}
}

func TestMostLoadedEmptyMap(t *testing.T) {
	if _, ok := mostLoaded(map[topology.Endpoint]float64{}); ok {
		t.Fatal("mostLoaded on an empty map should report not found")
	}
}

func TestBootstrapTokenVerbHandlerSplitsOwnedRange(t *testing.T) {
	md := topology.NewTokenMetadata()
	self := endpoint(1)
	ownToken := partitioner.Token{0x80}
	md.AddNormal(ownToken, self)

	ctx := NewContext(
		self, md, loadbalancer.NewGossipLoadBalancer(), nil, nil,
		nil, partitioner.NewMD5Partitioner(), replication.NewSimpleStrategy(1),
		nil, DefaultConfig(),
	)

	handler := BootstrapTokenVerbHandler(ctx)
	resp, err := handler("somepeer", &TokenRequest{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	tokenResp, ok := resp.(*TokenResponse)
	if !ok {
		t.Fatalf("got %T, want *TokenResponse", resp)
	}
	mid, err := partitioner.FromString(tokenResp.Token)
	if err != nil {
		t.Fatalf("split token did not parse: %v", err)
	}
	if mid.Equal(ownToken) {
		t.Error("split midpoint should not equal the peer's own token for a non-trivial range")
	}
}

func TestBootstrapTokenVerbHandlerNoOwnedRange(t *testing.T) {
	md := topology.NewTokenMetadata()
	self := endpoint(1)
	// self owns no primary range: md has no tokens at all.
	ctx := NewContext(
		self, md, loadbalancer.NewGossipLoadBalancer(), nil, nil,
		nil, partitioner.NewMD5Partitioner(), replication.NewSimpleStrategy(1),
		nil, DefaultConfig(),
	)

	handler := BootstrapTokenVerbHandler(ctx)
	if _, err := handler("somepeer", &TokenRequest{}); err == nil {
		t.Fatal("expected an error when the peer owns no primary range")
	}
}

func TestChooseInitialTokenNoSources(t *testing.T) {
	md := topology.NewTokenMetadata()
	ctx := NewContext(
		endpoint(1), md, loadbalancer.NewGossipLoadBalancer(), nil, nil,
		nil, partitioner.NewMD5Partitioner(), replication.NewSimpleStrategy(1),
		nil, DefaultConfig(),
	)

	if _, err := ChooseInitialToken(ctx); err != ErrNoBootstrapSources {
		t.Fatalf("got error %v, want %v", err, ErrNoBootstrapSources)
	}
}

func TestChooseInitialTokenAsksMostLoadedPeer(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)

	self := endpoint(2)
	peer := endpoint(1)

	peerMd := topology.NewTokenMetadata()
	peerToken := partitioner.Token{0x80}
	peerMd.AddNormal(peerToken, peer)

	peerTransport := message.NewLoopbackTransport(reg, peer)
	peerCtx := NewContext(
		peer, peerMd, loadbalancer.NewGossipLoadBalancer(), peerTransport, nil,
		nil, partitioner.NewMD5Partitioner(), replication.NewSimpleStrategy(1),
		nil, DefaultConfig(),
	)
	peerDispatcher := message.NewDispatcher()
	RegisterHandlers(peerCtx, peerDispatcher)

	selfTransport := message.NewLoopbackTransport(reg, self)
	selfTransport.Connect(peer, peerDispatcher)

	lb := loadbalancer.NewGossipLoadBalancer()
	lb.ReportLoad(peer, 100)

	selfCfg := DefaultConfig()
	selfCfg.TokenRequestTimeout = time.Second
	selfCtx := NewContext(
		self, topology.NewTokenMetadata(), lb, selfTransport, nil,
		nil, partitioner.NewMD5Partitioner(), replication.NewSimpleStrategy(1),
		nil, selfCfg,
	)

	got, err := ChooseInitialToken(selfCtx)
	if err != nil {
		t.Fatalf("ChooseInitialToken: %v", err)
	}
	if got.Equal(peerToken) {
		t.Error("the newcomer should adopt a split point, not the peer's own token")
	}
}

func TestChooseInitialTokenUnreachablePeerFails(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	self := endpoint(2)

	lb := loadbalancer.NewGossipLoadBalancer()
	lb.ReportLoad(endpoint(1), 5)

	cfg := DefaultConfig()
	cfg.TokenRequestTimeout = time.Millisecond

	transport := message.NewLoopbackTransport(reg, self)
	ctx := NewContext(
		self, topology.NewTokenMetadata(), lb, transport, nil,
		nil, partitioner.NewMD5Partitioner(), replication.NewSimpleStrategy(1),
		nil, cfg,
	)

	if _, err := ChooseInitialToken(ctx); err == nil {
		t.Fatal("expected an error when the chosen peer is unreachable")
	}
}
