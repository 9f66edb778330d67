package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func lastOnline(t *testing.T, p *fakePeer) []string {
	t.Helper()
	msgs := p.Messages()
	require.NotEmpty(t, msgs)
	var push struct {
		Event string   `json:"event"`
		Data  []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1], &push))
	assert.Equal(t, OnlineUsersChangedEvent, push.Event)
	return push.Data
}

func TestPresenceBroadcastsOnRegisterAndUnregister(t *testing.T) {
	reg := NewPresenceRegistry(zaptest.NewLogger(t))
	alice, bob := &fakePeer{}, &fakePeer{}

	reg.Register("alice", alice)
	assert.Equal(t, []string{"alice"}, lastOnline(t, alice))

	reg.Register("bob", bob)
	assert.Equal(t, []string{"alice", "bob"}, lastOnline(t, alice))
	assert.Equal(t, []string{"alice", "bob"}, lastOnline(t, bob))

	reg.Unregister("bob", bob)
	assert.Equal(t, []string{"alice"}, lastOnline(t, alice))
	assert.Equal(t, []string{"alice"}, reg.Snapshot())
}

func TestPresenceMultipleConnections(t *testing.T) {
	reg := NewPresenceRegistry(zaptest.NewLogger(t))
	tab1, tab2 := &fakePeer{}, &fakePeer{}

	reg.Register("alice", tab1)
	reg.Register("alice", tab2)
	assert.Equal(t, []string{"alice"}, reg.Snapshot())
	assert.Equal(t, 2, reg.Send("alice", []byte(`{"event":"ping"}`)))

	reg.Unregister("alice", tab1)
	assert.True(t, reg.IsOnline("alice"))
	reg.Unregister("alice", tab2)
	assert.False(t, reg.IsOnline("alice"))
	assert.Empty(t, reg.Snapshot())
}

func TestPresenceSendSkipsFailingPeers(t *testing.T) {
	reg := NewPresenceRegistry(zaptest.NewLogger(t))
	good, bad := &fakePeer{}, &fakePeer{failSend: true}
	reg.Register("alice", good)
	reg.Register("alice", bad)

	assert.Equal(t, 1, reg.Send("alice", []byte("x")))
	assert.Equal(t, 0, reg.Send("nobody", []byte("x")))
}

func TestPresenceClose(t *testing.T) {
	reg := NewPresenceRegistry(zaptest.NewLogger(t))
	a, b := &fakePeer{}, &fakePeer{}
	reg.Register("alice", a)
	reg.Register("bob", b)

	reg.Close()
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Empty(t, reg.Snapshot())
}

func TestPresenceLastBroadcastMatchesFinalState(t *testing.T) {
	reg := NewPresenceRegistry(zaptest.NewLogger(t))
	watcher := &fakePeer{}
	reg.Register("watcher", watcher)

	const workers = 32
	stay := make([]*fakePeer, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		stay[i] = &fakePeer{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transient := &fakePeer{}
			reg.Register(fmt.Sprintf("transient-%02d", i), transient)
			reg.Register(fmt.Sprintf("user-%02d", i), stay[i])
			reg.Unregister(fmt.Sprintf("transient-%02d", i), transient)
		}(i)
	}
	wg.Wait()

	final := reg.Snapshot()
	require.Len(t, final, workers+1)
	assert.Equal(t, final, lastOnline(t, watcher))
	for _, p := range stay {
		assert.Equal(t, final, lastOnline(t, p))
	}
}
