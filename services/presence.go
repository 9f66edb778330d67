package services

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const OnlineUsersChangedEvent = "online users changed"

// Peer is one open realtime connection.
type Peer interface {
	Send(msg []byte) error
	Close() error
}

// PushMessage is the envelope of everything written to a realtime connection.
type PushMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// PresenceRegistry tracks which users hold at least one open connection.
// It lives for the lifetime of the process and is never persisted.
type PresenceRegistry struct {
	// changeMu orders membership changes together with their broadcasts,
	// so the last message a peer gets matches the final membership.
	changeMu sync.Mutex
	mu       sync.RWMutex
	users    map[string][]Peer
	logger   *zap.Logger
}

func NewPresenceRegistry(logger *zap.Logger) *PresenceRegistry {
	return &PresenceRegistry{
		users:  make(map[string][]Peer),
		logger: logger,
	}
}

func (r *PresenceRegistry) Register(userID string, peer Peer) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()
	r.mu.Lock()
	r.users[userID] = append(r.users[userID], peer)
	r.mu.Unlock()
	r.broadcastOnline()
}

func (r *PresenceRegistry) Unregister(userID string, peer Peer) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()
	r.mu.Lock()
	peers := r.users[userID]
	for i, p := range peers {
		if p == peer {
			r.users[userID] = append(peers[:i:i], peers[i+1:]...)
			break
		}
	}
	if len(r.users[userID]) == 0 {
		delete(r.users, userID)
	}
	r.mu.Unlock()
	r.broadcastOnline()
}

// Snapshot returns the ids of connected users, sorted.
func (r *PresenceRegistry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *PresenceRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// Send writes msg to every connection of userID and reports how many took it.
func (r *PresenceRegistry) Send(userID string, msg []byte) int {
	r.mu.RLock()
	peers := append([]Peer(nil), r.users[userID]...)
	r.mu.RUnlock()
	return r.deliver(peers, msg)
}

func (r *PresenceRegistry) Broadcast(msg []byte) {
	r.mu.RLock()
	var peers []Peer
	for _, ps := range r.users {
		peers = append(peers, ps...)
	}
	r.mu.RUnlock()
	r.deliver(peers, msg)
}

// Close drops every connection. Used at shutdown.
func (r *PresenceRegistry) Close() {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()
	r.mu.Lock()
	users := r.users
	r.users = make(map[string][]Peer)
	r.mu.Unlock()
	for _, peers := range users {
		for _, p := range peers {
			_ = p.Close()
		}
	}
}

func (r *PresenceRegistry) deliver(peers []Peer, msg []byte) int {
	delivered := 0
	for _, p := range peers {
		if err := p.Send(msg); err != nil {
			r.logger.Debug("presence write failed", zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

func (r *PresenceRegistry) broadcastOnline() {
	msg, err := json.Marshal(PushMessage{Event: OnlineUsersChangedEvent, Data: r.Snapshot()})
	if err != nil {
		r.logger.Error("failed to marshal presence snapshot", zap.Error(err))
		return
	}
	r.Broadcast(msg)
}
