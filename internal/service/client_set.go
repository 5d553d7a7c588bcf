package service

import (
	"context"
	"sync"
)

// Client is a connected live-update subscriber.
type Client interface {
	ID() string
	Open() bool
	Send(ctx context.Context, message []byte) error
	Close(reason string) error
}

func NewClientSet() *ClientSet {
	return &ClientSet{
		clients: make(map[string]Client),
	}
}

// ClientSet is the set of connected clients keyed by client id.
type ClientSet struct {
	m       sync.Mutex
	clients map[string]Client
	order   []string
}

func (cs *ClientSet) Add(c Client) {
	cs.m.Lock()
	defer cs.m.Unlock()
	if _, exists := cs.clients[c.ID()]; !exists {
		cs.order = append(cs.order, c.ID())
	}
	cs.clients[c.ID()] = c
}

// Remove drops the client with id and reports whether it was present.
func (cs *ClientSet) Remove(id string) bool {
	cs.m.Lock()
	defer cs.m.Unlock()
	if _, exists := cs.clients[id]; !exists {
		return false
	}
	delete(cs.clients, id)
	for i, cid := range cs.order {
		if cid == id {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns the current members in the order they were added.
func (cs *ClientSet) Snapshot() []Client {
	cs.m.Lock()
	defer cs.m.Unlock()
	snapshot := make([]Client, 0, len(cs.order))
	for _, id := range cs.order {
		snapshot = append(snapshot, cs.clients[id])
	}
	return snapshot
}

func (cs *ClientSet) Len() int {
	cs.m.Lock()
	defer cs.m.Unlock()
	return len(cs.clients)
}
