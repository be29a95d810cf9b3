package ws

import (
	"sync"

	"github.com/tcriess/lightspeed-court/room"
)

// HubGuard serialises access to a room.Hub. It is never held while waiting on an area actor.
type HubGuard struct {
	mu  sync.Mutex
	hub *room.Hub
}

func NewHubGuard(hub *room.Hub) *HubGuard {
	return &HubGuard{hub: hub}
}

func (g *HubGuard) Do(f func(*room.Hub)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f(g.hub)
}

func (g *HubGuard) Index() int {
	return g.hub.Index()
}

func (g *HubGuard) Name() string {
	return g.hub.Name()
}
