package room

import "github.com/tcriess/lightspeed-court/globals"

// Hub groups areas. It shares the access-control semantics of an area but carries no
// testimony, evidence or media state. A hub does not know its areas, areas refer to
// their hub by index.
type Hub struct {
	Access

	index           int
	name            string
	protected       bool
	playerCount     int
	hidePlayerCount bool
}

// NewHub builds a hub from its configured section. The name may carry the hub index as
// a "<index>:" prefix, which is stripped.
func NewHub(index int, cfg HubConfig) *Hub {
	_, name := SplitHubPrefix(cfg.Name)
	lock, ok := ParseLockStatus(cfg.LockStatus)
	if !ok {
		globals.AppLogger.Named("hub").Warn("invalid lock_status, using FREE", "hub", name, "value", cfg.LockStatus)
	}
	return &Hub{
		Access:          NewAccess(lock),
		index:           index,
		name:            name,
		protected:       cfg.Protected,
		hidePlayerCount: cfg.HidePlayerCount,
	}
}

func (h *Hub) Index() int   { return h.index }
func (h *Hub) Name() string { return h.name }

func (h *Hub) IsProtected() bool     { return h.protected }
func (h *Hub) ToggleProtected()      { h.protected = !h.protected }
func (h *Hub) HidePlayerCount() bool { return h.hidePlayerCount }
func (h *Hub) ToggleHidePlayerCount() {
	h.hidePlayerCount = !h.hidePlayerCount
}

// AddClient and RemoveClient only count; capacity is enforced elsewhere.
func (h *Hub) AddClient()       { h.playerCount++ }
func (h *Hub) RemoveClient()    { h.playerCount-- }
func (h *Hub) PlayerCount() int { return h.playerCount }
