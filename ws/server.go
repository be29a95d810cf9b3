package ws

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/tcriess/lightspeed-court/auth"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/eventlog"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/persistence"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
	"golang.org/x/time/rate"
)

// Server holds the areas, hubs and connected clients.
type Server struct {
	Cfg        *config.Config
	Areas      []*AreaActor
	Hubs       []*HubGuard
	Registry   *Registry
	Dispatcher *Dispatcher
	Events     *eventlog.Router
	Persister  persistence.Persister
	Auth       *auth.Authenticator

	musicSet      map[string]struct{}
	backgroundSet map[string]struct{}
	upgrader      websocket.Upgrader
	logger        hclog.Logger
	now           func() time.Time
	wg            sync.WaitGroup
}

// NewServer builds the areas and hubs from the configuration. events and persister may be nil.
func NewServer(cfg *config.Config, events *eventlog.Router, persister persistence.Persister) *Server {
	s := &Server{
		Cfg:           cfg,
		Registry:      NewRegistry(cfg.MaxPlayers),
		Events:        events,
		Persister:     persister,
		Auth:          &auth.Authenticator{Cfg: cfg, Persister: persister, Roles: cfg.Roles()},
		musicSet:      make(map[string]struct{}, len(cfg.Music)),
		backgroundSet: make(map[string]struct{}, len(cfg.Backgrounds)),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: globals.AppLogger.Named("ws"),
		now:    time.Now,
	}
	for _, m := range cfg.Music {
		s.musicSet[m] = struct{}{}
	}
	for _, bg := range cfg.Backgrounds {
		s.backgroundSet[strings.ToLower(bg)] = struct{}{}
	}
	for i, hc := range cfg.Hubs {
		s.Hubs = append(s.Hubs, NewHubGuard(room.NewHub(i, hc)))
	}
	for i, ac := range cfg.Areas {
		area := room.New(i, ac)
		if area.Hub() >= len(s.Hubs) {
			s.logger.Warn("area refers to unknown hub, using hub 0", "area", area.Name(), "hub", area.Hub())
			area.SetHub(0)
		}
		actor := NewAreaActor(area, s.summarize)
		actor.onPublish = s.areaChanged
		fg := cfg.FloodguardConfig
		actor.icLimiter = rate.NewLimiter(rate.Limit(fg.Rate), fg.Burst)
		s.Areas = append(s.Areas, actor)
	}
	s.Dispatcher = NewDispatcher(s)
	return s
}

// Run starts the area actors. They stop when ctx is cancelled; Wait blocks until then.
func (s *Server) Run(ctx context.Context) {
	for _, a := range s.Areas {
		s.wg.Add(1)
		go func(a *AreaActor) {
			defer s.wg.Done()
			a.Run(ctx)
		}(a)
	}
}

func (s *Server) Wait() {
	s.wg.Wait()
}

// ServeWS upgrades the request and runs the client loops.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade error", "error", err)
		return
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	c := NewClient(s, conn, ip)
	if _, err := s.Registry.Add(c); err != nil {
		s.logger.Warn("rejecting client", "error", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(types.NewPacket("BD", "This server is full.").Encode()))
		conn.Close()
		return
	}
	s.logger.Debug("client connected", "client", c.id, "ipid", c.Session().IPID)
	c.SendPacket(types.NewPacket("decryptor", "34"))
	c.Add(2)
	go c.WriteLoop()
	go c.ReadLoop()
}

// disconnect removes c from the registry and from its area.
func (s *Server) disconnect(c *Client) {
	s.Registry.Remove(c)
	sess := c.Session()
	if !sess.Joined {
		return
	}
	actor := s.Areas[sess.Area]
	actor.Post(func(a *room.Area) {
		a.ClientLeft(sess.CharID, c.id)
		if a.RemoveOwner(c.id) {
			s.broadcastServerMessage(a, "The last CM left, the area has been unlocked.")
		}
		a.Uninvite(c.id)
	})
	s.hub(actor.Summary().Hub).Do(func(h *room.Hub) {
		h.RemoveClient()
		h.RemoveOwner(c.id)
	})
	s.emit(types.NewDisconnectEvent(c.actor(), actor.Summary().Name, s.hub(actor.Summary().Hub).Name()))
}

func (s *Server) hub(index int) *HubGuard {
	if index < 0 || index >= len(s.Hubs) {
		return s.Hubs[0]
	}
	return s.Hubs[index]
}

func (s *Server) areaByName(name string) (int, bool) {
	for _, a := range s.Areas {
		if a.Summary().Name == name {
			return a.Index(), true
		}
	}
	return 0, false
}

func (s *Server) emit(event *types.LogEvent) {
	s.Events.Emit(event)
}

func (s *Server) summarize(a *room.Area) AreaSummary {
	cms := make([]string, 0)
	for _, id := range a.Owners() {
		if c := s.Registry.Get(id); c != nil {
			cms = append(cms, c.displayName()+" ["+itoa(id)+"]")
		}
	}
	cm := "FREE"
	if len(cms) > 0 {
		cm = strings.Join(cms, ", ")
	}
	return AreaSummary{
		Index:   a.Index(),
		Name:    a.Name(),
		Hub:     a.Hub(),
		Players: a.PlayerCount(),
		Status:  a.Status().String(),
		CMs:     cm,
		Lock:    a.LockStatus().String(),
	}
}

const (
	arupPlayers = iota
	arupStatus
	arupCM
	arupLock
)

func (s *Server) areaChanged(prev, next AreaSummary) {
	if prev.Players != next.Players {
		s.sendARUP(arupPlayers)
	}
	if prev.Status != next.Status {
		s.sendARUP(arupStatus)
	}
	if prev.CMs != next.CMs {
		s.sendARUP(arupCM)
	}
	if prev.Lock != next.Lock {
		s.sendARUP(arupLock)
	}
}

func (s *Server) arupPacket(kind int) *types.Packet {
	args := make([]string, 0, len(s.Areas)+1)
	args = append(args, itoa(kind))
	for _, a := range s.Areas {
		sum := a.Summary()
		switch kind {
		case arupPlayers:
			players := sum.Players
			s.hub(sum.Hub).Do(func(h *room.Hub) {
				if h.HidePlayerCount() {
					players = -1
				}
			})
			args = append(args, itoa(players))
		case arupStatus:
			args = append(args, sum.Status)
		case arupCM:
			args = append(args, sum.CMs)
		case arupLock:
			args = append(args, sum.Lock)
		}
	}
	return types.NewPacket("ARUP", args...)
}

func (s *Server) sendARUP(kind int) {
	p := s.arupPacket(kind)
	for _, c := range s.Registry.Clients() {
		if c.Session().Joined {
			c.SendPacket(p)
		}
	}
}

// broadcast sends p to the members of a. Must run on a's actor.
// broadcast sends p to the clients of a. A client that moved on is skipped even while the source area has not
// processed its leave yet.
func (s *Server) broadcast(a *room.Area, p *types.Packet) {
	for _, id := range a.JoinedIDs() {
		if c := s.Registry.Get(id); c != nil && c.Session().Area == a.Index() {
			c.SendPacket(p)
		}
	}
}

func (s *Server) broadcastServerMessage(a *room.Area, message string) {
	s.broadcast(a, types.NewPacket("CT", s.Cfg.ServerName, message, "1"))
}

// broadcastHub sends p to every joined client in one of the areas of the given hub.
func (s *Server) broadcastHub(hub int, p *types.Packet) {
	for _, c := range s.Registry.Clients() {
		sess := c.Session()
		if sess.Joined && s.Areas[sess.Area].Summary().Hub == hub {
			c.SendPacket(p)
		}
	}
}

func (s *Server) broadcastAll(p *types.Packet) {
	for _, c := range s.Registry.Clients() {
		if c.Session().Joined {
			c.SendPacket(p)
		}
	}
}

func (s *Server) sendModerators(p *types.Packet) {
	for _, c := range s.Registry.Clients() {
		if c.Session().Authenticated {
			c.SendPacket(p)
		}
	}
}

func (s *Server) isMusic(track string) bool {
	_, ok := s.musicSet[track]
	return ok
}

func (s *Server) isBackground(bg string) bool {
	_, ok := s.backgroundSet[strings.ToLower(bg)]
	return ok
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
