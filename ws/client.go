package ws

import (
	"sync"
	"time"

	"github.com/folkengine/goname"
	"github.com/gorilla/websocket"
	"github.com/tcriess/lightspeed-court/types"
	"golang.org/x/time/rate"
)

const (
	sendChannelSize = 1000
	maxMessageSize  = 8192
	pongWait        = 2 * time.Minute
	pingPeriod      = time.Minute
	writeWait       = 10 * time.Second
)

// Version is the client software version announced in the ID packet.
type Version struct {
	Release int
	Major   int
	Minor   int
}

// Session is the per-connection state. It is copied out with Client.Session and changed with Client.update.
type Session struct {
	IPID     string
	HWID     string
	OOCName  string
	CharID   int
	CharName string
	Showname string
	Pos      string

	Area   int
	Joined bool
	// WebClient marks webAO clients when those are restricted to spectating.
	WebClient bool
	// Identified is set by the first ID packet.
	Identified bool
	Version    Version

	Authenticated bool
	ModeratorName string
	Permissions   types.Permission

	DJBlocked bool
	// Password is matched against area passwords on join.
	Password string
}

// Client is a middleman between the websocket connection and the server.
type Client struct {
	server *Server
	id     int
	ip     string

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound packets.
	Send chan []byte

	limiter   *rate.Limiter
	doneChan  chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	session Session

	// WaitGroup which keeps track of running read/write loops.
	sync.WaitGroup
}

func NewClient(server *Server, conn *websocket.Conn, ip string) *Client {
	cfg := server.Cfg
	return &Client{
		server:   server,
		ip:       ip,
		conn:     conn,
		Send:     make(chan []byte, sendChannelSize),
		limiter:  rate.NewLimiter(rate.Limit(cfg.PacketRate), cfg.PacketBurst),
		doneChan: make(chan struct{}),
		session: Session{
			IPID:    IPID(ip, cfg.IPIDSalt),
			OOCName: goname.New(goname.FantasyMap).FirstLast(),
			CharID:  -1,
		},
	}
}

// IsSpectator is true for clients without a character.
func (s Session) IsSpectator() bool {
	return s.CharID == -1
}

func (c *Client) ID() int {
	return c.id
}

func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) update(f func(*Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.session)
}

func (c *Client) actor() types.Actor {
	s := c.Session()
	return types.Actor{
		CharName: s.CharName,
		OOCName:  s.OOCName,
		IPID:     s.IPID,
		HWID:     s.HWID,
		UID:      itoa(c.id),
	}
}

// displayName is the character name, or the OOC name for spectators.
func (c *Client) displayName() string {
	s := c.Session()
	if s.CharName != "" {
		return s.CharName
	}
	return s.OOCName
}

// SendPacket queues p for the write loop. A client that does not keep up loses packets.
func (c *Client) SendPacket(p *types.Packet) {
	select {
	case <-c.doneChan:
		return
	default:
	}
	select {
	case c.Send <- []byte(p.Encode()):
	default:
		c.server.logger.Warn("send queue full, dropping packet", "client", c.id, "header", p.Header)
	}
}

func (c *Client) SendServerMessage(message string) {
	c.SendPacket(types.NewPacket("CT", c.server.Cfg.ServerName, message, "1"))
}

// Close ends the read and write loops. Packets queued before are still written.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.doneChan)
	})
}

func (c *Client) closed() bool {
	select {
	case <-c.doneChan:
		return true
	default:
		return false
	}
}

// ReadLoop pumps packets from the websocket connection to the dispatcher.
//
// The application runs ReadLoop in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadLoop() {
	logger := c.server.logger.With("client", c.id)
	defer func() {
		c.server.disconnect(c)
		// the write loop flushes the queue and closes the connection
		c.Close()
		c.Done()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Info("ws closed unexpected", "error", err)
			} else {
				logger.Debug("could not read message", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		for _, frame := range types.SplitFrames(string(raw)) {
			if !c.limiter.Allow() {
				logger.Warn("packet rate exceeded, dropping packet")
				continue
			}
			packet, err := types.DecodePacket(frame)
			if err != nil {
				logger.Debug("could not decode packet", "error", err)
				continue
			}
			c.server.Dispatcher.Dispatch(c, packet)
			if c.closed() {
				return
			}
		}
	}
}

// WriteLoop pumps packets to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.Done()
	}()
	for {
		select {
		case message := <-c.Send:
			if err := c.write(message); err != nil {
				c.server.logger.Debug("could not write to ws connection, exiting write loop", "client", c.id)
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.doneChan:
			// flush whatever was queued before the close, f.e. a BD or KK packet
			for {
				select {
				case message := <-c.Send:
					if err := c.write(message); err != nil {
						return
					}
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		}
	}
}

func (c *Client) write(message []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}
