package ws

import (
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

// PacketHandler validates a packet completely before it mutates anything. The returned error decides what the
// client is told, see Dispatcher.fail.
type PacketHandler func(ctx *HandlerContext) error

type PacketInfo struct {
	Header     string
	MinArgs    int
	Permission types.Permission
	// Direct handlers do not touch area state and run on the connection's read loop instead of the area actor.
	Direct bool
	Handle PacketHandler
}

// HandlerContext is passed to packet and command handlers.
type HandlerContext struct {
	Server *Server
	Client *Client
	Packet *types.Packet
	// Area and Actor are the client's current area; Area is nil for direct handlers.
	Area  *room.Area
	Actor *AreaActor

	after []func()
}

func (ctx *HandlerContext) Args() []string {
	return ctx.Packet.Args
}

// After registers f to run on the read loop once the handler has returned and the area task has finished. It is
// used for work that touches other areas or blocks, f.e. area changes and logins.
func (ctx *HandlerContext) After(f func()) {
	ctx.after = append(ctx.after, f)
}

func (ctx *HandlerContext) Session() Session {
	return ctx.Client.Session()
}

func (ctx *HandlerContext) Reply(header string, args ...string) {
	ctx.Client.SendPacket(types.NewPacket(header, args...))
}

func (ctx *HandlerContext) ServerMessage(message string) {
	ctx.Client.SendServerMessage(message)
}

// Broadcast sends p to all members of the current area.
func (ctx *HandlerContext) Broadcast(p *types.Packet) {
	ctx.Server.broadcast(ctx.Area, p)
}

func (ctx *HandlerContext) AreaMessage(message string) {
	ctx.Server.broadcastServerMessage(ctx.Area, message)
}

// HasPermission reports whether the client holds perm. Owners of the current area hold CM there.
func (ctx *HandlerContext) HasPermission(perm types.Permission) bool {
	if perm == types.PermissionCM && ctx.Area != nil && ctx.Area.IsOwner(ctx.Client.id) {
		return true
	}
	return ctx.Session().Permissions.Has(perm)
}

func (ctx *HandlerContext) require(perm types.Permission, action string) error {
	if ctx.HasPermission(perm) {
		return nil
	}
	return &PermissionDeniedError{Action: action}
}

// Dispatcher routes packets to their handlers.
type Dispatcher struct {
	server   *Server
	packets  map[string]PacketInfo
	commands map[string]CommandInfo
	logger   hclog.Logger
}

func NewDispatcher(s *Server) *Dispatcher {
	d := &Dispatcher{
		server:   s,
		packets:  make(map[string]PacketInfo),
		commands: make(map[string]CommandInfo),
		logger:   s.logger.Named("dispatch"),
	}
	d.registerPackets()
	d.registerCommands()
	return d
}

func (d *Dispatcher) register(info PacketInfo) {
	d.packets[info.Header] = info
}

// Dispatch looks up the handler, checks arity and permission and runs the handler on the area actor. Unknown
// packets are ignored.
func (d *Dispatcher) Dispatch(c *Client, p *types.Packet) {
	info, ok := d.packets[p.Header]
	if !ok {
		d.logger.Debug("ignoring unknown packet", "client", c.id, "header", p.Header)
		return
	}
	if len(p.Args) < info.MinArgs {
		d.fail(c, p, protocolViolation(p.Header))
		return
	}
	if !info.Direct && !c.Session().Joined {
		d.logger.Debug("ignoring packet before the handshake finished", "client", c.id, "header", p.Header)
		return
	}
	ctx := &HandlerContext{Server: d.server, Client: c, Packet: p}
	var err error
	if info.Direct {
		if !c.Session().Permissions.Has(info.Permission) {
			err = &PermissionDeniedError{Action: p.Header}
		} else {
			err = info.Handle(ctx)
		}
	} else {
		ctx.Actor = d.server.Areas[c.Session().Area]
		ok := ctx.Actor.Do(func(a *room.Area) {
			ctx.Area = a
			if !ctx.HasPermission(info.Permission) {
				err = &PermissionDeniedError{Action: p.Header}
				return
			}
			err = info.Handle(ctx)
		})
		if !ok {
			return
		}
	}
	d.fail(c, p, err)
	for _, f := range ctx.after {
		f()
	}
}

// fail maps handler errors to what the client sees.
func (d *Dispatcher) fail(c *Client, p *types.Packet, err error) {
	if err == nil {
		return
	}
	var fatal *FatalError
	var denied *PermissionDeniedError
	var rejected *PolicyRejectedError
	switch {
	case errors.As(err, &fatal):
		d.logger.Info("closing connection", "client", c.id, "header", p.Header, "reason", fatal.Message)
		c.SendPacket(types.NewPacket("BD", fatal.Message))
		c.Close()
	case errors.As(err, &denied):
		c.SendServerMessage("You do not have permission to use that command.")
	case errors.As(err, &rejected):
		c.SendServerMessage(rejected.Reason)
	default:
		d.logger.Error("packet handler failed", "client", c.id, "header", p.Header, "error", err)
	}
}
