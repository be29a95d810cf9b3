package ws

import (
	"strings"

	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

// changeArea moves c into the area with the given index. It runs on the client's read loop: the destination
// validates and admits the client first, only then the client leaves its old area.
func (s *Server) changeArea(c *Client, target int) error {
	if target < 0 || target >= len(s.Areas) {
		return reject("Area not found.")
	}
	sess := c.Session()
	if sess.Joined && sess.Area == target {
		return reject("You are already in this area.")
	}
	dst := s.Areas[target]
	dstHub := s.hub(dst.Summary().Hub)
	bypass := sess.Permissions.Has(types.PermissionBypassLocks)

	var err error
	dstHub.Do(func(h *room.Hub) {
		if h.LockStatus() == room.Locked && !h.IsInvited(c.id) && !bypass {
			err = reject("Hub %s is locked, you must be invited to enter.", h.Name())
		}
	})
	if err != nil {
		return err
	}

	charID := sess.CharID
	if sess.WebClient {
		charID = -1
	}
	ok := dst.Do(func(a *room.Area) {
		invited := a.IsInvited(c.id) || bypass
		switch a.LockStatus() {
		case room.Locked:
			if !invited {
				err = reject("Area %s is locked.", a.Name())
				return
			}
		case room.Spectatable:
			if !invited && charID != -1 {
				c.SendServerMessage("Area " + a.Name() + " is spectate-only, you joined as spectator.")
				charID = -1
			}
		}
		if a.Password() != "" && sess.Password != a.Password() && !bypass {
			err = reject("Area %s is password protected. Use /password to set your password.", a.Name())
			return
		}
		if charID != -1 && a.IsCharacterTaken(charID) {
			c.SendServerMessage("Your character is taken in this area, you joined as spectator.")
			charID = -1
		}
		a.ClientJoined(charID, c.id)
		c.update(func(sess *Session) {
			sess.Area = target
			sess.Joined = true
			sess.CharID = charID
			if charID == -1 {
				sess.CharName = ""
			}
		})
		s.sendAreaState(c, a)
	})
	if !ok {
		return nil
	}
	if err != nil {
		return err
	}

	if !sess.Joined {
		dstHub.Do(func(h *room.Hub) { h.AddClient() })
		return nil
	}
	// Until this task runs the client is a member of both areas, broadcast only reaches it in its session area.
	src := s.Areas[sess.Area]
	src.Post(func(a *room.Area) {
		a.ClientLeft(sess.CharID, c.id)
		if a.RemoveOwner(c.id) {
			s.broadcastServerMessage(a, "The last CM left, the area has been unlocked.")
		}
	})
	srcHub := s.hub(src.Summary().Hub)
	if srcHub != dstHub {
		srcHub.Do(func(h *room.Hub) { h.RemoveClient() })
		dstHub.Do(func(h *room.Hub) { h.AddClient() })
	}
	s.emit(types.NewChangeAreaEvent(c.actor(), src.Summary().Name, srcHub.Name(), dst.Summary().Name))
	return nil
}

// sendAreaState sends everything a client needs after joining a. Must run on a's actor.
func (s *Server) sendAreaState(c *Client, a *room.Area) {
	c.SendPacket(types.NewPacket("HP", "1", itoa(a.DefHP())))
	c.SendPacket(types.NewPacket("HP", "2", itoa(a.ProHP())))
	c.SendPacket(types.NewPacket("BN", a.Background()))
	c.SendPacket(evidenceList(a))
	c.SendPacket(types.NewPacket("MC", a.CurrentMusic(), "-1"))
	c.SendPacket(s.charsCheck(a))
	s.sendARUPTo(c)
	c.SendServerMessage("You moved to area " + a.Name() + ".")
	if a.SendAreaMessageOnJoin() {
		c.SendServerMessage(a.AreaMessage())
	}
}

func (s *Server) sendARUPTo(c *Client) {
	for _, kind := range []int{arupPlayers, arupStatus, arupCM, arupLock} {
		c.SendPacket(s.arupPacket(kind))
	}
}

func (s *Server) charsCheck(a *room.Area) *types.Packet {
	taken := make([]string, len(s.Cfg.Characters))
	for i := range taken {
		taken[i] = "0"
		if a.IsCharacterTaken(i) {
			taken[i] = "-1"
		}
	}
	return types.NewPacket("CharsCheck", taken...)
}

func evidenceList(a *room.Area) *types.Packet {
	evidence := a.Evidence()
	args := make([]string, 0, len(evidence))
	for _, e := range evidence {
		args = append(args, strings.Join([]string{
			types.Escape(e.Name), types.Escape(e.Description), types.Escape(e.Image),
		}, "&"))
	}
	return types.NewRawPacket("LE", args...)
}
