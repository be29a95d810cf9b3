package ws

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/auth"
	"github.com/tcriess/lightspeed-court/types"
)

const loginTimeout = 10 * time.Second

var moderationCommands = []CommandInfo{
	{Name: "login", Usage: "/login <modpass> | /login <user> <password> | /login oidc <provider> <token>", Sensitive: true, Handle: cmdLogin},
	{Name: "logout", Usage: "/logout", Handle: cmdLogout},
	{Name: "kick", MinArgs: 1, Permission: types.PermissionKick, Usage: "/kick <ipid|id> [reason]", Handle: cmdKick},
	{Name: "ban", MinArgs: 2, Permission: types.PermissionBan, Usage: "/ban <ipid> <duration|perma> [reason]", Handle: cmdBan},
	{Name: "unban", MinArgs: 1, Permission: types.PermissionBan, Usage: "/unban <ban id>", Handle: cmdUnban},
	{Name: "block_dj", MinArgs: 1, Permission: types.PermissionKick, Usage: "/block_dj <id>", Handle: cmdBlockDJ(true)},
	{Name: "unblock_dj", MinArgs: 1, Permission: types.PermissionKick, Usage: "/unblock_dj <id>", Handle: cmdBlockDJ(false)},
	{Name: "announce", MinArgs: 1, Permission: types.PermissionAnnounce, Usage: "/announce <message>", Handle: cmdAnnounce},
	{Name: "m", MinArgs: 1, Permission: types.PermissionModChat, Usage: "/m <message>", Handle: cmdModChat},
}

// cmdLogin verifies the credentials on the read loop, the lookup may block.
func cmdLogin(ctx *HandlerContext, args []string) error {
	if ctx.Session().Authenticated {
		return reject("You are already logged in.")
	}
	if len(args) == 0 {
		return reject("Usage: /login <modpass> | /login <user> <password> | /login oidc <provider> <token>")
	}
	s := ctx.Server
	c := ctx.Client
	area := ctx.Area.Name()
	ctx.After(func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		name, role, err := s.Auth.Login(reqCtx, args)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				s.logger.Error("login failed", "client", c.id, "error", err)
			}
			c.SendServerMessage("Incorrect credentials.")
			c.SendPacket(types.NewPacket("AUTH", "0"))
			s.emit(types.NewLoginEvent(c.actor(), area, "", false))
			return
		}
		c.update(func(sess *Session) {
			sess.Authenticated = true
			sess.ModeratorName = name
			sess.Permissions = role.Permissions
		})
		c.SendServerMessage("Logged in as " + name + " (" + role.Name + ").")
		c.SendPacket(types.NewPacket("AUTH", "1"))
		s.emit(types.NewLoginEvent(c.actor(), area, name, true))
	})
	return nil
}

func cmdLogout(ctx *HandlerContext, _ []string) error {
	if !ctx.Session().Authenticated {
		return reject("You are not logged in.")
	}
	ctx.Client.update(func(sess *Session) {
		sess.Authenticated = false
		sess.ModeratorName = ""
		sess.Permissions = types.PermissionNone
	})
	ctx.ServerMessage("You have been logged out.")
	ctx.Reply("AUTH", "-1")
	return nil
}

// kickTargets resolves an IPID or a client id.
func kickTargets(ctx *HandlerContext, arg string) []*Client {
	if targets := ctx.Server.Registry.ByIPID(arg); len(targets) > 0 {
		return targets
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if c := ctx.Server.Registry.Get(id); c != nil {
			return []*Client{c}
		}
	}
	return nil
}

func cmdKick(ctx *HandlerContext, args []string) error {
	targets := kickTargets(ctx, args[0])
	if len(targets) == 0 {
		return reject("No client matches %s.", args[0])
	}
	reason := strings.Join(args[1:], " ")
	moderator := ctx.Session().ModeratorName
	for _, t := range targets {
		t.SendPacket(types.NewPacket("KK", reason))
		t.Close()
		ctx.Server.emit(types.NewKickEvent(t.actor(), moderator))
	}
	ctx.ServerMessage("Kicked " + itoa(len(targets)) + " client(s).")
	return nil
}

// ParseBanDuration accepts "perma", Go durations ("12h") and days ("3d").
func ParseBanDuration(s string) (time.Duration, error) {
	if strings.EqualFold(s, "perma") {
		return types.PermanentBan, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return 0, errors.Errorf("invalid duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func cmdBan(ctx *HandlerContext, args []string) error {
	s := ctx.Server
	if s.Persister == nil {
		return reject("Bans are not available, persistence is not configured.")
	}
	ipid := args[0]
	duration, err := ParseBanDuration(args[1])
	if err != nil {
		return reject("Invalid ban duration %s.", args[1])
	}
	reason := strings.Join(args[2:], " ")
	moderator := ctx.Session().ModeratorName
	c := ctx.Client
	ctx.After(func() {
		targets := s.Registry.ByIPID(ipid)
		ban := &types.Ban{
			IPID:      ipid,
			Time:      s.now(),
			Reason:    reason,
			Duration:  duration,
			Moderator: moderator,
		}
		if len(targets) > 0 {
			ban.HWID = targets[0].Session().HWID
			ban.IP = targets[0].ip
		}
		if err := s.Persister.StoreBan(ban); err != nil {
			s.logger.Error("could not store ban", "ipid", ipid, "error", err)
			c.SendServerMessage("The ban could not be stored.")
			return
		}
		for _, t := range targets {
			t.SendPacket(types.NewPacket("KB", reason))
			t.Close()
		}
		durationText := "permanent"
		if duration != types.PermanentBan {
			durationText = duration.String()
		}
		s.emit(types.NewBanEvent(types.Actor{IPID: ipid, HWID: ban.HWID}, moderator, durationText))
		c.SendServerMessage("Banned " + ipid + " (" + durationText + "), ban ID " + itoa(ban.Id) + ".")
	})
	return nil
}

func cmdUnban(ctx *HandlerContext, args []string) error {
	s := ctx.Server
	if s.Persister == nil {
		return reject("Bans are not available, persistence is not configured.")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return reject("That does not look like a valid ban ID.")
	}
	c := ctx.Client
	ctx.After(func() {
		if err := s.Persister.RevokeBan(id); err != nil {
			s.logger.Warn("could not revoke ban", "id", id, "error", err)
			c.SendServerMessage("Could not revoke ban " + itoa(id) + ".")
			return
		}
		c.SendServerMessage("Revoked ban " + itoa(id) + ".")
	})
	return nil
}

func cmdBlockDJ(block bool) CommandHandler {
	return func(ctx *HandlerContext, args []string) error {
		target, err := targetClient(ctx, args[0])
		if err != nil {
			return err
		}
		target.update(func(sess *Session) { sess.DJBlocked = block })
		if block {
			target.SendServerMessage("You were blocked from changing the music.")
			ctx.ServerMessage("Blocked ID " + itoa(target.id) + " from changing the music.")
		} else {
			target.SendServerMessage("You may change the music again.")
			ctx.ServerMessage("Unblocked ID " + itoa(target.id) + ".")
		}
		return nil
	}
}

func cmdAnnounce(ctx *HandlerContext, args []string) error {
	ctx.Server.broadcastAll(types.NewPacket("CT", ctx.Server.Cfg.ServerName,
		"=== Announcement ===\n"+strings.Join(args, " "), "1"))
	return nil
}

func cmdModChat(ctx *HandlerContext, args []string) error {
	ctx.Server.sendModerators(types.NewPacket("CT", "[M]"+strings.TrimSpace(ctx.Args()[0]), strings.Join(args, " "), "0"))
	return nil
}
