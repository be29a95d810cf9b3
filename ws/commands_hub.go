package ws

import (
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

var hubCommands = []CommandInfo{
	{Name: "hub_cm", Usage: "/hub_cm", Handle: cmdHubCM},
	{Name: "hub_lock", Usage: "/hub_lock", Handle: hubAction(func(ctx *HandlerContext, h *room.Hub) string {
		h.Lock()
		return "This hub is now locked."
	})},
	{Name: "hub_unlock", Usage: "/hub_unlock", Handle: hubAction(func(ctx *HandlerContext, h *room.Hub) string {
		h.Unlock()
		return "This hub is now unlocked."
	})},
	{Name: "hub_spectatable", Usage: "/hub_spectatable", Handle: hubAction(func(ctx *HandlerContext, h *room.Hub) string {
		h.Spectatable()
		return "This hub is now spectatable."
	})},
	{Name: "hub_invite", MinArgs: 1, Usage: "/hub_invite <id>", Handle: cmdHubInvite(true)},
	{Name: "hub_uninvite", MinArgs: 1, Usage: "/hub_uninvite <id>", Handle: cmdHubInvite(false)},
	{Name: "hub_protect", Usage: "/hub_protect", Handle: hubAction(func(ctx *HandlerContext, h *room.Hub) string {
		h.ToggleProtected()
		if h.IsProtected() {
			return "This hub is now protected."
		}
		return "This hub is no longer protected."
	})},
	{Name: "hub_hideplayercount", Usage: "/hub_hideplayercount", Handle: hubAction(func(ctx *HandlerContext, h *room.Hub) string {
		h.ToggleHidePlayerCount()
		ctx.After(func() { ctx.Server.sendARUP(arupPlayers) })
		if h.HidePlayerCount() {
			return "The player count of this hub is now hidden."
		}
		return "The player count of this hub is now shown."
	})},
}

func (ctx *HandlerContext) hubGuard() *HubGuard {
	return ctx.Server.hub(ctx.Area.Hub())
}

// isHubOwner: hub owners and clients with the CM role permission manage a hub.
func (ctx *HandlerContext) isHubOwner(h *room.Hub) bool {
	return h.IsOwner(ctx.Client.id) || ctx.Session().Permissions.Has(types.PermissionCM)
}

// hubAction runs f on the current hub if the client manages it and announces the returned message to the hub.
func hubAction(f func(ctx *HandlerContext, h *room.Hub) string) CommandHandler {
	return func(ctx *HandlerContext, _ []string) error {
		var err error
		var message string
		guard := ctx.hubGuard()
		guard.Do(func(h *room.Hub) {
			if !ctx.isHubOwner(h) {
				err = &PermissionDeniedError{Action: "hub"}
				return
			}
			message = f(ctx, h)
		})
		if err != nil {
			return err
		}
		ctx.Server.broadcastHub(guard.Index(), types.NewPacket("CT", ctx.Server.Cfg.ServerName, message, "1"))
		return nil
	}
}

func cmdHubCM(ctx *HandlerContext, _ []string) error {
	var err error
	ctx.hubGuard().Do(func(h *room.Hub) {
		roleCM := ctx.Session().Permissions.Has(types.PermissionCM)
		switch {
		case h.IsOwner(ctx.Client.id):
			err = reject("You are already a CM of this hub.")
		case h.IsProtected() && !roleCM:
			err = reject("This hub is protected, you may not become its CM.")
		case len(h.Owners()) > 0 && !roleCM:
			err = reject("You cannot become a CM of this hub.")
		default:
			h.AddOwner(ctx.Client.id)
		}
	})
	if err != nil {
		return err
	}
	ctx.ServerMessage("You are now CM of hub " + ctx.hubGuard().Name() + ".")
	return nil
}

func cmdHubInvite(invite bool) CommandHandler {
	return func(ctx *HandlerContext, args []string) error {
		target, err := targetClient(ctx, args[0])
		if err != nil {
			return err
		}
		ctx.hubGuard().Do(func(h *room.Hub) {
			switch {
			case !ctx.isHubOwner(h):
				err = &PermissionDeniedError{Action: "hub"}
			case invite && !h.Invite(target.id):
				err = reject("That ID is already on the hub's invite list.")
			case !invite && !h.Uninvite(target.id):
				err = reject("That ID is not on the hub's invite list.")
			}
		})
		if err != nil {
			return err
		}
		if invite {
			target.SendServerMessage("You were invited to hub " + ctx.hubGuard().Name() + ".")
			ctx.ServerMessage("You invited ID " + itoa(target.id) + " to this hub.")
		} else {
			ctx.ServerMessage("You uninvited ID " + itoa(target.id) + " from this hub.")
		}
		return nil
	}
}
