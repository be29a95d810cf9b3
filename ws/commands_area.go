package ws

import (
	"strconv"
	"strings"

	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

var areaCommands = []CommandInfo{
	{Name: "cm", Usage: "/cm [id]", Handle: cmdCM},
	{Name: "uncm", Usage: "/uncm [id]", Handle: cmdUnCM},
	{Name: "lock", Permission: types.PermissionCM, Usage: "/lock", Handle: cmdLock},
	{Name: "unlock", Permission: types.PermissionCM, Usage: "/unlock", Handle: cmdUnlock},
	{Name: "spectatable", Permission: types.PermissionCM, Usage: "/spectatable", Handle: cmdSpectatable},
	{Name: "invite", MinArgs: 1, Permission: types.PermissionCM, Usage: "/invite <id>", Handle: cmdInvite},
	{Name: "uninvite", MinArgs: 1, Permission: types.PermissionCM, Usage: "/uninvite <id>", Handle: cmdUninvite},
	{Name: "status", MinArgs: 1, Usage: "/status <idle|rp|casing|lfp|recess|gaming|erp|yablachki>", Handle: cmdStatus},
	{Name: "bg", MinArgs: 1, Usage: "/bg <background>", Handle: cmdBackground},
	{Name: "bglock", Permission: types.PermissionBgLock, Usage: "/bglock", Handle: cmdBgLock},
	{Name: "doc", Usage: "/doc [url]", Handle: cmdDoc},
	{Name: "cleardoc", Permission: types.PermissionCM, Usage: "/cleardoc", Handle: cmdClearDoc},
	{Name: "area_message", Usage: "/area_message [message]", Handle: cmdAreaMessage},
	{Name: "clear_message", Permission: types.PermissionCM, Usage: "/clear_message", Handle: cmdClearMessage},
	{Name: "judgelog", Permission: types.PermissionCM, Usage: "/judgelog", Handle: cmdJudgelog},
	{Name: "notecard", MinArgs: 1, Usage: "/notecard <text>", Handle: cmdNotecard},
	{Name: "notecard_reveal", Permission: types.PermissionCM, Usage: "/notecard_reveal", Handle: cmdNotecardReveal},
	{Name: "currentmusic", Usage: "/currentmusic", Handle: cmdCurrentMusic},
	{Name: "addsong", MinArgs: 1, Permission: types.PermissionCM, Usage: "/addsong <track>", Handle: cmdAddSong},
	{Name: "toggle_music", Permission: types.PermissionCM, Usage: "/toggle_music", Handle: cmdToggle("Music", (*room.Area).ToggleMusic, (*room.Area).IsMusicAllowed)},
	{Name: "toggle_shouts", Permission: types.PermissionCM, Usage: "/toggle_shouts", Handle: cmdToggle("Shouts", (*room.Area).ToggleShoutAllowed, (*room.Area).IsShoutAllowed)},
	{Name: "toggle_wtce", Permission: types.PermissionCM, Usage: "/toggle_wtce", Handle: cmdToggle("WTCE", (*room.Area).ToggleWtceAllowed, (*room.Area).IsWtceAllowed)},
	{Name: "iniswap", Permission: types.PermissionCM, Usage: "/iniswap", Handle: cmdToggle("Iniswapping", (*room.Area).ToggleIniswap, (*room.Area).IniswapAllowed)},
	{Name: "blankposting", Permission: types.PermissionCM, Usage: "/blankposting", Handle: cmdToggle("Blankposting", (*room.Area).ToggleBlankposting, (*room.Area).BlankpostingAllowed)},
	{Name: "shownames", Permission: types.PermissionCM, Usage: "/shownames", Handle: cmdToggle("Shownames", (*room.Area).ToggleShownames, (*room.Area).ShownameAllowed)},
	{Name: "chillmod", Permission: types.PermissionCM, Usage: "/chillmod", Handle: cmdToggle("Chillmod", (*room.Area).ToggleChillMod, (*room.Area).ChillMod)},
	{Name: "floodguard", Permission: types.PermissionCM, Usage: "/floodguard", Handle: cmdToggle("The floodguard", (*room.Area).ToggleFloodguardActive, (*room.Area).FloodguardActive)},
	{Name: "area_password", Permission: types.PermissionCM, Usage: "/area_password [password]", Sensitive: true, Handle: cmdAreaPassword},
	{Name: "password", Usage: "/password [password]", Sensitive: true, Handle: cmdPassword},
	{Name: "getarea", Usage: "/getarea", Handle: cmdGetArea},
	{Name: "getareas", Usage: "/getareas", Handle: cmdGetAreas},
}

func cmdCM(ctx *HandlerContext, args []string) error {
	a := ctx.Area
	id := ctx.Client.id
	if len(args) > 0 {
		if !a.IsOwner(id) {
			return reject("You must be a CM in this area to add other CMs.")
		}
		target, err := targetClient(ctx, args[0])
		if err != nil {
			return err
		}
		if !a.IsMember(target.id) {
			return reject("That client is not in this area.")
		}
		if a.IsOwner(target.id) {
			return reject("That client is already a CM in this area.")
		}
		a.AddOwner(target.id)
		ctx.AreaMessage("[" + itoa(target.id) + "] " + target.displayName() + " is now CM in this area.")
		return nil
	}
	if a.IsOwner(id) {
		return reject("You are already a CM in this area.")
	}
	roleCM := ctx.Session().Permissions.Has(types.PermissionCM)
	if a.IsProtected() && !roleCM {
		return reject("This area is protected, you may not become CM.")
	}
	if len(a.Owners()) > 0 && !roleCM {
		return reject("You cannot become a CM in this area.")
	}
	a.AddOwner(id)
	ctx.AreaMessage("[" + itoa(id) + "] " + ctx.Client.displayName() + " is now CM in this area.")
	return nil
}

func cmdUnCM(ctx *HandlerContext, args []string) error {
	a := ctx.Area
	id := ctx.Client.id
	if len(args) > 0 {
		if !ctx.HasPermission(types.PermissionCM) && !ctx.HasPermission(types.PermissionUncm) {
			return &PermissionDeniedError{Action: "uncm"}
		}
		target, err := targetClient(ctx, args[0])
		if err != nil {
			return err
		}
		id = target.id
	}
	if !a.IsOwner(id) {
		return reject("That client is not a CM in this area.")
	}
	unlocked := a.RemoveOwner(id)
	ctx.AreaMessage("[" + itoa(id) + "] is no longer CM in this area.")
	if unlocked {
		ctx.AreaMessage("This area is no longer locked.")
	}
	return nil
}

// inviteMembers invites everyone currently in the area, so locking never locks anybody out.
func inviteMembers(a *room.Area) {
	for _, id := range a.JoinedIDs() {
		a.Invite(id)
	}
}

func cmdLock(ctx *HandlerContext, _ []string) error {
	a := ctx.Area
	if a.LockStatus() == room.Locked {
		return reject("This area is already locked.")
	}
	inviteMembers(a)
	a.Lock()
	ctx.AreaMessage("This area is now locked.")
	return nil
}

func cmdUnlock(ctx *HandlerContext, _ []string) error {
	a := ctx.Area
	if a.LockStatus() == room.Free {
		return reject("This area is not locked.")
	}
	a.Unlock()
	ctx.AreaMessage("This area is now unlocked.")
	return nil
}

func cmdSpectatable(ctx *HandlerContext, _ []string) error {
	a := ctx.Area
	if a.LockStatus() == room.Spectatable {
		return reject("This area is already in spectate mode.")
	}
	inviteMembers(a)
	a.Spectatable()
	ctx.AreaMessage("This area is now spectatable.")
	return nil
}

func cmdInvite(ctx *HandlerContext, args []string) error {
	target, err := targetClient(ctx, args[0])
	if err != nil {
		return err
	}
	if !ctx.Area.Invite(target.id) {
		return reject("That ID is already on the invite list.")
	}
	ctx.ServerMessage("You invited ID " + itoa(target.id) + ".")
	target.SendServerMessage("You were invited to area " + ctx.Area.Name() + ".")
	return nil
}

func cmdUninvite(ctx *HandlerContext, args []string) error {
	target, err := targetClient(ctx, args[0])
	if err != nil {
		return err
	}
	if ctx.Area.IsOwner(target.id) {
		return reject("You cannot uninvite a CM.")
	}
	if !ctx.Area.Uninvite(target.id) {
		return reject("That ID is not on the invite list.")
	}
	ctx.ServerMessage("You uninvited ID " + itoa(target.id) + ".")
	return nil
}

func cmdStatus(ctx *HandlerContext, args []string) error {
	a := ctx.Area
	if !a.AllowChangeStatus() && !ctx.HasPermission(types.PermissionCM) {
		return reject("You cannot change the status of this area.")
	}
	if !a.ChangeStatus(args[0]) {
		return reject("That does not look like a valid status. Valid statuses are idle, rp, casing, lfp, recess, gaming, erp, yablachki.")
	}
	ctx.AreaMessage(ctx.Client.displayName() + " changed status to " + a.Status().String() + ".")
	return nil
}

func cmdBackground(ctx *HandlerContext, args []string) error {
	a := ctx.Area
	bg := strings.Join(args, " ")
	if a.BgLocked() && !ctx.HasPermission(types.PermissionBgLock) {
		return reject("This area's background is locked.")
	}
	if !a.IgnoreBgList() && !ctx.Server.isBackground(bg) && !ctx.HasPermission(types.PermissionIgnoreBgList) {
		return reject("Invalid background name.")
	}
	a.SetBackground(bg)
	ctx.Broadcast(types.NewPacket("BN", bg))
	ctx.AreaMessage(ctx.Client.displayName() + " changed the background to " + bg + ".")
	return nil
}

func cmdBgLock(ctx *HandlerContext, _ []string) error {
	a := ctx.Area
	a.ToggleBgLock()
	if a.BgLocked() {
		ctx.AreaMessage("A moderator has locked the background.")
	} else {
		ctx.AreaMessage("A moderator has unlocked the background.")
	}
	return nil
}

func cmdDoc(ctx *HandlerContext, args []string) error {
	a := ctx.Area
	if len(args) == 0 {
		ctx.ServerMessage("Document: " + a.Document())
		return nil
	}
	if err := ctx.require(types.PermissionCM, "doc"); err != nil {
		return err
	}
	a.ChangeDoc(strings.Join(args, " "))
	ctx.AreaMessage(ctx.Client.displayName() + " changed the document.")
	return nil
}

func cmdClearDoc(ctx *HandlerContext, _ []string) error {
	ctx.Area.ChangeDoc(room.DefaultDocument)
	ctx.AreaMessage(ctx.Client.displayName() + " cleared the document.")
	return nil
}

func cmdAreaMessage(ctx *HandlerContext, args []string) error {
	a := ctx.Area
	if len(args) == 0 {
		ctx.ServerMessage(a.AreaMessage())
		return nil
	}
	if err := ctx.require(types.PermissionCM, "area_message"); err != nil {
		return err
	}
	a.ChangeAreaMessage(strings.Join(args, " "))
	ctx.ServerMessage("Updated this area's message.")
	return nil
}

func cmdClearMessage(ctx *HandlerContext, _ []string) error {
	ctx.Area.ClearAreaMessage()
	ctx.ServerMessage("Cleared this area's message.")
	return nil
}

func cmdJudgelog(ctx *HandlerContext, _ []string) error {
	log := ctx.Area.Judgelog()
	if len(log) == 0 {
		ctx.ServerMessage("There have been no judge actions in this area.")
		return nil
	}
	ctx.ServerMessage(strings.Join(log, "\n"))
	return nil
}

func cmdNotecard(ctx *HandlerContext, args []string) error {
	name := ctx.Client.displayName()
	if ctx.Area.AddNotecard(name, strings.Join(args, " ")) {
		ctx.AreaMessage(name + " wrote a note card.")
	}
	return nil
}

func cmdNotecardReveal(ctx *HandlerContext, _ []string) error {
	cards := ctx.Area.RevealNotecards()
	if len(cards) == 0 {
		return reject("There are no cards to reveal in this area.")
	}
	ctx.AreaMessage("Note cards have been revealed.\n" + strings.Join(cards, "\n"))
	return nil
}

func cmdCurrentMusic(ctx *HandlerContext, _ []string) error {
	a := ctx.Area
	if a.CurrentMusic() == "" || a.CurrentMusic() == room.StopTrack {
		ctx.ServerMessage("There is no music playing.")
		return nil
	}
	ctx.ServerMessage("The current song is " + a.CurrentMusic() + " played by " + a.MusicPlayedBy() + ".")
	return nil
}

func cmdAddSong(ctx *HandlerContext, args []string) error {
	track := strings.Join(args, " ")
	if !strings.Contains(track, ".") {
		return reject("A track needs a file extension.")
	}
	if !ctx.Area.AddCustomTrack(track) {
		return reject("That track is already in this area's list.")
	}
	ctx.AreaMessage(track + " was added to this area's music list.")
	return nil
}

// cmdToggle builds the handler of the plain toggle commands.
func cmdToggle(what string, toggle func(*room.Area), get func(*room.Area) bool) CommandHandler {
	return func(ctx *HandlerContext, _ []string) error {
		toggle(ctx.Area)
		ctx.AreaMessage(what + " is now " + onOff(get(ctx.Area)) + " in this area.")
		return nil
	}
}

func cmdAreaPassword(ctx *HandlerContext, args []string) error {
	password := strings.Join(args, " ")
	ctx.Area.SetPassword(password)
	if password == "" {
		ctx.ServerMessage("This area's password was removed.")
	} else {
		ctx.ServerMessage("This area's password was set to " + password + ".")
	}
	return nil
}

func cmdPassword(ctx *HandlerContext, args []string) error {
	password := strings.Join(args, " ")
	ctx.Client.update(func(sess *Session) { sess.Password = password })
	if password == "" {
		ctx.ServerMessage("Your password was cleared.")
	} else {
		ctx.ServerMessage("Your password was set to " + password + ".")
	}
	return nil
}

func cmdGetArea(ctx *HandlerContext, _ []string) error {
	a := ctx.Area
	lines := []string{"=== " + a.Name() + " (" + a.Status().String() + ", " + a.LockStatus().String() + ") ==="}
	for _, id := range a.JoinedIDs() {
		c := ctx.Server.Registry.Get(id)
		if c == nil {
			continue
		}
		sess := c.Session()
		char := sess.CharName
		if char == "" {
			char = "Spectator"
		}
		line := "[" + strconv.Itoa(id) + "] " + char + " (" + sess.OOCName + ")"
		if a.IsOwner(id) {
			line += " [CM]"
		}
		if ctx.Session().Authenticated {
			line += " " + sess.IPID
		}
		lines = append(lines, line)
	}
	ctx.ServerMessage(strings.Join(lines, "\n"))
	return nil
}

func cmdGetAreas(ctx *HandlerContext, _ []string) error {
	s := ctx.Server
	lines := make([]string, 0, len(s.Areas))
	for _, actor := range s.Areas {
		sum := actor.Summary()
		lines = append(lines, "["+itoa(sum.Index)+"] "+sum.Name+": "+itoa(sum.Players)+" players, "+sum.Status+
			", "+sum.Lock+", CM: "+sum.CMs)
	}
	ctx.ServerMessage(strings.Join(lines, "\n"))
	return nil
}
