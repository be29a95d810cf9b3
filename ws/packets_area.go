package ws

import (
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

// decodeArgs maps positional arguments onto names and decodes them into out (weakly typed, so "3" becomes 3).
func decodeArgs(args []string, names []string, out interface{}) error {
	m := make(map[string]interface{}, len(names))
	for i, name := range names {
		if i < len(args) {
			m[name] = args[i]
		}
	}
	return mapstructure.WeakDecode(m, out)
}

func handleChangeCharacter(ctx *HandlerContext) error {
	s := ctx.Server
	sess := ctx.Session()
	charID, err := strconv.Atoi(ctx.Args()[1])
	if err != nil || charID < -1 || charID >= len(s.Cfg.Characters) {
		return nil
	}
	if sess.WebClient && charID != -1 {
		return reject("Web clients may only spectate on this server.")
	}
	if ctx.Area.LockStatus() == room.Spectatable && !ctx.Area.IsInvited(ctx.Client.id) && charID != -1 {
		return reject("This area is spectate-only.")
	}
	if charID == sess.CharID {
		return nil
	}
	if !ctx.Area.ChangeCharacter(sess.CharID, charID, false) && charID != -1 {
		return nil
	}
	charName := ""
	if charID != -1 {
		charName = s.Cfg.Characters[charID]
	}
	ctx.Client.update(func(sess *Session) {
		sess.CharID = charID
		sess.CharName = charName
		sess.Showname = ""
	})
	ctx.Reply("PV", itoa(ctx.Client.id), "CID", itoa(charID))
	ctx.Broadcast(s.charsCheck(ctx.Area))
	s.emit(types.NewChangeCharEvent(ctx.Client.actor(), ctx.Area.Name(), s.hub(ctx.Area.Hub()).Name(), charName))
	return nil
}

// handleMusicChange is both the music change and, for historical reasons, the area change.
func handleMusicChange(ctx *HandlerContext) error {
	s := ctx.Server
	args := ctx.Args()
	arg := args[0]
	if s.isMusic(arg) || ctx.Area.IsCustomTrack(arg) || arg == room.StopTrack {
		return playMusic(ctx, arg)
	}
	if target, ok := s.areaByName(arg); ok {
		ctx.After(func() {
			s.Dispatcher.fail(ctx.Client, ctx.Packet, s.changeArea(ctx.Client, target))
		})
	}
	return nil
}

func playMusic(ctx *HandlerContext, track string) error {
	s := ctx.Server
	sess := ctx.Session()
	a := ctx.Area
	switch {
	case sess.IsSpectator():
		return reject("Spectator are blocked from changing the music.")
	case sess.DJBlocked:
		return reject("You are blocked from changing the music.")
	case !a.IsMusicAllowed() && !ctx.HasPermission(types.PermissionCM):
		return reject("Music is disabled in this area.")
	}
	now := s.now()
	if !a.MusicChangeAllowed(now, s.Cfg.MusicCooldown) {
		return reject("You change music a lot!")
	}
	a.MarkMusicChanged(now)

	effects := "0"
	if len(ctx.Args()) >= 4 {
		effects = ctx.Args()[3]
	}
	// categories have no file extension and stop the music
	if !strings.Contains(track, ".") {
		track = room.StopTrack
	}
	showname := sess.Showname
	if showname == "" {
		showname = sess.CharName
	}
	ctx.Broadcast(types.NewPacket("MC", track, ctx.Args()[1], showname, "1", "0", effects))
	playedBy := showname
	if playedBy == "" {
		playedBy = sess.OOCName
	}
	a.ChangeMusic(playedBy, track)
	s.emit(types.NewMusicEvent(ctx.Client.actor(), a.Name(), s.hub(a.Hub()).Name(), track))
	return nil
}

type hpChange struct {
	Side  int `mapstructure:"side"`
	Value int `mapstructure:"value"`
}

func handleHealthBar(ctx *HandlerContext) error {
	if ctx.Session().IsSpectator() {
		return reject("Spectators are blocked from changing the health bars.")
	}
	var hp hpChange
	if err := decodeArgs(ctx.Args(), []string{"side", "value"}, &hp); err != nil {
		return nil
	}
	side := room.Side(hp.Side)
	if side != room.Defence && side != room.Prosecutor {
		return nil
	}
	a := ctx.Area
	a.ChangeHP(side, hp.Value)
	value := a.DefHP()
	if side == room.Prosecutor {
		value = a.ProHP()
	}
	ctx.Broadcast(types.NewPacket("HP", itoa(hp.Side), itoa(value)))
	a.AppendJudgelog(judgelogEntry(ctx, "changed the penalties"))
	return nil
}

func handleWTCE(ctx *HandlerContext) error {
	a := ctx.Area
	if ctx.Session().IsSpectator() {
		return reject("Spectators are blocked from using judge controls.")
	}
	if !a.IsWtceAllowed() {
		return reject("WTCE animations have been disabled in this area.")
	}
	switch ctx.Args()[0] {
	case "testimony1":
		a.Testimony().StartRecording()
		ctx.AreaMessage("Started testimony recording.")
	case "testimony2":
		if a.Testimony().Len() > 1 {
			a.Testimony().Restart()
			ctx.AreaMessage("Starting cross-examination.")
		}
	}
	ctx.Broadcast(types.NewPacket("RT", ctx.Args()...))
	a.AppendJudgelog(judgelogEntry(ctx, "used WT/CE"))
	return nil
}

func judgelogEntry(ctx *HandlerContext, action string) string {
	sess := ctx.Session()
	return "[" + ctx.Server.now().UTC().Format("15:04:05") + "] " + ctx.Client.displayName() + " (" + sess.IPID + ") " + action
}

// canEditEvidence applies the area's evidence policy.
func canEditEvidence(ctx *HandlerContext) error {
	switch ctx.Area.EvidenceMod() {
	case room.EvidenceModOnly:
		return ctx.require(types.PermissionEvidenceMod, "evidence")
	case room.EvidenceCMOnly, room.EvidenceHiddenCM:
		return ctx.require(types.PermissionCM, "evidence")
	}
	return nil
}

func evidenceFromArgs(args []string) room.Evidence {
	return room.Evidence{Name: args[0], Description: args[1], Image: args[2]}
}

func handleAddEvidence(ctx *HandlerContext) error {
	if err := canEditEvidence(ctx); err != nil {
		return err
	}
	ctx.Area.AppendEvidence(evidenceFromArgs(ctx.Args()))
	ctx.Broadcast(evidenceList(ctx.Area))
	return nil
}

func handleDeleteEvidence(ctx *HandlerContext) error {
	if err := canEditEvidence(ctx); err != nil {
		return err
	}
	idx, err := strconv.Atoi(ctx.Args()[0])
	if err != nil {
		return nil
	}
	if err := ctx.Area.DeleteEvidence(idx); err != nil {
		return nil
	}
	ctx.Broadcast(evidenceList(ctx.Area))
	return nil
}

func handleEditEvidence(ctx *HandlerContext) error {
	if err := canEditEvidence(ctx); err != nil {
		return err
	}
	args := ctx.Args()
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return nil
	}
	if err := ctx.Area.ReplaceEvidence(idx, evidenceFromArgs(args[1:])); err != nil {
		return nil
	}
	ctx.Broadcast(evidenceList(ctx.Area))
	return nil
}

func handleModcall(ctx *HandlerContext) error {
	s := ctx.Server
	a := ctx.Area
	reason := ""
	if len(ctx.Args()) > 0 {
		reason = ctx.Args()[0]
	}
	sess := ctx.Session()
	s.sendModerators(types.NewPacket("ZZ", "["+a.Name()+"] "+ctx.Client.displayName()+" ("+sess.IPID+"): "+reason))
	ctx.ServerMessage("You have called the moderators.")
	s.emit(types.NewModcallEvent(ctx.Client.actor(), a.Name(), s.hub(a.Hub()).Name(), reason))
	return nil
}
