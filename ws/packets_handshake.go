package ws

import (
	"regexp"
	"strconv"

	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/persistence"
	"github.com/tcriess/lightspeed-court/types"
)

var versionRegexp = regexp.MustCompile(`\b(\d+)\.(\d+)\.(\d+)\b`)

var featureList = []string{
	"noencryption", "yellowtext", "prezoom",
	"flipping", "customobjections", "fastloading",
	"deskmod", "evidence", "cccc_ic_support",
	"arup", "casing_alerts", "modcall_reason",
	"looping_sfx", "additive", "effects",
	"y_offset", "expanded_desk_mods", "auth_packet",
}

func (d *Dispatcher) registerPackets() {
	d.register(PacketInfo{Header: "HI", MinArgs: 1, Direct: true, Handle: handleHardwareID})
	d.register(PacketInfo{Header: "ID", MinArgs: 2, Direct: true, Handle: handleSoftwareID})
	d.register(PacketInfo{Header: "askchaa", Direct: true, Handle: handleAskCharacters})
	d.register(PacketInfo{Header: "RC", Direct: true, Handle: handleRequestCharacters})
	d.register(PacketInfo{Header: "RM", Direct: true, Handle: handleRequestMusic})
	d.register(PacketInfo{Header: "RD", Direct: true, Handle: handleRequestDone})
	d.register(PacketInfo{Header: "CH", Direct: true, Handle: handleKeepalive})

	d.register(PacketInfo{Header: "CC", MinArgs: 3, Handle: handleChangeCharacter})
	d.register(PacketInfo{Header: "MC", MinArgs: 2, Handle: handleMusicChange})
	d.register(PacketInfo{Header: "HP", MinArgs: 2, Handle: handleHealthBar})
	d.register(PacketInfo{Header: "MS", MinArgs: 15, Handle: handleICMessage})
	d.register(PacketInfo{Header: "RT", MinArgs: 1, Handle: handleWTCE})
	d.register(PacketInfo{Header: "CT", MinArgs: 2, Handle: handleOOCMessage})
	d.register(PacketInfo{Header: "PE", MinArgs: 3, Handle: handleAddEvidence})
	d.register(PacketInfo{Header: "DE", MinArgs: 1, Handle: handleDeleteEvidence})
	d.register(PacketInfo{Header: "EE", MinArgs: 4, Handle: handleEditEvidence})
	d.register(PacketInfo{Header: "ZZ", Handle: handleModcall})
}

func handleHardwareID(ctx *HandlerContext) error {
	s := ctx.Server
	hwid := ctx.Args()[0]
	if ctx.Session().HWID != "" {
		return protocolViolation("HI")
	}
	ctx.Client.update(func(sess *Session) { sess.HWID = hwid })
	sess := ctx.Session()

	ban, err := persistence.ActiveBan(s.Persister, sess.IPID, sess.HWID, s.now())
	if err != nil {
		s.logger.Error("could not check bans", "ipid", sess.IPID, "error", err)
	}
	if ban != nil {
		until := "permanently"
		if exp := ban.Expires(); !exp.IsZero() {
			until = "until " + exp.UTC().Format("2006-01-02 15:04:05 MST")
		}
		return &FatalError{Message: "You are banned " + until + ".\nReason: " + ban.Reason + "\nBan ID: " + itoa(ban.Id)}
	}
	ctx.Reply("ID", itoa(ctx.Client.id), "lightspeed-court", globals.Version)
	s.emit(types.NewConnectEvent(ctx.Client.actor()))
	return nil
}

func handleSoftwareID(ctx *HandlerContext) error {
	s := ctx.Server
	args := ctx.Args()
	sess := ctx.Session()
	// HI comes first, and ID only once
	if sess.HWID == "" || sess.Identified {
		return protocolViolation("ID")
	}
	if args[0] == "webAO" {
		if !s.Cfg.WebAOEnabled {
			return &FatalError{Message: "WebAO is disabled on this server."}
		}
		if s.Cfg.WebUsersSpectatorOnly {
			ctx.Client.update(func(sess *Session) { sess.WebClient = true })
		}
	}
	ctx.Client.update(func(sess *Session) {
		sess.Identified = true
		if m := versionRegexp.FindStringSubmatch(args[1]); m != nil {
			release, _ := strconv.Atoi(m[1])
			major, _ := strconv.Atoi(m[2])
			minor, _ := strconv.Atoi(m[3])
			sess.Version = Version{Release: release, Major: major, Minor: minor}
		}
	})
	ctx.Reply("PN", itoa(s.Registry.PlayerCount()), itoa(s.Cfg.MaxPlayers), s.Cfg.ServerDescription)
	ctx.Reply("FL", featureList...)
	if s.Cfg.AssetURL != "" {
		ctx.Reply("ASS", s.Cfg.AssetURL)
	}
	return nil
}

func handleAskCharacters(ctx *HandlerContext) error {
	s := ctx.Server
	ctx.Reply("SI", itoa(len(s.Cfg.Characters)), "0", itoa(len(s.Areas)+len(s.Cfg.Music)))
	return nil
}

func handleRequestCharacters(ctx *HandlerContext) error {
	ctx.Reply("SC", ctx.Server.Cfg.Characters...)
	return nil
}

func handleRequestMusic(ctx *HandlerContext) error {
	s := ctx.Server
	list := make([]string, 0, len(s.Areas)+len(s.Cfg.Music))
	for _, a := range s.Areas {
		list = append(list, a.Summary().Name)
	}
	list = append(list, s.Cfg.Music...)
	ctx.Reply("SM", list...)
	return nil
}

// handleRequestDone finishes the handshake by joining the first area.
func handleRequestDone(ctx *HandlerContext) error {
	sess := ctx.Session()
	if sess.Joined {
		return nil
	}
	if sess.HWID == "" || !sess.Identified {
		return protocolViolation("RD")
	}
	if err := ctx.Server.changeArea(ctx.Client, 0); err != nil {
		return err
	}
	ctx.Reply("DONE")
	return nil
}

func handleKeepalive(ctx *HandlerContext) error {
	ctx.Reply("CHECK")
	return nil
}
