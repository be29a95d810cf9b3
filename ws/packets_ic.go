package ws

import (
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

const (
	maxOOCNameLength = 30

	icShownameIndex  = 15
	icImmediateIndex = 18
)

var icFields = []string{
	"desk_mod", "pre_emote", "character", "emote", "message", "side", "sfx_name", "emote_modifier", "char_id",
	"sfx_delay", "shout_modifier", "evidence", "flip", "realization", "text_color", "showname", "other_charid",
	"self_offset", "immediate",
}

type icMessage struct {
	Character     string `mapstructure:"character"`
	Emote         string `mapstructure:"emote"`
	Message       string `mapstructure:"message"`
	Side          string `mapstructure:"side"`
	CharID        int    `mapstructure:"char_id"`
	ShoutModifier string `mapstructure:"shout_modifier"`
	Showname      string `mapstructure:"showname"`
}

func icHash(fields []string) uint64 {
	h, err := hashstructure.Hash(fields, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

func handleICMessage(ctx *HandlerContext) error {
	s := ctx.Server
	a := ctx.Area
	sess := ctx.Session()
	args := append([]string(nil), ctx.Args()...)

	var msg icMessage
	if err := decodeArgs(args, icFields, &msg); err != nil {
		return nil
	}
	if sess.IsSpectator() || msg.CharID != sess.CharID {
		return nil
	}
	if !a.IsMessageAllowed() {
		return reject("Your message was not sent, the floodguard is active.")
	}
	if !a.IniswapAllowed() && msg.Character != sess.CharName {
		return reject("Iniswap is blocked in this area.")
	}
	if strings.TrimSpace(msg.Message) == "" && !a.BlankpostingAllowed() {
		return reject("Blankposting has been forbidden in this area.")
	}
	if msg.ShoutModifier != "" && msg.ShoutModifier != "0" && !a.IsShoutAllowed() {
		return reject("Shouts have been disabled in this area.")
	}
	key := []string{msg.Character, msg.Emote, msg.Message}
	if a.LastICMessageOwner() == sess.IPID && icHash(key) == icHash(a.LastICMessage()) {
		return nil
	}
	if a.FloodguardActive() && !ctx.Actor.icLimiter.Allow() {
		d := s.Cfg.FloodguardConfig.Duration
		a.StartMessageFloodguard(d)
		ctx.AreaMessage("Flood detected, IC messages are blocked for " + d.String() + ".")
		return nil
	}

	if !a.ShownameAllowed() && len(args) > icShownameIndex {
		args[icShownameIndex] = ""
	}
	if a.ForceImmediate() && len(args) > icImmediateIndex {
		args[icImmediateIndex] = "1"
	}

	handled, err := testimonyMessage(ctx, msg.Message, args)
	if err != nil {
		return err
	}
	if len(args) > icShownameIndex {
		showname := args[icShownameIndex]
		ctx.Client.update(func(sess *Session) { sess.Showname = showname })
	}
	if handled {
		return nil
	}

	ctx.Broadcast(types.NewPacket("MS", args...))
	a.UpdateLastICMessage(key, sess.IPID)
	s.emit(types.NewICEvent(ctx.Client.actor(), a.Name(), s.hub(a.Hub()).Name(), msg.Message))
	return nil
}

// testimonyMessage records IC messages while a testimony is recorded and handles the navigation messages (">"
// next, "<" previous, "=" repeat) during playback. handled is true if the message must not be broadcast.
func testimonyMessage(ctx *HandlerContext, message string, args []string) (bool, error) {
	a := ctx.Area
	t := a.Testimony()
	switch t.Mode() {
	case room.TestimonyRecording:
		t.Record(args)
		if t.Len() == 1 {
			ctx.AreaMessage("Testimony title recorded.")
		}

	case room.TestimonyPlayback:
		pos := t.Statement()
		switch strings.TrimSpace(message) {
		case ">":
			pos++
		case "<":
			pos--
		case "=":
		default:
			return false, addOrUpdateStatement(ctx, args)
		}
		stmt, progress, err := t.JumpTo(pos)
		if err != nil {
			return true, reject("There is no testimony to navigate.")
		}
		switch progress {
		case room.ProgressLooped:
			ctx.AreaMessage("Last statement reached. Looping to first statement.")
		case room.ProgressStayedAtFirst:
			if strings.TrimSpace(message) == "<" {
				ctx.AreaMessage("First statement reached.")
			}
		}
		ctx.Broadcast(types.NewPacket("MS", stmt...))
		return true, nil
	}
	return false, nil
}

func addOrUpdateStatement(ctx *HandlerContext, args []string) error {
	actor := ctx.Actor
	if actor.testimonyEdit == editNone || !ctx.HasPermission(types.PermissionCM) {
		return nil
	}
	t := ctx.Area.Testimony()
	var err error
	switch actor.testimonyEdit {
	case editAdd:
		err = t.InsertAt(t.Statement()+1, args)
	case editUpdate:
		err = t.ReplaceAt(t.Statement(), args)
	}
	actor.testimonyEdit = editNone
	if err != nil {
		return reject("The statement could not be changed.")
	}
	ctx.AreaMessage("Testimony statement changed.")
	return nil
}

func handleOOCMessage(ctx *HandlerContext) error {
	s := ctx.Server
	a := ctx.Area
	args := ctx.Args()
	name := strings.TrimSpace(args[0])
	message := args[1]
	switch {
	case name == "":
		return reject("You must insert a name with at least one character.")
	case len(name) > maxOOCNameLength:
		return reject("Your name is too long.")
	case strings.EqualFold(name, s.Cfg.ServerName):
		return reject("That name is reserved.")
	}
	if strings.HasPrefix(message, "/") {
		// the name sticks only once the command went through
		if err := s.Dispatcher.runCommand(ctx, message); err != nil {
			return err
		}
		ctx.Client.update(func(sess *Session) { sess.OOCName = name })
		return nil
	}
	ctx.Client.update(func(sess *Session) { sess.OOCName = name })
	if strings.TrimSpace(message) == "" {
		return nil
	}

	p := types.NewPacket("CT", name, message, "0")
	switch a.OocType() {
	case room.OocArea:
		ctx.Broadcast(p)
	case room.OocHub:
		s.broadcastHub(a.Hub(), p)
	default:
		s.broadcastAll(p)
	}
	s.emit(types.NewOOCEvent(ctx.Client.actor(), a.Name(), s.hub(a.Hub()).Name(), message))
	return nil
}
