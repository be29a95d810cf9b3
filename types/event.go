package types

import "time"

type LogKind string

const (
	LogKindIC         LogKind = "ic"
	LogKindOOC        LogKind = "ooc"
	LogKindLogin      LogKind = "login"
	LogKindCommand    LogKind = "cmd"
	LogKindKick       LogKind = "kick"
	LogKindBan        LogKind = "ban"
	LogKindModcall    LogKind = "modcall"
	LogKindConnect    LogKind = "connect"
	LogKindDisconnect LogKind = "disconnect"
	LogKindMusic      LogKind = "music"
	LogKindChangeChar LogKind = "changechar"
	LogKindChangeArea LogKind = "changearea"
)

// Actor identifies the client an event originates from.
type Actor struct {
	CharName string `json:"char_name"`
	OOCName  string `json:"ooc_name"`
	IPID     string `json:"ipid"`
	HWID     string `json:"hwid"`
	UID      string `json:"uid"`
}

// LogEvent is handed to the logging collaborator. Which fields are set depends on Kind,
// see the New*Event constructors.
type LogEvent struct {
	Kind      LogKind   `json:"kind"`
	Time      time.Time `json:"time"`
	Actor     Actor     `json:"actor"`
	Area      string    `json:"area,omitempty"`
	Hub       string    `json:"hub,omitempty"`
	Message   string    `json:"message,omitempty"`
	Moderator string    `json:"moderator,omitempty"`
	Target    string    `json:"target,omitempty"`
	Command   string    `json:"command,omitempty"`
	Args      string    `json:"args,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Success   bool      `json:"success,omitempty"`
}

func newEvent(kind LogKind, actor Actor) *LogEvent {
	return &LogEvent{Kind: kind, Time: time.Now(), Actor: actor}
}

func NewICEvent(actor Actor, area, hub, message string) *LogEvent {
	e := newEvent(LogKindIC, actor)
	e.Area, e.Hub, e.Message = area, hub, message
	return e
}

func NewOOCEvent(actor Actor, area, hub, message string) *LogEvent {
	e := newEvent(LogKindOOC, actor)
	e.Area, e.Hub, e.Message = area, hub, message
	return e
}

func NewLoginEvent(actor Actor, area, moderator string, success bool) *LogEvent {
	e := newEvent(LogKindLogin, actor)
	e.Area, e.Moderator, e.Success = area, moderator, success
	return e
}

func NewCommandEvent(actor Actor, area, hub, command, args string) *LogEvent {
	e := newEvent(LogKindCommand, actor)
	e.Area, e.Hub, e.Command, e.Args = area, hub, command, args
	return e
}

// NewKickEvent: actor is the kicked client, moderator the issuer.
func NewKickEvent(actor Actor, moderator string) *LogEvent {
	e := newEvent(LogKindKick, actor)
	e.Moderator, e.Target = moderator, actor.IPID
	return e
}

func NewBanEvent(actor Actor, moderator, duration string) *LogEvent {
	e := newEvent(LogKindBan, actor)
	e.Moderator, e.Target, e.Duration = moderator, actor.IPID, duration
	return e
}

func NewModcallEvent(actor Actor, area, hub, reason string) *LogEvent {
	e := newEvent(LogKindModcall, actor)
	e.Area, e.Hub, e.Message = area, hub, reason
	return e
}

func NewConnectEvent(actor Actor) *LogEvent {
	return newEvent(LogKindConnect, Actor{IPID: actor.IPID, HWID: actor.HWID})
}

func NewDisconnectEvent(actor Actor, area, hub string) *LogEvent {
	e := newEvent(LogKindDisconnect, actor)
	e.Area, e.Hub = area, hub
	return e
}

func NewMusicEvent(actor Actor, area, hub, track string) *LogEvent {
	e := newEvent(LogKindMusic, actor)
	e.Area, e.Hub, e.Message = area, hub, track
	return e
}

func NewChangeCharEvent(actor Actor, area, hub, newChar string) *LogEvent {
	e := newEvent(LogKindChangeChar, actor)
	e.Area, e.Hub, e.Message = area, hub, newChar
	return e
}

func NewChangeAreaEvent(actor Actor, area, hub, newArea string) *LogEvent {
	e := newEvent(LogKindChangeArea, actor)
	e.Area, e.Hub, e.Message = area, hub, newArea
	return e
}
