package room

import "strings"

type LockStatus int

const (
	Free LockStatus = iota
	Locked
	Spectatable
)

var lockStatusNames = map[string]LockStatus{
	"FREE":        Free,
	"LOCKED":      Locked,
	"SPECTATABLE": Spectatable,
}

func (l LockStatus) String() string {
	switch l {
	case Locked:
		return "LOCKED"
	case Spectatable:
		return "SPECTATABLE"
	default:
		return "FREE"
	}
}

// ParseLockStatus is case-insensitive; ok is false for unknown names.
func ParseLockStatus(s string) (LockStatus, bool) {
	l, ok := lockStatusNames[strings.ToUpper(strings.TrimSpace(s))]
	return l, ok
}

type Status int

const (
	StatusIdle Status = iota
	StatusRP
	StatusCasing
	StatusLookingForPlayers
	StatusRecess
	StatusGaming
	StatusERP
	StatusYablachki
)

var statusNames = map[string]Status{
	"idle":                StatusIdle,
	"rp":                  StatusRP,
	"casing":              StatusCasing,
	"lfp":                 StatusLookingForPlayers,
	"looking-for-players": StatusLookingForPlayers,
	"recess":              StatusRecess,
	"gaming":              StatusGaming,
	"erp":                 StatusERP,
	"yablachki":           StatusYablachki,
}

func (s Status) String() string {
	switch s {
	case StatusRP:
		return "RP"
	case StatusCasing:
		return "CASING"
	case StatusLookingForPlayers:
		return "LOOKING-FOR-PLAYERS"
	case StatusRecess:
		return "RECESS"
	case StatusGaming:
		return "GAMING"
	case StatusERP:
		return "ERP"
	case StatusYablachki:
		return "YABLACHKI"
	default:
		return "IDLE"
	}
}

func ParseStatus(s string) (Status, bool) {
	st, ok := statusNames[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// OocType limits who receives OOC messages sent in an area.
type OocType int

const (
	OocAll OocType = iota
	OocHub
	OocArea
)

func ParseOocType(s string) (OocType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALL":
		return OocAll, true
	case "HUB":
		return OocHub, true
	case "AREA":
		return OocArea, true
	}
	return OocAll, false
}

// EvidenceMod is the evidence editing policy of an area.
type EvidenceMod int

const (
	EvidenceFFA EvidenceMod = iota
	EvidenceModOnly
	EvidenceCMOnly
	EvidenceHiddenCM
)

func ParseEvidenceMod(s string) (EvidenceMod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FFA":
		return EvidenceFFA, true
	case "MOD":
		return EvidenceModOnly, true
	case "CM":
		return EvidenceCMOnly, true
	case "HIDDEN_CM":
		return EvidenceHiddenCM, true
	}
	return EvidenceFFA, false
}

type Side int

const (
	Defence Side = iota + 1
	Prosecutor
)
