package room

import (
	"fmt"
	"sort"
	"time"

	"github.com/tcriess/lightspeed-court/globals"
)

const (
	judgelogCapacity = 10
	maxHP            = 10

	DefaultDocument    = "No document."
	DefaultAreaMessage = "No area message set."
	StopTrack          = "~stop.mp3"
)

// Timer is the handle of a scheduled one-shot task.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The area actor implements it so that delayed tasks
// execute in the same context as ordinary packet handling.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Area is the state of one configured room. It is not safe for concurrent use; the
// owner (see ws.AreaActor) serializes every call.
type Area struct {
	Access

	index int
	name  string
	hub   int

	playerCount     int
	joinedIDs       []int
	charactersTaken []int

	background   string
	bgLocked     bool
	protected    bool
	password     string
	status       Status
	changeStatus bool
	oocType      OocType
	eviMod       EvidenceMod

	iniswapAllowed      bool
	blankpostingAllowed bool
	shoutsAllowed       bool
	wtceAllowed         bool
	musicAllowed        bool
	shownamesAllowed    bool
	ignoreBgList        bool
	chillMod            bool
	autoMod             bool
	forceImmediate      bool
	floodguardActive    bool
	voteStarted         bool

	judgelog []string
	evidence []Evidence

	areaMessage     string
	sendAreaMessage bool
	document        string

	currentMusic    string
	musicPlayedBy   string
	lastMusicChange time.Time
	customTracks    []string

	defHP int
	proHP int

	testimony *Testimony

	canSendMessages bool
	floodguardTimer Timer
	scheduler       Scheduler

	lastICMessage      []string
	lastICMessageOwner string

	notecards map[string]string
}

// New builds an area from its configuration. Unknown enum values fall back to their
// defaults with a warning.
func New(index int, cfg AreaConfig) *Area {
	hub, name := SplitHubPrefix(cfg.Name)
	logger := globals.AppLogger.Named("area").With("area", name)

	lock, ok := ParseLockStatus(cfg.LockStatus)
	if !ok {
		logger.Warn("invalid lock_status, using FREE", "value", cfg.LockStatus)
	}
	status, ok := ParseStatus(cfg.Status)
	if !ok {
		logger.Warn("invalid status, using IDLE", "value", cfg.Status)
	}
	eviMod, ok := ParseEvidenceMod(cfg.EvidenceMod)
	if !ok {
		logger.Warn("invalid evidence_mod, using FFA", "value", cfg.EvidenceMod)
	}
	oocType, ok := ParseOocType(cfg.OocType)
	if !ok {
		logger.Warn("invalid ooc_type, using ALL", "value", cfg.OocType)
	}
	background := cfg.Background
	if background == "" {
		background = "gs4"
	}

	return &Area{
		Access:              NewAccess(lock),
		index:               index,
		name:                name,
		hub:                 hub,
		background:          background,
		bgLocked:            cfg.BgLocked,
		protected:           cfg.Protected,
		password:            cfg.Password,
		status:              status,
		changeStatus:        cfg.ChangeStatus,
		oocType:             oocType,
		eviMod:              eviMod,
		iniswapAllowed:      cfg.IniswapAllowed,
		blankpostingAllowed: cfg.BlankpostingAllowed,
		shoutsAllowed:       cfg.ShoutsEnabled,
		wtceAllowed:         cfg.WtceEnabled,
		musicAllowed:        cfg.ToggleMusic,
		shownamesAllowed:    cfg.ShownamesAllowed,
		ignoreBgList:        cfg.IgnoreBgList,
		chillMod:            cfg.ChillMod,
		autoMod:             cfg.AutoMod,
		forceImmediate:      cfg.ForceImmediate,
		floodguardActive:    cfg.FloodguardActive,
		evidence:            ParseEvidenceList(cfg.Evidence),
		areaMessage:         cfg.AreaMessage,
		sendAreaMessage:     cfg.SendAreaMessageOnJoin,
		document:            DefaultDocument,
		currentMusic:        StopTrack,
		defHP:               maxHP,
		proHP:               maxHP,
		testimony:           NewTestimony(),
		canSendMessages:     true,
		scheduler:           timeScheduler{},
		notecards:           make(map[string]string),
	}
}

// SetScheduler replaces the scheduler used for delayed tasks such as the flood guard.
func (a *Area) SetScheduler(s Scheduler) {
	if s == nil {
		s = timeScheduler{}
	}
	a.scheduler = s
}

func (a *Area) Index() int            { return a.index }
func (a *Area) Name() string          { return a.name }
func (a *Area) Hub() int              { return a.hub }
func (a *Area) SetHub(hub int)        { a.hub = hub }
func (a *Area) PlayerCount() int      { return a.playerCount }
func (a *Area) Testimony() *Testimony { return a.testimony }

// JoinedIDs returns a copy of the member user ids, in join order.
func (a *Area) JoinedIDs() []int {
	return append([]int(nil), a.joinedIDs...)
}

func (a *Area) IsMember(userID int) bool {
	return contains(a.joinedIDs, userID)
}

func (a *Area) ClientJoined(charID, userID int) {
	a.playerCount++
	if charID != -1 {
		a.charactersTaken = append(a.charactersTaken, charID)
	}
	a.joinedIDs = append(a.joinedIDs, userID)
}

func (a *Area) ClientLeft(charID, userID int) {
	a.playerCount--
	if charID != -1 {
		a.charactersTaken = removeAll(a.charactersTaken, charID)
	}
	a.joinedIDs = removeAll(a.joinedIDs, userID)
}

func (a *Area) CharactersTaken() []int {
	return append([]int(nil), a.charactersTaken...)
}

func (a *Area) IsCharacterTaken(charID int) bool {
	return contains(a.charactersTaken, charID)
}

// ChangeCharacter moves a client from one character to another. -1 is the "no
// character" sentinel. It returns true only when to is actually claimed.
func (a *Area) ChangeCharacter(from, to int, allowTaken bool) bool {
	if contains(a.charactersTaken, to) && !allowTaken {
		return false
	}
	if to != -1 {
		if from != -1 {
			a.charactersTaken = removeAll(a.charactersTaken, from)
		}
		a.charactersTaken = append(a.charactersTaken, to)
		return true
	}
	if from != -1 {
		a.charactersTaken = removeAll(a.charactersTaken, from)
	}
	return false
}

func (a *Area) DefHP() int { return a.defHP }
func (a *Area) ProHP() int { return a.proHP }

// ChangeHP clamps value into [0,10].
func (a *Area) ChangeHP(side Side, value int) {
	if value < 0 {
		value = 0
	}
	if value > maxHP {
		value = maxHP
	}
	switch side {
	case Defence:
		a.defHP = value
	case Prosecutor:
		a.proHP = value
	}
}

func (a *Area) Judgelog() []string {
	return append([]string(nil), a.judgelog...)
}

func (a *Area) AppendJudgelog(entry string) {
	if len(a.judgelog) >= judgelogCapacity {
		a.judgelog = a.judgelog[1:]
	}
	a.judgelog = append(a.judgelog, entry)
}

func (a *Area) Status() Status          { return a.status }
func (a *Area) AllowChangeStatus() bool { return a.changeStatus }
func (a *Area) ToggleChangeStatus()     { a.changeStatus = !a.changeStatus }

// ChangeStatus accepts the lower-case status names, including the "lfp" alias.
func (a *Area) ChangeStatus(name string) bool {
	st, ok := statusNames[name]
	if !ok {
		return false
	}
	a.status = st
	return true
}

func (a *Area) OocType() OocType             { return a.oocType }
func (a *Area) SetOocType(t OocType)         { a.oocType = t }
func (a *Area) EvidenceMod() EvidenceMod     { return a.eviMod }
func (a *Area) SetEvidenceMod(m EvidenceMod) { a.eviMod = m }

func (a *Area) Background() string      { return a.background }
func (a *Area) SetBackground(bg string) { a.background = bg }
func (a *Area) BgLocked() bool          { return a.bgLocked }
func (a *Area) ToggleBgLock()           { a.bgLocked = !a.bgLocked }
func (a *Area) IgnoreBgList() bool      { return a.ignoreBgList }
func (a *Area) ToggleIgnoreBgList()     { a.ignoreBgList = !a.ignoreBgList }

func (a *Area) IsProtected() bool    { return a.protected }
func (a *Area) ToggleIsProtected()   { a.protected = !a.protected }
func (a *Area) Password() string     { return a.password }
func (a *Area) SetPassword(p string) { a.password = p }

func (a *Area) IniswapAllowed() bool      { return a.iniswapAllowed }
func (a *Area) ToggleIniswap()            { a.iniswapAllowed = !a.iniswapAllowed }
func (a *Area) BlankpostingAllowed() bool { return a.blankpostingAllowed }
func (a *Area) ToggleBlankposting()       { a.blankpostingAllowed = !a.blankpostingAllowed }
func (a *Area) IsShoutAllowed() bool      { return a.shoutsAllowed }
func (a *Area) ToggleShoutAllowed()       { a.shoutsAllowed = !a.shoutsAllowed }
func (a *Area) IsWtceAllowed() bool       { return a.wtceAllowed }
func (a *Area) ToggleWtceAllowed()        { a.wtceAllowed = !a.wtceAllowed }
func (a *Area) IsMusicAllowed() bool      { return a.musicAllowed }
func (a *Area) ToggleMusic()              { a.musicAllowed = !a.musicAllowed }
func (a *Area) ShownameAllowed() bool     { return a.shownamesAllowed }
func (a *Area) ToggleShownames()          { a.shownamesAllowed = !a.shownamesAllowed }
func (a *Area) ChillMod() bool            { return a.chillMod }
func (a *Area) ToggleChillMod()           { a.chillMod = !a.chillMod }
func (a *Area) AutoMod() bool             { return a.autoMod }
func (a *Area) ToggleAutoMod()            { a.autoMod = !a.autoMod }
func (a *Area) ForceImmediate() bool      { return a.forceImmediate }
func (a *Area) ToggleImmediate()          { a.forceImmediate = !a.forceImmediate }
func (a *Area) FloodguardActive() bool    { return a.floodguardActive }
func (a *Area) ToggleFloodguardActive()   { a.floodguardActive = !a.floodguardActive }
func (a *Area) IsVoteStarted() bool       { return a.voteStarted }
func (a *Area) ToggleVote()               { a.voteStarted = !a.voteStarted }

// IsMessageAllowed is false while the message flood guard is engaged.
func (a *Area) IsMessageAllowed() bool {
	return a.canSendMessages
}

// StartMessageFloodguard blocks IC messages until the scheduled unlock fires. Calling
// it again while engaged restarts the timer.
func (a *Area) StartMessageFloodguard(d time.Duration) {
	a.canSendMessages = false
	if a.floodguardTimer != nil {
		a.floodguardTimer.Stop()
	}
	a.floodguardTimer = a.scheduler.AfterFunc(d, a.allowMessage)
}

func (a *Area) allowMessage() {
	a.canSendMessages = true
	a.floodguardTimer = nil
}

func (a *Area) AreaMessage() string {
	if a.areaMessage == "" {
		return DefaultAreaMessage
	}
	return a.areaMessage
}

func (a *Area) SendAreaMessageOnJoin() bool  { return a.sendAreaMessage }
func (a *Area) ToggleAreaMessageJoin()       { a.sendAreaMessage = !a.sendAreaMessage }
func (a *Area) ChangeAreaMessage(msg string) { a.areaMessage = msg }
func (a *Area) ClearAreaMessage()            { a.areaMessage = "" }

func (a *Area) Document() string     { return a.document }
func (a *Area) ChangeDoc(doc string) { a.document = doc }

func (a *Area) CurrentMusic() string  { return a.currentMusic }
func (a *Area) MusicPlayedBy() string { return a.musicPlayedBy }

func (a *Area) ChangeMusic(source, track string) {
	a.currentMusic = track
	a.musicPlayedBy = source
}

// MusicChangeAllowed reports whether the cooldown since the last change has elapsed.
func (a *Area) MusicChangeAllowed(now time.Time, cooldown time.Duration) bool {
	if a.lastMusicChange.IsZero() {
		return true
	}
	return now.Sub(a.lastMusicChange) > cooldown
}

func (a *Area) MarkMusicChanged(now time.Time) {
	a.lastMusicChange = now
}

func (a *Area) LastMusicChange() time.Time {
	return a.lastMusicChange
}

func (a *Area) AddCustomTrack(track string) bool {
	for _, t := range a.customTracks {
		if t == track {
			return false
		}
	}
	a.customTracks = append(a.customTracks, track)
	return true
}

func (a *Area) RemoveCustomTrack(track string) bool {
	for i, t := range a.customTracks {
		if t == track {
			a.customTracks = append(a.customTracks[:i], a.customTracks[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Area) IsCustomTrack(track string) bool {
	for _, t := range a.customTracks {
		if t == track {
			return true
		}
	}
	return false
}

func (a *Area) CustomTracks() []string {
	return append([]string(nil), a.customTracks...)
}

func (a *Area) LastICMessage() []string {
	return a.lastICMessage
}

func (a *Area) LastICMessageOwner() string {
	return a.lastICMessageOwner
}

func (a *Area) UpdateLastICMessage(msg []string, owner string) {
	a.lastICMessage = append([]string(nil), msg...)
	a.lastICMessageOwner = owner
}

// AddNotecard stores a note for owner. An empty note removes it and returns false.
func (a *Area) AddNotecard(owner, note string) bool {
	if note == "" {
		delete(a.notecards, owner)
		return false
	}
	a.notecards[owner] = note
	return true
}

// RevealNotecards returns all notes as "owner: note" ordered by owner and clears them.
func (a *Area) RevealNotecards() []string {
	owners := make([]string, 0, len(a.notecards))
	for owner := range a.notecards {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	res := make([]string, 0, len(owners))
	for _, owner := range owners {
		res = append(res, fmt.Sprintf("%s: %s", owner, a.notecards[owner]))
	}
	a.notecards = make(map[string]string)
	return res
}
