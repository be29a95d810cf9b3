package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	t := &fakeTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) fire(i int) {
	s.timers[i].f()
}

func TestNewAreaFromConfig(t *testing.T) {
	cfg := DefaultAreaConfig()
	cfg.Name = "1:Courtroom 1"
	cfg.LockStatus = "LOCKED"
	cfg.Status = "lfp"
	cfg.EvidenceMod = "CM"
	cfg.OocType = "hub"
	cfg.Evidence = []string{"0 Badge name"}
	a := New(3, cfg)
	assert.Equal(t, 3, a.Index())
	assert.Equal(t, 1, a.Hub())
	assert.Equal(t, "Courtroom 1", a.Name())
	assert.Equal(t, Locked, a.LockStatus())
	assert.Equal(t, StatusLookingForPlayers, a.Status())
	assert.Equal(t, EvidenceCMOnly, a.EvidenceMod())
	assert.Equal(t, OocHub, a.OocType())
	assert.Len(t, a.Evidence(), 1)
	assert.Equal(t, DefaultDocument, a.Document())
	assert.Equal(t, StopTrack, a.CurrentMusic())
	assert.Equal(t, 10, a.DefHP())
	assert.Equal(t, 10, a.ProHP())
	assert.True(t, a.IsMessageAllowed())
}

func TestNewAreaInvalidValuesFallBack(t *testing.T) {
	cfg := DefaultAreaConfig()
	cfg.Name = "abc:Lobby"
	cfg.LockStatus = "closed"
	cfg.Status = "sleeping"
	a := New(0, cfg)
	assert.Equal(t, 0, a.Hub())
	assert.Equal(t, "abc:Lobby", a.Name())
	assert.Equal(t, Free, a.LockStatus())
	assert.Equal(t, StatusIdle, a.Status())
}

func TestChangeHPClamps(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	for _, v := range []int{-5, 0, 4, 10, 11, 1000} {
		a.ChangeHP(Defence, v)
		a.ChangeHP(Prosecutor, v)
		assert.GreaterOrEqual(t, a.DefHP(), 0)
		assert.LessOrEqual(t, a.DefHP(), 10)
		assert.Equal(t, a.DefHP(), a.ProHP())
	}
	a.ChangeHP(Defence, -1)
	assert.Equal(t, 0, a.DefHP())
	a.ChangeHP(Prosecutor, 12)
	assert.Equal(t, 10, a.ProHP())
}

func TestJudgelogCapacity(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	for i := 0; i < 11; i++ {
		a.AppendJudgelog(string(rune('a' + i)))
	}
	log := a.Judgelog()
	assert.Len(t, log, 10)
	assert.Equal(t, "b", log[0])
	assert.Equal(t, "k", log[9])
}

func TestMembershipAndCharacters(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	a.ClientJoined(4, 1)
	a.ClientJoined(-1, 2)
	assert.Equal(t, 2, a.PlayerCount())
	assert.Equal(t, []int{1, 2}, a.JoinedIDs())
	assert.Equal(t, []int{4}, a.CharactersTaken())

	assert.False(t, a.ChangeCharacter(-1, 4, false))
	assert.True(t, a.ChangeCharacter(-1, 5, false))
	assert.True(t, a.ChangeCharacter(4, 6, false))
	assert.ElementsMatch(t, []int{5, 6}, a.CharactersTaken())
	assert.False(t, a.ChangeCharacter(6, -1, false))
	assert.Equal(t, []int{5}, a.CharactersTaken())
	assert.True(t, a.ChangeCharacter(-1, 5, true))

	a.ClientLeft(5, 1)
	assert.Equal(t, 1, a.PlayerCount())
	assert.False(t, a.IsMember(1))
	assert.False(t, a.IsCharacterTaken(5))
}

func TestFloodguardOnlyExpiryReenables(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	s := &fakeScheduler{}
	a.SetScheduler(s)

	a.StartMessageFloodguard(time.Second)
	assert.False(t, a.IsMessageAllowed())
	a.StartMessageFloodguard(time.Second)
	assert.True(t, s.timers[0].stopped)
	assert.False(t, a.IsMessageAllowed())

	s.fire(1)
	assert.True(t, a.IsMessageAllowed())
}

func TestMusicCooldown(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	now := time.Now()
	assert.True(t, a.MusicChangeAllowed(now, 2*time.Second))
	a.MarkMusicChanged(now)
	assert.False(t, a.MusicChangeAllowed(now.Add(time.Second), 2*time.Second))
	assert.False(t, a.MusicChangeAllowed(now.Add(2*time.Second), 2*time.Second))
	assert.True(t, a.MusicChangeAllowed(now.Add(2001*time.Millisecond), 2*time.Second))
}

func TestChangeStatus(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	assert.True(t, a.ChangeStatus("casing"))
	assert.Equal(t, StatusCasing, a.Status())
	assert.True(t, a.ChangeStatus("lfp"))
	assert.Equal(t, StatusLookingForPlayers, a.Status())
	assert.False(t, a.ChangeStatus("asleep"))
	assert.Equal(t, StatusLookingForPlayers, a.Status())
}

func TestNotecards(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	assert.True(t, a.AddNotecard("Phoenix", "guilty"))
	assert.True(t, a.AddNotecard("Edgeworth", "not guilty"))
	assert.True(t, a.AddNotecard("Maya", "hungry"))
	assert.False(t, a.AddNotecard("Maya", ""))
	assert.Equal(t, []string{"Edgeworth: not guilty", "Phoenix: guilty"}, a.RevealNotecards())
	assert.Empty(t, a.RevealNotecards())
}

func TestCustomTracks(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	assert.True(t, a.AddCustomTrack("https://example.com/theme.mp3"))
	assert.False(t, a.AddCustomTrack("https://example.com/theme.mp3"))
	assert.True(t, a.IsCustomTrack("https://example.com/theme.mp3"))
	assert.True(t, a.RemoveCustomTrack("https://example.com/theme.mp3"))
	assert.Empty(t, a.CustomTracks())
}

func TestToggles(t *testing.T) {
	a := New(0, DefaultAreaConfig())
	assert.True(t, a.IsMusicAllowed())
	a.ToggleMusic()
	assert.False(t, a.IsMusicAllowed())
	assert.True(t, a.IniswapAllowed())
	a.ToggleIniswap()
	assert.False(t, a.IniswapAllowed())
	assert.Equal(t, DefaultAreaMessage, a.AreaMessage())
	a.ChangeAreaMessage("hello")
	assert.Equal(t, "hello", a.AreaMessage())
	a.ClearAreaMessage()
	assert.Equal(t, DefaultAreaMessage, a.AreaMessage())
}
