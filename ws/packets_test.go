package ws

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

func icArgs(char string, charID int, message string) []string {
	return []string{
		"chat", "-", char, "normal", message, "def", "1", "0", itoa(charID), "0", "0", "0", "0", "0", "0",
		"", "-1", "0", "0",
	}
}

// icPacket builds an MS packet for the given character.
func icPacket(char string, charID int, message string) string {
	return types.NewPacket("MS", icArgs(char, charID, message)...).Encode()
}

func unlockInvestigation(ts *testServer) {
	ts.Hubs[1].Do(func(h *room.Hub) { h.Unlock() })
}

func TestChangeCharacter(t *testing.T) {
	ts := newTestServer(t)
	a := ts.join(t, "10.0.0.1", 0)
	b := ts.join(t, "10.0.0.2", -1)

	ts.send(b, "CC#1#0#hwid#%")
	assert.Empty(t, drain(b), "taken character is refused silently")
	assert.Equal(t, -1, b.Session().CharID)

	ts.send(b, "CC#1#1#hwid#%")
	packets := drain(b)
	assert.Contains(t, packets, "PV#1#CID#1#%")
	assert.Contains(t, packets, "CharsCheck#-1#-1#0#%")
	assert.Equal(t, "Edgeworth", b.Session().CharName)

	ts.send(a, "CC#0#-1#hwid#%")
	assert.Equal(t, -1, a.Session().CharID)
	ts.send(b, "CC#1#0#hwid#%")
	assert.Equal(t, 0, b.Session().CharID)

	ts.send(b, "CC#1#42#hwid#%")
	assert.Equal(t, 0, b.Session().CharID, "out of range character is ignored")

	require.Eventually(t, func() bool { return len(ts.events(types.LogKindChangeChar)) == 4 }, time.Second, 10*time.Millisecond)
}

func TestMusicChange(t *testing.T) {
	ts := newTestServer(t)
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }
	dj := ts.join(t, "10.0.0.1", 0)
	listener := ts.join(t, "10.0.0.2", 1)
	spectator := ts.join(t, "10.0.0.3", -1)

	ts.send(spectator, "MC#trial.opus#-1#%")
	assert.Contains(t, serverMessage(drain(spectator)), "Spectator are blocked from changing the music.")

	ts.send(dj, "MC#trial.opus#0##fade#%")
	assert.Contains(t, drain(listener), "MC#trial.opus#0#Phoenix#1#0#fade#%")

	now = now.Add(time.Second)
	ts.send(dj, "MC#cross.opus#0#%")
	assert.Contains(t, serverMessage(drain(dj)), "You change music a lot!")
	assert.Empty(t, drain(listener))
	ts.Areas[0].Do(func(a *room.Area) {
		assert.Equal(t, "trial.opus", a.CurrentMusic())
		assert.Equal(t, "Phoenix", a.MusicPlayedBy())
	})

	now = now.Add(2 * time.Second)
	ts.send(dj, "MC#Trials#0#%")
	assert.Contains(t, drain(listener), "MC#~stop.mp3#0#Phoenix#1#0#0#%", "categories stop the music")

	ts.send(listener, "CT#nick#/block_dj 0#%")
	assert.Contains(t, serverMessage(drain(listener)), "permission")

	ts.Areas[0].Do(func(a *room.Area) { a.ToggleMusic() })
	now = now.Add(3 * time.Second)
	ts.send(dj, "MC#cross.opus#0#%")
	assert.Contains(t, serverMessage(drain(dj)), "Music is disabled in this area.")

	require.Eventually(t, func() bool { return len(ts.events(types.LogKindMusic)) == 2 }, time.Second, 10*time.Millisecond)
}

func TestMusicCooldownIsPerArea(t *testing.T) {
	ts := newTestServer(t)
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }
	dj := ts.join(t, "10.0.0.1", 0)
	other := ts.join(t, "10.0.0.2", 1)

	ts.send(dj, "MC#trial.opus#0#%")
	drain(dj)
	drain(other)

	now = now.Add(time.Second)
	ts.send(other, "MC#cross.opus#1#%")
	assert.Contains(t, serverMessage(drain(other)), "You change music a lot!")
	assert.Empty(t, drain(dj))
	ts.Areas[0].Do(func(a *room.Area) {
		assert.Equal(t, "trial.opus", a.CurrentMusic())
		assert.Equal(t, "Phoenix", a.MusicPlayedBy())
	})

	now = now.Add(2 * time.Second)
	ts.send(other, "MC#cross.opus#1#%")
	assert.Contains(t, drain(dj), "MC#cross.opus#1#Edgeworth#1#0#0#%")
}

func TestMusicChangeSwitchesArea(t *testing.T) {
	ts := newTestServer(t)
	unlockInvestigation(ts)
	c := ts.join(t, "10.0.0.1", 0)
	other := ts.join(t, "10.0.0.2", 1)

	ts.send(c, "MC#Detention Center#0#%")
	assert.Equal(t, 3, c.Session().Area)
	assert.Equal(t, 0, c.Session().CharID)
	assert.Equal(t, 1, ts.Areas[3].Summary().Players)
	seen := make([]string, 0)
	require.Eventually(t, func() bool {
		seen = append(seen, drain(other)...)
		_, ok := findPacket(seen, "ARUP#0#1#0#0#1#")
		return ok
	}, time.Second, 10*time.Millisecond)

	drain(c)
	ts.send(c, "MC#No such thing#0#%")
	assert.Empty(t, drain(c), "unknown names are a silent no-op")

	require.Eventually(t, func() bool { return len(ts.events(types.LogKindChangeArea)) == 1 }, time.Second, 10*time.Millisecond)
}

func TestAreaJoinRules(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)

	ts.send(c, "MC#Courtroom 1#0#%")
	assert.Contains(t, serverMessage(drain(c)), "password protected")
	assert.Equal(t, 0, c.Session().Area)

	ts.send(c, "CT#nick#/password objection#%")
	ts.send(c, "MC#Courtroom 1#0#%")
	assert.Equal(t, 1, c.Session().Area)

	ts.send(c, "MC#Courtroom 2#0#%")
	assert.Contains(t, serverMessage(drain(c)), "Area Courtroom 2 is locked.")
	assert.Equal(t, 1, c.Session().Area)

	ts.Areas[2].Do(func(a *room.Area) { a.Invite(c.ID()) })
	ts.send(c, "MC#Courtroom 2#0#%")
	assert.Equal(t, 2, c.Session().Area)

	// the hub of the detention center is locked
	ts.Hubs[1].Do(func(h *room.Hub) { h.Lock() })
	ts.send(c, "MC#Detention Center#0#%")
	assert.Contains(t, serverMessage(drain(c)), "Hub Investigation is locked")
	ts.Hubs[1].Do(func(h *room.Hub) { h.Invite(c.ID()) })
	ts.send(c, "MC#Detention Center#0#%")
	assert.Equal(t, 3, c.Session().Area)
	ts.Hubs[0].Do(func(h *room.Hub) { assert.Equal(t, 0, h.PlayerCount()) })
	ts.Hubs[1].Do(func(h *room.Hub) { assert.Equal(t, 1, h.PlayerCount()) })
}

func TestSpectatableAreaAndTakenCharacter(t *testing.T) {
	ts := newTestServer(t)
	unlockInvestigation(ts)
	a := ts.join(t, "10.0.0.1", 0)
	ts.send(a, "MC#Detention Center#0#%")
	b := ts.join(t, "10.0.0.2", 0)

	ts.send(b, "MC#Detention Center#0#%")
	assert.Contains(t, serverMessage(drain(b)), "Your character is taken")
	assert.Equal(t, -1, b.Session().CharID)

	ts.Areas[0].Do(func(ar *room.Area) { ar.Spectatable() })
	ts.send(b, "CC#1#2#hwid#%")
	ts.send(b, "MC#Basement#0#%")
	drain(b)
	ts.send(b, "CC#1#2#hwid#%")
	assert.Contains(t, serverMessage(drain(b)), "spectate-only")
}

func TestHealthBar(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "HP#1#15#%")
	assert.Contains(t, drain(c), "HP#1#10#%")
	ts.send(c, "HP#2#-3#%")
	assert.Contains(t, drain(c), "HP#2#0#%")
	ts.send(c, "HP#3#5#%")
	assert.Empty(t, drain(c))
	ts.send(c, "HP#x#5#%")
	assert.Empty(t, drain(c))

	ts.Areas[0].Do(func(a *room.Area) {
		assert.Equal(t, 0, a.ProHP())
		assert.Len(t, a.Judgelog(), 2)
	})

	spectator := ts.join(t, "10.0.0.2", -1)
	ts.send(spectator, "HP#1#3#%")
	assert.Contains(t, serverMessage(drain(spectator)), "Spectators are blocked")
}

func TestICMessage(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	other := ts.join(t, "10.0.0.2", 1)

	ts.send(c, icPacket("Phoenix", 0, "Hold it!"))
	packets := drain(other)
	require.Len(t, packets, 1)
	assert.True(t, strings.HasPrefix(packets[0], "MS#chat#-#Phoenix#normal#Hold it!#"))

	ts.send(c, icPacket("Phoenix", 0, "Hold it!"))
	assert.Empty(t, drain(other), "duplicates are dropped")

	ts.send(c, icPacket("Phoenix", 1, "not my character"))
	assert.Empty(t, drain(other))

	require.Eventually(t, func() bool { return len(ts.events(types.LogKindIC)) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Hold it!", ts.events(types.LogKindIC)[0].Message)
}

func TestICMessagePolicies(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.Areas[2].Do(func(a *room.Area) { a.Invite(c.ID()) })
	ts.send(c, "MC#Courtroom 2#0#%")
	drain(c)

	ts.send(c, icPacket("Maya", 0, "iniswap"))
	assert.Contains(t, serverMessage(drain(c)), "Iniswap is blocked")

	ts.send(c, icPacket("Phoenix", 0, "  "))
	assert.Contains(t, serverMessage(drain(c)), "Blankposting has been forbidden")

	shout := icArgs("Phoenix", 0, "Objection!")
	shout[10] = "1"
	ts.send(c, types.NewPacket("MS", shout...).Encode())
	assert.Contains(t, serverMessage(drain(c)), "Shouts have been disabled")
}

func TestFloodguard(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.Areas[2].Do(func(a *room.Area) { a.Invite(c.ID()) })
	ts.send(c, "MC#Courtroom 2#0#%")
	drain(c)

	// burst of 2
	ts.send(c, icPacket("Phoenix", 0, "one"))
	ts.send(c, icPacket("Phoenix", 0, "two"))
	ts.send(c, icPacket("Phoenix", 0, "three"))
	assert.Contains(t, serverMessage(drain(c)), "Flood detected")
	ts.send(c, icPacket("Phoenix", 0, "four"))
	assert.Contains(t, serverMessage(drain(c)), "floodguard is active")
	ts.Areas[2].Do(func(a *room.Area) { assert.False(t, a.IsMessageAllowed()) })
}

func TestTestimonyRecordingAndPlayback(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)

	ts.send(c, "RT#testimony1#%")
	drain(c)
	for _, msg := range []string{"Title", "First", "Second"} {
		ts.send(c, icPacket("Phoenix", 0, msg))
	}
	drain(c)
	ts.send(c, "CT#nick#/testimony#%")
	assert.Contains(t, serverMessage(drain(c)), "0: Title\n1: First\n2: Second")

	ts.send(c, "RT#testimony2#%")
	assert.Contains(t, serverMessage(drain(c)), "Starting cross-examination.")

	ts.send(c, icPacket("Phoenix", 0, ">"))
	packets := drain(c)
	require.Len(t, packets, 1)
	assert.Contains(t, packets[0], "#First#")

	ts.send(c, icPacket("Phoenix", 0, ">"))
	assert.Contains(t, drain(c)[0], "#Second#")

	ts.send(c, icPacket("Phoenix", 0, ">"))
	packets = drain(c)
	assert.Contains(t, serverMessage(packets), "Looping to first statement")
	assert.Contains(t, packets[len(packets)-1], "#First#")

	ts.send(c, icPacket("Phoenix", 0, "<"))
	assert.Contains(t, serverMessage(drain(c)), "First statement reached.")
}

func TestRejectedNavigationKeepsShowname(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.Areas[0].Do(func(a *room.Area) { a.Testimony().SetMode(room.TestimonyPlayback) })

	next := icArgs("Phoenix", 0, ">")
	next[icShownameIndex] = "Nick"
	ts.send(c, types.NewPacket("MS", next...).Encode())
	assert.Contains(t, serverMessage(drain(c)), "There is no testimony to navigate.")
	assert.Empty(t, c.Session().Showname)

	ts.Areas[0].Do(func(a *room.Area) { a.Testimony().Clear() })
	msg := icArgs("Phoenix", 0, "Hold it!")
	msg[icShownameIndex] = "Nick"
	ts.send(c, types.NewPacket("MS", msg...).Encode())
	assert.Equal(t, "Nick", c.Session().Showname)
}

func TestEvidencePolicy(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "PE#Badge#Attorney's badge#badge.png#%")
	assert.Contains(t, drain(c), "LE#Badge&Attorney's badge&badge.png#%")

	ts.send(c, "EE#0#Badge#Shiny & new#badge.png#%")
	assert.Contains(t, drain(c), "LE#Badge&Shiny <and> new&badge.png#%")

	ts.Areas[0].Do(func(a *room.Area) { a.SetEvidenceMod(room.EvidenceCMOnly) })
	ts.send(c, "DE#0#%")
	assert.Contains(t, serverMessage(drain(c)), "permission")

	ts.send(c, "CT#nick#/cm#%")
	ts.send(c, "DE#0#%")
	assert.Contains(t, drain(c), "LE#%")
}

func TestModcall(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	mod := ts.join(t, "10.0.0.2", -1)
	ts.send(mod, "CT#mod#/login secret#%")
	drain(mod)

	ts.send(c, "ZZ#help me#%")
	packets := drain(mod)
	_, ok := findPacket(packets, "ZZ#[Basement] Phoenix (")
	assert.True(t, ok)
	require.Eventually(t, func() bool { return len(ts.events(types.LogKindModcall)) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "help me", ts.events(types.LogKindModcall)[0].Message)
}
