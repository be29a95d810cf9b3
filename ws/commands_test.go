package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

func TestCommandErrors(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)

	ts.send(c, "CT#nick#/frobnicate#%")
	assert.Contains(t, serverMessage(drain(c)), "Invalid command.")

	ts.send(c, "CT#nick#/status#%")
	assert.Contains(t, serverMessage(drain(c)), "Invalid command syntax. Usage: /status")

	ts.send(c, "CT##hello#%")
	assert.Contains(t, serverMessage(drain(c)), "You must insert a name")
	ts.send(c, "CT#Test Court#hello#%")
	assert.Contains(t, serverMessage(drain(c)), "That name is reserved.")

	ts.send(c, "CT#nick#/help#%")
	help := serverMessage(drain(c))
	assert.Contains(t, help, "/status <")
	assert.NotContains(t, help, "/kick")
}

func TestOOCMessage(t *testing.T) {
	ts := newTestServer(t)
	a := ts.join(t, "10.0.0.1", 0)
	b := ts.join(t, "10.0.0.2", -1)
	ts.send(a, "CT#Nick#Hello there#%")
	assert.Contains(t, drain(b), "CT#Nick#Hello there#0#%")
	assert.Equal(t, "Nick", a.Session().OOCName)
	require.Eventually(t, func() bool { return len(ts.events(types.LogKindOOC)) == 1 }, time.Second, 10*time.Millisecond)
}

func TestRejectedCommandKeepsOOCName(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "CT#Nick#hello#%")
	drain(c)

	ts.send(c, "CT#Impostor#/frobnicate#%")
	ts.send(c, "CT#Impostor#/kick 10.0.0.2#%")
	ts.send(c, "CT#Impostor#/status#%")
	drain(c)
	assert.Equal(t, "Nick", c.Session().OOCName)

	ts.send(c, "CT#Renamed#/status casing#%")
	drain(c)
	assert.Equal(t, "Renamed", c.Session().OOCName)
}

func TestCredentialsAreNotLogged(t *testing.T) {
	ts := newTestServer(t)
	mod := ts.join(t, "10.0.0.1", 0)
	ts.send(mod, "CT#mod#/login secret#%")
	ts.send(mod, "CT#mod#/cm#%")
	ts.send(mod, "CT#mod#/area_password hunter2#%")
	ts.send(mod, "CT#mod#/password hunter2#%")
	ts.send(mod, "CT#mod#/status casing#%")
	drain(mod)

	require.Eventually(t, func() bool { return len(ts.events(types.LogKindCommand)) == 5 }, time.Second, 10*time.Millisecond)
	commands := make([]string, 0)
	for _, e := range ts.events(types.LogKindCommand) {
		commands = append(commands, e.Command)
		assert.NotContains(t, e.Args, "secret", e.Command)
		assert.NotContains(t, e.Args, "hunter2", e.Command)
	}
	assert.Equal(t, []string{"login", "cm", "area_password", "password", "status"}, commands)
	assert.Equal(t, "casing", ts.events(types.LogKindCommand)[4].Args)
}

func TestCMLockAndInvite(t *testing.T) {
	ts := newTestServer(t)
	unlockInvestigation(ts)
	cm := ts.join(t, "10.0.0.1", 0)
	member := ts.join(t, "10.0.0.2", 1)
	outsider := ts.join(t, "10.0.0.3", 2)
	ts.send(outsider, "MC#Detention Center#0#%")
	drain(outsider)

	ts.send(cm, "CT#nick#/cm#%")
	assert.Contains(t, serverMessage(drain(member)), "[0] Phoenix is now CM in this area.")
	ts.send(member, "CT#nick#/cm#%")
	assert.Contains(t, serverMessage(drain(member)), "You cannot become a CM in this area.")
	ts.send(member, "CT#nick#/lock#%")
	assert.Contains(t, serverMessage(drain(member)), "You do not have permission")

	ts.send(cm, "CT#nick#/lock#%")
	assert.Equal(t, "LOCKED", ts.Areas[0].Summary().Lock)
	ts.Areas[0].Do(func(a *room.Area) { assert.True(t, a.IsInvited(member.ID())) })
	_, ok := findPacket(drain(outsider), "ARUP#3#LOCKED#FREE#LOCKED#FREE#")
	assert.True(t, ok)

	ts.send(outsider, "MC#Basement#0#%")
	assert.Contains(t, serverMessage(drain(outsider)), "Area Basement is locked.")

	ts.send(cm, "CT#nick#/invite "+itoa(outsider.ID())+"#%")
	assert.Contains(t, serverMessage(drain(outsider)), "You were invited to area Basement.")
	ts.send(outsider, "MC#Basement#0#%")
	assert.Equal(t, 0, outsider.Session().Area)

	ts.send(cm, "CT#nick#/uncm#%")
	assert.Contains(t, serverMessage(drain(member)), "This area is no longer locked.")
	sum := ts.Areas[0].Summary()
	assert.Equal(t, "FREE", sum.Lock)
	assert.Equal(t, "FREE", sum.CMs)
}

func TestStatusCommand(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "CT#nick#/status casing#%")
	packets := drain(c)
	assert.Contains(t, serverMessage(packets), "Phoenix changed status to CASING.")
	assert.Contains(t, packets, "ARUP#1#CASING#IDLE#IDLE#IDLE#%")
	assert.Equal(t, "CASING", ts.Areas[0].Summary().Status)

	ts.send(c, "CT#nick#/status napping#%")
	assert.Contains(t, serverMessage(drain(c)), "That does not look like a valid status.")
}

func TestAreaSettingsCommands(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "CT#nick#/cm#%")
	drain(c)

	ts.send(c, "CT#nick#/bg default#%")
	assert.Contains(t, drain(c), "BN#default#%")
	ts.send(c, "CT#nick#/bg nowhere#%")
	assert.Contains(t, serverMessage(drain(c)), "Invalid background name.")

	ts.send(c, "CT#nick#/toggle_shouts#%")
	assert.Contains(t, serverMessage(drain(c)), "Shouts is now forbidden in this area.")

	ts.send(c, "CT#nick#/addsong custom.opus#%")
	drain(c)
	ts.send(c, "MC#custom.opus#0#%")
	assert.Contains(t, drain(c), "MC#custom.opus#0#Phoenix#1#0#0#%")
	ts.send(c, "CT#nick#/currentmusic#%")
	assert.Contains(t, serverMessage(drain(c)), "The current song is custom.opus played by Phoenix.")

	ts.send(c, "CT#nick#/area_password hunter2#%")
	ts.Areas[0].Do(func(a *room.Area) {
		assert.Equal(t, "hunter2", a.Password())
		assert.False(t, a.IsShoutAllowed())
		assert.Equal(t, "default", a.Background())
	})
}

func TestNotecards(t *testing.T) {
	ts := newTestServer(t)
	a := ts.join(t, "10.0.0.1", 0)
	b := ts.join(t, "10.0.0.2", 1)
	ts.send(a, "CT#nick#/notecard guilty#%")
	ts.send(b, "CT#nick#/notecard not guilty#%")
	assert.Contains(t, serverMessage(drain(a)), "Edgeworth wrote a note card.")

	ts.send(a, "CT#nick#/notecard_reveal#%")
	assert.Contains(t, serverMessage(drain(a)), "permission")

	ts.send(a, "CT#nick#/cm#%")
	ts.send(a, "CT#nick#/notecard_reveal#%")
	assert.Contains(t, serverMessage(drain(b)), "Note cards have been revealed.\nEdgeworth: not guilty\nPhoenix: guilty")
	ts.send(a, "CT#nick#/notecard_reveal#%")
	assert.Contains(t, serverMessage(drain(a)), "There are no cards to reveal")
}

func TestLoginKickAndLogout(t *testing.T) {
	ts := newTestServer(t)
	mod := ts.join(t, "10.0.0.1", -1)
	target := ts.join(t, "10.0.0.2", 0)

	ts.send(mod, "CT#mod#/login wrong#%")
	packets := drain(mod)
	assert.Contains(t, packets, "AUTH#0#%")
	assert.Contains(t, serverMessage(packets), "Incorrect credentials.")
	assert.False(t, mod.Session().Authenticated)

	ts.send(mod, "CT#mod#/login secret#%")
	assert.Contains(t, drain(mod), "AUTH#1#%")
	sess := mod.Session()
	assert.True(t, sess.Authenticated)
	assert.Equal(t, types.PermissionSuper, sess.Permissions)

	ts.send(mod, "CT#mod#/kick "+target.Session().IPID+" spamming#%")
	assert.Contains(t, drain(target), "KK#spamming#%")
	assert.True(t, target.closed())
	assert.Contains(t, serverMessage(drain(mod)), "Kicked 1 client(s).")

	ts.send(mod, "CT#mod#/kick 42#%")
	assert.Contains(t, serverMessage(drain(mod)), "No client matches 42.")

	ts.send(mod, "CT#mod#/ban "+target.Session().IPID+" 1d#%")
	assert.Contains(t, serverMessage(drain(mod)), "persistence is not configured")

	ts.send(mod, "CT#mod#/logout#%")
	assert.Contains(t, drain(mod), "AUTH#-1#%")
	assert.Equal(t, types.PermissionNone, mod.Session().Permissions)

	require.Eventually(t, func() bool {
		return len(ts.events(types.LogKindLogin)) == 2 && len(ts.events(types.LogKindKick)) == 1
	}, time.Second, 10*time.Millisecond)
	logins := ts.events(types.LogKindLogin)
	assert.False(t, logins[0].Success)
	assert.True(t, logins[1].Success)
}

func TestModeratorCommands(t *testing.T) {
	ts := newTestServer(t)
	mod := ts.join(t, "10.0.0.1", -1)
	dj := ts.join(t, "10.0.0.2", 0)
	ts.send(mod, "CT#mod#/login secret#%")
	drain(mod)

	ts.send(mod, "CT#mod#/block_dj "+itoa(dj.ID())+"#%")
	assert.Contains(t, serverMessage(drain(dj)), "You were blocked from changing the music.")
	ts.send(dj, "MC#trial.opus#0#%")
	assert.Contains(t, serverMessage(drain(dj)), "You are blocked from changing the music.")

	ts.send(mod, "CT#mod#/announce Court is adjourned#%")
	assert.Contains(t, serverMessage(drain(dj)), "=== Announcement ===\nCourt is adjourned")

	ts.send(mod, "CT#mod#/m psst#%")
	assert.Contains(t, drain(mod), "CT#[M]mod#psst#0#%")
	assert.Empty(t, drain(dj))
}

func TestParseBanDuration(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"perma": types.PermanentBan,
		"PERMA": types.PermanentBan,
		"3d":    72 * time.Hour,
		"90m":   90 * time.Minute,
	} {
		got, err := ParseBanDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "0d", "-1h", "soon", "xd"} {
		_, err := ParseBanDuration(in)
		assert.Error(t, err, in)
	}
}

func TestHubCommands(t *testing.T) {
	ts := newTestServer(t)
	a := ts.join(t, "10.0.0.1", 0)
	b := ts.join(t, "10.0.0.2", 1)

	ts.send(a, "CT#nick#/hub_lock#%")
	assert.Contains(t, serverMessage(drain(a)), "permission")

	ts.send(a, "CT#nick#/hub_cm#%")
	assert.Contains(t, serverMessage(drain(a)), "You are now CM of hub Main.")
	ts.send(b, "CT#nick#/hub_cm#%")
	assert.Contains(t, serverMessage(drain(b)), "You cannot become a CM of this hub.")

	ts.send(a, "CT#nick#/hub_lock#%")
	assert.Contains(t, serverMessage(drain(b)), "This hub is now locked.")
	ts.Hubs[0].Do(func(h *room.Hub) { assert.Equal(t, room.Locked, h.LockStatus()) })

	ts.send(a, "CT#nick#/hub_hideplayercount#%")
	packets := drain(b)
	assert.Contains(t, packets, "ARUP#0#-1#-1#-1#0#%")
	assert.Contains(t, serverMessage(packets), "The player count of this hub is now hidden.")

	ts.send(a, "CT#nick#/hub_invite "+itoa(b.ID())+"#%")
	assert.Contains(t, serverMessage(drain(b)), "You were invited to hub Main.")
	ts.Hubs[0].Do(func(h *room.Hub) { assert.True(t, h.IsInvited(b.ID())) })
	ts.send(a, "CT#nick#/hub_uninvite "+itoa(b.ID())+"#%")
	assert.Contains(t, serverMessage(drain(a)), "You uninvited ID 1 from this hub.")
}
