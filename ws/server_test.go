package ws

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/eventlog"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

const testConfig = `
server_name = "Test Court"
server_description = "testing"
max_players = 10
modpass = "secret"
characters = ["Phoenix", "Edgeworth", "Maya"]
backgrounds = ["gs4", "default"]
music = ["Trials", "trial.opus", "cross.opus"]
music_cooldown = "2s"

[floodguard]
rate = 1
burst = 2
duration = "10s"

[[hub]]
name = "0:Main"

[[hub]]
name = "1:Investigation"
lock_status = "LOCKED"

[[area]]
name = "0:Basement"

[[area]]
name = "0:Courtroom 1"
password = "objection"

[[area]]
name = "0:Courtroom 2"
lock_status = "LOCKED"
floodguard_active = true
iniswap_allowed = false
shouts_enabled = false
blankposting_allowed = false

[[area]]
name = "1:Detention Center"
`

type testServer struct {
	*Server
	sink *eventlog.MemorySink
}

func newTestServer(t *testing.T, tweak ...func(*config.Config)) *testServer {
	cfg, err := config.ParseConfiguration([]byte(testConfig))
	require.NoError(t, err)
	for _, f := range tweak {
		f(cfg)
	}
	sink := eventlog.NewMemorySink()
	router := eventlog.NewRouter(eventlog.Config{}, []eventlog.NamedSink{{Name: "memory", Sink: sink}})
	s := NewServer(cfg, router, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		s.Wait()
		_ = router.Close(context.Background())
	})
	return &testServer{Server: s, sink: sink}
}

// connect registers a client without a websocket connection; its packets stay in Send.
func (ts *testServer) connect(t *testing.T, ip string) *Client {
	c := NewClient(ts.Server, nil, ip)
	_, err := ts.Registry.Add(c)
	require.NoError(t, err)
	return c
}

func (ts *testServer) send(c *Client, raw string) {
	p, err := types.DecodePacket(raw)
	if err != nil {
		panic(err)
	}
	ts.Dispatcher.Dispatch(c, p)
}

// join runs the handshake and picks a character (-1 stays spectator).
func (ts *testServer) join(t *testing.T, ip string, charID int) *Client {
	c := ts.connect(t, ip)
	ts.send(c, "HI#hwid-"+ip+"#%")
	ts.send(c, "ID#AO2#2.9.1#%")
	ts.send(c, "RD#%")
	require.True(t, c.Session().Joined)
	if charID >= 0 {
		ts.send(c, "CC#0#"+itoa(charID)+"#hwid#%")
		require.Equal(t, charID, c.Session().CharID)
	}
	drain(c)
	return c
}

func (ts *testServer) events(kind types.LogKind) []*types.LogEvent {
	res := make([]*types.LogEvent, 0)
	for _, e := range ts.sink.Events() {
		if e.Kind == kind {
			res = append(res, e)
		}
	}
	return res
}

func drain(c *Client) []string {
	res := make([]string, 0)
	for {
		select {
		case b := <-c.Send:
			res = append(res, string(b))
		default:
			return res
		}
	}
}

func findPacket(packets []string, prefix string) (string, bool) {
	for _, p := range packets {
		if strings.HasPrefix(p, prefix) {
			return p, true
		}
	}
	return "", false
}

func serverMessage(packets []string) string {
	msgs := make([]string, 0)
	for _, p := range packets {
		if strings.HasPrefix(p, "CT#Test Court#") {
			msgs = append(msgs, p)
		}
	}
	return strings.Join(msgs, "\n")
}

func TestHandshake(t *testing.T) {
	ts := newTestServer(t)
	c := ts.connect(t, "10.0.0.1")

	ts.send(c, "HI#abc#%")
	packets := drain(c)
	assert.Contains(t, packets, "ID#0#lightspeed-court#1.0.0#%")
	assert.Equal(t, "abc", c.Session().HWID)

	ts.send(c, "ID#AO2#2.9.1#%")
	packets = drain(c)
	assert.Contains(t, packets, "PN#0#10#testing#%")
	_, ok := findPacket(packets, "FL#noencryption#")
	assert.True(t, ok)
	assert.Equal(t, Version{Release: 2, Major: 9, Minor: 1}, c.Session().Version)

	ts.send(c, "askchaa#%")
	assert.Equal(t, []string{"SI#3#0#7#%"}, drain(c))
	ts.send(c, "RC#%")
	assert.Equal(t, []string{"SC#Phoenix#Edgeworth#Maya#%"}, drain(c))
	ts.send(c, "RM#%")
	assert.Equal(t, []string{"SM#Basement#Courtroom 1#Courtroom 2#Detention Center#Trials#trial.opus#cross.opus#%"}, drain(c))

	ts.send(c, "RD#%")
	packets = drain(c)
	assert.Contains(t, packets, "HP#1#10#%")
	assert.Contains(t, packets, "BN#gs4#%")
	assert.Contains(t, packets, "MC#~stop.mp3#-1#%")
	assert.Contains(t, packets, "CharsCheck#0#0#0#%")
	assert.Equal(t, "DONE#%", packets[len(packets)-1])
	assert.True(t, c.Session().Joined)
	assert.Equal(t, 1, ts.Areas[0].Summary().Players)

	ts.send(c, "CH#0#%")
	assert.Equal(t, []string{"CHECK#%"}, drain(c))

	require.Eventually(t, func() bool { return len(ts.events(types.LogKindConnect)) == 1 }, time.Second, 10*time.Millisecond)
}

func TestDoubleIDIsProtocolViolation(t *testing.T) {
	for _, second := range []string{"ID#AO2#2.9.1#%", "ID#AO2#custom-build#%", "ID#AO2#3.0.0#%"} {
		ts := newTestServer(t)
		c := ts.connect(t, "10.0.0.1")
		ts.send(c, "HI#abc#%")
		ts.send(c, "ID#AO2#custom-build#%")
		drain(c)
		require.False(t, c.closed())
		assert.Equal(t, Version{}, c.Session().Version, "unparsable versions keep the defaults")

		ts.send(c, second)
		assert.Equal(t, []string{"BD#A protocol error has been encountered. Packet : ID#%"}, drain(c), second)
		assert.True(t, c.closed(), second)
	}
}

func TestHandshakeOrder(t *testing.T) {
	ts := newTestServer(t)
	c := ts.connect(t, "10.0.0.1")
	ts.send(c, "ID#AO2#2.9.1#%")
	assert.Equal(t, []string{"BD#A protocol error has been encountered. Packet : ID#%"}, drain(c))
	assert.True(t, c.closed())

	c = ts.connect(t, "10.0.0.2")
	ts.send(c, "HI#abc#%")
	drain(c)
	ts.send(c, "RD#%")
	assert.Equal(t, []string{"BD#A protocol error has been encountered. Packet : RD#%"}, drain(c))
	assert.True(t, c.closed())
	assert.False(t, c.Session().Joined)
	assert.Equal(t, 0, ts.Areas[0].Summary().Players)
}

func TestPacketsBeforeJoinAreIgnored(t *testing.T) {
	ts := newTestServer(t)
	member := ts.join(t, "10.0.0.1", 0)
	ghost := ts.connect(t, "10.0.0.2")

	ts.send(ghost, "CT#ghost#/cm#%")
	ts.send(ghost, "CT#ghost#/lock#%")
	ts.send(ghost, "CT#ghost#hello everyone#%")
	ts.send(ghost, "MC#trial.opus#0#%")
	assert.Empty(t, serverMessage(drain(ghost)))
	assert.False(t, ghost.closed())
	packets := drain(member)
	assert.NotContains(t, packets, "CT#ghost#hello everyone#0#%")
	assert.Empty(t, serverMessage(packets))
	_, ok := findPacket(packets, "MC#")
	assert.False(t, ok)

	sum := ts.Areas[0].Summary()
	assert.Equal(t, "FREE", sum.CMs)
	assert.Equal(t, "FREE", sum.Lock)
	ts.Areas[0].Do(func(a *room.Area) { assert.Equal(t, room.StopTrack, a.CurrentMusic()) })
	assert.Empty(t, ts.events(types.LogKindOOC))
	assert.Empty(t, ts.events(types.LogKindCommand))
}

func TestArityViolation(t *testing.T) {
	ts := newTestServer(t)
	c := ts.connect(t, "10.0.0.1")
	ts.send(c, "MS#only#three#args#%")
	assert.Equal(t, []string{"BD#A protocol error has been encountered. Packet : MS#%"}, drain(c))
	assert.True(t, c.closed())
}

func TestUnknownPacketIgnored(t *testing.T) {
	ts := newTestServer(t)
	c := ts.connect(t, "10.0.0.1")
	ts.send(c, "XYZ#1#2#%")
	assert.Empty(t, drain(c))
	assert.False(t, c.closed())
}

func TestWebAO(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) { cfg.WebAOEnabled = false })
	c := ts.connect(t, "10.0.0.1")
	ts.send(c, "HI#abc#%")
	drain(c)
	ts.send(c, "ID#webAO#webAO#%")
	assert.Equal(t, []string{"BD#WebAO is disabled on this server.#%"}, drain(c))
	assert.True(t, c.closed())

	ts = newTestServer(t, func(cfg *config.Config) { cfg.WebUsersSpectatorOnly = true })
	c = ts.connect(t, "10.0.0.2")
	ts.send(c, "HI#def#%")
	ts.send(c, "ID#webAO#2.9.0#%")
	assert.True(t, c.Session().WebClient)
	ts.send(c, "RD#%")
	drain(c)
	ts.send(c, "CC#0#1#hwid#%")
	assert.Contains(t, serverMessage(drain(c)), "Web clients may only spectate")
	assert.Equal(t, -1, c.Session().CharID)
}

func TestPermissionDenied(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "CT#nick#/kick 10.0.0.2#%")
	assert.Contains(t, serverMessage(drain(c)), "You do not have permission to use that command.")
}

func TestRegistry(t *testing.T) {
	ts := newTestServer(t)
	a := ts.connect(t, "10.0.0.1")
	b := ts.connect(t, "10.0.0.2")
	assert.Equal(t, 0, a.ID())
	assert.Equal(t, 1, b.ID())
	ts.Registry.Remove(a)
	c := ts.connect(t, "10.0.0.3")
	assert.Equal(t, 0, c.ID(), "lowest free id is reused")
	assert.Len(t, ts.Registry.Clients(), 2)

	assert.Equal(t, IPID("10.0.0.2", ts.Cfg.IPIDSalt), b.Session().IPID)
	assert.NotEqual(t, IPID("10.0.0.2", "pepper"), b.Session().IPID)
	assert.Len(t, ts.Registry.ByIPID(b.Session().IPID), 1)
	assert.NotEmpty(t, a.Session().OOCName)

	full := NewRegistry(1)
	_, err := full.Add(&Client{})
	require.NoError(t, err)
	_, err = full.Add(&Client{})
	assert.Equal(t, ErrServerFull, err)
}

func TestDisconnectLeavesArea(t *testing.T) {
	ts := newTestServer(t)
	c := ts.join(t, "10.0.0.1", 0)
	ts.send(c, "CT#nick#/cm#%")
	require.Equal(t, "Phoenix [0]", ts.Areas[0].Summary().CMs)

	ts.disconnect(c)
	require.Eventually(t, func() bool {
		sum := ts.Areas[0].Summary()
		return sum.Players == 0 && sum.CMs == "FREE"
	}, time.Second, 10*time.Millisecond)
	assert.Nil(t, ts.Registry.Get(0))
}

func TestBroadcastSkipsClientsThatMovedOn(t *testing.T) {
	ts := newTestServer(t)
	unlockInvestigation(ts)
	c := ts.join(t, "10.0.0.1", 0)
	stay := ts.join(t, "10.0.0.2", 1)

	release := make(chan struct{})
	done := make(chan bool, 1)
	ts.Areas[0].Post(func(a *room.Area) {
		<-release
		member := false
		for _, id := range a.JoinedIDs() {
			member = member || id == c.ID()
		}
		ts.broadcast(a, types.NewPacket("CT", "nick", "hello", "0"))
		done <- member
	})
	require.NoError(t, ts.changeArea(c, 3))
	require.Equal(t, 3, c.Session().Area)
	drain(c)
	close(release)
	assert.True(t, <-done, "the leave is queued behind the broadcast")

	ts.Areas[0].Do(func(a *room.Area) {})
	assert.NotContains(t, drain(c), "CT#nick#hello#0#%")
	assert.Contains(t, drain(stay), "CT#nick#hello#0#%")
	assert.Equal(t, 1, ts.Areas[0].Summary().Players)
}
