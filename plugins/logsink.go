package plugins

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
	"github.com/tcriess/lightspeed-court/types"
)

/*
Log sink plugins receive the server's log events (ic, ooc, modcall, ban, ...) and forward them wherever they like.
*/

// Handshake is a common handshake that is shared by plugin and host.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "LIGHTSPEED_COURT_PLUGIN",
	MagicCookieValue: "5b0d2c5c8a1e4f3f9a7f1b8c6e2d4a90c3f7e1d2b5a6c8e9f0a1b2c3d4e5f6a7",
}

const pluginName = "logsink"

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	pluginName: &LogSinkPlugin{},
}

// LogSink is the interface that we're exposing as a plugin.
type LogSink interface {
	// Configure receives the plugin's configuration block and returns a log event filter expression (see package
	// filter), the empty string selects all events.
	Configure(map[string]string) (eventFilter string, err error)

	// WriteEvents is invoked with every log event that passes the filter.
	WriteEvents([]types.LogEvent) error
}

// LogSinkPlugin is the implementation of plugin.Plugin so we can serve/consume this over net/rpc.
type LogSinkPlugin struct {
	// Concrete implementation, written in Go. This is only used for plugins
	// that are written in Go.
	Impl LogSink
}

func (p *LogSinkPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (p *LogSinkPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

var _ plugin.Plugin = &LogSinkPlugin{}

// RPCClient is the host side of the plugin connection.
type RPCClient struct {
	client *rpc.Client
}

type ConfigureResponse struct {
	EventFilter string
}

func (c *RPCClient) Configure(cfg map[string]string) (string, error) {
	var resp ConfigureResponse
	err := c.client.Call("Plugin.Configure", cfg, &resp)
	return resp.EventFilter, err
}

func (c *RPCClient) WriteEvents(events []types.LogEvent) error {
	var resp interface{}
	return c.client.Call("Plugin.WriteEvents", events, &resp)
}

// RPCServer is the plugin side of the connection, it forwards the calls to Impl.
type RPCServer struct {
	Impl LogSink
}

func (s *RPCServer) Configure(cfg map[string]string, resp *ConfigureResponse) error {
	eventFilter, err := s.Impl.Configure(cfg)
	resp.EventFilter = eventFilter
	return err
}

func (s *RPCServer) WriteEvents(events []types.LogEvent, resp *interface{}) error {
	return s.Impl.WriteEvents(events)
}

// Serve runs impl as a plugin process. It does not return.
func Serve(impl LogSink) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginName: &LogSinkPlugin{Impl: impl},
		},
	})
}
