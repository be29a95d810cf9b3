package plugins

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/types"
)

// Sink adapts a running plugin to the event log router (it satisfies eventlog.Sink).
type Sink struct {
	Name        string
	EventFilter string

	impl   LogSink
	client *plugin.Client
}

// NewSink wraps an already dispensed LogSink, f.e. an in-process implementation.
func NewSink(name string, impl LogSink) *Sink {
	return &Sink{Name: name, impl: impl}
}

func (s *Sink) Write(event *types.LogEvent) error {
	return s.impl.WriteEvents([]types.LogEvent{*event})
}

func (s *Sink) Close() error {
	if s.client != nil {
		s.client.Kill()
	}
	return nil
}

// Configure passes the raw configuration block on to the plugin and stores the returned event filter. A filter
// given in the configuration block takes precedence.
func (s *Sink) Configure(pc config.PluginConfig) error {
	raw := make(map[string]string, len(pc.RawPluginConfig))
	for k, v := range pc.RawPluginConfig {
		raw[k] = fmt.Sprint(v)
	}
	eventFilter, err := s.impl.Configure(raw)
	if err != nil {
		return errors.Wrapf(err, "could not configure plugin %s", s.Name)
	}
	s.EventFilter = eventFilter
	if pc.Filter != "" {
		s.EventFilter = pc.Filter
	}
	return nil
}

// PluginName derives the plugin name from its executable, f.e.
// "lightspeed-court-modcall-webhook-plugin" -> "modcall-webhook".
func PluginName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, "lightspeed-court-")
	name = strings.TrimSuffix(name, "-plugin")
	return strings.ToLower(name)
}

// Load starts the plugin executable at path and configures it with the matching [[plugin]] block, if any.
func Load(path string, pluginConfigs []config.PluginConfig) (*Sink, error) {
	name := PluginName(path)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap,
		Cmd:              exec.Command("sh", "-c", path),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Managed:          true,
		Logger:           globals.AppLogger.Named("plugin").With("plugin", name),
	})

	// Connect via RPC
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, errors.Wrapf(err, "could not start plugin %s", name)
	}

	// Request the plugin
	raw, err := rpcClient.Dispense(pluginName)
	if err != nil {
		client.Kill()
		return nil, errors.Wrapf(err, "could not dispense plugin %s", name)
	}
	sink := &Sink{Name: name, impl: raw.(LogSink), client: client}

	pc := config.PluginConfig{Name: name}
	for _, c := range pluginConfigs {
		if c.Name == name {
			pc = c
			break
		}
	}
	globals.AppLogger.Debug("configuring plugin", "plugin", name, "config", hclog.Fmt("%v", pc.RawPluginConfig))
	if err := sink.Configure(pc); err != nil {
		client.Kill()
		return nil, err
	}
	return sink, nil
}
