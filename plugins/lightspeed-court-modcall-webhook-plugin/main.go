package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"
	"github.com/tcriess/lightspeed-court/plugins"
	"github.com/tcriess/lightspeed-court/types"
)

const (
	pluginName         = "modcall-webhook"
	defaultEventFilter = `Kind == "modcall" || Kind == "ban"`
	defaultTimeout     = 5 * time.Second
)

type config struct {
	LogLevel    string `mapstructure:"log_level"`
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	EventFilter string `mapstructure:"event_filter"`
	Timeout     string `mapstructure:"timeout"`
}

var (
	pluginConfig config
	httpClient   = &http.Client{Timeout: defaultTimeout}
)

var appLogger = hclog.New(&hclog.LoggerOptions{
	Name:  pluginName,
	Level: hclog.LevelFromString("DEBUG"),
})

// payload matches the usual chat webhook format (a single content string).
type payload struct {
	Username string `json:"username,omitempty"`
	Content  string `json:"content"`
}

func content(event types.LogEvent) string {
	switch event.Kind {
	case types.LogKindModcall:
		return fmt.Sprintf("[%s] Modcall from %s (%s) in %s: %s", event.Time.Format(time.RFC3339),
			event.Actor.CharName, event.Actor.IPID, event.Area, event.Message)
	case types.LogKindBan:
		return fmt.Sprintf("[%s] %s banned %s for %s", event.Time.Format(time.RFC3339), event.Moderator, event.Target,
			event.Duration)
	case types.LogKindKick:
		return fmt.Sprintf("[%s] %s kicked %s", event.Time.Format(time.RFC3339), event.Moderator, event.Target)
	}
	return fmt.Sprintf("[%s] %s %s: %s", event.Time.Format(time.RFC3339), event.Kind, event.Actor.CharName,
		event.Message)
}

type webhookSink struct{}

func (webhookSink) Configure(raw map[string]string) (string, error) {
	pluginConfig = config{}
	err := mapstructure.WeakDecode(raw, &pluginConfig)
	if err != nil {
		return "", err
	}
	if pluginConfig.LogLevel != "" {
		appLogger.SetLevel(hclog.LevelFromString(pluginConfig.LogLevel))
	}
	if pluginConfig.URL == "" {
		appLogger.Warn("no webhook url configured, events will be dropped")
	}
	if pluginConfig.Timeout != "" {
		d, err := time.ParseDuration(pluginConfig.Timeout)
		if err != nil {
			return "", err
		}
		httpClient.Timeout = d
	}
	appLogger.Info("configured", "url", pluginConfig.URL)
	if pluginConfig.EventFilter != "" {
		return pluginConfig.EventFilter, nil
	}
	return defaultEventFilter, nil
}

func (webhookSink) WriteEvents(events []types.LogEvent) error {
	if pluginConfig.URL == "" {
		return nil
	}
	for _, event := range events {
		body, err := json.Marshal(payload{Username: pluginConfig.Username, Content: content(event)})
		if err != nil {
			return err
		}
		resp, err := httpClient.Post(pluginConfig.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			appLogger.Error("could not post event", "error", err)
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			appLogger.Error("webhook rejected event", "status", resp.Status)
			return fmt.Errorf("webhook returned %s", resp.Status)
		}
		appLogger.Debug("event posted", "kind", event.Kind)
	}
	return nil
}

func main() {
	plugins.Serve(webhookSink{})
}
