package room

import (
	"strconv"
	"strings"
)

// AreaConfig is one configured area section. Zero values are not meaningful on their
// own, start from DefaultAreaConfig.
type AreaConfig struct {
	Name                  string   `mapstructure:"name"`
	Background            string   `mapstructure:"background"`
	Protected             bool     `mapstructure:"protected_area"`
	IniswapAllowed        bool     `mapstructure:"iniswap_allowed"`
	BgLocked              bool     `mapstructure:"bg_locked"`
	EvidenceMod           string   `mapstructure:"evidence_mod"`
	Status                string   `mapstructure:"status"`
	LockStatus            string   `mapstructure:"lock_status"`
	BlankpostingAllowed   bool     `mapstructure:"blankposting_allowed"`
	AreaMessage           string   `mapstructure:"area_message"`
	SendAreaMessageOnJoin bool     `mapstructure:"send_area_message_on_join"`
	WtceEnabled           bool     `mapstructure:"wtce_enabled"`
	ShoutsEnabled         bool     `mapstructure:"shouts_enabled"`
	ForceImmediate        bool     `mapstructure:"force_immediate"`
	ToggleMusic           bool     `mapstructure:"toggle_music"`
	ShownamesAllowed      bool     `mapstructure:"shownames_allowed"`
	IgnoreBgList          bool     `mapstructure:"ignore_bglist"`
	ChillMod              bool     `mapstructure:"chillmod"`
	AutoMod               bool     `mapstructure:"automod"`
	FloodguardActive      bool     `mapstructure:"floodguard_active"`
	Password              string   `mapstructure:"password"`
	Evidence              []string `mapstructure:"evidence"`
	ChangeStatus          bool     `mapstructure:"change_status"`
	OocType               string   `mapstructure:"ooc_type"`
}

func DefaultAreaConfig() AreaConfig {
	return AreaConfig{
		Background:          "gs4",
		IniswapAllowed:      true,
		EvidenceMod:         "FFA",
		Status:              "IDLE",
		LockStatus:          "FREE",
		BlankpostingAllowed: true,
		WtceEnabled:         true,
		ShoutsEnabled:       true,
		ToggleMusic:         true,
		ShownamesAllowed:    true,
		ChangeStatus:        true,
		OocType:             "ALL",
	}
}

type HubConfig struct {
	Name            string `mapstructure:"name"`
	Protected       bool   `mapstructure:"protected_hub"`
	HidePlayerCount bool   `mapstructure:"hide_playercount"`
	LockStatus      string `mapstructure:"lock_status"`
}

func DefaultHubConfig() HubConfig {
	return HubConfig{LockStatus: "FREE"}
}

// SplitHubPrefix parses "<hub>:<name>". Without a numeric prefix the hub is 0 and the
// whole string is the name.
func SplitHubPrefix(configured string) (int, string) {
	idx := strings.Index(configured, ":")
	if idx < 0 {
		return 0, configured
	}
	hub, err := strconv.Atoi(strings.TrimSpace(configured[:idx]))
	if err != nil || hub < 0 {
		return 0, configured
	}
	return hub, configured[idx+1:]
}
