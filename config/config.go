package config

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/room"
	"github.com/tcriess/lightspeed-court/types"
)

const (
	defaultServerName    = "lightspeed-court"
	defaultDescription   = "A lightspeed-court server"
	defaultMaxPlayers    = 100
	defaultPacketRate    = 20
	defaultPacketBurst   = 40
	defaultMusicCooldown = 2 * time.Second
	defaultBanSweepSpec  = "@every 10m"
	defaultLogBufferSize = 50
)

// Config is the global configuration object which is filled via the configuration file, environment variables
// (prefix LSCOURT_) and command-line flags.
type Config struct {
	LogLevel              string  `mapstructure:"log_level"`
	ServerName            string  `mapstructure:"server_name"`
	ServerDescription     string  `mapstructure:"server_description"`
	MaxPlayers            int     `mapstructure:"max_players"`
	WebAOEnabled          bool    `mapstructure:"webao_enabled"`
	WebUsersSpectatorOnly bool    `mapstructure:"web_users_spectator_only"`
	AssetURL              string  `mapstructure:"asset_url"`
	ModPass               string  `mapstructure:"modpass"`
	IPIDSalt              string  `mapstructure:"ipid_salt"`
	PacketRate            float64 `mapstructure:"packet_rate"`
	PacketBurst           int     `mapstructure:"packet_burst"`

	FloodguardConfig FloodguardConfig `mapstructure:"floodguard"`
	MusicCooldown    time.Duration    `mapstructure:"music_cooldown"`

	Characters  []string `mapstructure:"characters"`
	Backgrounds []string `mapstructure:"backgrounds"`
	Music       []string `mapstructure:"music"`

	BanSweepSpec  string `mapstructure:"ban_sweep_spec"`
	LogFilter     string `mapstructure:"log_filter"`
	LogFile       string `mapstructure:"log_file"`
	LogBufferSize int    `mapstructure:"log_buffer_size"`

	OIDCConfigs       []OIDCConfig      `mapstructure:"oidc"`
	PersistenceConfig PersistenceConfig `mapstructure:"persistence"`
	PluginConfigs     []PluginConfig    `mapstructure:"plugin"`
	RoleConfigs       []RoleConfig      `mapstructure:"acl_role"`

	// Areas and Hubs are decoded field by field, see decodeSection.
	Areas []room.AreaConfig `mapstructure:"-"`
	Hubs  []room.HubConfig  `mapstructure:"-"`
}

// FloodguardConfig configures the per-area IC rate. When an area with floodguard_active exceeds Rate messages per
// second (with Burst), IC messages are blocked for Duration.
type FloodguardConfig struct {
	Rate     float64       `mapstructure:"rate"`
	Burst    int           `mapstructure:"burst"`
	Duration time.Duration `mapstructure:"duration"`
}

// An OIDCConfig  object configures an OpenID Connect provider that can be used by moderators to log in. They
// provide an ID token and the name of the provider, the email claim of the verified token is then looked up
// in the user store.
type OIDCConfig struct {
	Name        string `mapstructure:"name"`
	ClientId    string `mapstructure:"client_id"`
	ProviderUrl string `mapstructure:"provider_url"` // f.e. "https://accounts.google.com", this is used to construct the discovery url and subsequently discover the openid endpoints
}

// PersistenceConfig configures the ban/user store. Type is one of "buntdb", "gorm-sqlite", "gorm-postgres",
// "sqlite" or "postgres". An empty DSN disables persistence.
type PersistenceConfig struct {
	Type      string `mapstructure:"type"`
	DSN       string `mapstructure:"dsn"`
	CacheSize int    `mapstructure:"cache_size"`
}

// Each named PluginConfig block configures a log sink plugin. The raw configuration RawPluginConfig is passed on
// to the plugin which parses its own configuration.
type PluginConfig struct {
	Name            string                 `mapstructure:"name"`
	Path            string                 `mapstructure:"path"`
	Filter          string                 `mapstructure:"filter"`
	RawPluginConfig map[string]interface{} `mapstructure:",remain"`
}

// RoleConfig is a named permission set, see types.ParsePermission for the names.
type RoleConfig struct {
	Name        string   `mapstructure:"name"`
	Permissions []string `mapstructure:"permissions"`
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flagSet.Int("max-players", 0, "maximum number of connected players")
	flagSet.String("modpass", "", "moderator password for /login without an account")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	from := "-"
	to := "_"
	name = strings.Replace(name, from, to, -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath, which can either point to a single TOML
// file or to a directory, in which case all *.toml files in this directory are concatenated. It returns a Config
// object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if flagSet != nil {
		flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
		flagSet.VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if err := v.BindPFlag(f.Name, f); err != nil {
				globals.AppLogger.Error("could not bind flag (ignored)", "flag", f.Name, "error", err)
			}
		})
	}
	v.SetEnvPrefix("LSCOURT")
	v.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := ioutil.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		if err := readTOML(v, contents); err != nil {
			return nil, err
		}
	}
	return fromViper(v)
}

// ParseConfiguration parses TOML contents directly.
func ParseConfiguration(contents []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := readTOML(v, contents); err != nil {
		return nil, err
	}
	return fromViper(v)
}

func readTOML(v *viper.Viper, contents []byte) error {
	v.SetConfigType("toml")
	return errors.Wrap(v.ReadConfig(bytes.NewBuffer(contents)), "could not read config")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("server_name", defaultServerName)
	v.SetDefault("server_description", defaultDescription)
	v.SetDefault("max_players", defaultMaxPlayers)
	v.SetDefault("webao_enabled", true)
	v.SetDefault("packet_rate", defaultPacketRate)
	v.SetDefault("packet_burst", defaultPacketBurst)
	v.SetDefault("floodguard.rate", 2.0)
	v.SetDefault("floodguard.burst", 5)
	v.SetDefault("floodguard.duration", "10s")
	v.SetDefault("music_cooldown", defaultMusicCooldown.String())
	v.SetDefault("ban_sweep_spec", defaultBanSweepSpec)
	v.SetDefault("log_buffer_size", defaultLogBufferSize)
	v.SetDefault("persistence.cache_size", 256)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := Config{}
	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not unmarshal config")
	}
	cfg.Areas = decodeAreas(v.Get("area"))
	cfg.Hubs = decodeHubs(v.Get("hub"))
	if len(cfg.Characters) == 0 {
		globals.AppLogger.Warn("no characters configured")
	}
	globals.AppLogger.Debug("config", "cfg", cfg)
	return &cfg, nil
}

// Roles returns the configured roles by name. The built-in roles NONE and SUPER are always present.
func (c *Config) Roles() map[string]types.Role {
	roles := map[string]types.Role{
		"NONE":  {Name: "NONE", Permissions: types.PermissionNone},
		"SUPER": {Name: "SUPER", Permissions: types.PermissionSuper},
	}
	for _, rc := range c.RoleConfigs {
		if rc.Name == "" {
			globals.AppLogger.Warn("acl_role without name ignored")
			continue
		}
		role := types.Role{Name: rc.Name}
		for _, name := range rc.Permissions {
			p, ok := types.ParsePermission(name)
			if !ok {
				globals.AppLogger.Warn("unknown permission ignored", "role", rc.Name, "permission", name)
				continue
			}
			role.Permissions |= p
		}
		roles[rc.Name] = role
	}
	return roles
}

func decodeAreas(raw interface{}) []room.AreaConfig {
	sections := tables(raw)
	areas := make([]room.AreaConfig, 0, len(sections))
	for i, section := range sections {
		area := room.DefaultAreaConfig()
		decodeSection(section, &area, "area", i)
		if area.Name == "" {
			globals.AppLogger.Warn("area without name, skipping", "index", i)
			continue
		}
		areas = append(areas, area)
	}
	if len(areas) == 0 {
		area := room.DefaultAreaConfig()
		area.Name = "0:Basement"
		areas = append(areas, area)
	}
	return areas
}

func decodeHubs(raw interface{}) []room.HubConfig {
	sections := tables(raw)
	hubs := make([]room.HubConfig, 0, len(sections))
	for i, section := range sections {
		hub := room.DefaultHubConfig()
		decodeSection(section, &hub, "hub", i)
		if hub.Name == "" {
			hub.Name = "Hub " + strconv.Itoa(i)
		}
		hubs = append(hubs, hub)
	}
	if len(hubs) == 0 {
		hub := room.DefaultHubConfig()
		hub.Name = "Main"
		hubs = append(hubs, hub)
	}
	return hubs
}

// tables normalizes the shapes viper returns for TOML arrays of tables.
func tables(raw interface{}) []map[string]interface{} {
	switch t := raw.(type) {
	case []map[string]interface{}:
		return t
	case []interface{}:
		res := make([]map[string]interface{}, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]interface{}); ok {
				res = append(res, m)
			}
		}
		return res
	}
	return nil
}

// decodeSection decodes every key on its own, so that one invalid value only resets that field to its default.
func decodeSection(section map[string]interface{}, out interface{}, kind string, index int) {
	for key, value := range section {
		var md mapstructure.Metadata
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Metadata:         &md,
			Result:           out,
		})
		if err != nil {
			globals.AppLogger.Error("could not create decoder", "error", err)
			return
		}
		if err := decoder.Decode(map[string]interface{}{key: value}); err != nil {
			globals.AppLogger.Warn("invalid value, using default", kind, index, "key", key, "error", err)
			continue
		}
		if len(md.Unused) > 0 {
			globals.AppLogger.Warn("unknown key ignored", kind, index, "key", key)
		}
	}
}
