// Package config loads server settings from defaults, an optional YAML file,
// UITEST_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "ui-test-mcp"
	configType = "yaml"
	envPrefix  = "UITEST"
)

// Image response modes.
const (
	ImagesAllow = "allow"
	ImagesOmit  = "omit"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// Config is the full server configuration.
type Config struct {
	Browser        Browser  `mapstructure:"browser"`
	Network        Network  `mapstructure:"network"`
	Capabilities   []string `mapstructure:"capabilities"`
	SaveSession    bool     `mapstructure:"save_session"`
	SaveTrace      bool     `mapstructure:"save_trace"`
	OutputDir      string   `mapstructure:"output_dir"`
	ImageResponses string   `mapstructure:"image_responses"`
	Timeouts       Timeouts `mapstructure:"timeouts"`
	Server         Server   `mapstructure:"server"`
	Log            Log      `mapstructure:"log"`
}

// Browser controls how sessions are launched or attached.
type Browser struct {
	Headless       bool   `mapstructure:"headless"`
	ExecutablePath string `mapstructure:"executable_path"`
	// CDPEndpoint attaches to a running browser instead of launching one.
	CDPEndpoint string `mapstructure:"cdp_endpoint"`
	UserDataDir string `mapstructure:"user_data_dir"`
	Stealth     bool   `mapstructure:"stealth"`
	NoSandbox   bool   `mapstructure:"no_sandbox"`
}

// Network holds origin filtering rules.
type Network struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	BlockedOrigins []string `mapstructure:"blocked_origins"`
}

// Timeouts groups every tunable wait.
type Timeouts struct {
	// Action bounds how long a command waits for its network requests.
	Action time.Duration `mapstructure:"action"`
	// Settle is the quiet period after an action before the snapshot.
	Settle time.Duration `mapstructure:"settle"`
	// Load bounds the wait for a load event after navigation.
	Load time.Duration `mapstructure:"load"`
	// NavigationSuppression hides a recorded navigation that follows a
	// command's own log entry this closely.
	NavigationSuppression time.Duration `mapstructure:"navigation_suppression"`
	// RecorderIdle is how long recorded user input may sit before flushing.
	RecorderIdle time.Duration `mapstructure:"recorder_idle"`
	// WaitFor bounds each text wait of browser_wait_for.
	WaitFor time.Duration `mapstructure:"wait_for"`
}

// Server holds transport settings.
type Server struct {
	Transport   string `mapstructure:"transport"`
	Port        int    `mapstructure:"port"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Log holds logging settings.
type Log struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Browser:        Browser{Headless: false},
		Capabilities:   []string{},
		ImageResponses: ImagesAllow,
		Timeouts: Timeouts{
			Action:                10 * time.Second,
			Settle:                time.Second,
			Load:                  5 * time.Second,
			NavigationSuppression: time.Second,
			RecorderIdle:          time.Second,
			WaitFor:               30 * time.Second,
		},
		Server: Server{Transport: TransportStdio, Port: 8931},
		Log:    Log{Level: "info"},
	}
}

// SetDefaults registers every default on v so environment variables and
// flags can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.executable_path", d.Browser.ExecutablePath)
	v.SetDefault("browser.cdp_endpoint", d.Browser.CDPEndpoint)
	v.SetDefault("browser.user_data_dir", d.Browser.UserDataDir)
	v.SetDefault("browser.stealth", d.Browser.Stealth)
	v.SetDefault("browser.no_sandbox", d.Browser.NoSandbox)
	v.SetDefault("network.allowed_origins", []string{})
	v.SetDefault("network.blocked_origins", []string{})
	v.SetDefault("capabilities", d.Capabilities)
	v.SetDefault("save_session", d.SaveSession)
	v.SetDefault("save_trace", d.SaveTrace)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("image_responses", d.ImageResponses)
	v.SetDefault("timeouts.action", d.Timeouts.Action)
	v.SetDefault("timeouts.settle", d.Timeouts.Settle)
	v.SetDefault("timeouts.load", d.Timeouts.Load)
	v.SetDefault("timeouts.navigation_suppression", d.Timeouts.NavigationSuppression)
	v.SetDefault("timeouts.recorder_idle", d.Timeouts.RecorderIdle)
	v.SetDefault("timeouts.wait_for", d.Timeouts.WaitFor)
	v.SetDefault("server.transport", d.Server.Transport)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads configuration into a Config. path names an explicit config
// file; when empty the standard locations are searched and a missing file
// is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport %q: must be %q or %q", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	switch c.ImageResponses {
	case ImagesAllow, ImagesOmit:
	default:
		return fmt.Errorf("invalid image_responses %q: must be %q or %q", c.ImageResponses, ImagesAllow, ImagesOmit)
	}
	t := c.Timeouts
	for name, d := range map[string]time.Duration{
		"action":                 t.Action,
		"settle":                 t.Settle,
		"load":                   t.Load,
		"navigation_suppression": t.NavigationSuppression,
		"recorder_idle":          t.RecorderIdle,
		"wait_for":               t.WaitFor,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid timeouts.%s %v: must be positive", name, d)
		}
	}
	if c.Server.Transport == TransportHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// SessionDir returns where session logs and traces are written.
func (c Config) SessionDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(os.TempDir(), configName)
}

// OmitImages reports whether image parts are stripped from responses.
func (c Config) OmitImages() bool {
	return c.ImageResponses == ImagesOmit
}
