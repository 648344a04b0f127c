// Copyright 2024-2026 Aiku AI

package relay

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/template"

	up "go.mau.fi/util/configupgrade"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/directory"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/telemetry"
)

//go:embed example-config.yaml
var ExampleConfig string

const (
	BackendStatic = "static"
	BackendRedis  = "redis"

	defaultMaxBodySize = 1 << 20
	defaultDirectory   = "default"
)

// Environment variables that override credentials from the config file.
const (
	EnvSourceToken   = "SLACK_RELAY_SOURCE_TOKEN"
	EnvDestBotToken  = "SLACK_RELAY_DEST_BOT_TOKEN"
	EnvDestUserToken = "SLACK_RELAY_DEST_USER_TOKEN"
	EnvTelemetryKey  = "SLACK_RELAY_TELEMETRY_KEY"
	EnvRedisURL      = "SLACK_RELAY_REDIS_URL"
)

// Config holds the relay configuration. It is loaded once at startup and
// read-only afterwards.
type Config struct {
	ListenAddr  string     `yaml:"listen_addr"`
	MaxBodySize int64      `yaml:"max_body_size"`
	Endpoints   []Endpoint `yaml:"endpoints"`

	// BotDisplayName is the resolved name of the relay's own account. File
	// shares attributed to it are not relayed again.
	BotDisplayName      string `yaml:"bot_display_name"`
	PlaceholderTemplate string `yaml:"placeholder_template"`
	FileBaseURL         string `yaml:"file_base_url"`

	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Telemetry   telemetry.Config  `yaml:"telemetry"`
	Registry    RegistryConfig    `yaml:"registry"`

	Channels map[string]directory.ChannelMapping `yaml:"channels"`
	Users    map[string]map[string]string        `yaml:"users"`

	Logging zeroconfig.Config `yaml:"logging"`

	placeholderTemplate *template.Template `yaml:"-"`
}

// Endpoint binds an inbound path to a user directory.
type Endpoint struct {
	Path      string `yaml:"path"`
	Directory string `yaml:"directory"`
}

type SourceConfig struct {
	BotToken string `yaml:"bot_token"`
	APIURL   string `yaml:"api_url"`
}

type DestinationConfig struct {
	BotToken  string `yaml:"bot_token"`
	UserToken string `yaml:"user_token"`
	APIURL    string `yaml:"api_url"`
}

type RegistryConfig struct {
	Backend   string `yaml:"backend"`
	RedisURL  string `yaml:"redis_url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// PlaceholderParams holds the parameters for rendering the placeholder
// template.
type PlaceholderParams struct {
	UserID string
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "listen_addr")
	helper.Copy(up.Int, "max_body_size")
	helper.Copy(up.List, "endpoints")
	helper.Copy(up.Str, "bot_display_name")
	helper.Copy(up.Str, "placeholder_template")
	helper.Copy(up.Str, "file_base_url")

	helper.Copy(up.Str, "source", "bot_token")
	helper.Copy(up.Str, "source", "api_url")

	helper.Copy(up.Str, "destination", "bot_token")
	helper.Copy(up.Str, "destination", "user_token")
	helper.Copy(up.Str, "destination", "api_url")

	helper.Copy(up.Bool, "telemetry", "enabled")
	helper.Copy(up.Str, "telemetry", "endpoint")
	helper.Copy(up.Str|up.Int, "telemetry", "project_id")
	helper.Copy(up.Str, "telemetry", "key")
	helper.Copy(up.Str, "telemetry", "logger")
	helper.Copy(up.Str, "telemetry", "platform")

	helper.Copy(up.Str, "registry", "backend")
	helper.Copy(up.Str, "registry", "redis_url")
	helper.Copy(up.Str, "registry", "key_prefix")

	helper.Copy(up.Map, "channels")
	helper.Copy(up.Map, "users")
	helper.Copy(up.Map, "logging")
}

// Load reads the config file at path, fills in missing keys from the
// embedded example config, applies environment overrides and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for config file contents already in memory.
func Parse(data []byte) (*Config, error) {
	var baseNode yaml.Node
	if err := yaml.Unmarshal([]byte(ExampleConfig), &baseNode); err != nil {
		return nil, fmt.Errorf("failed to parse example config: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		var cfgNode yaml.Node
		if err := yaml.Unmarshal(data, &cfgNode); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		upgradeConfig(up.NewHelper(&baseNode, &cfgNode))
	}

	cfg := &Config{}
	if err := baseNode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	override := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Source.BotToken, EnvSourceToken)
	override(&c.Destination.BotToken, EnvDestBotToken)
	override(&c.Destination.UserToken, EnvDestUserToken)
	override(&c.Telemetry.Key, EnvTelemetryKey)
	override(&c.Registry.RedisURL, EnvRedisURL)
}

// PostProcess fills defaults, validates and compiles the placeholder
// template.
func (c *Config) PostProcess() error {
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
	if c.Registry.Backend == "" {
		c.Registry.Backend = BackendStatic
	}
	switch c.Registry.Backend {
	case BackendStatic:
	case BackendRedis:
		if c.Registry.RedisURL == "" {
			return errors.New("registry.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown registry backend %q", c.Registry.Backend)
	}

	if len(c.Endpoints) == 0 {
		return errors.New("at least one endpoint must be configured")
	}
	seen := make(map[string]bool, len(c.Endpoints))
	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("endpoint path %q must start with /", ep.Path)
		}
		if ep.Path == "/healthz" || ep.Path == "/metrics" {
			return fmt.Errorf("endpoint path %q is reserved", ep.Path)
		}
		if seen[ep.Path] {
			return fmt.Errorf("duplicate endpoint path %q", ep.Path)
		}
		seen[ep.Path] = true
		if ep.Directory == "" {
			ep.Directory = defaultDirectory
		}
	}

	base, err := url.Parse(c.FileBaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("file_base_url %q must be an absolute http(s) URL", c.FileBaseURL)
	}

	c.placeholderTemplate, err = template.New("placeholder").Parse(c.PlaceholderTemplate)
	if err != nil {
		return fmt.Errorf("invalid placeholder_template: %w", err)
	}
	return nil
}

// FormatPlaceholder renders the display name for a user missing from the
// user table.
func (c *Config) FormatPlaceholder(userID string) string {
	if c.placeholderTemplate == nil || c.PlaceholderTemplate == "" {
		return directory.DefaultPlaceholder(userID)
	}
	var buf []byte
	err := c.placeholderTemplate.Execute(
		(*templateBuffer)(&buf),
		PlaceholderParams{UserID: userID},
	)
	if err != nil {
		return directory.DefaultPlaceholder(userID)
	}
	return string(buf)
}

// templateBuffer is a simple io.Writer that appends to a byte slice.
type templateBuffer []byte

func (b *templateBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}
