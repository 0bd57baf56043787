package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHeartbeatInterval = 90 * time.Second
	defaultStaleAfter        = 10 * time.Minute
	defaultAnnounceGap       = 3 * time.Second
)

// Duration wraps time.Duration so config values read as "90s" or "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Show struct {
	SessionID      bool `yaml:"session_id"`
	PermissionMode bool `yaml:"permission_mode"`
	Workdir        bool `yaml:"workdir"`
	// ToolDetail exposes tool arguments in the channel; off unless opted in.
	ToolDetail bool `yaml:"tool_detail"`
}

type Config struct {
	Home              string            `yaml:"-"`
	WebhookURL        string            `yaml:"webhook_url"`
	DisplayName       string            `yaml:"display_name"`
	HeartbeatInterval Duration          `yaml:"heartbeat_interval"`
	StaleAfter        Duration          `yaml:"stale_after"`
	AnnounceGap       Duration          `yaml:"announce_gap"`
	Colors            map[string]string `yaml:"colors"`
	ProjectColors     map[string]string `yaml:"project_colors"`
	Show              Show              `yaml:"show"`
	LogLevel          string            `yaml:"log_level"`
	SinkDir           string            `yaml:"sink_dir"`
}

// Load reads <home>/config.yaml. A missing file yields defaults with an empty
// webhook URL, which downgrades delivery to a logged no-op.
func Load(home string) (Config, error) {
	resolved, err := resolveHome(home)
	if err != nil {
		return Config{}, err
	}
	cfg := defaults(resolved)

	raw, err := os.ReadFile(filepath.Join(resolved, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Home = resolved
	if cfg.SinkDir == "" {
		cfg.SinkDir = filepath.Join(resolved, "sinks")
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "statusrelay"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func defaults(home string) Config {
	return Config{
		Home:              home,
		DisplayName:       "statusrelay",
		HeartbeatInterval: Duration(defaultHeartbeatInterval),
		StaleAfter:        Duration(defaultStaleAfter),
		AnnounceGap:       Duration(defaultAnnounceGap),
		LogLevel:          "info",
		SinkDir:           filepath.Join(home, "sinks"),
	}
}

func resolveHome(home string) (string, error) {
	if home != "" {
		return home, nil
	}
	if env := os.Getenv("STATUSRELAY_HOME"); env != "" {
		return env, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(dir, ".statusrelay"), nil
}

func (c Config) StatePath() string { return filepath.Join(c.Home, "state") }
func (c Config) DBPath() string    { return filepath.Join(c.Home, "statusrelay.db") }
func (c Config) LogPath() string   { return filepath.Join(c.Home, "statusrelay.log") }
