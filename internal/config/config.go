package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nanoncore/nano-virtualwire/internal/logger"
	"github.com/nanoncore/nano-virtualwire/types"
	"github.com/nanoncore/nano-virtualwire/vendors/common"
)

// EnvPrefix is prepended to environment overrides, e.g. VW_CLI_TYPE
const EnvPrefix = "VW"

// Config is the runtime configuration of the driver process
type Config struct {
	CLI CLIConfig     `mapstructure:"cli"`
	Log logger.Config `mapstructure:"log"`
}

// CLIConfig controls how sessions to the switch are opened
type CLIConfig struct {
	// Type is the ordered list of session types to try
	Type []string `mapstructure:"type"`
	// Ports maps session type to TCP port
	Ports          map[string]int `mapstructure:"ports"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	ConnectTimeout time.Duration  `mapstructure:"connect_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cli.type", []string{types.SessionTypeSSH})
	v.SetDefault("cli.ports", map[string]int{})
	v.SetDefault("cli.timeout", 30*time.Second)
	v.SetDefault("cli.connect_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "./logs/vw.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
}

// Load reads configuration from configPath (optional) and VW_* environment
// variables. With an empty path a missing vw.yaml is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("vw")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.CLI.normalize()
	return &config, nil
}

// normalize upper-cases session type names and port keys
func (c *CLIConfig) normalize() {
	var sessionTypes []string
	for _, t := range c.Type {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			sessionTypes = append(sessionTypes, t)
		}
	}
	if len(sessionTypes) == 0 {
		sessionTypes = []string{types.SessionTypeSSH}
	}
	c.Type = sessionTypes

	ports := make(map[string]int, len(c.Ports))
	for k, p := range c.Ports {
		ports[strings.ToUpper(k)] = p
	}
	c.Ports = ports
}

// Equipment builds an EquipmentConfig for vendor, applying per-device
// metadata overrides (cli_type, cli_port_<type>) on top of c.
func (c *Config) Equipment(vendor types.Vendor, metadata map[string]string) *types.EquipmentConfig {
	return &types.EquipmentConfig{
		Vendor:         vendor,
		SessionTypes:   common.SessionTypes(metadata, c.CLI.Type),
		Ports:          common.SessionPorts(metadata, c.CLI.Ports),
		Timeout:        c.CLI.Timeout,
		ConnectTimeout: c.CLI.ConnectTimeout,
		Metadata:       metadata,
	}
}
