package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/powermon/internal/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultDatabase       = "powermon.db"
	defaultRTLTCPPath     = "rtl_tcp"
	defaultRTLAMRPath     = "rtlamr"
	defaultHost           = "127.0.0.1"
	defaultPort           = 1234
	defaultSettleDelay    = 7
	defaultRestartBackoff = 5
	defaultGaugeWindow    = 600

	envPrefix = "POWERMON"
)

// Config holds the runtime configuration for the collector daemon.
//
// Database is the path to the SQLite database; the meter allow-list file
// lives in the same directory. SettleDelay and RestartBackoff are in
// seconds, GaugeWindow is the trailing window for live power estimates.
type Config struct {
	Database       string `mapstructure:"database"`
	RTLTCPPath     string `mapstructure:"rtl_tcp_path"`
	RTLAMRPath     string `mapstructure:"rtlamr_path"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	SettleDelay    int    `mapstructure:"settle_delay"`
	RestartBackoff int    `mapstructure:"restart_backoff"`
	Unique         bool   `mapstructure:"unique"`
	GaugeWindow    int    `mapstructure:"gauge_window"`
	LogLevel       string `mapstructure:"log_level"`
	ReplayCSV      string `mapstructure:"replay_csv"`
}

// Load reads configuration from command line flags, an optional TOML config
// file and POWERMON_* environment variables, in ascending precedence of
// file < env < flags.
func Load() (*Config, error) {
	errFactory := errors.New()

	// Optional .env beside the binary, same as the original deployment
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("rtl_tcp_path", defaultRTLTCPPath)
	v.SetDefault("rtlamr_path", defaultRTLAMRPath)
	v.SetDefault("host", defaultHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("settle_delay", defaultSettleDelay)
	v.SetDefault("restart_backoff", defaultRestartBackoff)
	v.SetDefault("unique", true)
	v.SetDefault("gauge_window", defaultGaugeWindow)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("replay_csv", "")

	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("config", "", "Path to config file")
	fs.String("database", defaultDatabase, "Path to the SQLite database")
	fs.String("rtl-tcp", defaultRTLTCPPath, "Path to the rtl_tcp binary")
	fs.String("rtlamr", defaultRTLAMRPath, "Path to the rtlamr binary")
	fs.String("host", defaultHost, "rtl_tcp listen address")
	fs.Int("port", defaultPort, "rtl_tcp listen port")
	fs.Int("settle-delay", defaultSettleDelay, "Seconds to wait for rtl_tcp before starting rtlamr")
	fs.Int("restart-backoff", defaultRestartBackoff, "Seconds to wait before restarting rtlamr after exit")
	fs.Bool("unique", true, "Pass -unique=true to rtlamr (suppress duplicate messages)")
	fs.Int("gauge-window", defaultGaugeWindow, "Trailing window in seconds for live power estimates")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("replay-csv", "", "Import readings from a CSV file instead of capturing")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	bindings := map[string]string{
		"database":        "database",
		"rtl-tcp":         "rtl_tcp_path",
		"rtlamr":          "rtlamr_path",
		"host":            "host",
		"port":            "port",
		"settle-delay":    "settle_delay",
		"restart-backoff": "restart_backoff",
		"unique":          "unique",
		"gauge-window":    "gauge_window",
		"log-level":       "log_level",
		"replay-csv":      "replay_csv",
	}
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := bindings[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, fs); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if !isValidLogLevel(config.LogLevel) {
		return nil, errFactory.WithData(errors.ErrInvalidLogLevel, config.LogLevel)
	}

	return config, nil
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	errFactory := errors.New()

	configPath, _ := fs.GetString("config")
	if configPath == "" {
		configPath = os.Getenv(envPrefix + "_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
		return nil
	}

	v.SetConfigName("powermon")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warning", "warn", "error":
		return true
	default:
		return false
	}
}
