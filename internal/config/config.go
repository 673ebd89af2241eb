// Package config loads settings from configs/config.yml, WIFI_TRACKER_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"wifi_tracker/internal/logger"
	"wifi_tracker/internal/parser"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "WIFI_TRACKER"

type Config struct {
	Tail     TailConfig     `mapstructure:"tail"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Parser   ParserConfig   `mapstructure:"parser"`
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
}

type TailConfig struct {
	Path           string        `mapstructure:"path"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	FromStart      bool          `mapstructure:"from_start"`
	QueueSize      int           `mapstructure:"queue_size"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
	Watch          bool          `mapstructure:"watch"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type ParserConfig struct {
	Programs []string      `mapstructure:"programs"`
	Patterns []parser.Rule `mapstructure:"patterns"` // empty selects parser.DefaultRules
}

// WatchdogConfig enables a notification when no events arrive for Period.
// An empty URL disables it.
type WatchdogConfig struct {
	URL      string        `mapstructure:"url"`
	Period   time.Duration `mapstructure:"period"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tail.path", "/var/log/messages")
	v.SetDefault("tail.poll_interval", 250*time.Millisecond)
	v.SetDefault("tail.from_start", true)
	v.SetDefault("tail.queue_size", 256)
	v.SetDefault("tail.backoff_initial", 250*time.Millisecond)
	v.SetDefault("tail.backoff_max", 5*time.Second)
	v.SetDefault("tail.watch", true)
	v.SetDefault("http.listen", "0.0.0.0:5580")
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.json", false)
	v.SetDefault("parser.programs", []string{})
	v.SetDefault("watchdog.url", "")
	v.SetDefault("watchdog.period", 30*time.Minute)
	v.SetDefault("watchdog.interval", time.Minute)
}

// RegisterFlags defines the command-line surface on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to config file (default: configs/config.yml if present)")
	fs.StringP("file", "f", "/var/log/messages", "JSON log file to tail (keys: host, program, timestamp, message)")
	fs.StringP("listen", "l", "0.0.0.0:5580", "address to listen on for HTTP requests")
	fs.Bool("json-logs", false, "emit JSON logs")
	fs.String("log-level", logger.InfoLevel, "log level: debug, info, warn, error")
}

var flagKeys = map[string]string{
	"file":      "tail.path",
	"listen":    "http.listen",
	"json-logs": "log.json",
	"log-level": "log.level",
}

// Load builds the effective configuration and validates it. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare name is what existing deployments already export.
	if err := v.BindEnv("watchdog.url", envPrefix+"_WATCHDOG_URL", "WATCHDOG_URL"); err != nil {
		return Config{}, err
	}

	if err := readConfigFile(v, fs); err != nil {
		return Config{}, err
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %q: %w", name, err)
				}
			}
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

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	explicit := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %q: %w", explicit, err)
		}
		return nil
	}

	v.AddConfigPath("configs") // configs/config.yml
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate rejects settings the process cannot start with.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Tail.Path) == "" {
		errs = append(errs, errors.New("tail.path is required"))
	} else if info, err := os.Stat(c.Tail.Path); err == nil && !info.Mode().IsRegular() {
		errs = append(errs, fmt.Errorf("tail.path %q is not a regular file", c.Tail.Path))
	}
	if c.Tail.PollInterval <= 0 {
		errs = append(errs, errors.New("tail.poll_interval must be positive"))
	}
	if c.Tail.QueueSize <= 0 {
		errs = append(errs, errors.New("tail.queue_size must be positive"))
	}
	if c.Tail.BackoffInitial <= 0 || c.Tail.BackoffMax < c.Tail.BackoffInitial {
		errs = append(errs, errors.New("tail.backoff_initial must be positive and not above tail.backoff_max"))
	}

	if err := validateListen(c.HTTP.Listen); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Level {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}

	if _, err := parser.New(c.Parser.Patterns); err != nil {
		errs = append(errs, fmt.Errorf("parser.patterns: %w", err))
	}

	if c.Watchdog.URL != "" {
		u, err := url.Parse(c.Watchdog.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("watchdog.url %q must be an absolute http(s) URL", c.Watchdog.URL))
		}
		if c.Watchdog.Period <= 0 || c.Watchdog.Interval <= 0 {
			errs = append(errs, errors.New("watchdog.period and watchdog.interval must be positive"))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func validateListen(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("http.listen %q: %w", addr, err)
	}
	if host != "" && net.ParseIP(host) == nil && !isHostname(host) {
		return fmt.Errorf("http.listen %q: bad host", addr)
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("http.listen %q: %w", addr, err)
	}
	return nil
}

func isHostname(h string) bool {
	return !strings.ContainsAny(h, " /\\")
}
