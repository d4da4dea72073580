package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`

	// Per-caller budget for create and join requests.
	JoinRate  int `mapstructure:"join_rate"`
	JoinBurst int `mapstructure:"join_burst"`

	ReapInterval   time.Duration `mapstructure:"reap_interval"`
	WaitingTTL     time.Duration `mapstructure:"waiting_ttl"`
	EndedRetention time.Duration `mapstructure:"ended_retention"`

	// Empty disables the audit archive.
	ArchiveDSN string `mapstructure:"archive_dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("join_rate", 30)
	v.SetDefault("join_burst", 10)
	v.SetDefault("reap_interval", "1m")
	v.SetDefault("waiting_ttl", "2h")
	v.SetDefault("ended_retention", "24h")
	v.SetDefault("archive_dsn", "")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default). Any key can be
// overridden with a SESSIONLINK_ prefixed environment variable.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileName = path
	}

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("SESSIONLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Archive: %q\n", cfg.Mode, cfg.Port, cfg.ArchiveDSN)
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	if c.PingPeriod <= 0 || c.WriteWait <= 0 {
		errs = append(errs, errors.New("ping_period and write_wait must be positive"))
	}
	if c.JoinRate <= 0 || c.JoinBurst <= 0 {
		errs = append(errs, errors.New("join_rate and join_burst must be positive"))
	}
	if c.ReapInterval <= 0 {
		errs = append(errs, errors.New("reap_interval must be positive"))
	}
	if c.WaitingTTL < 0 || c.EndedRetention < 0 {
		errs = append(errs, errors.New("waiting_ttl and ended_retention must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
