package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Queue    QueueConfig    `yaml:"queue" mapstructure:"queue"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// NotionConfig holds Notion API credentials and the leads database id.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// TelegramConfig holds the Bot API token and admin chat routing.
type TelegramConfig struct {
	BotToken        string `yaml:"bot_token" mapstructure:"bot_token"`
	AdminChatID     string `yaml:"admin_chat_id" mapstructure:"admin_chat_id"`
	PollTimeoutSecs int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// EnrichConfig configures the best-effort enrichment providers. Empty
// keys disable the corresponding lookup.
type EnrichConfig struct {
	ClearbitKey string `yaml:"clearbit_key" mapstructure:"clearbit_key"`
	GeoEnabled  bool   `yaml:"geo_enabled" mapstructure:"geo_enabled"`
}

// QueueConfig configures the manual group queue watcher.
type QueueConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so AutomaticEnv
	// values survive Unmarshal.
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.admin_chat_id", "")
	v.SetDefault("enrich.clearbit_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 3000)
	v.SetDefault("telegram.poll_timeout_secs", 30)
	v.SetDefault("enrich.geo_enabled", true)
	v.SetDefault("queue.poll_interval_secs", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the keys the serve command cannot run without.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return eris.New("config: notion.token is required")
	}
	if c.Notion.LeadDB == "" {
		return eris.New("config: notion.lead_db is required")
	}
	if c.Telegram.BotToken == "" {
		return eris.New("config: telegram.bot_token is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
