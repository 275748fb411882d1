package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	interact "github.com/telcoshop/interact-go-client"
)

// Config holds the offers service configuration (file + env overrides).
type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr"`
		LogLevel        string        `mapstructure:"log_level"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Interact struct {
		ServerURL          string        `mapstructure:"server_url"`
		InteractiveChannel string        `mapstructure:"interactive_channel"`
		VisitorLevel       string        `mapstructure:"visitor_level"`
		CustomerLevel      string        `mapstructure:"customer_level"`
		VisitorAudienceID  string        `mapstructure:"visitor_audience_id"`
		VisitorAltIDVar    string        `mapstructure:"visitor_alt_id_var"`
		CustomerAudience   string        `mapstructure:"customer_audience"`
		CustomerType       string        `mapstructure:"customer_audience_type"`
		SessionVars        string        `mapstructure:"session_vars"`
		PrevAudIDVar       string        `mapstructure:"prev_aud_id_var"`
		AcceptEvent        string        `mapstructure:"accept_event"`
		ContactEvent       string        `mapstructure:"contact_event"`
		SessionTimeout     time.Duration `mapstructure:"session_timeout"`
		RequestTimeout     time.Duration `mapstructure:"request_timeout"`
		ServerDebug        bool          `mapstructure:"server_debug"`
		Debug              bool          `mapstructure:"debug"`
		IDManagement       bool          `mapstructure:"id_management"`
		Username           string        `mapstructure:"username"`
		Password           string        `mapstructure:"password"`
	} `mapstructure:"interact"`

	Offers struct {
		MaxOffers    int           `mapstructure:"max_offers"`
		SpotTimeout  time.Duration `mapstructure:"spot_timeout"`
		FallbackFile string        `mapstructure:"fallback_file"`
		BrandKey     string        `mapstructure:"brand_key"`
	} `mapstructure:"offers"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		// optional; env can fully configure
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("INTERACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	validate(&cfg)
	return cfg, nil
}

// setDefaults registers every key so env overrides are seen by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := interact.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("interact.server_url", "")
	v.SetDefault("interact.interactive_channel", d.InteractiveChannel)
	v.SetDefault("interact.visitor_level", d.VisitorLevel)
	v.SetDefault("interact.customer_level", d.CustomerLevel)
	v.SetDefault("interact.visitor_audience_id", d.VisitorAudienceID)
	v.SetDefault("interact.visitor_alt_id_var", d.VisitorAltIDVar)
	v.SetDefault("interact.customer_audience", d.CustomerAudience)
	v.SetDefault("interact.customer_audience_type", string(d.CustomerAudienceType))
	v.SetDefault("interact.session_vars", d.SessionVars)
	v.SetDefault("interact.prev_aud_id_var", "")
	v.SetDefault("interact.accept_event", d.AcceptEvent)
	v.SetDefault("interact.contact_event", d.ContactEvent)
	v.SetDefault("interact.session_timeout", d.SessionTimeout)
	v.SetDefault("interact.request_timeout", d.RequestTimeout)
	v.SetDefault("interact.server_debug", d.ServerDebug)
	v.SetDefault("interact.debug", false)
	v.SetDefault("interact.id_management", false)
	v.SetDefault("interact.username", "")
	v.SetDefault("interact.password", "")

	v.SetDefault("offers.max_offers", interact.DefaultMaxOffers)
	v.SetDefault("offers.spot_timeout", interact.DefaultSpotTimeout)
	v.SetDefault("offers.fallback_file", "")
	v.SetDefault("offers.brand_key", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Offers.MaxOffers <= 0 {
		c.Offers.MaxOffers = interact.DefaultMaxOffers
	}
	if c.Offers.SpotTimeout <= 0 {
		c.Offers.SpotTimeout = interact.DefaultSpotTimeout
	}
}

// ClientConfig maps the interact section onto the client configuration.
func (c Config) ClientConfig() interact.Config {
	i := c.Interact
	return interact.Config{
		ServerURL:            i.ServerURL,
		InteractiveChannel:   i.InteractiveChannel,
		VisitorLevel:         i.VisitorLevel,
		CustomerLevel:        i.CustomerLevel,
		VisitorAudienceID:    i.VisitorAudienceID,
		VisitorAltIDVar:      i.VisitorAltIDVar,
		CustomerAudience:     i.CustomerAudience,
		CustomerAudienceType: interact.ValueType(i.CustomerType),
		SessionVars:          i.SessionVars,
		PrevAudIDVar:         i.PrevAudIDVar,
		AcceptEvent:          i.AcceptEvent,
		ContactEvent:         i.ContactEvent,
		SessionTimeout:       i.SessionTimeout,
		RequestTimeout:       i.RequestTimeout,
		ServerDebug:          i.ServerDebug,
		Debug:                i.Debug,
		IDManagement:         i.IDManagement,
		Username:             i.Username,
		Password:             i.Password,
	}
}

// UseRedis reports whether sessions are kept in redis rather than in memory.
func (c Config) UseRedis() bool { return c.Redis.Addr != "" }
