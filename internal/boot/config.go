package boot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/sethvargo/go-envconfig"
	"uk.co.dudmesh.bulksms/internal/model"
)

type Config struct {
	Env      string `env:"ENV,default=dev"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	Server   struct {
		Port        string `env:"SERVER_PORT,default=8080"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
		Origins     string `env:"ALLOWED_ORIGINS,default=*"`
	}
	Gateway struct {
		Endpoint string        `env:"ZETTAI_REACH_API_ENDPOINT,default=https://sms-api.aossms.com"`
		Token    string        `env:"ZETTAI_REACH_TOKEN,required"`
		ClientID string        `env:"ZETTAI_REACH_CLIENT_ID,required"`
		SMSCode  string        `env:"ZETTAI_REACH_SMS_CODE,required"`
		Timeout  time.Duration `env:"GATEWAY_TIMEOUT,default=30s"`
	}
	Dispatch struct {
		Delay                time.Duration `env:"DISPATCH_DELAY,default=10ms"`
		RatePerSec           int           `env:"DISPATCH_RATE,default=0"`
		ValidatePhoneNumbers bool          `env:"VALIDATE_PHONE_NUMBERS,default=true"`
	}
}

var requiredVars = []string{
	"ZETTAI_REACH_TOKEN",
	"ZETTAI_REACH_CLIENT_ID",
	"ZETTAI_REACH_SMS_CODE",
}

func Load() (*Config, error) {
	return LoadWith(envconfig.OsLookuper())
}

// LoadWith reads the configuration through l. A missing required variable is
// reported as a *model.ConfigurationError naming every missing variable.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	config := &Config{}
	if err := envconfig.ProcessWith(context.Background(), config, l); err != nil {
		if errors.Is(err, envconfig.ErrMissingRequired) {
			if cfgErr := missingVars(l); cfgErr != nil {
				return nil, cfgErr
			}
		}
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	if err := missingVars(l); err != nil {
		return nil, err
	}
	return config, nil
}

func missingVars(l envconfig.Lookuper) error {
	missing := []string{}
	for _, key := range requiredVars {
		if v, ok := l.Lookup(key); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &model.ConfigurationError{Missing: missing}
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func (c *Config) AllowedOrigins() []string {
	origins := []string{}
	for _, o := range strings.Split(c.Server.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Level() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
