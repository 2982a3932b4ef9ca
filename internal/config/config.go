package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	GeocoderNone      = "none"
	GeocoderNominatim = "nominatim"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	Port               string        `mapstructure:"PORT"`
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	MongoURI           string        `mapstructure:"MONGO_URI"`
	MongoDB            string        `mapstructure:"MONGO_DB"`
	GatewayKey         string        `mapstructure:"GATEWAY_KEY"`
	CORSAllowed        string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	RegistryPath       string        `mapstructure:"REGISTRY_PATH"`
	KeywordsPath       string        `mapstructure:"KEYWORDS_PATH"`
	RiskDefault        string        `mapstructure:"RISK_DEFAULT"`
	IDMaxAttempts      int           `mapstructure:"ID_MAX_ATTEMPTS"`
	IDExcludeAmbiguous bool          `mapstructure:"ID_EXCLUDE_AMBIGUOUS"`
	DraftTTL           time.Duration `mapstructure:"DRAFT_TTL"`
	LookupRatePerMin   int           `mapstructure:"LOOKUP_RATE_PER_MIN"`
	LookupBurst        int           `mapstructure:"LOOKUP_BURST"`
	Geocoder           string        `mapstructure:"GEOCODER"`
	GeocoderURL        string        `mapstructure:"GEOCODER_URL"`
	CountryDefault     string        `mapstructure:"COUNTRY_DEFAULT"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "safereport")
	v.SetDefault("GATEWAY_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REGISTRY_PATH", "")
	v.SetDefault("KEYWORDS_PATH", "")
	v.SetDefault("RISK_DEFAULT", "random")
	v.SetDefault("ID_MAX_ATTEMPTS", 5)
	v.SetDefault("ID_EXCLUDE_AMBIGUOUS", false)
	v.SetDefault("DRAFT_TTL", "2h")
	v.SetDefault("LOOKUP_RATE_PER_MIN", 10)
	v.SetDefault("LOOKUP_BURST", 5)
	v.SetDefault("GEOCODER", GeocoderNone)
	v.SetDefault("GEOCODER_URL", "")
	v.SetDefault("COUNTRY_DEFAULT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.Geocoder = strings.ToLower(strings.TrimSpace(cfg.Geocoder))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires MONGO_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.Geocoder {
	case "", GeocoderNone, GeocoderNominatim:
	default:
		return fmt.Errorf("unknown GEOCODER %q", c.Geocoder)
	}
	if c.IDMaxAttempts < 1 {
		return fmt.Errorf("ID_MAX_ATTEMPTS must be at least 1")
	}
	if c.LookupRatePerMin < 1 || c.LookupBurst < 1 {
		return fmt.Errorf("LOOKUP_RATE_PER_MIN and LOOKUP_BURST must be positive")
	}
	return nil
}
