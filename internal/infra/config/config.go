package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/gaptime-companion/internal/domain/location"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Companion CompanionConfig `yaml:"companion"`
	Location  LocationConfig  `yaml:"location"`
	Device    DeviceConfig    `yaml:"device"`
	Auth      AuthConfig      `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// CompanionConfig holds the watchface contract settings.
type CompanionConfig struct {
	AppVersion    string        `yaml:"appVersion"`
	ConfigPageURL string        `yaml:"configPageUrl"`
	Timezone      string        `yaml:"timezone"`
	SendTimeout   time.Duration `yaml:"sendTimeout"`
}

// LocationConfig selects the position provider and request options.
type LocationConfig struct {
	Provider           string        `yaml:"provider"`
	MaximumAge         time.Duration `yaml:"maximumAge"`
	Timeout            time.Duration `yaml:"timeout"`
	EnableHighAccuracy bool          `yaml:"enableHighAccuracy"`
	Latitude           float64       `yaml:"latitude"`
	Longitude          float64       `yaml:"longitude"`
	IPGeoBaseURL       string        `yaml:"ipgeoBaseUrl"`
	Cache              CacheConfig   `yaml:"cache"`
}

// CacheConfig selects where the last fix is kept.
type CacheConfig struct {
	Backend string `yaml:"backend"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// DeviceConfig selects the device messaging channel.
type DeviceConfig struct {
	Transport string     `yaml:"transport"`
	MQTT      MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains broker settings for the MQTT transport.
type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"clientId"`
	TopicPrefix    string        `yaml:"topicPrefix"`
	QoS            int           `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// AuthConfig configures device bearer tokens. An empty secret disables auth.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

const (
	ProviderStatic = "static"
	ProviderIPGeo  = "ipgeo"

	CacheMemory = "memory"
	CacheValkey = "valkey"

	TransportLog  = "log"
	TransportMQTT = "mqtt"
)

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		cfg.Companion.AppVersion = v
	}
	if v := os.Getenv("CONFIG_PAGE_URL"); v != "" {
		cfg.Companion.ConfigPageURL = v
	}
	if v := os.Getenv("COMPANION_TIMEZONE"); v != "" {
		cfg.Companion.Timezone = v
	}
	if v := os.Getenv("COMPANION_SEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Companion.SendTimeout = parsed
		}
	}
	if v := os.Getenv("LOCATION_PROVIDER"); v != "" {
		cfg.Location.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LOCATION_MAXIMUM_AGE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Location.MaximumAge = parsed
		}
	}
	if v := os.Getenv("LOCATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Location.Timeout = parsed
		}
	}
	if v := os.Getenv("LOCATION_LATITUDE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Latitude = parsed
		}
	}
	if v := os.Getenv("LOCATION_LONGITUDE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Longitude = parsed
		}
	}
	if v := os.Getenv("LOCATION_IPGEO_BASE_URL"); v != "" {
		cfg.Location.IPGeoBaseURL = v
	}
	if v := os.Getenv("LOCATION_CACHE_BACKEND"); v != "" {
		cfg.Location.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("LOCATION_CACHE_ADDR"); v != "" {
		cfg.Location.Cache.Addr = v
	}
	if v := os.Getenv("DEVICE_TRANSPORT"); v != "" {
		cfg.Device.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.Device.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		cfg.Device.MQTT.ClientID = v
	}
	if v := os.Getenv("MQTT_TOPIC_PREFIX"); v != "" {
		cfg.Device.MQTT.TopicPrefix = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
}

func defaultConfig() *Config {
	locationDefaults := location.DefaultOptions()
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		Companion: CompanionConfig{
			AppVersion:    "1.4",
			ConfigPageURL: "http://geekjosh.github.io/Pebble-Gaptime/appconfig.html",
			SendTimeout:   10 * time.Second,
		},
		Location: LocationConfig{
			Provider:           ProviderIPGeo,
			MaximumAge:         locationDefaults.MaximumAge,
			Timeout:            locationDefaults.Timeout,
			EnableHighAccuracy: locationDefaults.EnableHighAccuracy,
			Cache: CacheConfig{
				Backend: CacheMemory,
				Prefix:  "gaptime",
			},
		},
		Device: DeviceConfig{
			Transport: TransportLog,
			MQTT: MQTTConfig{
				Broker:         "tcp://localhost:1883",
				ClientID:       "gaptime-companion",
				TopicPrefix:    "gaptime",
				QoS:            1,
				ConnectTimeout: 10 * time.Second,
			},
		},
		Auth: AuthConfig{
			TokenTTL: 365 * 24 * time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Companion.AppVersion) == "" {
		return errors.New("companion.appVersion cannot be empty")
	}
	if strings.TrimSpace(c.Companion.ConfigPageURL) == "" {
		return errors.New("companion.configPageUrl cannot be empty")
	}
	if _, err := c.Companion.Location(); err != nil {
		return fmt.Errorf("companion.timezone: %w", err)
	}
	if c.Companion.SendTimeout <= 0 {
		return errors.New("companion.sendTimeout must be positive")
	}
	switch c.Location.Provider {
	case ProviderStatic:
		if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
			return errors.New("location.latitude must be within [-90, 90]")
		}
		if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
			return errors.New("location.longitude must be within [-180, 180]")
		}
	case ProviderIPGeo:
	default:
		return fmt.Errorf("location.provider %q is not supported", c.Location.Provider)
	}
	if c.Location.MaximumAge < 0 {
		return errors.New("location.maximumAge cannot be negative")
	}
	if c.Location.Timeout <= 0 {
		return errors.New("location.timeout must be positive")
	}
	switch c.Location.Cache.Backend {
	case CacheMemory:
	case CacheValkey:
		if strings.TrimSpace(c.Location.Cache.Addr) == "" {
			return errors.New("location.cache.addr cannot be empty when valkey cache is enabled")
		}
	default:
		return fmt.Errorf("location.cache.backend %q is not supported", c.Location.Cache.Backend)
	}
	switch c.Device.Transport {
	case TransportLog:
	case TransportMQTT:
		if strings.TrimSpace(c.Device.MQTT.Broker) == "" {
			return errors.New("device.mqtt.broker cannot be empty")
		}
		if c.Device.MQTT.QoS < 0 || c.Device.MQTT.QoS > 2 {
			return errors.New("device.mqtt.qos must be 0, 1 or 2")
		}
	default:
		return fmt.Errorf("device.transport %q is not supported", c.Device.Transport)
	}
	if c.Auth.Secret != "" && c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	return nil
}

// Location resolves the watch timezone; empty means the host's local zone.
func (c CompanionConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(strings.TrimSpace(c.Timezone))
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
