package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/gaptime-companion/internal/bootstrap"
	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/auth"
	"github.com/yanqian/gaptime-companion/internal/domain/companion"
	"github.com/yanqian/gaptime-companion/internal/domain/location"
	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
	"github.com/yanqian/gaptime-companion/internal/infra/config"
	"github.com/yanqian/gaptime-companion/internal/infra/device/logsender"
	"github.com/yanqian/gaptime-companion/internal/infra/device/mqtt"
	"github.com/yanqian/gaptime-companion/internal/infra/geo/ipgeo"
	"github.com/yanqian/gaptime-companion/internal/infra/geo/static"
	"github.com/yanqian/gaptime-companion/internal/infra/positionstore"
	"github.com/yanqian/gaptime-companion/pkg/metrics"
)

func provideCompanionConfig(cfg *config.Config) companion.Config {
	return companion.Config{
		AppVersion:    cfg.Companion.AppVersion,
		ConfigPageURL: cfg.Companion.ConfigPageURL,
		SendTimeout:   cfg.Companion.SendTimeout,
	}
}

func provideLocationOptions(cfg *config.Config) location.Options {
	return location.Options{
		MaximumAge:         cfg.Location.MaximumAge,
		Timeout:            cfg.Location.Timeout,
		EnableHighAccuracy: cfg.Location.EnableHighAccuracy,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideDeliveryMetrics() *metrics.Delivery {
	return &metrics.Delivery{}
}

func provideTranslator(cfg *config.Config, calc suntimes.Calculator) (*companion.Translator, error) {
	loc, err := cfg.Companion.Location()
	if err != nil {
		return nil, err
	}
	return companion.NewTranslator(calc, loc), nil
}

func provideLocationStore(cfg *config.Config, logger *slog.Logger) location.Store {
	if cfg.Location.Cache.Backend == config.CacheValkey {
		opt, err := buildValkeyOptions(cfg.Location.Cache.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return positionstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return positionstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("position valkey store enabled", "addr", cfg.Location.Cache.Addr)
			return positionstore.NewValkeyStore(client, cfg.Location.Cache.Prefix)
		}
	}
	return positionstore.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideLocationProvider(cfg *config.Config, store location.Store, logger *slog.Logger) location.Provider {
	var source location.Provider
	switch cfg.Location.Provider {
	case config.ProviderStatic:
		logger.Info("static position provider enabled", "lat", cfg.Location.Latitude, "lon", cfg.Location.Longitude)
		source = static.NewProvider(cfg.Location.Latitude, cfg.Location.Longitude)
	default:
		logger.Info("ip geolocation provider enabled", "base_url", cfg.Location.IPGeoBaseURL)
		source = ipgeo.NewClient(cfg.Location.IPGeoBaseURL)
	}
	return location.NewCachedProvider(source, store, logger)
}

// deviceChannel bundles the outbound transport with its inbound event source.
// events is nil when the transport cannot receive device events.
type deviceChannel struct {
	sender appmessage.Sender
	opener appmessage.URLOpener
	events bootstrap.EventSource
}

func provideDeviceChannel(cfg *config.Config, logger *slog.Logger) (*deviceChannel, error) {
	if cfg.Device.Transport != config.TransportMQTT {
		logger.Info("log device transport enabled")
		sender := logsender.New(logger)
		return &deviceChannel{sender: sender, opener: sender}, nil
	}
	transport, err := mqtt.Dial(mqtt.Config{
		Broker:         cfg.Device.MQTT.Broker,
		ClientID:       cfg.Device.MQTT.ClientID,
		TopicPrefix:    cfg.Device.MQTT.TopicPrefix,
		QoS:            byte(cfg.Device.MQTT.QoS),
		ConnectTimeout: cfg.Device.MQTT.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("mqtt device transport enabled", "broker", cfg.Device.MQTT.Broker)
	return &deviceChannel{sender: transport, opener: transport, events: transport}, nil
}

func provideSender(ch *deviceChannel) appmessage.Sender {
	return ch.sender
}

func provideURLOpener(ch *deviceChannel) appmessage.URLOpener {
	return ch.opener
}

func provideEventSource(ch *deviceChannel) bootstrap.EventSource {
	return ch.events
}
