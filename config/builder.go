package config

import (
	"time"

	"github.com/jpalmerr/feedwatch"
)

// BuildProviders converts a parsed [Config] into SDK [feedwatch.Provider]
// values, preserving configuration order.
//
// Parse has already applied defaults and validated, so the conversion is
// mechanical: the per-provider interval becomes a duration and the product
// label carries through.
func BuildProviders(cfg *Config) []feedwatch.Provider {
	providers := make([]feedwatch.Provider, len(cfg.Providers))
	for i, p := range cfg.Providers {
		providers[i] = feedwatch.Provider{
			Name:         p.Name,
			FeedURL:      p.FeedURL,
			Product:      p.Product,
			PollInterval: time.Duration(p.PollIntervalSeconds) * time.Second,
		}
	}
	return providers
}
