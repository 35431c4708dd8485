package datasource

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ol-results/internal/config"
)

// HTTPClientConfigFromConfig derives client settings from the import section
func HTTPClientConfigFromConfig(cfg *config.Config) HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	if cfg == nil {
		return httpCfg
	}
	if t := cfg.HTTPTimeout(); t > 0 {
		httpCfg.Timeout = t
	}
	if cfg.Import.RateLimit > 0 {
		httpCfg.RateLimit = cfg.Import.RateLimit
	}
	httpCfg.MaxRetries = cfg.Import.RetryAttempts
	return httpCfg
}

// NewFetcherFromConfig builds a Fetcher backed by a rate-limited client
func NewFetcherFromConfig(cfg *config.Config, log *logrus.Logger) *Fetcher {
	return NewFetcher(NewRateLimitedHTTPClient(HTTPClientConfigFromConfig(cfg), log))
}
