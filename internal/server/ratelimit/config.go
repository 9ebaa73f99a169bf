package ratelimit

import "time"

// EndpointConfig represents rate limiting configuration for a class of endpoints.
type EndpointConfig struct {
	Name       string        // Bucket name shared by every path in the class
	Method     string        // HTTP method (GET, POST, etc.)
	Path       string        // Exact path, or a prefix when it ends with "/"
	PathSuffix string        // Matches any path ending with this segment
	Limit      int           // Maximum requests per window
	Window     time.Duration // Time window
	Burst      int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the service limits. Classifier-backed routes get the
// strictest tier.
func DefaultConfig(enabled bool) *Config {
	return &Config{
		Enabled:         enabled,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: classifier calls
		{Name: "screening", Method: "POST", PathSuffix: "/filter-resumes", Limit: 10, Window: time.Hour, Burst: 2},
		{Name: "jd-ai", Method: "POST", PathSuffix: "/ai", Limit: 10, Window: time.Hour, Burst: 2},

		// Tier 2: writes
		{Name: "offers-write", Method: "POST", Path: "/offers", Limit: 100, Window: time.Minute, Burst: 10},
		{Name: "offers-write", Method: "POST", Path: "/offers/", Limit: 100, Window: time.Minute, Burst: 10},
		{Name: "offers-write", Method: "PATCH", Path: "/offers/", Limit: 100, Window: time.Minute, Burst: 10},
		{Name: "jd-write", Method: "POST", Path: "/jd/", Limit: 100, Window: time.Minute, Burst: 10},

		// Tier 3: reads use the default limit; the health check is unlimited
	}
}
