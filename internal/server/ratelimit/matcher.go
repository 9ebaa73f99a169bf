package ratelimit

import (
	"strings"
)

var unlimited = &EndpointConfig{Name: "unlimited"}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Exact paths win over suffix matches, which win over prefix matches.
// Returns nil if nothing matches.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return unlimited
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && c.Path != "" && c.Path == path {
			return c
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && c.PathSuffix != "" && strings.HasSuffix(path, c.PathSuffix) {
			return c
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}

	return nil
}
