// File: internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	// The submit pool is deliberately the smallest of the three.
	assert.Less(t, cfg.Submit.Concurrency, cfg.Verifier.Concurrency)
	assert.Less(t, cfg.Verifier.Concurrency, cfg.Classifier.Concurrency)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty catalog path", func(c *Config) { c.Stores.CatalogPath = "" }},
		{"empty plan path", func(c *Config) { c.Stores.PlanPath = "" }},
		{"empty queue path", func(c *Config) { c.Stores.QueuePath = "" }},
		{"zero classifier pool", func(c *Config) { c.Classifier.Concurrency = 0 }},
		{"negative verifier pool", func(c *Config) { c.Verifier.Concurrency = -1 }},
		{"zero submit rate", func(c *Config) { c.Submit.RatePerMinute = 0 }},
		{"confidence above one", func(c *Config) { c.Matcher.MinConfidence = 1.5 }},
		{"negative confidence", func(c *Config) { c.Matcher.MinConfidence = -0.1 }},
		{"zero verifier hard limit", func(c *Config) { c.Verifier.HardLimit = 0 }},
		{"zero submit hard limit", func(c *Config) { c.Submit.HardLimit = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
