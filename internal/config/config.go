// File: internal/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config holds the entire application configuration. Each stage command
// unmarshals this from viper (config.yaml, LISTER_ env vars, flags) before
// running, so every tunable has exactly one home.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Stores     StoresConfig     `mapstructure:"stores" yaml:"stores"`
	Profile    ProfileConfig    `mapstructure:"profile" yaml:"profile"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Verifier   VerifierConfig   `mapstructure:"verifier" yaml:"verifier"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery" yaml:"discovery"`
	Matcher    MatcherConfig    `mapstructure:"matcher" yaml:"matcher"`
	Submit     SubmitConfig     `mapstructure:"submit" yaml:"submit"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// StoresConfig points at the three durable JSON files the pipeline shares.
// They are plain text on purpose: operators diff and hand-edit them between
// stages.
type StoresConfig struct {
	CatalogPath string `mapstructure:"catalog_path" yaml:"catalog_path"`
	PlanPath    string `mapstructure:"plan_path" yaml:"plan_path"`
	QueuePath   string `mapstructure:"queue_path" yaml:"queue_path"`
	// AutosaveEvery flushes the catalog back to disk after this many
	// processed records during long browser passes. 0 disables autosave.
	AutosaveEvery int `mapstructure:"autosave_every" yaml:"autosave_every"`
}

// ProfileConfig locates the product profile and copy variant pool produced
// by the onboarding flow.
type ProfileConfig struct {
	Path      string `mapstructure:"path" yaml:"path"`
	CopiesKey string `mapstructure:"copies_key" yaml:"copies_key"`
}

// ClassifierConfig tunes the plain-HTTP classification stage.
type ClassifierConfig struct {
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// BrowserConfig holds settings for the headless browser instances shared by
// the verify, discover, and submit stages.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	ViewportWidth   int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight  int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavTimeout      time.Duration `mapstructure:"nav_timeout" yaml:"nav_timeout"`
	Args            []string      `mapstructure:"args" yaml:"args"`
}

// VerifierConfig tunes the browser verification stage.
type VerifierConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// SettleWait is how long to let client-side JS render after load.
	SettleWait time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	// DeepSettleWait replaces SettleWait during a --recheck-unknown pass.
	DeepSettleWait time.Duration `mapstructure:"deep_settle_wait" yaml:"deep_settle_wait"`
	// HardLimit caps the total wall clock spent on one record.
	HardLimit time.Duration `mapstructure:"hard_limit" yaml:"hard_limit"`
}

// DiscoveryConfig tunes the form discovery stage.
type DiscoveryConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	SettleWait  time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	HardLimit   time.Duration `mapstructure:"hard_limit" yaml:"hard_limit"`
}

// MatcherConfig exposes the field matching heuristics as tunables. The
// threshold trades precision for recall and should be validated against a
// labeled sample of real directory forms rather than trusted blindly.
type MatcherConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// SubmitConfig tunes the submission engine. The pool is deliberately
// smaller than the read-only stages and the rate ceiling applies across
// the whole process regardless of pool size.
type SubmitConfig struct {
	Concurrency   int           `mapstructure:"concurrency" yaml:"concurrency"`
	SettleWait    time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	HardLimit     time.Duration `mapstructure:"hard_limit" yaml:"hard_limit"`
	RatePerMinute int           `mapstructure:"rate_per_minute" yaml:"rate_per_minute"`
	// ConfirmWait is how long to watch the page for confirmation text
	// after clicking submit.
	ConfirmWait time.Duration `mapstructure:"confirm_wait" yaml:"confirm_wait"`
	// AttemptLoginRequired opts in to attempting targets whose directory
	// demands an account. Off by default; those targets are skipped with
	// a recorded reason.
	AttemptLoginRequired bool `mapstructure:"attempt_login_required" yaml:"attempt_login_required"`
	// AttemptPaid opts in to paid directories. Off by default.
	AttemptPaid bool `mapstructure:"attempt_paid" yaml:"attempt_paid"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Default returns a Config populated with the baked-in defaults. Viper
// overlays file, env, and flag values on top of this.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "lister-cli",
			MaxSize:     20,
			MaxBackups:  3,
			MaxAge:      14,
		},
		Stores: StoresConfig{
			CatalogPath:   "directories.json",
			PlanPath:      "submission_plan.json",
			QueuePath:     "browser_check_list.json",
			AutosaveEvery: 50,
		},
		Profile: ProfileConfig{
			Path: "profile.json",
		},
		Classifier: ClassifierConfig{
			Concurrency:    50,
			RequestTimeout: 15 * time.Second,
			UserAgent:      defaultUserAgent,
		},
		Browser: BrowserConfig{
			Headless:        true,
			IgnoreTLSErrors: true,
			UserAgent:       defaultUserAgent,
			ViewportWidth:   1280,
			ViewportHeight:  720,
			NavTimeout:      12 * time.Second,
		},
		Verifier: VerifierConfig{
			Concurrency:    10,
			SettleWait:     800 * time.Millisecond,
			DeepSettleWait: 2500 * time.Millisecond,
			HardLimit:      15 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Concurrency: 10,
			SettleWait:  2 * time.Second,
			HardLimit:   20 * time.Second,
		},
		Matcher: MatcherConfig{
			MinConfidence: 0.5,
		},
		Submit: SubmitConfig{
			Concurrency:   5,
			SettleWait:    3 * time.Second,
			HardLimit:     30 * time.Second,
			RatePerMinute: 20,
			ConfirmWait:   2 * time.Second,
		},
	}
}

// Validate checks the invariants the pipeline depends on. A config that
// fails validation aborts the stage before any store is touched.
func (c *Config) Validate() error {
	if c.Stores.CatalogPath == "" {
		return fmt.Errorf("stores.catalog_path must not be empty")
	}
	if c.Stores.PlanPath == "" {
		return fmt.Errorf("stores.plan_path must not be empty")
	}
	if c.Stores.QueuePath == "" {
		return fmt.Errorf("stores.queue_path must not be empty")
	}
	if c.Classifier.Concurrency <= 0 {
		return fmt.Errorf("classifier.concurrency must be positive, got %d", c.Classifier.Concurrency)
	}
	if c.Classifier.RequestTimeout <= 0 {
		return fmt.Errorf("classifier.request_timeout must be a positive duration")
	}
	if c.Verifier.Concurrency <= 0 {
		return fmt.Errorf("verifier.concurrency must be positive, got %d", c.Verifier.Concurrency)
	}
	if c.Discovery.Concurrency <= 0 {
		return fmt.Errorf("discovery.concurrency must be positive, got %d", c.Discovery.Concurrency)
	}
	if c.Submit.Concurrency <= 0 {
		return fmt.Errorf("submit.concurrency must be positive, got %d", c.Submit.Concurrency)
	}
	if c.Submit.RatePerMinute <= 0 {
		return fmt.Errorf("submit.rate_per_minute must be positive, got %d", c.Submit.RatePerMinute)
	}
	if c.Matcher.MinConfidence < 0 || c.Matcher.MinConfidence > 1 {
		return fmt.Errorf("matcher.min_confidence must be within [0, 1], got %f", c.Matcher.MinConfidence)
	}
	for _, hl := range []struct {
		name string
		d    time.Duration
	}{
		{"verifier.hard_limit", c.Verifier.HardLimit},
		{"discovery.hard_limit", c.Discovery.HardLimit},
		{"submit.hard_limit", c.Submit.HardLimit},
	} {
		if hl.d <= 0 {
			return fmt.Errorf("%s must be a positive duration", hl.name)
		}
	}
	return nil
}
