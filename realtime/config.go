package realtime

import "time"

const defaultDebounceMs = 500

// Config controls which passes run and how keystrokes are debounced.
// DatabaseURL enables latest-snapshot persistence when set.
type Config struct {
	DebounceMs               int    `json:"debounce_ms"`
	EnableLiveValidation     bool   `json:"enable_live_validation"`
	EnablePerformanceMetrics bool   `json:"enable_performance_metrics"`
	EnableBestPractices      bool   `json:"enable_best_practices"`
	Debug                    bool   `json:"debug"`
	DatabaseURL              string `json:"database_url,omitempty"`
}

// DefaultConfig enables every pass with the standard debounce window.
func DefaultConfig() Config {
	return Config{
		DebounceMs:               defaultDebounceMs,
		EnableLiveValidation:     true,
		EnablePerformanceMetrics: true,
		EnableBestPractices:      true,
	}
}

func (c Config) debounce() time.Duration {
	ms := c.DebounceMs
	if ms <= 0 {
		ms = defaultDebounceMs
	}
	return time.Duration(ms) * time.Millisecond
}

// ConfigUpdate carries partial configuration changes. Nil fields keep the
// current value.
type ConfigUpdate struct {
	DebounceMs               *int
	EnableLiveValidation     *bool
	EnablePerformanceMetrics *bool
	EnableBestPractices      *bool
	Debug                    *bool
}

func (c Config) apply(u ConfigUpdate) Config {
	if u.DebounceMs != nil && *u.DebounceMs > 0 {
		c.DebounceMs = *u.DebounceMs
	}
	if u.EnableLiveValidation != nil {
		c.EnableLiveValidation = *u.EnableLiveValidation
	}
	if u.EnablePerformanceMetrics != nil {
		c.EnablePerformanceMetrics = *u.EnablePerformanceMetrics
	}
	if u.EnableBestPractices != nil {
		c.EnableBestPractices = *u.EnableBestPractices
	}
	if u.Debug != nil {
		c.Debug = *u.Debug
	}
	return c
}
