package api

import "time"

type Config struct {
	Addr               string            `default:":8080"`
	ReadTimeout        time.Duration     `split_words:"true" default:"15s"`
	WriteTimeout       time.Duration     `split_words:"true" default:"90s"`
	ShutdownTimeout    time.Duration     `split_words:"true" default:"10s"`
	MaxBodyBytes       int64             `split_words:"true" default:"1048576"`
	RateLimitPerMinute int               `split_words:"true" default:"30"`
	RateLimitBurst     int               `split_words:"true" default:"5"`
	AllowedOrigin      string            `split_words:"true" default:"*"`
	StaticTokens       map[string]string `split_words:"true"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 90 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 30
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 5
	}
	return c
}

// AuthConfig is read with the SUPABASE prefix.
type AuthConfig struct {
	URL     string        `envconfig:"URL"`
	AnonKey string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}
