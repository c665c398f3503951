package server

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 来自环境变量。
type Config struct {
	Port string

	// 模板文件路径，为空时使用默认主题
	TemplatePath string

	// Upload limits
	MaxBodyBytes int64

	// 单次排版+渲染的超时
	RenderTimeout time.Duration

	// 同时运行的排版任务上限，超时后仍在运行的任务也占用名额
	MaxConcurrentRenders int
}

func Load() Config {
	cfg := Config{
		Port:          envOr("PORT", "8091"),
		TemplatePath:  os.Getenv("QUIRE_TEMPLATE"),
		MaxBodyBytes:  envInt64("MAX_BODY_BYTES", 4<<20),
		RenderTimeout: envDuration("RENDER_TIMEOUT", 30*time.Second),

		MaxConcurrentRenders: int(envInt64("MAX_CONCURRENT_RENDERS", 4)),
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 4
	}
	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.TemplatePath != "" {
		if _, err := os.Stat(c.TemplatePath); err != nil {
			return fmt.Errorf("QUIRE_TEMPLATE: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
