package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/inamate/render-go/internal/engine"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	ViewerKeyHash  string `envconfig:"VIEWER_KEY_HASH"`
	TextureDir     string `envconfig:"TEXTURE_DIR" default:"./data/textures"`
	TextureWorkers int    `envconfig:"TEXTURE_WORKERS" default:"4"`
	SceneFile      string `envconfig:"SCENE_FILE"`
	FPS            int    `envconfig:"FPS" default:"24"`
	MaxBufferSlots int    `envconfig:"MAX_BUFFER_SLOTS" default:"262144"`
	GrowBuffer     bool   `envconfig:"GROW_BUFFER" default:"false"`
	FusedUpdate    bool   `envconfig:"FUSED_UPDATE" default:"true"`
	Debug          bool   `envconfig:"DEBUG" default:"false"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.FPS <= 0 || cfg.FPS > 240 {
		return nil, fmt.Errorf("config: FPS %d out of range", cfg.FPS)
	}
	if cfg.MaxBufferSlots < engine.SlotsPerQuad || cfg.MaxBufferSlots%engine.SlotsPerQuad != 0 {
		return nil, fmt.Errorf("config: MAX_BUFFER_SLOTS must be a positive multiple of %d", engine.SlotsPerQuad)
	}
	if cfg.TextureWorkers <= 0 {
		cfg.TextureWorkers = 1
	}
	return &cfg, nil
}

// EngineOptions returns the render context options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		MaxSlots:   c.MaxBufferSlots,
		GrowBuffer: c.GrowBuffer,
		Fused:      c.FusedUpdate,
	}
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Origins returns ALLOWED_ORIGINS split on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the allowed origins without their scheme, the form
// websocket origin patterns expect.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		hosts = append(hosts, o)
	}
	return hosts
}
