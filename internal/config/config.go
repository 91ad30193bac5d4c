package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jsonmux/jsonmux/internal/protocol/frame"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3000
)

// Config is the shared endpoint configuration. The prefix width is a
// shared contract: client and server must be configured identically.
type Config struct {
	Host         string
	Port         int
	PrefixWidth  frame.PrefixWidth
	WriteTimeout time.Duration
	MetricsAddr  string
}

func Default() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		PrefixWidth: frame.DefaultWidth,
	}
}

// Addr is the host:port dial/listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type fileConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	PrefixWidth  int    `toml:"prefix_width"`
	WriteTimeout string `toml:"write_timeout"`
	MetricsAddr  string `toml:"metrics_addr"`
}

// Load reads a TOML config, applying defaults for anything the file
// leaves out.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("host") {
		host := strings.TrimSpace(raw.Host)
		if host == "" {
			return Config{}, fmt.Errorf("config (%s): host must not be empty", path)
		}
		cfg.Host = host
	}

	if meta.IsDefined("port") {
		if raw.Port < 1 || raw.Port > 65535 {
			return Config{}, fmt.Errorf("config (%s): port out of range: %d", path, raw.Port)
		}
		cfg.Port = raw.Port
	}

	if meta.IsDefined("prefix_width") {
		w, err := frame.ParsePrefixWidth(raw.PrefixWidth)
		if err != nil {
			return Config{}, fmt.Errorf("config (%s): %w", path, err)
		}
		cfg.PrefixWidth = w
	}

	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("config (%s): parse write_timeout: %w", path, err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("config (%s): write_timeout must not be negative", path)
		}
		cfg.WriteTimeout = d
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	return cfg, nil
}
