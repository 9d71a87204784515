package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// URLs for the NVIDIA pages the catalog is built from. Overridable
	// for mirrors; the defaults point at nvidia.com.
	URLs URLs `yaml:"urls"`
	// Branch preference: "longlived" (default) or "shortlived"
	Branch  string  `yaml:"branch,omitempty"`
	Fetch   Fetch   `yaml:"fetch"`
	History History `yaml:"history"`
}

type URLs struct {
	LegacyDevices  string `yaml:"legacy_devices,omitempty"`
	UnixDrivers    string `yaml:"unix_drivers,omitempty"`
	DownloadMirror string `yaml:"download_mirror,omitempty"`
}

type Fetch struct {
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// defaultConfig provides baseline settings
var defaultConfig = Config{
	URLs: URLs{
		LegacyDevices:  "https://www.nvidia.com/object/IO_32667.html",
		UnixDrivers:    "https://www.nvidia.com/object/unix.html",
		DownloadMirror: "https://us.download.nvidia.com",
	},
	Branch: "longlived",
	Fetch: Fetch{
		TimeoutSeconds: 30,
	},
	History: History{
		Enabled: true,
	},
}

func Load(path string) (*Config, error) {
	if path == "" {
		// Try default locations
		candidates := []string{
			"/etc/govidia/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/govidia/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := defaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	// Apply defaults for anything the file left blank
	if cfg.URLs.LegacyDevices == "" {
		cfg.URLs.LegacyDevices = defaultConfig.URLs.LegacyDevices
	}
	if cfg.URLs.UnixDrivers == "" {
		cfg.URLs.UnixDrivers = defaultConfig.URLs.UnixDrivers
	}
	if cfg.URLs.DownloadMirror == "" {
		cfg.URLs.DownloadMirror = defaultConfig.URLs.DownloadMirror
	}
	if cfg.Branch == "" {
		cfg.Branch = defaultConfig.Branch
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = defaultConfig.Fetch.TimeoutSeconds
	}

	return &cfg, nil
}
