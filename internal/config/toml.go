// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Data   DataConfig   `toml:"data"`
	Render RenderConfig `toml:"render"`
}

// DataConfig maps dataset locations and parsing settings.
type DataConfig struct {
	CSV           *string `toml:"csv"`
	Geo           *string `toml:"geo"`
	GeoNameKey    *string `toml:"geo-name-key"`
	CountryColumn *string `toml:"country-column"`
	CasesColumn   *string `toml:"cases-column"`
	DeathsColumn  *string `toml:"deaths-column"`
	OnInvalid     *string `toml:"on-invalid"`
	Timeout       *string `toml:"timeout"`
}

// RenderConfig maps output settings.
type RenderConfig struct {
	Width *int  `toml:"width"`
	Color *bool `toml:"color"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
