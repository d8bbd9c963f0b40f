// Package config holds the runtime configuration of the acquisition tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device   string `yaml:"device"`
	Fake     bool   `yaml:"fake"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Palette  string `yaml:"palette"` // uyvy, yuyv
	Buffers  int    `yaml:"buffers"`
	Frames   int    `yaml:"frames"` // 0 runs until interrupted
	LogLevel string `yaml:"log_level"`

	Detector DetectorConfig `yaml:"detector"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Record   RecordConfig   `yaml:"record"`
	Sensor   SensorConfig   `yaml:"sensor"`
}

type DetectorConfig struct {
	Strategy      string  `yaml:"strategy"` // harris, fast
	Taps          int     `yaml:"taps"`     // 5 or 7
	Threshold     float32 `yaml:"threshold"`
	FastThreshold int     `yaml:"fast_threshold"`
	Suppress      bool    `yaml:"suppress"`
}

type StorageConfig struct {
	Dir         string        `yaml:"dir"`
	StoreImages bool          `yaml:"store_images"`
	Interval    time.Duration `yaml:"interval"` // minimum time between stored results
}

type ServerConfig struct {
	Port       int    `yaml:"port"` // 0 disables the preview server
	WebdavPort int    `yaml:"webdav_port"`
	Statics    string `yaml:"statics"`
}

type RecordConfig struct {
	Path    string `yaml:"path"` // empty disables recording
	FPS     int    `yaml:"fps"`
	Quality int    `yaml:"quality"` // JPEG quality of each frame
}

type SensorConfig struct {
	Enable bool   `yaml:"enable"`
	Bus    string `yaml:"bus"` // I²C bus name, empty for the first one
}

func Default() *Config {
	return &Config{
		Device:   "/dev/video0",
		Width:    640,
		Height:   480,
		Palette:  "uyvy",
		Buffers:  4,
		LogLevel: "info",
		Detector: DetectorConfig{
			Strategy:      "harris",
			Taps:          7,
			Threshold:     80,
			FastThreshold: 20,
		},
		Storage: StorageConfig{
			Dir: "./results",
		},
		Server: ServerConfig{
			Port:       9999,
			WebdavPort: 9998,
		},
		Record: RecordConfig{
			FPS:     15,
			Quality: 85,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0640)
}
