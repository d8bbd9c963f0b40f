package config

import (
	"fmt"
	"strings"

	"cornercam/pkg/yuv"
)

// Validate checks c and fills in defaults for optional values.
func Validate(c *Config) error {
	if c.Device == "" && !c.Fake {
		return fmt.Errorf("device is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window %dx%d must be positive", c.Width, c.Height)
	}
	if c.Width%2 != 0 {
		return fmt.Errorf("width %d must be even", c.Width)
	}
	if _, err := yuv.ParsePalette(c.Palette); err != nil {
		return err
	}
	if c.Buffers <= 0 {
		c.Buffers = 4
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames must be >= 0")
	}

	c.Palette = strings.ToLower(c.Palette)
	c.Detector.Strategy = strings.ToLower(c.Detector.Strategy)
	switch c.Detector.Strategy {
	case "harris", "fast":
	default:
		return fmt.Errorf("detector.strategy %q must be harris or fast", c.Detector.Strategy)
	}
	if c.Detector.Taps != 5 && c.Detector.Taps != 7 {
		return fmt.Errorf("detector.taps must be 5 or 7, got %d", c.Detector.Taps)
	}
	if c.Detector.Threshold < 0 {
		return fmt.Errorf("detector.threshold must be >= 0")
	}
	if c.Detector.FastThreshold <= 0 || c.Detector.FastThreshold > 255 {
		return fmt.Errorf("detector.fast_threshold must be in 1..255")
	}

	if c.Storage.StoreImages && c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required when storing images")
	}
	if c.Storage.Interval < 0 {
		return fmt.Errorf("storage.interval must be >= 0")
	}

	for name, p := range map[string]int{"server.port": c.Server.Port, "server.webdav_port": c.Server.WebdavPort} {
		if p < 0 || p > 65535 {
			return fmt.Errorf("%s %d out of range", name, p)
		}
	}
	if c.Server.Port != 0 && c.Server.Port == c.Server.WebdavPort {
		return fmt.Errorf("server.port and server.webdav_port must differ")
	}

	if c.Record.Path != "" && c.Record.FPS <= 0 {
		return fmt.Errorf("record.fps must be > 0")
	}
	if c.Record.Path != "" && (c.Record.Quality < 1 || c.Record.Quality > 100) {
		return fmt.Errorf("record.quality must be in 1..100")
	}

	return nil
}
