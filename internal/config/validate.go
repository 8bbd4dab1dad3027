package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTagger(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ModelDir == "" {
		return errors.New("paths.model_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateTagger() error {
	if c.Tagger.DefaultThreshold < 0 || c.Tagger.DefaultThreshold > 1 {
		return errors.New("tagger.default_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
