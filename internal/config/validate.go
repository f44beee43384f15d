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
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.UploadDir == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if c.Paths.ResultsDir == "" {
		return errors.New("paths.results_dir must be set")
	}
	if c.Paths.UploadDir == c.Paths.ResultsDir {
		return errors.New("paths.upload_dir and paths.results_dir must differ")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.MaxConcurrentJobs < 1 {
		return errors.New("processing.max_concurrent_jobs must be at least 1")
	}
	if c.Processing.MaxConcurrentJobs > 64 {
		return fmt.Errorf("processing.max_concurrent_jobs %d is unreasonably high (max 64)", c.Processing.MaxConcurrentJobs)
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.SegmentationConfidence <= 0 || c.Vision.SegmentationConfidence >= 1 {
		return errors.New("vision.segmentation_confidence must be between 0 and 1 exclusive")
	}
	if c.Vision.MinForegroundCoverage <= 0 || c.Vision.MinForegroundCoverage >= 1 {
		return errors.New("vision.min_foreground_coverage must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
