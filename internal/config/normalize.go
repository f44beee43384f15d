package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProcessing()
	c.normalizeVision()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProcessing() {
	if c.Processing.MaxConcurrentJobs <= 0 {
		c.Processing.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.Processing.JobTimeoutSeconds < 0 {
		c.Processing.JobTimeoutSeconds = 0
	}
	if c.Processing.ShutdownGraceSeconds <= 0 {
		c.Processing.ShutdownGraceSeconds = defaultShutdownGraceSeconds
	}
	if c.Processing.JPEGQuality <= 0 || c.Processing.JPEGQuality > 100 {
		c.Processing.JPEGQuality = defaultJPEGQuality
	}
	if c.Processing.MaxUploadBytes <= 0 {
		c.Processing.MaxUploadBytes = defaultMaxUploadBytes
	}
}

func (c *Config) normalizeVision() {
	if c.Vision.ForegroundThreshold <= 0 || c.Vision.ForegroundThreshold > 255 {
		c.Vision.ForegroundThreshold = defaultForegroundThreshold
	}
	if c.Vision.SegmentationConfidence <= 0 || c.Vision.SegmentationConfidence >= 1 {
		c.Vision.SegmentationConfidence = defaultSegmentationConfidence
	}
	if c.Vision.MinForegroundCoverage <= 0 || c.Vision.MinForegroundCoverage >= 1 {
		c.Vision.MinForegroundCoverage = defaultMinForegroundCoverage
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
