// Package config loads, normalizes, and validates Vizart configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon needs: storage directories, worker pool sizing, job deadlines, and
// vision thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
