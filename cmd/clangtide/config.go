// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name searched for in the project
// root when --config is not given.
const DefaultConfigFile = "clangtide.yaml"

// Duration wraps time.Duration so config files can say "10m" or "500ms"
// instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML accepts both Go duration strings and bare integers
// (interpreted as seconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the file-backed configuration for the clangtide CLI.
//
// Every field has a working default; a missing config file is not an
// error. Command-line flags override file values.
type Config struct {
	// ProjectRoot is the directory analysis runs relative to.
	ProjectRoot string `yaml:"project_root" validate:"omitempty,dir"`

	// Executable overrides the clang-tidy binary (name or path).
	Executable string `yaml:"executable"`

	// CompileCommands points at compile_commands.json or its directory.
	CompileCommands string `yaml:"compile_commands"`

	// Jobs caps concurrent clang-tidy processes. Zero means auto.
	Jobs int `yaml:"jobs" validate:"gte=0,lte=64"`

	// Timeout bounds each clang-tidy invocation. Zero disables it.
	Timeout Duration `yaml:"timeout" validate:"gte=0"`

	// Checks is the default -checks selection for runs.
	Checks string `yaml:"checks"`

	// HeaderFilter is the default -header-filter regex.
	HeaderFilter string `yaml:"header_filter"`

	// ExtraArgs are appended verbatim to every clang-tidy invocation.
	ExtraArgs []string `yaml:"extra_args"`

	// Log configures the logging subsystem.
	Log LogConfig `yaml:"log"`

	// Telemetry configures trace and metric export.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch configures watch mode.
	Watch WatchConfig `yaml:"watch"`
}

// LogConfig mirrors pkg/logging.Config in file form.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Dir enables file logging when set.
	Dir string `yaml:"dir"`

	// JSON switches stderr logs to JSON.
	JSON bool `yaml:"json"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	// Traces selects the trace exporter: otlp, stdout, or none.
	Traces string `yaml:"traces" validate:"omitempty,oneof=otlp jaeger stdout none"`

	// Metrics selects the metric exporter: prometheus, stdout, or none.
	Metrics string `yaml:"metrics" validate:"omitempty,oneof=prometheus stdout none"`

	// OTLPEndpoint is the OTLP receiver for traces.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	// Debounce coalesces filesystem events within this window.
	Debounce Duration `yaml:"debounce" validate:"gte=0"`

	// MetricsAddr serves /metrics on this address during watch
	// sessions when the prometheus exporter is enabled (e.g.
	// "localhost:9345"). Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultCLIConfig returns the configuration used when no file exists.
func DefaultCLIConfig() Config {
	return Config{
		ProjectRoot: ".",
		Executable:  "",
		Jobs:        0,
		Timeout:     Duration(10 * time.Minute),
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Traces:  "none",
			Metrics: "none",
		},
		Watch: WatchConfig{
			Debounce: Duration(500 * time.Millisecond),
		},
	}
}

// LoadConfig reads and validates the configuration file.
//
// Description:
//
//	A missing file yields the defaults. A file that exists but does not
//	parse or validate is an error; silently ignoring a broken config
//	would make runs behave differently than the user asked for.
//
// Inputs:
//
//	path - Explicit config path, or "" to look for clangtide.yaml in
//	the working directory.
//
// Outputs:
//
//	Config - The effective configuration.
//	error - Non-nil for unreadable, unparseable, or invalid files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultCLIConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "."
	}
	return cfg, nil
}

// absProjectRoot resolves the configured project root to an absolute
// path so batch flags and watch roots do not depend on the cwd.
func absProjectRoot() string {
	root, err := filepath.Abs(config.ProjectRoot)
	if err != nil {
		// Abs only fails when the cwd is gone; the relative path is
		// still usable for PATH-relative invocation.
		return config.ProjectRoot
	}
	return root
}
