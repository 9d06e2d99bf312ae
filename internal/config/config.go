// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// Package config reads the pipeline configuration file
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"
)

// StoreConfig locates the results store
type StoreConfig struct {
	Connection string `yaml:"connection"`
	Database   string `yaml:"database"`
	Samples    string `yaml:"samples"`
	Results    string `yaml:"results"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// TandemConfig holds the settings used to run X!Tandem
type TandemConfig struct {
	Executable        string  `yaml:"executable"`
	DefaultParameters string  `yaml:"default_parameters"`
	Taxon             string  `yaml:"taxon"`
	Threads           int     `yaml:"threads"`
	MaxExpect         float64 `yaml:"evalue"`
}

// FilterConfig holds the score thresholds
type FilterConfig struct {
	MaxExpect     float64 `yaml:"max_evalue"`
	MinHyperscore float64 `yaml:"min_hyperscore"`
}

// Config is the pipeline configuration. Key names follow the
// configuration file of the proteotyping pipeline.
type Config struct {
	XTandemTaxonomy string       `yaml:"xtandem_taxonomy"`
	GenomeDBs       []string     `yaml:"blat_genome_db"`
	TaxrefDB        string       `yaml:"taxref_db"`
	AnnotationDB    string       `yaml:"annotation_db"`
	Store           StoreConfig  `yaml:"store"`
	Tandem          TandemConfig `yaml:"tandem"`
	Filter          FilterConfig `yaml:"filter"`
}

// Default returns the configuration used for keys that are not set
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Connection: "mongodb://localhost:27017",
			Database:   "tparty",
			Samples:    "samples",
			Results:    "results",
			TimeoutSec: 10,
		},
		Tandem: TandemConfig{
			Executable: "tandem.exe",
			Taxon:      "bacteria",
			Threads:    10,
			MaxExpect:  1.0,
		},
		Filter: FilterConfig{
			MaxExpect:     math.MaxFloat64,
			MinHyperscore: 0,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration data on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Tandem.Threads < 1 {
		return nil, fmt.Errorf("config: tandem threads must be at least 1, got %d", cfg.Tandem.Threads)
	}
	if cfg.Filter.MaxExpect < 0 {
		return nil, fmt.Errorf("config: filter max_evalue must not be negative, got %g", cfg.Filter.MaxExpect)
	}
	return cfg, nil
}
