package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/wippyai/gcheap/heap"
	"github.com/wippyai/gcheap/hostmod"
)

// fileConfig is the -config file format. Flags override file values.
//
//	max_blocks: 1024
//	initial_capacity: 256
//	log_level: debug
//	module_name: gcheap
type fileConfig struct {
	LogLevel        string `yaml:"log_level"`
	ModuleName      string `yaml:"module_name"`
	MaxBlocks       int    `yaml:"max_blocks"`
	InitialCapacity int    `yaml:"initial_capacity"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxBlocks < 0 || cfg.InitialCapacity < 0 {
		return cfg, fmt.Errorf("parse config %s: negative sizes", path)
	}
	return cfg, nil
}

func (c fileConfig) heapOptions() heap.Options {
	opts := heap.DefaultOptions()
	if c.MaxBlocks > 0 {
		opts.MaxBlocks = c.MaxBlocks
	}
	if c.InitialCapacity > 0 {
		opts.InitialCapacity = c.InitialCapacity
	}
	return opts
}

func (c fileConfig) hostOptions() hostmod.Options {
	opts := hostmod.DefaultOptions()
	if c.ModuleName != "" {
		opts.ModuleName = c.ModuleName
	}
	return opts
}

// logger returns nil when logging stays disabled.
func (c fileConfig) logger(verbose bool) (*zap.Logger, error) {
	if c.LogLevel == "" && !verbose {
		return nil, nil
	}
	zc := zap.NewDevelopmentConfig()
	if c.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(c.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}
