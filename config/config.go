// Package config provides the JSON machine configuration for the emulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/emu"
)

// CacheConfig enables and sizes one cache observer.
type CacheConfig struct {
	Enabled bool `json:"enabled"`
	cache.Config
}

// MachineConfig holds the parameters of an emulated machine.
type MachineConfig struct {
	// MemorySize is the size of RAM in bytes. Default: 1 MiB.
	MemorySize uint32 `json:"memory_size"`

	// MaxInstructions bounds a run. Default: 0 (no limit).
	MaxInstructions uint64 `json:"max_instructions"`

	// StackPointer is the initial value of x2. Default: 0, meaning the
	// top of memory.
	StackPointer uint32 `json:"stack_pointer"`

	// InstCache and DataCache attach cache observers. Default: disabled.
	InstCache CacheConfig `json:"inst_cache"`
	DataCache CacheConfig `json:"data_cache"`
}

// Default returns a MachineConfig with the reference defaults.
func Default() *MachineConfig {
	return &MachineConfig{
		MemorySize:      emu.DefaultMemorySize,
		MaxInstructions: 0,
		StackPointer:    0,
		InstCache:       CacheConfig{Config: cache.DefaultL1IConfig()},
		DataCache:       CacheConfig{Config: cache.DefaultL1DConfig()},
	}
}

// Load loads a MachineConfig from a JSON file. Fields absent from the file
// keep their defaults.
func Load(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse machine config: %w", err)
	}

	return config, nil
}

// Save writes a MachineConfig to a JSON file.
func (c *MachineConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize machine config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write machine config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a usable machine.
func (c *MachineConfig) Validate() error {
	if c.MemorySize < 4 {
		return fmt.Errorf("memory_size must be >= 4")
	}
	if c.MemorySize >= 1<<31 {
		return fmt.Errorf("memory_size must be < 2 GiB")
	}
	if c.StackPointer > c.MemorySize {
		return fmt.Errorf("stack_pointer must be <= memory_size")
	}
	if err := c.InstCache.validate("inst_cache"); err != nil {
		return err
	}
	return c.DataCache.validate("data_cache")
}

// validate checks the geometry even when the cache is disabled, since
// tools such as the benchmark harness enable caches on their own.
func (c CacheConfig) validate(name string) error {
	if err := c.Config.Validate(); err != nil {
		return fmt.Errorf("%s.%w", name, err)
	}
	return nil
}

// Clone returns a deep copy of the MachineConfig.
func (c *MachineConfig) Clone() *MachineConfig {
	clone := *c
	return &clone
}
