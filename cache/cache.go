// Package cache provides cache hierarchy modeling using Akita cache components.
//
// A Cache here tracks tags only: it observes the addresses the emulator
// touches and counts hits, misses, evictions and dirty writebacks. Data
// always comes from emulator memory, so attaching a cache never changes
// what a program computes.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
}

// DefaultL1IConfig returns default configuration for an L1 instruction cache
// typical of small RV32 cores: 16KB, 2-way, 32B lines.
func DefaultL1IConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 2,
		BlockSize:     32,
	}
}

// DefaultL1DConfig returns default configuration for an L1 data cache:
// 16KB, 4-way, 32B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     32,
	}
}

// NumSets returns the number of sets the configuration describes.
func (c Config) NumSets() int {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return 0
	}
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry describes at least one set of
// power-of-two sized lines.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block_size must be a power of two")
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.NumSets() == 0 || c.Size != c.NumSets()*c.Associativity*c.BlockSize {
		return fmt.Errorf("size must be a multiple of associativity * block_size")
	}
	return nil
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Accesses returns the number of block lookups.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns hits over lookups, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses())
}

// Cache is a write-back, write-allocate tag store using Akita's directory
// and LRU victim finder.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// New creates a new cache with the given configuration. It fails when the
// geometry does not pass Validate.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Access records a read or write of size bytes at addr. An access that
// straddles a line boundary looks up every line it touches.
func (c *Cache) Access(addr uint32, size int, write bool) {
	if write {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	if size < 1 {
		size = 1
	}

	first := c.blockAddr(uint64(addr))
	last := c.blockAddr(uint64(addr) + uint64(size) - 1)
	for block := first; block <= last; block += uint64(c.config.BlockSize) {
		c.touch(block, write)
	}
}

// Contains reports whether the line holding addr is resident.
func (c *Cache) Contains(addr uint32) bool {
	block := c.directory.Lookup(0, c.blockAddr(uint64(addr)))
	return block != nil && block.IsValid
}

// Flush counts a writeback for every dirty line and invalidates all lines.
func (c *Cache) Flush() {
	sets := c.directory.GetSets()
	for _, set := range sets {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	bs := uint64(c.config.BlockSize)
	return (addr / bs) * bs
}

// touch looks up one line, allocating it on a miss.
func (c *Cache) touch(blockAddr uint64, write bool) {
	block := c.directory.Lookup(0, blockAddr) // PID=0 for now

	if block != nil && block.IsValid {
		c.stats.Hits++
		if write {
			block.IsDirty = true
		}
		c.directory.Visit(block) // Update LRU
		return
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return
	}

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
		}
	}

	// Tag stores the block-aligned address.
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = write

	c.directory.Visit(victim)
}
