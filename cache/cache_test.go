package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// Small cache for testing: 256B, 2-way, 32B lines -> 4 sets
		var err error
		c, err = cache.New(cache.Config{
			Size:          256,
			Associativity: 2,
			BlockSize:     32,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			c.Access(0x1000, 4, false)

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
			Expect(c.Contains(0x1000)).To(BeTrue())
		})

		It("should hit on different addresses in same cache line", func() {
			c.Access(0x1000, 4, false)
			c.Access(0x101C, 4, false)

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.HitRate()).To(BeNumerically("~", 0.5))
		})

		It("should look up both lines for a straddling access", func() {
			c.Access(0x101E, 4, false)

			Expect(c.Stats().Misses).To(Equal(uint64(2)))
			Expect(c.Contains(0x1000)).To(BeTrue())
			Expect(c.Contains(0x1020)).To(BeTrue())
		})
	})

	Describe("Eviction", func() {
		It("should evict the least recently used way", func() {
			// 0x0000, 0x0080, 0x0100 all map to set 0
			c.Access(0x0000, 4, false)
			c.Access(0x0080, 4, false)
			c.Access(0x0000, 4, false) // make 0x0080 the LRU line
			c.Access(0x0100, 4, false)

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Contains(0x0000)).To(BeTrue())
			Expect(c.Contains(0x0080)).To(BeFalse())
		})

		It("should count a writeback when a dirty line is evicted", func() {
			c.Access(0x0000, 4, true)
			c.Access(0x0080, 4, false)
			c.Access(0x0100, 4, false)

			stats := c.Stats()
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Writebacks).To(Equal(uint64(1)))
		})
	})

	Describe("Flush and Reset", func() {
		It("should write back dirty lines on flush", func() {
			c.Access(0x0000, 4, true)
			c.Access(0x0040, 4, true)
			c.Access(0x0020, 4, false)

			c.Flush()

			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.Contains(0x0000)).To(BeFalse())
		})

		It("should clear state and statistics on reset", func() {
			c.Access(0x0000, 4, false)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Contains(0x0000)).To(BeFalse())
		})
	})

	Describe("as an emulator observer", func() {
		It("should count fetches without changing results", func() {
			icache, err := cache.New(cache.DefaultL1IConfig())
			Expect(err).NotTo(HaveOccurred())
			e := emu.NewEmulator(emu.WithInstructionObserver(icache))
			Expect(e.LoadProgram(0x1000, []byte{
				0x93, 0x00, 0x50, 0x00, // addi x1, x0, 5
				0x93, 0x00, 0x50, 0x00, // addi x1, x0, 5
				0x73, 0x00, 0x00, 0x00, // ecall (exit)
			})).To(Succeed())

			code, err := e.RunUntilExit()

			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(int32(0)))
			Expect(icache.Stats().Reads).To(Equal(uint64(3)))
			Expect(icache.Stats().Misses).To(Equal(uint64(1)))
			Expect(icache.Stats().Hits).To(Equal(uint64(2)))
		})
	})

	Describe("New", func() {
		DescribeTable("should reject unusable geometry",
			func(config cache.Config, message string) {
				c, err := cache.New(config)
				Expect(c).To(BeNil())
				Expect(err).To(MatchError(ContainSubstring(message)))
			},
			Entry("zero block size", cache.Config{Size: 256, Associativity: 2, BlockSize: 0}, "block_size"),
			Entry("non power of two block", cache.Config{Size: 240, Associativity: 2, BlockSize: 24}, "block_size"),
			Entry("zero ways", cache.Config{Size: 256, Associativity: 0, BlockSize: 32}, "associativity"),
			Entry("no sets", cache.Config{Size: 32, Associativity: 2, BlockSize: 32}, "size"),
		)

		It("should accept the default geometries", func() {
			Expect(cache.DefaultL1IConfig().Validate()).To(Succeed())
			Expect(cache.DefaultL1DConfig().Validate()).To(Succeed())
		})
	})
})
