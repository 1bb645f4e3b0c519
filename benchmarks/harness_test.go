package benchmarks_test

import (
	"bytes"
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/insts"
)

func find(results []benchmarks.BenchmarkResult, name string) benchmarks.BenchmarkResult {
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	Fail("no result named " + name)
	return benchmarks.BenchmarkResult{}
}

var _ = Describe("Harness", func() {
	var (
		out     *bytes.Buffer
		config  benchmarks.HarnessConfig
		harness *benchmarks.Harness
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		config = benchmarks.DefaultConfig()
		config.Output = out
	})

	Describe("microbenchmarks", func() {
		var results []benchmarks.BenchmarkResult

		BeforeEach(func() {
			harness = benchmarks.NewHarness(config)
			harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			results = harness.RunAll()
		})

		It("should run every benchmark to its expected exit code", func() {
			Expect(results).To(HaveLen(len(benchmarks.GetMicrobenchmarks())))
			for _, r := range results {
				Expect(r.Error).To(BeEmpty(), r.Name)
				Expect(r.ExitCode).To(Equal(r.ExpectedExit), r.Name)
				Expect(r.Passed()).To(BeTrue(), r.Name)
			}
		})

		DescribeTable("instructions retired",
			func(name string, expected uint64) {
				Expect(find(results, name).InstructionsRetired).To(Equal(expected))
			},
			Entry("arithmetic_sequential", "arithmetic_sequential", uint64(22)),
			Entry("dependency_chain", "dependency_chain", uint64(21)),
			Entry("memory_sequential", "memory_sequential", uint64(21)),
			Entry("function_calls", "function_calls", uint64(16)),
			Entry("branch_taken", "branch_taken", uint64(11)),
			Entry("mul_div", "mul_div", uint64(10)),
			Entry("matrix_multiply_2x2", "matrix_multiply_2x2", uint64(25)),
			Entry("loop_simulation", "loop_simulation", uint64(32)),
		)

		It("should miss once per data line touched", func() {
			r := find(results, "memory_sequential")
			Expect(r.DCacheMisses).To(Equal(uint64(2)))
			Expect(r.DCacheHits).To(Equal(uint64(18)))
			Expect(r.DCacheEvictions).To(BeZero())
		})

		It("should hit in the instruction cache inside a loop", func() {
			r := find(results, "loop_simulation")
			Expect(r.ICacheMisses).To(Equal(uint64(1)))
			Expect(r.ICacheHits).To(Equal(uint64(31)))
		})
	})

	Describe("core benchmarks", func() {
		It("should be a subset of the microbenchmarks", func() {
			names := map[string]bool{}
			for _, b := range benchmarks.GetMicrobenchmarks() {
				names[b.Name] = true
			}
			core := benchmarks.GetCoreBenchmarks()
			Expect(core).To(HaveLen(3))
			for _, b := range core {
				Expect(names).To(HaveKey(b.Name))
			}
		})
	})

	Context("with caches disabled", func() {
		It("should report no cache statistics", func() {
			config.EnableICache = false
			config.EnableDCache = false
			harness = benchmarks.NewHarness(config)
			harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())

			for _, r := range harness.RunAll() {
				Expect(r.Passed()).To(BeTrue())
				Expect(r.ICacheHits + r.ICacheMisses).To(BeZero())
				Expect(r.DCacheHits + r.DCacheMisses).To(BeZero())
			}
		})
	})

	Context("with a failing program", func() {
		BeforeEach(func() {
			config.MaxInstructions = 50
			harness = benchmarks.NewHarness(config)
		})

		It("should record a fatal error", func() {
			harness.AddBenchmark(benchmarks.Benchmark{
				Name: "bad_syscall",
				Program: benchmarks.BuildProgram(
					benchmarks.EncodeADDI(17, 0, 9),
					benchmarks.EncodeECALL(),
				),
			})

			r := harness.RunAll()[0]
			Expect(r.Error).To(ContainSubstring("unknown system call"))
			Expect(r.Passed()).To(BeFalse())
		})

		It("should stop a program that never exits", func() {
			harness.AddBenchmark(benchmarks.Benchmark{
				Name:    "spin",
				Program: benchmarks.BuildProgram(benchmarks.EncodeJAL(0, 0)),
			})

			r := harness.RunAll()[0]
			Expect(r.Error).To(ContainSubstring("max instructions reached"))
			Expect(r.InstructionsRetired).To(Equal(uint64(50)))
		})
	})

	Context("with an unusable cache geometry", func() {
		It("should record an error instead of running", func() {
			config.DCache.BlockSize = 0
			harness = benchmarks.NewHarness(config)
			harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())

			results := harness.RunAll()
			Expect(results).To(HaveLen(3))
			for _, r := range results {
				Expect(r.Error).To(ContainSubstring("dcache"))
				Expect(r.Error).To(ContainSubstring("block_size"))
				Expect(r.InstructionsRetired).To(BeZero())
				Expect(r.Passed()).To(BeFalse())
			}
		})

		It("should run when the bad cache is disabled", func() {
			config.DCache.BlockSize = 0
			config.EnableDCache = false
			harness = benchmarks.NewHarness(config)
			harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())

			for _, r := range harness.RunAll() {
				Expect(r.Passed()).To(BeTrue())
			}
		})
	})

	Describe("output", func() {
		var results []benchmarks.BenchmarkResult

		BeforeEach(func() {
			harness = benchmarks.NewHarness(config)
			harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			results = harness.RunAll()
		})

		It("should print human-readable results", func() {
			harness.PrintResults(results)
			Expect(out.String()).To(ContainSubstring("Benchmark: loop_simulation"))
			Expect(out.String()).To(ContainSubstring("Exit Code: 20 (expected 20)"))
			Expect(out.String()).To(ContainSubstring("--- I-Cache ---"))
		})

		It("should print one CSV row per benchmark", func() {
			harness.PrintCSV(results)
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			Expect(lines).To(HaveLen(4))
			Expect(lines[0]).To(HavePrefix("name,instructions"))
			Expect(lines[1]).To(HavePrefix("loop_simulation,32,"))
			Expect(lines[1]).To(HaveSuffix(",20,true"))
		})

		It("should print a JSON report with a summary", func() {
			Expect(harness.PrintJSON(results)).To(Succeed())

			var report benchmarks.BenchmarkReport
			Expect(json.Unmarshal(out.Bytes(), &report)).To(Succeed())
			Expect(report.Results).To(HaveLen(3))
			Expect(report.Summary.TotalBenchmarks).To(Equal(3))
			Expect(report.Summary.Passed).To(Equal(3))
			Expect(report.Summary.TotalInstructions).To(Equal(uint64(32 + 25 + 11)))
			Expect(report.Metadata.Config.ICacheEnabled).To(BeTrue())
		})
	})
})

var _ = Describe("Encoders", func() {
	decoder := insts.NewDecoder()

	DescribeTable("should produce words the decoder understands",
		func(word uint32, expected string) {
			Expect(decoder.Decode(word).String()).To(Equal(expected))
		},
		Entry("addi", benchmarks.EncodeADDI(10, 0, 5), "addi x10, x0, 5"),
		Entry("add", benchmarks.EncodeADD(10, 10, 6), "add x10, x10, x6"),
		Entry("sub", benchmarks.EncodeSUB(5, 6, 7), "sub x5, x6, x7"),
		Entry("mul", benchmarks.EncodeMUL(7, 5, 6), "mul x7, x5, x6"),
		Entry("div", benchmarks.EncodeDIV(7, 7, 28), "div x7, x7, x28"),
		Entry("lw", benchmarks.EncodeLW(10, 5, 8), "lw x10, 8(x5)"),
		Entry("sw", benchmarks.EncodeSW(10, 5, -4), "sw x10, -4(x5)"),
	)

	It("should encode branch and jump offsets", func() {
		Expect(decoder.Decode(benchmarks.EncodeBNE(5, 0, -8)).Imm).To(Equal(int32(-8)))
		Expect(decoder.Decode(benchmarks.EncodeBEQ(0, 0, 8)).Imm).To(Equal(int32(8)))
		Expect(decoder.Decode(benchmarks.EncodeJAL(1, 24)).Imm).To(Equal(int32(24)))
		Expect(decoder.Decode(benchmarks.EncodeJAL(1, -2048)).Imm).To(Equal(int32(-2048)))
	})

	It("should encode RET as JALR x0, 0(ra)", func() {
		inst := decoder.Decode(benchmarks.EncodeRET())
		Expect(inst.Opcode).To(Equal(insts.OpcodeJALR))
		Expect(inst.Rd).To(Equal(uint8(0)))
		Expect(inst.Rs1).To(Equal(uint8(1)))
	})

	It("should lay out programs little-endian", func() {
		Expect(benchmarks.BuildProgram(benchmarks.EncodeECALL())).To(Equal([]byte{0x73, 0, 0, 0}))
	})
})
