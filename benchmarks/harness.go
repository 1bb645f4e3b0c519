// Package benchmarks provides a microbenchmark harness for the RV32IM
// emulator. Each benchmark is a short hand-assembled program run to its exit
// call with optional L1 cache observers attached.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/emu"
)

// ProgramAddr is where every benchmark program is loaded and entered.
const ProgramAddr = 0x1000

// DefaultMaxInstructions bounds each benchmark so a broken program cannot spin.
const DefaultMaxInstructions = 1_000_000

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// ICacheHits/Misses (if cache enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// DCacheHits/Misses/Evictions (if cache enabled)
	DCacheHits      uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses    uint64 `json:"dcache_misses,omitempty"`
	DCacheEvictions uint64 `json:"dcache_evictions,omitempty"`

	// ExitCode is the program's exit code
	ExitCode int32 `json:"exit_code"`

	// ExpectedExit is the exit code the program should produce
	ExpectedExit int32 `json:"expected_exit"`

	// Error is set when the run ended in a fatal emulator error
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the emulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether the run exited cleanly with the expected code.
func (r BenchmarkResult) Passed() bool {
	return r.Error == "" && r.ExitCode == r.ExpectedExit
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the machine state after loading (registers, data).
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// Program is the RV32IM machine code to execute, loaded at ProgramAddr
	Program []byte

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableICache attaches an instruction cache observer
	EnableICache bool

	// EnableDCache attaches a data cache observer
	EnableDCache bool

	// ICache and DCache set the observer geometry.
	ICache cache.Config
	DCache cache.Config

	// MaxInstructions bounds each run. 0 means DefaultMaxInstructions.
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableICache:    true,
		EnableDCache:    true,
		ICache:          cache.DefaultL1IConfig(),
		DCache:          cache.DefaultL1DConfig(),
		MaxInstructions: DefaultMaxInstructions,
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MaxInstructions == 0 {
		config.MaxInstructions = DefaultMaxInstructions
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh machine.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:         bench.Name,
		Description:  bench.Description,
		ExpectedExit: bench.ExpectedExit,
	}

	memory := emu.NewMemory()
	if err := memory.WriteBytes(ProgramAddr, bench.Program); err != nil {
		result.Error = err.Error()
		return result
	}

	opts := []emu.EmulatorOption{
		emu.WithStdout(io.Discard),
		emu.WithStderr(io.Discard),
		emu.WithMaxInstructions(h.config.MaxInstructions),
	}

	var icache, dcache *cache.Cache
	if h.config.EnableICache {
		c, err := cache.New(h.config.ICache)
		if err != nil {
			result.Error = fmt.Sprintf("icache: %v", err)
			return result
		}
		icache = c
		opts = append(opts, emu.WithInstructionObserver(icache))
	}
	if h.config.EnableDCache {
		c, err := cache.New(h.config.DCache)
		if err != nil {
			result.Error = fmt.Sprintf("dcache: %v", err)
			return result
		}
		dcache = c
		opts = append(opts, emu.WithDataObserver(dcache))
	}

	emulator := emu.NewEmulator(opts...)
	if err := emulator.Load(memory, ProgramAddr); err != nil {
		result.Error = err.Error()
		return result
	}

	if bench.Setup != nil {
		bench.Setup(emulator.RegFile(), emulator.Memory())
	}

	// Run emulation and measure time
	start := time.Now()
	exitCode, err := emulator.RunUntilExit()
	result.WallTime = time.Since(start)

	result.InstructionsRetired = emulator.InstructionCount()
	result.ExitCode = exitCode
	if err != nil {
		result.Error = err.Error()
	}

	if icache != nil {
		stats := icache.Stats()
		result.ICacheHits = stats.Hits
		result.ICacheMisses = stats.Misses
	}
	if dcache != nil {
		stats := dcache.Stats()
		result.DCacheHits = stats.Hits
		result.DCacheMisses = stats.Misses
		result.DCacheEvictions = stats.Evictions
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== rv32sim Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  Exit Code: %d (expected %d)\n", r.ExitCode, r.ExpectedExit)
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(out, "  Instructions Retired: %d\n", r.InstructionsRetired)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- I-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:   %d\n", r.ICacheHits)
			_, _ = fmt.Fprintf(out, "  Misses: %d\n", r.ICacheMisses)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:      %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(out, "  Misses:    %d\n", r.DCacheMisses)
			_, _ = fmt.Fprintf(out, "  Evictions: %d\n", r.DCacheEvictions)
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,icache_hits,icache_misses,dcache_hits,dcache_misses,dcache_evictions,exit_code,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.InstructionsRetired,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.DCacheEvictions,
			r.ExitCode,
			r.Passed(),
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	ICacheEnabled bool `json:"icache_enabled"`
	DCacheEnabled bool `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Passed is the number of benchmarks that exited with the expected code
	Passed int `json:"passed"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		if r.Passed() {
			summary.Passed++
		}
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
	}
	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				ICacheEnabled: h.config.EnableICache,
				DCacheEnabled: h.config.EnableDCache,
			},
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
