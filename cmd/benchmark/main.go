// Command benchmark runs the rv32sim microbenchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results as a JSON report
//	-core       Run only the three core benchmarks
//	-no-icache  Disable instruction cache observation
//	-no-dcache  Disable data cache observation
//	-config     Machine configuration JSON supplying cache geometry
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// The command exits non-zero when any benchmark does not reach its expected
// exit code.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/config"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	noICache := flag.Bool("no-icache", false, "Disable instruction cache observation")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache observation")
	configPath := flag.String("config", "", "Path to machine configuration JSON file")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Configure harness
	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.EnableICache = !*noICache
	harnessConfig.EnableDCache = !*noDCache
	harnessConfig.Output = os.Stdout
	harnessConfig.Verbose = *verbose

	if *configPath != "" {
		machine, err := config.Load(*configPath)
		if err == nil {
			err = machine.Validate()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading machine config: %v\n", err)
			os.Exit(1)
		}
		harnessConfig.ICache = machine.InstCache.Config
		harnessConfig.DCache = machine.DataCache.Config
		if machine.MaxInstructions > 0 {
			harnessConfig.MaxInstructions = machine.MaxInstructions
		}
	}

	// Create harness and add benchmarks
	harness := benchmarks.NewHarness(harnessConfig)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	// Print configuration
	if !*csvOutput && !*jsonOutput {
		fmt.Println("rv32sim Benchmark Harness")
		fmt.Println("=========================")
		fmt.Printf("I-Cache: %v\n", harnessConfig.EnableICache)
		fmt.Printf("D-Cache: %v\n", harnessConfig.EnableDCache)
		fmt.Println("")
	}

	// Run benchmarks
	results := harness.RunAll()

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Passed: %d/%d\n", summary.Passed, summary.TotalBenchmarks)
		fmt.Printf("Instructions: %d\n", summary.TotalInstructions)
	}

	if summary := benchmarks.Summarize(results); summary.Passed != summary.TotalBenchmarks {
		os.Exit(1)
	}
}
