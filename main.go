// Package main provides the entry point for rv32sim.
// rv32sim is a functional RV32IM emulator for statically linked ELF programs.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32IM Functional Emulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -v         Log verbosity")
	fmt.Println("  -trace     Log every retired instruction")
	fmt.Println("  -max       Maximum instructions to execute")
	fmt.Println("  -cache     Attach L1 cache observers and print their statistics")
	fmt.Println("  -raw       Read program input from the terminal in cbreak mode")
	fmt.Println("  -dump      Dump the parsed ELF program before running")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' for the microbenchmark harness.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
