// Package main provides a profiling wrapper for rv32sim to identify
// emulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/profile"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
)

var (
	mode        = flag.String("mode", "cpu", "profile to collect: cpu, mem, block, mutex, or none")
	outDir      = flag.String("out", ".", "directory to write the profile into")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	quiet       = flag.Bool("quiet", false, "discard program output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	profileMode, ok := profileModes[*mode]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown profile mode %q\n", *mode)
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	// Load the ELF program
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)

	memory, err := prog.Image(emu.DefaultMemorySize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	var stdout io.Writer = os.Stdout
	if *quiet {
		stdout = io.Discard
	}

	emulator := emu.NewEmulator(
		emu.WithStdout(stdout),
		emu.WithMaxInstructions(*instruction),
	)
	if err := emulator.Load(memory, prog.EntryPoint); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	var profiler interface{ Stop() }
	if profileMode != nil {
		profiler = profile.Start(profileMode, profile.ProfilePath(*outDir), profile.NoShutdownHook)
	}
	stopProfiler := sync.OnceFunc(func() {
		if profiler != nil {
			profiler.Stop()
		}
	})

	// Set timeout
	cancelTimeout := exitAfter(*duration, stopProfiler, os.Exit)

	start := time.Now()
	exitCode, runErr := emulator.RunUntilExit()
	elapsed := time.Since(start)

	cancelTimeout()
	stopProfiler()

	instrCount := emulator.InstructionCount()

	fmt.Printf("\nProfiling Results:\n")
	if runErr != nil {
		fmt.Printf("Stopped: %v\n", runErr)
	} else {
		fmt.Printf("Exit code: %d\n", exitCode)
	}
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

// exitAfter calls stop and then exit(2) once d elapses, so a profile is
// complete even when the run is cut short. The returned func cancels it.
func exitAfter(d time.Duration, stop func(), exit func(code int)) (cancel func() bool) {
	timer := time.AfterFunc(d, func() {
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", d)
		stop()
		exit(2)
	})
	return timer.Stop
}

// profileModes maps -mode values to profile options. "none" runs unprofiled.
var profileModes = map[string]func(*profile.Profile){
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"block": profile.BlockProfile,
	"mutex": profile.MutexProfile,
	"none":  nil,
}
