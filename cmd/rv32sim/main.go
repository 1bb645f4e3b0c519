// Package main provides the rv32sim command-line driver.
// rv32sim runs a statically linked RV32IM ELF executable to completion and
// exits with the status the program passed to the exit system call.
//
// Exit status 1 means the driver could not start the program (usage, config
// or load error). Status 255 means a fatal emulation error, reported as
// "Emulation error: ..." on stderr. The host keeps only the low 8 bits of the
// program's own status, so a program calling exit(255) or exit(-1) also
// exits 255; check stderr to tell the two apart.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/pkg/term"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
)

// Process exit codes for failures reported by the driver itself.
const (
	exitUsage = 1
	exitFatal = 255
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process-global state, so tests can drive it.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("rv32sim", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "Path to machine configuration JSON file")
	verbosity := flags.Int("v", 0, "Log verbosity (1 shows loading and -trace output)")
	trace := flags.Bool("trace", false, "Log every retired instruction")
	maxInsts := flags.Uint64("max", 0, "Maximum instructions to execute (0 = config value)")
	withCache := flags.Bool("cache", false, "Attach L1 instruction and data cache observers")
	raw := flags.Bool("raw", false, "Read program input from the terminal in cbreak mode")
	dump := flags.Bool("dump", false, "Dump the parsed ELF program to stderr before running")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rv32sim [options] <program.elf>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExit status: the program's exit code (low 8 bits), 1 on a usage or\n")
		fmt.Fprintf(stderr, "load error, 255 on a fatal emulation error. A program exiting with 255\n")
		fmt.Fprintf(stderr, "or -1 also yields 255; fatal errors print \"Emulation error\" to stderr.\n")
	}

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return exitUsage
	}

	logger := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: *verbosity}).WithName("rv32sim")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading machine config: %v\n", err)
		return exitUsage
	}
	if *maxInsts > 0 {
		cfg.MaxInstructions = *maxInsts
	}
	if *withCache {
		cfg.InstCache.Enabled = true
		cfg.DataCache.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid machine config: %v\n", err)
		return exitUsage
	}

	programPath := flags.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitUsage
	}
	logLoaded(logger, programPath, prog)
	if *dump {
		spew.Fdump(stderr, prog)
	}

	memory, err := prog.Image(cfg.MemorySize)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitUsage
	}

	if *raw {
		tty, err := term.Open("/dev/tty", term.CBreakMode)
		if err != nil {
			fmt.Fprintf(stderr, "Error opening terminal: %v\n", err)
			return exitUsage
		}
		defer func() {
			_ = tty.Restore()
			_ = tty.Close()
		}()
		stdin = tty
	}

	opts := []emu.EmulatorOption{
		emu.WithStdin(stdin),
		emu.WithStdout(stdout),
		emu.WithStderr(stderr),
		emu.WithLogger(logger),
		emu.WithTrace(*trace),
		emu.WithStackPointer(cfg.StackPointer),
		emu.WithMaxInstructions(cfg.MaxInstructions),
	}

	var icache, dcache *cache.Cache
	if cfg.InstCache.Enabled {
		if icache, err = cache.New(cfg.InstCache.Config); err != nil {
			fmt.Fprintf(stderr, "Invalid machine config: inst_cache: %v\n", err)
			return exitUsage
		}
		opts = append(opts, emu.WithInstructionObserver(icache))
	}
	if cfg.DataCache.Enabled {
		if dcache, err = cache.New(cfg.DataCache.Config); err != nil {
			fmt.Fprintf(stderr, "Invalid machine config: data_cache: %v\n", err)
			return exitUsage
		}
		opts = append(opts, emu.WithDataObserver(dcache))
	}

	emulator := emu.NewEmulator(opts...)
	if err := emulator.Load(memory, prog.EntryPoint); err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitUsage
	}

	exitCode, runErr := emulator.RunUntilExit()

	if *verbosity > 0 {
		fmt.Fprintf(stderr, "\nProgram: %s\n", programPath)
		fmt.Fprintf(stderr, "Instructions executed: %d\n", emulator.InstructionCount())
	}
	printCacheStats(stderr, "L1I", icache)
	printCacheStats(stderr, "L1D", dcache)

	if runErr != nil {
		fmt.Fprintf(stderr, "Emulation error: %v\n", runErr)
		if errors.Is(runErr, emu.ErrInstructionLimit) {
			fmt.Fprintf(stderr, "Stopped after %d instructions\n", emulator.InstructionCount())
		}
		return exitFatal
	}

	if *verbosity > 0 {
		fmt.Fprintf(stderr, "Exit code: %d\n", exitCode)
	}

	return int(exitCode)
}

// loadConfig returns the config at path, or the defaults when path is empty.
func loadConfig(path string) (*config.MachineConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func logLoaded(logger logr.Logger, path string, prog *loader.Program) {
	logger.V(1).Info("loaded program",
		"path", path,
		"entry", fmt.Sprintf("0x%08X", prog.EntryPoint),
		"segments", len(prog.Segments))

	for i, seg := range prog.Segments {
		logger.V(1).Info("segment",
			"index", i,
			"vaddr", fmt.Sprintf("0x%08X", seg.VirtAddr),
			"filesz", len(seg.Data),
			"memsz", seg.MemSize)
	}
}

// printCacheStats flushes c, so lines still dirty at exit count as
// writebacks, and reports its counters. A nil cache prints nothing.
func printCacheStats(w io.Writer, name string, c *cache.Cache) {
	if c == nil {
		return
	}

	c.Flush()
	stats := c.Stats()
	fmt.Fprintf(w, "%s: %d reads, %d writes, %d hits, %d misses (hit rate %.2f%%), %d evictions, %d writebacks\n",
		name, stats.Reads, stats.Writes, stats.Hits, stats.Misses,
		stats.HitRate()*100, stats.Evictions, stats.Writebacks)
}
