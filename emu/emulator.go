package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rv32sim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32

	// Err is set if a fatal error occurred during execution.
	Err error
}

// AccessObserver is notified of every memory access the emulator makes.
// Observers see addresses only; they never change what is read or written.
type AccessObserver interface {
	Access(addr uint32, size int, write bool)
}

// DecodedInstruction carries one instruction through the stages of a
// single step. It is created at fetch and discarded once the PC updates.
type DecodedInstruction struct {
	// PC is the address the instruction was fetched from.
	PC uint32

	// Inst is the decoded instruction word.
	Inst *insts.Instruction

	// Operands. Right holds the immediate for I, S, U and J formats.
	Left  int32
	Right int32

	// StoreValue is the rs2 value written by a store.
	StoreValue int32

	// Control signals.
	ALUOp  ALUOp
	MemOp  MemOp
	Width  int
	Signed bool

	// Result is the ALU result, the loaded value, or the link address.
	Result int32

	// BranchTaken is set for B-type instructions whose condition holds.
	BranchTaken bool

	// NextPC is the PC after this instruction retires.
	NextPC uint32
}

// Emulator executes RV32IM instructions functionally.
type Emulator struct {
	regFile        *RegFile
	memory         *Memory
	pc             uint32
	decoder        *insts.Decoder
	syscallHandler SyscallHandler

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// I/O
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger logr.Logger
	trace  bool

	instObserver AccessObserver
	dataObserver AccessObserver

	// Execution state
	loaded           bool
	halted           bool
	exitCode         int32
	stackPointer     uint32 // 0 means top of memory
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithStdin sets the reader consumed by the getchar syscall.
func WithStdin(r io.Reader) EmulatorOption {
	return func(e *Emulator) {
		e.stdin = r
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithStackPointer sets the value x2 receives on Load.
// A value of 0 means the top of memory.
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.stackPointer = sp
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithTrace logs every retired instruction at verbosity 1.
func WithTrace(trace bool) EmulatorOption {
	return func(e *Emulator) {
		e.trace = trace
	}
}

// WithInstructionObserver registers an observer for instruction fetches.
func WithInstructionObserver(o AccessObserver) EmulatorOption {
	return func(e *Emulator) {
		e.instObserver = o
	}
}

// WithDataObserver registers an observer for loads and stores.
func WithDataObserver(o AccessObserver) EmulatorOption {
	return func(e *Emulator) {
		e.dataObserver = o
	}
}

// NewEmulator creates a new RV32IM emulator. It has no program until
// Load or LoadProgram is called.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:    &RegFile{},
		memory:     NewMemory(),
		decoder:    insts.NewDecoder(),
		alu:        NewALU(),
		branchUnit: NewBranchUnit(),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		logger:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.lsu = NewLoadStoreUnit(e.memory)

	if e.syscallHandler == nil {
		handler := NewDefaultSyscallHandler(e.regFile, e.stdout, e.stderr)
		handler.SetStdin(e.stdin)
		handler.SetLogger(e.logger)
		e.syscallHandler = handler
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// InstructionCount returns the number of instructions retired.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Halted reports whether the program has made the exit call.
func (e *Emulator) Halted() bool {
	return e.halted
}

// ExitCode returns the exit status once Halted is true.
func (e *Emulator) ExitCode() int32 {
	return e.exitCode
}

// Load installs a populated memory image and starts execution at entry.
// All registers are cleared except x2, which is set to the top of memory
// (or the WithStackPointer value).
func (e *Emulator) Load(memory *Memory, entry uint32) error {
	if memory == nil {
		return fmt.Errorf("load: nil memory image")
	}

	e.memory = memory
	e.lsu = NewLoadStoreUnit(memory)
	e.pc = entry

	e.regFile.Reset()
	sp := e.stackPointer
	if sp == 0 {
		sp = memory.Size()
	}
	e.regFile.WriteReg(RegSP, int32(sp))

	e.loaded = true
	e.halted = false
	e.exitCode = 0
	e.instructionCount = 0

	e.logger.V(1).Info("program loaded",
		"entry", fmt.Sprintf("0x%08X", entry),
		"memory", memory.Size())

	return nil
}

// LoadProgram copies program into a fresh memory of the default size at
// entry and calls Load.
func (e *Emulator) LoadProgram(entry uint32, program []byte) error {
	memory := NewMemory()
	if err := memory.WriteBytes(entry, program); err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	return e.Load(memory, entry)
}

// Step executes exactly one instruction: fetch, decode, execute, memory
// access, writeback, then PC update. A step that fails leaves the PC at
// the faulting instruction.
func (e *Emulator) Step() StepResult {
	if !e.loaded {
		return StepResult{Err: ErrNotLoaded}
	}
	if e.halted {
		return StepResult{Err: ErrHalted}
	}
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrInstructionLimit}
	}

	// 1. Fetch
	d, err := e.fetch()
	if err != nil {
		return StepResult{Err: fmt.Errorf("fetch at PC=0x%08X: %w", e.pc, err)}
	}

	// 2. Decode
	e.decode(d)

	// 3. Execute
	e.execute(d)

	// 4. Memory access
	if err := e.memoryAccess(d); err != nil {
		return StepResult{Err: fmt.Errorf("%s at PC=0x%08X: %w", d.Inst.Mnemonic(), d.PC, err)}
	}

	// 5. Writeback
	result := e.writeback(d)
	if result.Err != nil {
		result.Err = fmt.Errorf("ecall at PC=0x%08X: %w", d.PC, result.Err)
		return result
	}

	// 6. PC update
	e.pc = d.NextPC
	e.instructionCount++

	if e.trace {
		e.logger.V(1).Info("retire",
			"pc", fmt.Sprintf("0x%08X", d.PC),
			"word", fmt.Sprintf("0x%08X", d.Inst.Word),
			"inst", d.Inst.String(),
			"result", d.Result)
	}

	if result.Exited {
		e.halted = true
		e.exitCode = result.ExitCode
		e.logger.V(1).Info("program exited",
			"code", result.ExitCode,
			"instructions", e.instructionCount)
	}

	return result
}

// RunUntilExit steps until the exit syscall and returns its status.
// Any fatal step error stops the run and is returned instead.
func (e *Emulator) RunUntilExit() (int32, error) {
	for {
		result := e.Step()
		if result.Err != nil {
			return 0, result.Err
		}
		if result.Exited {
			return result.ExitCode, nil
		}
	}
}

// fetch reads the instruction word at the PC.
func (e *Emulator) fetch() (*DecodedInstruction, error) {
	if e.instObserver != nil {
		e.instObserver.Access(e.pc, 4, false)
	}

	word, err := e.memory.Read32(e.pc)
	if err != nil {
		return nil, err
	}

	return &DecodedInstruction{
		PC:   e.pc,
		Inst: e.decoder.Decode(word),
	}, nil
}

// decode reads the source registers into the operand slots.
func (e *Emulator) decode(d *DecodedInstruction) {
	inst := d.Inst

	switch inst.Format {
	case insts.FormatR, insts.FormatB:
		d.Left = e.regFile.ReadReg(inst.Rs1)
		d.Right = e.regFile.ReadReg(inst.Rs2)
	case insts.FormatI:
		d.Left = e.regFile.ReadReg(inst.Rs1)
		d.Right = inst.Imm
	case insts.FormatS:
		d.Left = e.regFile.ReadReg(inst.Rs1)
		d.Right = inst.Imm
		d.StoreValue = e.regFile.ReadReg(inst.Rs2)
	case insts.FormatU, insts.FormatJ:
		d.Right = inst.Imm
	}
}

// execute selects and runs the ALU operation and computes the next PC.
func (e *Emulator) execute(d *DecodedInstruction) {
	inst := d.Inst
	d.NextPC = d.PC + 4
	d.ALUOp = SelectOp(inst.Opcode, inst.Funct3, inst.Funct7)

	switch inst.Opcode {
	case insts.OpcodeLoad:
		d.MemOp = MemLoad
		d.Width = AccessWidth(inst.Funct3)
		d.Signed = IsSignedLoad(inst.Funct3)
		d.Result = e.alu.Evaluate(d.ALUOp, d.Left, d.Right)
	case insts.OpcodeStore:
		d.MemOp = MemStore
		d.Width = AccessWidth(inst.Funct3)
		d.Result = e.alu.Evaluate(d.ALUOp, d.Left, d.Right)
	case insts.OpcodeBranch:
		d.Result = e.alu.Evaluate(d.ALUOp, d.Left, d.Right)
		d.BranchTaken = e.branchUnit.Taken(inst.Funct3, d.Result)
		if d.BranchTaken {
			d.NextPC = d.PC + uint32(inst.Imm)
		}
	case insts.OpcodeLUI:
		d.Result = d.Right
	case insts.OpcodeAUIPC:
		d.Result = int32(d.PC) + d.Right
	case insts.OpcodeJAL:
		d.Result = int32(d.PC + 4)
		d.NextPC = d.PC + uint32(inst.Imm)
	case insts.OpcodeJALR:
		target := e.alu.Evaluate(d.ALUOp, d.Left, d.Right)
		d.Result = int32(d.PC + 4)
		d.NextPC = uint32(target) &^ 1
	default:
		d.Result = e.alu.Evaluate(d.ALUOp, d.Left, d.Right)
	}
}

// memoryAccess performs the load or store, if any, at the address in Result.
func (e *Emulator) memoryAccess(d *DecodedInstruction) error {
	addr := uint32(d.Result)

	switch d.MemOp {
	case MemLoad:
		if e.dataObserver != nil {
			e.dataObserver.Access(addr, d.Width, false)
		}
		value, err := e.lsu.Load(addr, d.Width, d.Signed)
		if err != nil {
			return err
		}
		d.Result = value
	case MemStore:
		if e.dataObserver != nil {
			e.dataObserver.Access(addr, d.Width, true)
		}
		return e.lsu.Store(addr, d.Width, d.StoreValue)
	}

	return nil
}

// writeback commits Result to rd, or services ECALL.
func (e *Emulator) writeback(d *DecodedInstruction) StepResult {
	inst := d.Inst

	if inst.Opcode == insts.OpcodeSystem && inst.Funct3 == 0 {
		r := e.syscallHandler.Handle()
		return StepResult{Exited: r.Exited, ExitCode: r.ExitCode, Err: r.Err}
	}

	if inst.HasRd() {
		e.regFile.WriteReg(inst.Rd, d.Result)
	}

	return StepResult{}
}
