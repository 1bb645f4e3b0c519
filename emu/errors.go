package emu

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the emulator.
var (
	// ErrOutOfRange is matched by every AccessError.
	ErrOutOfRange = errors.New("memory access out of range")

	// ErrUnknownSyscall is matched by every SyscallError.
	ErrUnknownSyscall = errors.New("unknown system call")

	// ErrNotLoaded is returned when stepping a machine with no image.
	ErrNotLoaded = errors.New("no program loaded")

	// ErrHalted is returned when stepping a machine after its exit call.
	ErrHalted = errors.New("machine has halted")

	// ErrInstructionLimit is returned when the instruction budget is spent.
	ErrInstructionLimit = errors.New("max instructions reached")
)

// AccessError describes a memory access outside the emulated RAM.
type AccessError struct {
	Addr  uint32
	Size  int
	Limit uint32
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("memory access out of range: %d bytes at 0x%08X (memory size 0x%X)",
		e.Size, e.Addr, e.Limit)
}

// Is makes errors.Is(err, ErrOutOfRange) true for any AccessError.
func (e *AccessError) Is(target error) bool {
	return target == ErrOutOfRange
}

// SyscallError describes a system call number the handler does not know.
type SyscallError struct {
	Number int32
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("unknown system call %d", e.Number)
}

// Is makes errors.Is(err, ErrUnknownSyscall) true for any SyscallError.
func (e *SyscallError) Is(target error) bool {
	return target == ErrUnknownSyscall
}
