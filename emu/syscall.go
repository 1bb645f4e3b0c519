package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"
)

// System call numbers, passed in a7.
const (
	SyscallExit    int32 = 0 // exit(a0)
	SyscallPutchar int32 = 1 // putchar(a0 & 0xFF)
	SyscallGetchar int32 = 2 // a0 = getchar()
	SyscallDebug   int32 = 3 // emit a debug marker
)

// EOFChar is stored in a0 by getchar when the input is exhausted.
const EOFChar int32 = -1

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32

	// Err is set if the syscall could not be serviced.
	Err error
}

// SyscallHandler is the interface for handling ECALL.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// Calling convention:
	//   - Syscall number in a7 (x17)
	//   - Argument and return value in a0 (x10)
	Handle() SyscallResult
}

// DefaultSyscallHandler services the exit, putchar, getchar and debug calls
// against host streams.
type DefaultSyscallHandler struct {
	regFile *RegFile
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  logr.Logger
}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(regFile *RegFile, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		stdin:   nil,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logr.Discard(),
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// SetLogger sets the logger that receives debug markers.
func (h *DefaultSyscallHandler) SetLogger(logger logr.Logger) {
	h.logger = logger
}

// Handle executes the syscall indicated by the register file state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	num := h.regFile.ReadReg(RegA7)

	switch num {
	case SyscallExit:
		return h.handleExit()
	case SyscallPutchar:
		return h.handlePutchar()
	case SyscallGetchar:
		return h.handleGetchar()
	case SyscallDebug:
		return h.handleDebug()
	default:
		return SyscallResult{Err: &SyscallError{Number: num}}
	}
}

func (h *DefaultSyscallHandler) handleExit() SyscallResult {
	return SyscallResult{
		Exited:   true,
		ExitCode: h.regFile.ReadReg(RegA0),
	}
}

func (h *DefaultSyscallHandler) handlePutchar() SyscallResult {
	c := byte(h.regFile.ReadReg(RegA0))
	if _, err := h.stdout.Write([]byte{c}); err != nil {
		return SyscallResult{Err: fmt.Errorf("putchar: %w", err)}
	}
	return SyscallResult{}
}

// handleGetchar reads a single byte. A missing or exhausted input
// stores EOFChar.
func (h *DefaultSyscallHandler) handleGetchar() SyscallResult {
	if h.stdin == nil {
		h.regFile.WriteReg(RegA0, EOFChar)
		return SyscallResult{}
	}

	var buf [1]byte
	_, err := io.ReadFull(h.stdin, buf[:])
	switch {
	case err == nil:
		h.regFile.WriteReg(RegA0, int32(buf[0]))
	case errors.Is(err, io.EOF):
		h.regFile.WriteReg(RegA0, EOFChar)
	default:
		return SyscallResult{Err: fmt.Errorf("getchar: %w", err)}
	}
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleDebug() SyscallResult {
	h.logger.Info("debug system call", "a0", h.regFile.ReadReg(RegA0))
	_, _ = fmt.Fprintln(h.stderr, "Debug system call")
	return SyscallResult{}
}
