// Package emu provides functional RV32IM emulation.
package emu

// NumRegs is the number of general-purpose registers.
const NumRegs = 32

// ABI register indices used by the emulator.
const (
	RegZero uint8 = 0  // x0, hardwired zero
	RegRA   uint8 = 1  // x1, return address
	RegSP   uint8 = 2  // x2, stack pointer
	RegA0   uint8 = 10 // x10, first argument / return value
	RegA7   uint8 = 17 // x17, system call number
)

// RegFile represents the RV32 integer register file.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// X[0] is never written and always reads as 0.
	X [NumRegs]int32
}

// ReadReg reads a register value. Register 0 returns 0.
// Indices >= 32 return 0.
func (r *RegFile) ReadReg(reg uint8) int32 {
	if reg == RegZero || reg >= NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are dropped.
func (r *RegFile) WriteReg(reg uint8, value int32) {
	if reg == RegZero || reg >= NumRegs {
		return
	}
	r.X[reg] = value
}

// ReadRegU reads a register as an unsigned 32-bit value.
func (r *RegFile) ReadRegU(reg uint8) uint32 {
	return uint32(r.ReadReg(reg))
}

// Reset clears all registers to zero.
func (r *RegFile) Reset() {
	r.X = [NumRegs]int32{}
}
