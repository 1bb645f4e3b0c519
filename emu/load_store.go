package emu

// MemOp is the memory stage action of an instruction.
type MemOp uint8

// Memory stage actions.
const (
	MemNone MemOp = iota
	MemLoad
	MemStore
)

// LoadStoreUnit implements width- and sign-qualified RV32 loads and stores
// on top of Memory. Accesses need not be aligned.
type LoadStoreUnit struct {
	memory *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given memory.
func NewLoadStoreUnit(memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{memory: memory}
}

// AccessWidth returns the access size in bytes selected by a LOAD/STORE
// funct3: byte for 0 and 4 (LB/LBU/SB), halfword for 1 and 5 (LH/LHU/SH),
// and word for everything else.
func AccessWidth(funct3 uint8) int {
	switch funct3 & 0x3 {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

// IsSignedLoad reports whether a LOAD funct3 sign-extends (LB, LH, LW).
func IsSignedLoad(funct3 uint8) bool {
	return funct3 <= 2
}

// Load reads width bytes at addr. Signed narrow loads are sign-extended
// to 32 bits; unsigned loads are zero-extended.
func (lsu *LoadStoreUnit) Load(addr uint32, width int, signed bool) (int32, error) {
	switch width {
	case 1:
		v, err := lsu.memory.Read8(addr)
		if err != nil {
			return 0, err
		}
		if signed {
			return int32(int8(v)), nil
		}
		return int32(v), nil
	case 2:
		v, err := lsu.memory.Read16(addr)
		if err != nil {
			return 0, err
		}
		if signed {
			return int32(int16(v)), nil
		}
		return int32(v), nil
	default:
		v, err := lsu.memory.Read32(addr)
		if err != nil {
			return 0, err
		}
		return int32(v), nil
	}
}

// Store writes the low width bytes of value at addr.
func (lsu *LoadStoreUnit) Store(addr uint32, width int, value int32) error {
	switch width {
	case 1:
		return lsu.memory.Write8(addr, uint8(value))
	case 2:
		return lsu.memory.Write16(addr, uint16(value))
	default:
		return lsu.memory.Write32(addr, uint32(value))
	}
}
