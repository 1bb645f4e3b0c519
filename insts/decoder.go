package insts

// Opcode is the low 7 bits of an instruction word.
type Opcode uint8

// RV32IM major opcodes.
const (
	OpcodeLoad   Opcode = 0x03
	OpcodeOpImm  Opcode = 0x13
	OpcodeAUIPC  Opcode = 0x17
	OpcodeStore  Opcode = 0x23
	OpcodeOp     Opcode = 0x33
	OpcodeLUI    Opcode = 0x37
	OpcodeBranch Opcode = 0x63
	OpcodeJALR   Opcode = 0x67
	OpcodeJAL    Opcode = 0x6F
	OpcodeSystem Opcode = 0x73
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register
	FormatI              // Short immediate, loads, JALR, SYSTEM
	FormatS              // Store
	FormatB              // Conditional branch
	FormatU              // Upper immediate
	FormatJ              // Jump
)

// String returns the single-letter name of the format.
func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return "Unknown"
	}
}

// Funct7 values that select alternate operations.
const (
	Funct7Base   uint8 = 0x00
	Funct7MulDiv uint8 = 0x01 // RV32M extension
	Funct7SubSra uint8 = 0x20 // SUB, SRA, SRAI
)

const funct7Shifted = 25

// Instruction represents a decoded RV32IM instruction.
// Fields that the format does not carry are left at zero; use HasRd,
// HasRs1 and HasRs2 to tell which register fields are meaningful.
type Instruction struct {
	Word   uint32 // Raw instruction word
	Opcode Opcode // bits [6:0]
	Format Format // Encoding format

	Rd     uint8 // Destination register, bits [11:7]
	Rs1    uint8 // First source register, bits [19:15]
	Rs2    uint8 // Second source register, bits [24:20]
	Funct3 uint8 // bits [14:12]
	Funct7 uint8 // bits [31:25] (R-type, and OP-IMM shifts)

	// Imm is the sign-extended immediate.
	Imm int32
}

// HasRd reports whether the instruction writes a destination register.
func (i *Instruction) HasRd() bool {
	switch i.Format {
	case FormatR, FormatI, FormatU, FormatJ:
		return true
	default:
		return false
	}
}

// HasRs1 reports whether the instruction reads rs1.
func (i *Instruction) HasRs1() bool {
	switch i.Format {
	case FormatR, FormatI, FormatS, FormatB:
		return true
	default:
		return false
	}
}

// HasRs2 reports whether the instruction reads rs2.
func (i *Instruction) HasRs2() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	default:
		return false
	}
}

// Decoder decodes RV32IM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32IM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RISC-V instruction word.
// Words with an unrecognized opcode decode to FormatUnknown with every
// field other than Word and Opcode left at zero; they are not an error.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Word:   word,
		Opcode: Opcode(word & 0x7F),
		Format: FormatUnknown,
	}

	switch inst.Opcode {
	case OpcodeOp:
		d.decodeR(word, inst)
	case OpcodeLoad, OpcodeOpImm, OpcodeJALR, OpcodeSystem:
		d.decodeI(word, inst)
	case OpcodeStore:
		d.decodeS(word, inst)
	case OpcodeBranch:
		d.decodeB(word, inst)
	case OpcodeLUI, OpcodeAUIPC:
		d.decodeU(word, inst)
	case OpcodeJAL:
		d.decodeJ(word, inst)
	}

	return inst
}

// decodeR decodes register-register instructions.
// Format: funct7 | rs2 | rs1 | funct3 | rd | opcode
func (d *Decoder) decodeR(word uint32, inst *Instruction) {
	inst.Format = FormatR
	inst.Funct7 = uint8(word >> funct7Shifted)
	inst.Rs2 = rs2(word)
	inst.Rs1 = rs1(word)
	inst.Funct3 = funct3(word)
	inst.Rd = rd(word)
}

// decodeI decodes short-immediate instructions.
// Format: imm[11:0] | rs1 | funct3 | rd | opcode
func (d *Decoder) decodeI(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Imm = SignExtend(word>>20, 12)
	inst.Rs1 = rs1(word)
	inst.Funct3 = funct3(word)
	inst.Rd = rd(word)

	// SRAI is distinguished from SRLI by imm[10], which is funct7 bit 5.
	if inst.Opcode == OpcodeOpImm {
		inst.Funct7 = uint8(word >> funct7Shifted)
	}
}

// decodeS decodes store instructions.
// Format: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode
func (d *Decoder) decodeS(word uint32, inst *Instruction) {
	inst.Format = FormatS
	imm := (word>>25)<<5 | (word>>7)&0x1F
	inst.Imm = SignExtend(imm, 12)
	inst.Rs2 = rs2(word)
	inst.Rs1 = rs1(word)
	inst.Funct3 = funct3(word)
}

// decodeB decodes conditional branches.
// Format: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | opcode
func (d *Decoder) decodeB(word uint32, inst *Instruction) {
	inst.Format = FormatB
	imm := (word>>31)<<12 |
		((word>>7)&0x1)<<11 |
		((word>>25)&0x3F)<<5 |
		((word>>8)&0xF)<<1
	inst.Imm = SignExtend(imm, 13)
	inst.Rs2 = rs2(word)
	inst.Rs1 = rs1(word)
	inst.Funct3 = funct3(word)
}

// decodeU decodes LUI and AUIPC.
// Format: imm[31:12] | rd | opcode
func (d *Decoder) decodeU(word uint32, inst *Instruction) {
	inst.Format = FormatU
	inst.Imm = SignExtend(word&0xFFFFF000, 32)
	inst.Rd = rd(word)
}

// decodeJ decodes JAL.
// Format: imm[20|10:1|11|19:12] | rd | opcode
func (d *Decoder) decodeJ(word uint32, inst *Instruction) {
	inst.Format = FormatJ
	imm := (word>>31)<<20 |
		((word>>12)&0xFF)<<12 |
		((word>>20)&0x1)<<11 |
		((word>>21)&0x3FF)<<1
	inst.Imm = SignExtend(imm, 21)
	inst.Rd = rd(word)
}

// SignExtend treats bit bits-1 of value as the sign bit and extends it
// through bit 31. Bits above bits-1 in value are ignored.
func SignExtend(value uint32, bits uint) int32 {
	if bits == 0 || bits > 32 {
		return int32(value)
	}
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

func rd(word uint32) uint8     { return uint8((word >> 7) & 0x1F) }
func rs1(word uint32) uint8    { return uint8((word >> 15) & 0x1F) }
func rs2(word uint32) uint8    { return uint8((word >> 20) & 0x1F) }
func funct3(word uint32) uint8 { return uint8((word >> 12) & 0x7) }
