package insts

import "fmt"

var opNames = [8]string{"add", "sll", "slt", "sltu", "xor", "srl", "or", "and"}
var mulDivNames = [8]string{"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu"}
var loadNames = [8]string{"lb", "lh", "lw", "", "lbu", "lhu", "", ""}
var storeNames = [8]string{"sb", "sh", "sw", "", "", "", "", ""}
var branchNames = [8]string{"beq", "bne", "", "", "blt", "bge", "bltu", "bgeu"}

// Mnemonic returns the assembler mnemonic of the instruction, or "unknown"
// for encodings the decoder does not recognize.
func (i *Instruction) Mnemonic() string {
	name := ""

	switch i.Opcode {
	case OpcodeOp:
		switch i.Funct7 {
		case Funct7MulDiv:
			name = mulDivNames[i.Funct3]
		case Funct7SubSra:
			switch i.Funct3 {
			case 0x0:
				name = "sub"
			case 0x5:
				name = "sra"
			}
		default:
			name = opNames[i.Funct3]
		}
	case OpcodeOpImm:
		switch {
		case i.Funct3 == 0x5 && i.Funct7 == Funct7SubSra:
			name = "srai"
		case i.Funct3 == 0x3:
			name = "sltiu"
		default:
			name = opNames[i.Funct3] + "i"
		}
	case OpcodeLoad:
		name = loadNames[i.Funct3]
	case OpcodeStore:
		name = storeNames[i.Funct3]
	case OpcodeBranch:
		name = branchNames[i.Funct3]
	case OpcodeLUI:
		name = "lui"
	case OpcodeAUIPC:
		name = "auipc"
	case OpcodeJAL:
		name = "jal"
	case OpcodeJALR:
		name = "jalr"
	case OpcodeSystem:
		if i.Funct3 == 0 && i.Imm == 1 {
			name = "ebreak"
		} else if i.Funct3 == 0 {
			name = "ecall"
		}
	}

	if name == "" {
		return "unknown"
	}
	return name
}

// String returns a human-readable disassembly of the instruction.
func (i *Instruction) String() string {
	m := i.Mnemonic()

	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", m, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		switch i.Opcode {
		case OpcodeLoad, OpcodeJALR:
			return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rd, i.Imm, i.Rs1)
		case OpcodeSystem:
			return m
		case OpcodeOpImm:
			if i.Funct3 == 0x1 || i.Funct3 == 0x5 {
				return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rd, i.Rs1, i.Imm&0x1F)
			}
		}
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rd, i.Rs1, i.Imm)
	case FormatS:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rs2, i.Imm, i.Rs1)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rs1, i.Rs2, i.Imm)
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", m, i.Rd, uint32(i.Imm)>>12)
	case FormatJ:
		return fmt.Sprintf("%s x%d, %d", m, i.Rd, i.Imm)
	default:
		return fmt.Sprintf("unknown 0x%08x", i.Word)
	}
}
