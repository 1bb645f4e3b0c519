package emu

import "github.com/sarchlab/rv32sim/insts"

// ALUOp selects an ALU operation.
type ALUOp uint8

// ALU operations.
const (
	ALUNop ALUOp = iota
	ALUAdd
	ALUSub
	ALUMul
	ALUMulH
	ALUMulHSU
	ALUMulHU
	ALUDiv
	ALUDivU
	ALURem
	ALURemU
	ALULeftShift
	ALURightShiftL
	ALURightShiftA
	ALUOr
	ALUXor
	ALUAnd
	ALUSlt
	ALUSltU
	ALUCmp
)

var aluOpNames = [...]string{
	ALUNop:         "Nop",
	ALUAdd:         "Add",
	ALUSub:         "Sub",
	ALUMul:         "Mul",
	ALUMulH:        "MulH",
	ALUMulHSU:      "MulHSU",
	ALUMulHU:       "MulHU",
	ALUDiv:         "Div",
	ALUDivU:        "DivU",
	ALURem:         "Rem",
	ALURemU:        "RemU",
	ALULeftShift:   "LeftShift",
	ALURightShiftL: "RightShiftL",
	ALURightShiftA: "RightShiftA",
	ALUOr:          "Or",
	ALUXor:         "Xor",
	ALUAnd:         "And",
	ALUSlt:         "Slt",
	ALUSltU:        "SltU",
	ALUCmp:         "Cmp",
}

func (op ALUOp) String() string {
	if int(op) < len(aluOpNames) {
		return aluOpNames[op]
	}
	return "Nop"
}

// Comparison flags produced by ALUCmp.
const (
	CmpNotEqual  int32 = 1 << 0 // left != right
	CmpLess      int32 = 1 << 1 // signed left < right
	CmpLessUnsig int32 = 1 << 2 // unsigned left < right
)

// ALU implements RV32IM arithmetic and logic operations.
// It holds no state; Evaluate is a pure function of its arguments.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Evaluate applies op to left and right. It never fails: division and
// remainder by zero yield 0, and unrecognized operations yield 0.
func (a *ALU) Evaluate(op ALUOp, left, right int32) int32 {
	uleft, uright := uint32(left), uint32(right)
	shamt := uright & 0x1F

	switch op {
	case ALUAdd:
		return left + right
	case ALUSub:
		return left - right
	case ALUMul:
		return left * right
	case ALUMulH:
		return int32((int64(left) * int64(right)) >> 32)
	case ALUMulHSU:
		return int32((int64(left) * int64(uright)) >> 32)
	case ALUMulHU:
		return int32((uint64(uleft) * uint64(uright)) >> 32)
	case ALUDiv:
		if right == 0 {
			return 0
		}
		// MinInt32 / -1 wraps to MinInt32.
		return left / right
	case ALUDivU:
		if right == 0 {
			return 0
		}
		return int32(uleft / uright)
	case ALURem:
		if right == 0 {
			return 0
		}
		return left % right
	case ALURemU:
		if right == 0 {
			return 0
		}
		return int32(uleft % uright)
	case ALULeftShift:
		return int32(uleft << shamt)
	case ALURightShiftL:
		return int32(uleft >> shamt)
	case ALURightShiftA:
		return left >> shamt
	case ALUOr:
		return left | right
	case ALUXor:
		return left ^ right
	case ALUAnd:
		return left & right
	case ALUSlt:
		return boolToInt32(left < right)
	case ALUSltU:
		return boolToInt32(uleft < uright)
	case ALUCmp:
		return a.compare(left, right)
	default:
		return 0
	}
}

// compare synthesizes the three comparison flags used by branches.
func (a *ALU) compare(left, right int32) int32 {
	var flags int32
	if left != right {
		flags |= CmpNotEqual
	}
	if left < right {
		flags |= CmpLess
	}
	if uint32(left) < uint32(right) {
		flags |= CmpLessUnsig
	}
	return flags
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

var opFunct3 = [8]ALUOp{
	ALUAdd, ALULeftShift, ALUSlt, ALUSltU, ALUXor, ALURightShiftL, ALUOr, ALUAnd,
}

var mulDivFunct3 = [8]ALUOp{
	ALUMul, ALUMulH, ALUMulHSU, ALUMulHU, ALUDiv, ALUDivU, ALURem, ALURemU,
}

// SelectOp maps (opcode, funct3, funct7) to an ALU operation.
// OP and OP-IMM share the funct3 table; funct7 picks SUB over ADD (OP only),
// SRA over SRL, and the M extension. BRANCH always compares. LOAD, STORE
// and JALR add to form an address. Everything else is ALUNop.
func SelectOp(opcode insts.Opcode, funct3, funct7 uint8) ALUOp {
	funct3 &= 0x7

	switch opcode {
	case insts.OpcodeOp:
		switch funct7 {
		case insts.Funct7Base:
			return opFunct3[funct3]
		case insts.Funct7MulDiv:
			return mulDivFunct3[funct3]
		case insts.Funct7SubSra:
			switch funct3 {
			case 0x0:
				return ALUSub
			case 0x5:
				return ALURightShiftA
			}
		}
		return ALUNop
	case insts.OpcodeOpImm:
		if funct3 == 0x5 && funct7 == insts.Funct7SubSra {
			return ALURightShiftA
		}
		return opFunct3[funct3]
	case insts.OpcodeBranch:
		return ALUCmp
	case insts.OpcodeLoad, insts.OpcodeStore, insts.OpcodeJALR:
		return ALUAdd
	default:
		return ALUNop
	}
}
