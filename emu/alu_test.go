package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("ALU", func() {
	var alu *emu.ALU

	BeforeEach(func() {
		alu = emu.NewALU()
	})

	DescribeTable("Evaluate",
		func(op emu.ALUOp, left, right, expected int32) {
			Expect(alu.Evaluate(op, left, right)).To(Equal(expected))
		},
		Entry("Add", emu.ALUAdd, int32(3), int32(4), int32(7)),
		Entry("Add wraps", emu.ALUAdd, int32(math.MaxInt32), int32(1), int32(math.MinInt32)),
		Entry("Sub", emu.ALUSub, int32(3), int32(4), int32(-1)),
		Entry("Sub wraps", emu.ALUSub, int32(math.MinInt32), int32(1), int32(math.MaxInt32)),
		Entry("Mul low bits", emu.ALUMul, int32(0x10000), int32(0x10000), int32(0)),
		Entry("Mul signed", emu.ALUMul, int32(-3), int32(7), int32(-21)),
		Entry("MulH", emu.ALUMulH, int32(-1), int32(-1), int32(0)),
		Entry("MulH large", emu.ALUMulH, int32(0x40000000), int32(4), int32(1)),
		Entry("MulHU", emu.ALUMulHU, int32(-1), int32(-1), int32(-2)),
		Entry("MulHSU", emu.ALUMulHSU, int32(-1), int32(-1), int32(-1)),
		Entry("Div", emu.ALUDiv, int32(-7), int32(2), int32(-3)),
		Entry("Div by zero", emu.ALUDiv, int32(42), int32(0), int32(0)),
		Entry("Div overflow", emu.ALUDiv, int32(math.MinInt32), int32(-1), int32(math.MinInt32)),
		Entry("DivU", emu.ALUDivU, int32(-2), int32(2), int32(0x7FFFFFFF)),
		Entry("DivU by zero", emu.ALUDivU, int32(-1), int32(0), int32(0)),
		Entry("Rem", emu.ALURem, int32(-7), int32(2), int32(-1)),
		Entry("Rem by zero", emu.ALURem, int32(42), int32(0), int32(0)),
		Entry("Rem overflow", emu.ALURem, int32(math.MinInt32), int32(-1), int32(0)),
		Entry("RemU", emu.ALURemU, int32(-1), int32(10), int32(5)),
		Entry("RemU by zero", emu.ALURemU, int32(-1), int32(0), int32(0)),
		Entry("LeftShift", emu.ALULeftShift, int32(1), int32(31), int32(math.MinInt32)),
		Entry("LeftShift masks amount", emu.ALULeftShift, int32(1), int32(33), int32(2)),
		Entry("RightShiftL", emu.ALURightShiftL, int32(-16), int32(28), int32(0xF)),
		Entry("RightShiftA", emu.ALURightShiftA, int32(-16), int32(2), int32(-4)),
		Entry("RightShiftA masks amount", emu.ALURightShiftA, int32(-16), int32(0x402), int32(-4)),
		Entry("Or", emu.ALUOr, int32(0x0F), int32(0xF0), int32(0xFF)),
		Entry("Xor", emu.ALUXor, int32(0xFF), int32(0x0F), int32(0xF0)),
		Entry("And", emu.ALUAnd, int32(0xFF), int32(0x0F), int32(0x0F)),
		Entry("Slt true", emu.ALUSlt, int32(-1), int32(0), int32(1)),
		Entry("Slt false", emu.ALUSlt, int32(0), int32(-1), int32(0)),
		Entry("SltU", emu.ALUSltU, int32(0), int32(-1), int32(1)),
		Entry("SltU false", emu.ALUSltU, int32(-1), int32(0), int32(0)),
		Entry("Nop", emu.ALUNop, int32(5), int32(6), int32(0)),
		Entry("unknown op", emu.ALUOp(200), int32(5), int32(6), int32(0)),
	)

	Describe("Cmp", func() {
		It("should clear every flag for equal operands", func() {
			Expect(alu.Evaluate(emu.ALUCmp, 5, 5)).To(Equal(int32(0)))
		})

		It("should set all flags for a smaller positive operand", func() {
			flags := alu.Evaluate(emu.ALUCmp, 5, 10)
			Expect(flags).To(Equal(emu.CmpNotEqual | emu.CmpLess | emu.CmpLessUnsig))
		})

		It("should split signed and unsigned ordering for negatives", func() {
			flags := alu.Evaluate(emu.ALUCmp, -1, 1)
			Expect(flags & emu.CmpNotEqual).NotTo(BeZero())
			Expect(flags & emu.CmpLess).NotTo(BeZero())
			Expect(flags & emu.CmpLessUnsig).To(BeZero())
		})
	})

	It("should never fail on division by zero", func() {
		for _, x := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
			Expect(alu.Evaluate(emu.ALUDiv, x, 0)).To(Equal(int32(0)))
			Expect(alu.Evaluate(emu.ALURem, x, 0)).To(Equal(int32(0)))
			Expect(alu.Evaluate(emu.ALUDivU, x, 0)).To(Equal(int32(0)))
			Expect(alu.Evaluate(emu.ALURemU, x, 0)).To(Equal(int32(0)))
		}
	})

	It("should name operations", func() {
		Expect(emu.ALURightShiftA.String()).To(Equal("RightShiftA"))
		Expect(emu.ALUOp(250).String()).To(Equal("Nop"))
	})
})

var _ = Describe("SelectOp", func() {
	DescribeTable("operation table",
		func(opcode insts.Opcode, funct3, funct7 uint8, expected emu.ALUOp) {
			Expect(emu.SelectOp(opcode, funct3, funct7)).To(Equal(expected))
		},
		Entry("ADD", insts.OpcodeOp, uint8(0), uint8(0x00), emu.ALUAdd),
		Entry("SUB", insts.OpcodeOp, uint8(0), uint8(0x20), emu.ALUSub),
		Entry("SLL", insts.OpcodeOp, uint8(1), uint8(0x00), emu.ALULeftShift),
		Entry("SLT", insts.OpcodeOp, uint8(2), uint8(0x00), emu.ALUSlt),
		Entry("SLTU", insts.OpcodeOp, uint8(3), uint8(0x00), emu.ALUSltU),
		Entry("XOR", insts.OpcodeOp, uint8(4), uint8(0x00), emu.ALUXor),
		Entry("SRL", insts.OpcodeOp, uint8(5), uint8(0x00), emu.ALURightShiftL),
		Entry("SRA", insts.OpcodeOp, uint8(5), uint8(0x20), emu.ALURightShiftA),
		Entry("OR", insts.OpcodeOp, uint8(6), uint8(0x00), emu.ALUOr),
		Entry("AND", insts.OpcodeOp, uint8(7), uint8(0x00), emu.ALUAnd),
		Entry("MUL", insts.OpcodeOp, uint8(0), uint8(0x01), emu.ALUMul),
		Entry("MULH", insts.OpcodeOp, uint8(1), uint8(0x01), emu.ALUMulH),
		Entry("MULHSU", insts.OpcodeOp, uint8(2), uint8(0x01), emu.ALUMulHSU),
		Entry("MULHU", insts.OpcodeOp, uint8(3), uint8(0x01), emu.ALUMulHU),
		Entry("DIV", insts.OpcodeOp, uint8(4), uint8(0x01), emu.ALUDiv),
		Entry("DIVU", insts.OpcodeOp, uint8(5), uint8(0x01), emu.ALUDivU),
		Entry("REM", insts.OpcodeOp, uint8(6), uint8(0x01), emu.ALURem),
		Entry("REMU", insts.OpcodeOp, uint8(7), uint8(0x01), emu.ALURemU),
		Entry("invalid funct7", insts.OpcodeOp, uint8(0), uint8(0x7F), emu.ALUNop),
		Entry("ADDI", insts.OpcodeOpImm, uint8(0), uint8(0x00), emu.ALUAdd),
		Entry("ADDI ignores funct7", insts.OpcodeOpImm, uint8(0), uint8(0x20), emu.ALUAdd),
		Entry("SRLI", insts.OpcodeOpImm, uint8(5), uint8(0x00), emu.ALURightShiftL),
		Entry("SRAI", insts.OpcodeOpImm, uint8(5), uint8(0x20), emu.ALURightShiftA),
		Entry("SLTIU", insts.OpcodeOpImm, uint8(3), uint8(0x00), emu.ALUSltU),
		Entry("BRANCH", insts.OpcodeBranch, uint8(6), uint8(0x00), emu.ALUCmp),
		Entry("LOAD", insts.OpcodeLoad, uint8(2), uint8(0x00), emu.ALUAdd),
		Entry("STORE", insts.OpcodeStore, uint8(0), uint8(0x00), emu.ALUAdd),
		Entry("JALR", insts.OpcodeJALR, uint8(0), uint8(0x00), emu.ALUAdd),
		Entry("LUI bypasses the ALU", insts.OpcodeLUI, uint8(0), uint8(0x00), emu.ALUNop),
		Entry("SYSTEM", insts.OpcodeSystem, uint8(0), uint8(0x00), emu.ALUNop),
	)
})
