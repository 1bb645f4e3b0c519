package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("BranchUnit", func() {
	var (
		alu        *emu.ALU
		branchUnit *emu.BranchUnit
	)

	BeforeEach(func() {
		alu = emu.NewALU()
		branchUnit = emu.NewBranchUnit()
	})

	DescribeTable("Taken",
		func(funct3 uint8, left, right int32, expected bool) {
			flags := alu.Evaluate(emu.ALUCmp, left, right)
			Expect(branchUnit.Taken(funct3, flags)).To(Equal(expected))
		},
		Entry("BEQ equal", emu.BranchEQ, int32(5), int32(5), true),
		Entry("BEQ not equal", emu.BranchEQ, int32(5), int32(10), false),
		Entry("BNE not equal", emu.BranchNE, int32(5), int32(10), true),
		Entry("BNE equal", emu.BranchNE, int32(5), int32(5), false),
		Entry("BLT less", emu.BranchLT, int32(5), int32(10), true),
		Entry("BLT negative", emu.BranchLT, int32(-1), int32(0), true),
		Entry("BLT greater", emu.BranchLT, int32(10), int32(5), false),
		Entry("BGE equal", emu.BranchGE, int32(5), int32(5), true),
		Entry("BGE less", emu.BranchGE, int32(-1), int32(0), false),
		Entry("BLTU negative is large", emu.BranchLTU, int32(-1), int32(0), false),
		Entry("BLTU less", emu.BranchLTU, int32(0), int32(-1), true),
		Entry("BGEU negative is large", emu.BranchGEU, int32(-1), int32(0), true),
		Entry("BGEU less", emu.BranchGEU, int32(1), int32(2), false),
		Entry("reserved funct3", uint8(2), int32(1), int32(1), false),
	)
})
