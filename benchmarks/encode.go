package benchmarks

import (
	"encoding/binary"

	"github.com/sarchlab/rv32sim/insts"
)

// Helper functions for building RV32IM programs

// BuildProgram assembles instruction words into a byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 0, len(instrs)*4)
	for _, inst := range instrs {
		program = binary.LittleEndian.AppendUint32(program, inst)
	}
	return program
}

// EncodeR encodes a register-register instruction.
func EncodeR(funct7, rs2, rs1, funct3, rd uint8) uint32 {
	return uint32(funct7)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | uint32(insts.OpcodeOp)
}

// EncodeI encodes an I-type instruction with a 12-bit signed immediate.
func EncodeI(opcode insts.Opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | uint32(opcode)
}

// EncodeS encodes a store.
func EncodeS(funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | (u&0x1F)<<7 | uint32(insts.OpcodeStore)
}

// EncodeB encodes a conditional branch. offset is in bytes from the branch.
func EncodeB(funct3, rs1, rs2 uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>12&0x1)<<31 | (u>>5&0x3F)<<25 | uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 | uint32(funct3&0x7)<<12 |
		(u>>1&0xF)<<8 | (u>>11&0x1)<<7 | uint32(insts.OpcodeBranch)
}

// EncodeADDI encodes ADDI: rd = rs1 + imm
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(insts.OpcodeOpImm, rd, 0, rs1, imm)
}

// EncodeADD encodes ADD: rd = rs1 + rs2
func EncodeADD(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(insts.Funct7Base, rs2, rs1, 0, rd)
}

// EncodeSUB encodes SUB: rd = rs1 - rs2
func EncodeSUB(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(insts.Funct7SubSra, rs2, rs1, 0, rd)
}

// EncodeMUL encodes MUL: rd = low 32 bits of rs1 * rs2
func EncodeMUL(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(insts.Funct7MulDiv, rs2, rs1, 0, rd)
}

// EncodeDIV encodes DIV: rd = rs1 / rs2 (signed)
func EncodeDIV(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(insts.Funct7MulDiv, rs2, rs1, 4, rd)
}

// EncodeDIVU encodes DIVU: rd = rs1 / rs2 (unsigned)
func EncodeDIVU(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(insts.Funct7MulDiv, rs2, rs1, 5, rd)
}

// EncodeREM encodes REM: rd = rs1 % rs2 (signed)
func EncodeREM(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(insts.Funct7MulDiv, rs2, rs1, 6, rd)
}

// EncodeLW encodes LW: rd = mem32[rs1 + imm]
func EncodeLW(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(insts.OpcodeLoad, rd, 2, rs1, imm)
}

// EncodeSW encodes SW: mem32[rs1 + imm] = rs2
func EncodeSW(rs2, rs1 uint8, imm int32) uint32 {
	return EncodeS(2, rs1, rs2, imm)
}

// EncodeBEQ encodes BEQ rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(0, rs1, rs2, offset)
}

// EncodeBNE encodes BNE rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(1, rs1, rs2, offset)
}

// EncodeJAL encodes JAL rd, offset.
func EncodeJAL(rd uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>20&0x1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&0x1)<<20 | (u>>12&0xFF)<<12 |
		uint32(rd&0x1F)<<7 | uint32(insts.OpcodeJAL)
}

// EncodeJALR encodes JALR rd, imm(rs1).
func EncodeJALR(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(insts.OpcodeJALR, rd, 0, rs1, imm)
}

// EncodeRET encodes the return pseudo-instruction JALR x0, 0(ra).
func EncodeRET() uint32 {
	return EncodeJALR(0, 1, 0)
}

// EncodeECALL encodes the environment call.
func EncodeECALL() uint32 {
	return uint32(insts.OpcodeSystem)
}
