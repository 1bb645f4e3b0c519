// Package insts provides RV32IM instruction definitions and decoding.
//
// This package implements decoding of RISC-V machine code into structured
// instruction representations. It classifies each 32-bit word into one of
// the six base encoding formats:
//   - R-type: register-register ALU operations (OP)
//   - I-type: immediate ALU operations, loads, JALR, SYSTEM
//   - S-type: stores
//   - B-type: conditional branches
//   - U-type: LUI, AUIPC
//   - J-type: JAL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500093) // ADDI x1, x0, 5
//	fmt.Printf("Rd: %d, Rs1: %d, Imm: %d\n", inst.Rd, inst.Rs1, inst.Imm)
package insts
