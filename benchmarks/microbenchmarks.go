package benchmarks

import "github.com/sarchlab/rv32sim/emu"

// ABI register numbers used by the programs below.
const (
	ra = 1
	t0 = 5
	t1 = 6
	t2 = 7
	s0 = 8
	s1 = 9
	a0 = 10
	s2 = 18
	t3 = 28
	t4 = 29
	t5 = 30
)

// dataBase is where benchmarks keep their data, well above the code at
// ProgramAddr.
const dataBase = 0x8000

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific part of the emulator.
//
// Every program leaves a7 = 0 so its final ECALL is the exit call, and
// reports its result through a0.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		mulDiv(),
		matrixMultiply2x2(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick validation:
// loop, matrix multiply, branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations
func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 22)
	for round := 0; round < 4; round++ {
		for _, rd := range []uint8{t0, t1, t2, s0, s1} {
			instrs = append(instrs, EncodeADDI(rd, rd, 1))
		}
	}
	instrs = append(instrs,
		EncodeADDI(a0, s1, 0), // mv a0, s1
		EncodeECALL(),
	)

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDI operations across 5 registers",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs (a0 = a0 + 1)",
		Program:      buildDependencyChain(20),
		ExpectedExit: 20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		instrs = append(instrs, EncodeADDI(a0, a0, 1))
	}
	instrs = append(instrs, EncodeECALL())
	return BuildProgram(instrs...)
}

// 3. Memory Sequential - store/load pairs walking two cache lines
func memorySequential() Benchmark {
	instrs := make([]uint32, 0, 21)
	for i := int32(0); i < 10; i++ {
		instrs = append(instrs,
			EncodeSW(a0, t0, 4*i),
			EncodeLW(a0, t0, 4*i),
		)
	}
	instrs = append(instrs, EncodeECALL())

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to sequential words",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(t0, dataBase)
			regFile.WriteReg(a0, 42)
		},
		Program:      BuildProgram(instrs...),
		ExpectedExit: 42,
	}
}

// 4. Function Calls - JAL/JALR call and return
func functionCalls() Benchmark {
	// Five calls, the exit call, then the callee at index 6.
	const callee = 6

	instrs := make([]uint32, 0, 8)
	for i := 0; i < 5; i++ {
		instrs = append(instrs, EncodeJAL(ra, int32(callee-i)*4))
	}
	instrs = append(instrs,
		EncodeECALL(),
		EncodeADDI(a0, a0, 1),
		EncodeRET(),
	)

	return Benchmark{
		Name:         "function_calls",
		Description:  "5 calls to a function that increments a0",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 5,
	}
}

// 5. Branch Taken - every branch skips a poisoned instruction
func branchTaken() Benchmark {
	instrs := make([]uint32, 0, 16)
	for i := 0; i < 5; i++ {
		instrs = append(instrs,
			EncodeBEQ(0, 0, 8),
			EncodeADDI(a0, a0, 100), // skipped
			EncodeADDI(a0, a0, 1),
		)
	}
	instrs = append(instrs, EncodeECALL())

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 always-taken BEQs, each skipping one instruction",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 5,
	}
}

// 6. Multiply/Divide - RV32M operations including division by zero
func mulDiv() Benchmark {
	return Benchmark{
		Name:        "mul_div",
		Description: "MUL, DIV, REM and DIVU by zero",
		Program: BuildProgram(
			EncodeADDI(t0, 0, 7),
			EncodeADDI(t1, 0, 6),
			EncodeMUL(t2, t0, t1), // 42
			EncodeADDI(t3, 0, 4),
			EncodeDIV(t2, t2, t3), // 10
			EncodeADDI(t4, 0, 3),
			EncodeREM(a0, t2, t4), // 1
			EncodeDIVU(t5, t2, 0), // 0
			EncodeADD(a0, a0, t5), // 1
			EncodeECALL(),
		),
		ExpectedExit: 1,
	}
}

// 7. Matrix Multiply 2x2 - loads, multiplies, accumulates
func matrixMultiply2x2() Benchmark {
	// A = [1 2; 3 4] at dataBase, B = [5 6; 7 8] right after it.
	// Registers s2..s5 hold A and s6..s9 hold B.
	const (
		a00, a01, a10, a11 = s2, s2 + 1, s2 + 2, s2 + 3
		b00, b01, b10, b11 = s2 + 4, s2 + 5, s2 + 6, s2 + 7
	)

	instrs := make([]uint32, 0, 25)
	for i := uint8(0); i < 8; i++ {
		instrs = append(instrs, EncodeLW(s2+i, t0, int32(i)*4))
	}

	products := [][2]uint8{
		{a00, b00}, {a01, b10}, // C[0][0]
		{a00, b01}, {a01, b11}, // C[0][1]
		{a10, b00}, {a11, b10}, // C[1][0]
		{a10, b01}, {a11, b11}, // C[1][1]
	}
	for _, p := range products {
		instrs = append(instrs,
			EncodeMUL(t1, p[0], p[1]),
			EncodeADD(a0, a0, t1),
		)
	}
	instrs = append(instrs, EncodeECALL())

	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "2x2 integer matrix multiply, exits with the sum of C",
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			regFile.WriteReg(t0, dataBase)
			for i, v := range []uint32{1, 2, 3, 4, 5, 6, 7, 8} {
				_ = memory.Write32(dataBase+uint32(i)*4, v)
			}
		},
		Program:      BuildProgram(instrs...),
		ExpectedExit: 134, // 19 + 22 + 43 + 50
	}
}

// 8. Loop Simulation - a counted loop closed by BNE
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "10 iterations of a counted loop adding 2 to a0",
		Program: BuildProgram(
			EncodeADDI(t0, 0, 10),
			EncodeADDI(a0, a0, 2), // loop:
			EncodeADDI(t0, t0, -1),
			EncodeBNE(t0, 0, -8),
			EncodeECALL(),
		),
		ExpectedExit: 20,
	}
}
