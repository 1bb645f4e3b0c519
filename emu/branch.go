package emu

// Branch funct3 encodings.
const (
	BranchEQ  uint8 = 0b000
	BranchNE  uint8 = 0b001
	BranchLT  uint8 = 0b100
	BranchGE  uint8 = 0b101
	BranchLTU uint8 = 0b110
	BranchGEU uint8 = 0b111
)

// BranchUnit resolves conditional branches from ALUCmp flags.
type BranchUnit struct{}

// NewBranchUnit creates a new BranchUnit.
func NewBranchUnit() *BranchUnit {
	return &BranchUnit{}
}

// Taken evaluates a branch funct3 against the comparison flags.
// Reserved encodings (funct3 2 and 3) are never taken.
func (b *BranchUnit) Taken(funct3 uint8, flags int32) bool {
	switch funct3 {
	case BranchEQ:
		return flags&CmpNotEqual == 0
	case BranchNE:
		return flags&CmpNotEqual != 0
	case BranchLT:
		return flags&CmpLess != 0
	case BranchGE:
		return flags&CmpLess == 0
	case BranchLTU:
		return flags&CmpLessUnsig != 0
	case BranchGEU:
		return flags&CmpLessUnsig == 0
	default:
		return false
	}
}
