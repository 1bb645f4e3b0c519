// Package loader provides ELF binary loading for RV32 executables.
package loader

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/rv32sim/emu"
)

// Validation errors. Each is wrapped with detail by Load.
var (
	ErrNotELF        = errors.New("not an ELF file")
	ErrNotExecutable = errors.New("not an executable file")
	ErrNotRISCV      = errors.New("not a RISC-V file")
	ErrNot32Bit      = errors.New("not a 32-bit file")
	ErrSegmentRange  = errors.New("segment does not fit in memory")
)

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Offset is the position of the segment's bytes in the file.
	Offset uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Load parses an RV32 ELF executable and returns a Program ready to be
// copied into emulator memory.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f)
}

// LoadReader parses an RV32 ELF executable from r.
// Checks run in order: magic, file type, machine, class.
func LoadReader(r io.ReaderAt) (*Program, error) {
	magic := make([]byte, len(elfMagic))
	if _, err := r.ReadAt(magic, 0); err != nil || !bytes.Equal(magic, elfMagic) {
		return nil, ErrNotELF
	}

	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	if f.Type != elf.ET_EXEC {
		return nil, fmt.Errorf("%w (type: %v)", ErrNotExecutable, f.Type)
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w (machine type: %v)", ErrNotRISCV, f.Machine)
	}
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("%w (class: %v)", ErrNot32Bit, f.Class)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	// Load all PT_LOAD segments
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Offset:   uint32(phdr.Off),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// Image builds a zero-initialized memory of the given size and copies each
// segment to its virtual address, zero-filling from the end of the file
// bytes up to MemSize.
func (p *Program) Image(size uint32) (*emu.Memory, error) {
	memory := emu.NewMemoryWithSize(size)

	for _, seg := range p.Segments {
		memSize := seg.MemSize
		if memSize < uint32(len(seg.Data)) {
			memSize = uint32(len(seg.Data))
		}

		end := uint64(seg.VirtAddr) + uint64(memSize)
		if end > uint64(size) {
			return nil, fmt.Errorf("%w: 0x%x-0x%x exceeds 0x%x",
				ErrSegmentRange, seg.VirtAddr, end, size)
		}

		if err := memory.WriteBytes(seg.VirtAddr, seg.Data); err != nil {
			return nil, err
		}

		// Zero-fill BSS (memsize > filesize)
		bss := seg.VirtAddr + uint32(len(seg.Data))
		if err := memory.Zero(bss, int(memSize)-len(seg.Data)); err != nil {
			return nil, err
		}
	}

	return memory, nil
}
