// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loader brings an ELF kernel in from the boot disk and jumps to it.
//
// The kernel image starts at sector 1 of the disk, immediately after the
// boot sector, and is read sector by sector into physical memory at the
// addresses its program headers ask for. The only thing checked is the ELF
// magic number: sizes, offsets and addresses in the headers are trusted
// as-is, and disk errors are not detected.
package loader

import (
	"io"

	"github.com/google/bootmain/ata"
	"github.com/google/bootmain/x86"
)

const (
	// DefaultScratch is the physical address the ELF header is read to.
	DefaultScratch = 0x10000

	// scratchSectors is how much of the image is read to find the headers.
	scratchSectors = 8

	// DebugPort receives the failure words before the loader halts.
	DebugPort uint16 = 0x8A00
	// DebugHalt1 and DebugHalt2 are written to DebugPort, in that order,
	// when the image is not a valid ELF file.
	DebugHalt1 uint16 = 0x8A00
	DebugHalt2 uint16 = 0x8E00
)

// SectorReader reads a single 512 byte sector of the boot disk.
type SectorReader interface {
	ReadSector(dst []byte, secno uint32)
}

// Memory is physical memory, addressed by byte offset.
type Memory interface {
	io.ReaderAt
	io.WriterAt
}

// State is a step of the boot sequence.
type State int

const (
	Start State = iota
	Validating
	Loading
	Transfer
	Halt
)

func (s State) String() string {
	switch s {
	case Start:
		return "Start"
	case Validating:
		return "Validating"
	case Loading:
		return "Loading"
	case Transfer:
		return "Transfer"
	case Halt:
		return "Halt"
	}
	return "Unknown"
}

// Opts holds the loader's environment-defined constants.
type Opts struct {
	// Scratch is where the first sectors of the image are read so the ELF
	// header can be inspected. Zero selects DefaultScratch.
	Scratch uint32
}

// Loader is the second boot stage.
type Loader struct {
	disk    SectorReader
	mem     Memory
	ports   x86.Ports
	cpu     x86.CPU
	scratch uint32
	state   State

	// sect bounces each sector between the disk and memory.
	sect [ata.SectorSize]byte
}

// New returns a loader reading from disk into m. ports receives the
// failure signal and cpu performs the final jump or halt.
func New(disk SectorReader, m Memory, ports x86.Ports, cpu x86.CPU, opts Opts) *Loader {
	scratch := opts.Scratch
	if scratch == 0 {
		scratch = DefaultScratch
	}
	return &Loader{
		disk:    disk,
		mem:     m,
		ports:   ports,
		cpu:     cpu,
		scratch: scratch,
	}
}

// State returns the step the loader last entered.
func (l *Loader) State() State {
	return l.state
}
