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

package loader

import (
	"debug/elf"
	"encoding/binary"
	"io"

	"github.com/golang/glog"
	"github.com/google/bootmain/ata"
	"github.com/google/bootmain/mem"
)

// ELFMagic is the first word of an ELF file, "\x7fELF" read little endian.
const ELFMagic = 0x464C457F

const progHeaderSize = 32

// Boot loads the kernel and jumps to its entry point.
//
// Boot does not return. If the image is not an ELF file the failure words
// are written to DebugPort and the CPU spins; the same happens if the
// kernel's entry point ever returns.
func (l *Loader) Boot() {
	l.enter(Start)
	l.ReadSegment(l.scratch, ata.SectorSize*scratchSectors, 0)

	l.enter(Validating)
	hdr := l.header()
	if binary.LittleEndian.Uint32(hdr.Ident[:4]) == ELFMagic {
		l.enter(Loading)

		// Program header flags are ignored; every entry is loaded.
		phoff, phnum := hdr.Phoff, uint32(hdr.Phnum)
		for i := uint32(0); i < phnum; i++ {
			ph := l.progHeader(phoff + i*progHeaderSize)
			glog.V(1).Infof("loader: program header %d: va=%#x memsz=%#x offset=%#x", i, ph.Vaddr, ph.Memsz, ph.Off)
			l.ReadSegment(mem.Mask24(ph.Vaddr), ph.Memsz, ph.Off)
		}

		l.enter(Transfer)
		l.cpu.Call(mem.Mask24(l.header().Entry))
	}

	l.enter(Halt)
	l.ports.Outw(DebugPort, DebugHalt1)
	l.ports.Outw(DebugPort, DebugHalt2)
	for {
		l.cpu.Spin()
	}
}

func (l *Loader) enter(s State) {
	glog.V(1).Infof("loader: %v -> %v", l.state, s)
	l.state = s
}

// header reads the ELF header at the scratch address as it is now.
func (l *Loader) header() elf.Header32 {
	var h elf.Header32
	l.read(l.scratch, &h)
	return h
}

// progHeader reads the program header at offset bytes past the scratch
// address.
func (l *Loader) progHeader(offset uint32) elf.Prog32 {
	var p elf.Prog32
	l.read(l.scratch+offset, &p)
	return p
}

func (l *Loader) read(addr uint32, v interface{}) {
	r := io.NewSectionReader(l.mem, int64(addr), int64(binary.Size(v)))
	// Physical memory reads do not fail.
	_ = binary.Read(r, binary.LittleEndian, v)
}
