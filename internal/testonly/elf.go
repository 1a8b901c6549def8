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

// Package testonly builds synthetic ELF kernel images for tests.
package testonly

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

const (
	headerSize     = 52
	progHeaderSize = 32
)

// Segment describes one program header of a synthetic image.
type Segment struct {
	// Vaddr is the destination address.
	Vaddr uint32
	// Offset is where Data is placed in the image.
	Offset uint32
	// Data is the segment's file content.
	Data []byte
	// Memsz is the in-memory size; zero means len(Data).
	Memsz uint32
}

// ELF32 returns a little endian i386 executable with the given entry point
// and one PT_LOAD program header per segment.
//
// The program header table directly follows the ELF header. Segment data is
// laid down first, so a segment at offset 0 has the headers written over
// its first bytes, just like a linker-produced image whose first segment
// maps the headers.
func ELF32(entry uint32, segs ...Segment) []byte {
	size := headerSize + progHeaderSize*len(segs)
	for _, s := range segs {
		if end := int(s.Offset) + len(s.Data); end > size {
			size = end
		}
	}
	img := make([]byte, size)
	for _, s := range segs {
		copy(img[s.Offset:], s.Data)
	}

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_386),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     headerSize,
		Ehsize:    headerSize,
		Phentsize: progHeaderSize,
		Phnum:     uint16(len(segs)),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	buf := &bytes.Buffer{}
	// Writes to a bytes.Buffer never fail.
	_ = binary.Write(buf, binary.LittleEndian, hdr)
	for _, s := range segs {
		memsz := s.Memsz
		if memsz == 0 {
			memsz = uint32(len(s.Data))
		}
		_ = binary.Write(buf, binary.LittleEndian, elf.Prog32{
			Type:   uint32(elf.PT_LOAD),
			Off:    s.Offset,
			Vaddr:  s.Vaddr,
			Paddr:  s.Vaddr,
			Filesz: uint32(len(s.Data)),
			Memsz:  memsz,
			Flags:  uint32(elf.PF_R | elf.PF_X),
			Align:  0x1000,
		})
	}
	copy(img, buf.Bytes())
	return img
}

// Pattern returns n bytes of a non-repeating-per-sector test pattern seeded
// by seed.
func Pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i) ^ byte(i>>8)*7 ^ seed
	}
	return b
}

// Disk is an in-memory boot disk: a boot sector followed by an image. It
// records the sectors read from it.
type Disk struct {
	Image []byte
	Reads []uint32
}

// NewDisk returns a Disk whose sector 1 onward holds img.
func NewDisk(img []byte) *Disk {
	d := make([]byte, 512+len(img))
	copy(d[512:], img)
	return &Disk{Image: d}
}

// ReadSector copies sector secno into dst. Sectors past the end of the
// image read as zeros.
func (d *Disk) ReadSector(dst []byte, secno uint32) {
	d.Reads = append(d.Reads, secno)
	for i := range dst[:512] {
		dst[i] = 0
	}
	if start := uint64(secno) * 512; start < uint64(len(d.Image)) {
		copy(dst[:512], d.Image[start:])
	}
}
