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

// Package diskimage lays out boot disks: a boot sector followed by the
// kernel ELF image from sector 1.
package diskimage

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/google/bootmain/ata"
)

const (
	// bootCodeMax is how much of the boot sector the boot code may use;
	// the last two bytes hold the signature.
	bootCodeMax = ata.SectorSize - 2

	// headerWindow is how much of the image the loader reads to find the
	// ELF and program headers.
	headerWindow = 8 * ata.SectorSize
)

// BootSignature ends a bootable sector.
var BootSignature = [2]byte{0x55, 0xAA}

// ErrBootTooLarge is returned when boot code does not fit in one sector.
var ErrBootTooLarge = errors.New("boot code larger than 510 bytes")

// Build writes a disk image to w: boot (padded and signed) in sector 0,
// then kernel padded to a whole number of sectors.
func Build(w io.Writer, boot, kernel []byte) error {
	if len(boot) > bootCodeMax {
		return fmt.Errorf("%w: %d bytes", ErrBootTooLarge, len(boot))
	}
	var sect [ata.SectorSize]byte
	copy(sect[:], boot)
	copy(sect[bootCodeMax:], BootSignature[:])
	if _, err := w.Write(sect[:]); err != nil {
		return fmt.Errorf("failed to write boot sector: %w", err)
	}

	if _, err := w.Write(kernel); err != nil {
		return fmt.Errorf("failed to write kernel: %w", err)
	}
	if pad := len(kernel) % ata.SectorSize; pad != 0 {
		if _, err := w.Write(make([]byte, ata.SectorSize-pad)); err != nil {
			return fmt.Errorf("failed to pad kernel: %w", err)
		}
	}
	glog.V(1).Infof("diskimage: %d byte kernel in %d sector(s)", len(kernel), Sectors(len(kernel)))
	return nil
}

// Sectors returns the number of sectors n bytes occupy.
func Sectors(n int) int {
	return (n + ata.SectorSize - 1) / ata.SectorSize
}

// CheckKernel parses kernel as an ELF file and warns about anything the
// loader will not cope with. It fails only if kernel is not ELF at all.
//
// The loader itself checks nothing but the magic number; this exists so
// tooling can catch mistakes before an image is written.
func CheckKernel(kernel []byte) (*elf.File, error) {
	f, err := elf.NewFile(bytes.NewReader(kernel))
	if err != nil {
		return nil, fmt.Errorf("kernel is not an ELF file: %w", err)
	}
	if f.Class != elf.ELFCLASS32 {
		glog.Warningf("kernel is %v; the loader reads ELF32 headers", f.Class)
	}
	if f.Machine != elf.EM_386 {
		glog.Warningf("kernel machine is %v, want %v", f.Machine, elf.EM_386)
	}
	if f.Entry&^0xFFFFFF != 0 {
		glog.Warningf("kernel entry %#x will be masked to %#x", f.Entry, f.Entry&0xFFFFFF)
	}
	if f.Class == elf.ELFCLASS32 {
		// The loader only reads the first 8 sectors to find the headers.
		phoff := binary.LittleEndian.Uint32(kernel[28:])
		phnum := binary.LittleEndian.Uint16(kernel[44:])
		if end := uint64(phoff) + 32*uint64(phnum); end > headerWindow {
			glog.Warningf("program headers end at %d, past the %d byte header window", end, headerWindow)
		}
	}
	for i, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			glog.Warningf("program header %d is %v; it will be loaded anyway", i, p.Type)
		}
		if p.Off+p.Memsz > uint64(len(kernel)) {
			glog.Warningf("program header %d reads [%#x, %#x) past the end of the image", i, p.Off, p.Off+p.Memsz)
		}
	}
	return f, nil
}
