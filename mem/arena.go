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

// Package mem models flat physical memory as seen by the boot loader.
package mem

import (
	"fmt"

	"github.com/golang/glog"
)

const (
	// AddrMask keeps the address bits reachable in the loader's
	// addressing mode.
	AddrMask = 0xFFFFFF

	// DefaultSize covers every address AddrMask can produce.
	DefaultSize = AddrMask + 1

	// openBus is what reads from unbacked addresses return.
	openBus = 0xFF
)

// Mask24 truncates addr to the low 24 bits.
func Mask24(addr uint32) uint32 {
	return addr & AddrMask
}

// Faults counts accesses which fell outside the arena.
type Faults struct {
	// DroppedWrites is the number of bytes written to unbacked addresses.
	DroppedWrites uint64
	// OpenBusReads is the number of bytes read from unbacked addresses.
	OpenBusReads uint64
}

// Arena is a fixed block of physical memory starting at address 0.
//
// Accesses outside the arena behave like an undecoded bus: writes are
// dropped and reads return 0xFF. Neither is reported as an error, since the
// loader has nowhere to send one; they are counted instead.
type Arena struct {
	b      []byte
	faults Faults
}

// NewArena allocates an arena of size bytes.
func NewArena(size int) *Arena {
	return &Arena{b: make([]byte, size)}
}

// Size returns the number of backed bytes.
func (a *Arena) Size() int {
	return len(a.b)
}

// Faults returns the open bus counters.
func (a *Arena) Faults() Faults {
	return a.faults
}

// span returns the portion of [off, off+n) backed by the arena, as an
// index into b and the number of leading bytes which fall below it.
func (a *Arena) span(off int64, n int) (start, skip, count int) {
	end := off + int64(n)
	if off >= int64(len(a.b)) || end <= 0 {
		return 0, n, 0
	}
	if off < 0 {
		skip = int(-off)
		off = 0
	}
	if end > int64(len(a.b)) {
		end = int64(len(a.b))
	}
	return int(off), skip, int(end - off)
}

// WriteAt copies p into memory at address off. It always reports len(p)
// bytes written.
func (a *Arena) WriteAt(p []byte, off int64) (int, error) {
	start, skip, count := a.span(off, len(p))
	copy(a.b[start:start+count], p[skip:skip+count])
	if dropped := len(p) - count; dropped > 0 {
		a.faults.DroppedWrites += uint64(dropped)
		glog.V(1).Infof("mem: dropped %d byte(s) of write at %#x", dropped, off)
	}
	return len(p), nil
}

// ReadAt fills p from memory at address off. It always reports len(p)
// bytes read.
func (a *Arena) ReadAt(p []byte, off int64) (int, error) {
	start, skip, count := a.span(off, len(p))
	for i := range p {
		p[i] = openBus
	}
	copy(p[skip:skip+count], a.b[start:start+count])
	if missed := len(p) - count; missed > 0 {
		a.faults.OpenBusReads += uint64(missed)
		glog.V(1).Infof("mem: %d byte(s) of read at %#x hit open bus", missed, off)
	}
	return len(p), nil
}

// Slice returns the n bytes at addr. The slice aliases the arena.
func (a *Arena) Slice(addr uint32, n int) ([]byte, error) {
	end := uint64(addr) + uint64(n)
	if n < 0 || end > uint64(len(a.b)) {
		return nil, fmt.Errorf("range [%#x, %#x) outside %d byte arena", addr, end, len(a.b))
	}
	return a.b[addr:end], nil
}
