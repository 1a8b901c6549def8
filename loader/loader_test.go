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

package loader_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/google/bootmain/internal/testonly"
	"github.com/google/bootmain/loader"
	"github.com/google/bootmain/mem"
	"github.com/google/go-cmp/cmp"
)

// stopped unwinds Boot once the CPU leaves the loader.
type stopped struct{}

type fakeCPU struct {
	calls []uint32
	spun  bool
	// kernelReturns makes Call return instead of leaving the loader.
	kernelReturns bool
}

func (c *fakeCPU) Call(entry uint32) {
	c.calls = append(c.calls, entry)
	if !c.kernelReturns {
		panic(stopped{})
	}
}

func (c *fakeCPU) Spin() {
	c.spun = true
	panic(stopped{})
}

type portWrite struct {
	Port, Value uint16
}

type fakePorts struct {
	words []portWrite
}

func (p *fakePorts) Inb(uint16) uint8 { return 0xFF }
func (p *fakePorts) Outb(uint16, uint8) {}
func (p *fakePorts) Inl(uint16) uint32 { return 0xFFFFFFFF }
func (p *fakePorts) Outw(port uint16, v uint16) {
	p.words = append(p.words, portWrite{port, v})
}

// recMem records the address of every write.
type recMem struct {
	*mem.Arena
	writes []int64
}

func (m *recMem) WriteAt(p []byte, off int64) (int, error) {
	m.writes = append(m.writes, off)
	return m.Arena.WriteAt(p, off)
}

type machine struct {
	disk  *testonly.Disk
	mem   *recMem
	ports *fakePorts
	cpu   *fakeCPU
	l     *loader.Loader
}

func newMachine(img []byte, opts loader.Opts) *machine {
	m := &machine{
		disk:  testonly.NewDisk(img),
		mem:   &recMem{Arena: mem.NewArena(mem.DefaultSize)},
		ports: &fakePorts{},
		cpu:   &fakeCPU{},
	}
	m.l = loader.New(m.disk, m.mem, m.ports, m.cpu, opts)
	return m
}

func (m *machine) boot(t *testing.T) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stopped); !ok {
				panic(r)
			}
		}
	}()
	m.l.Boot()
	t.Fatal("Boot() returned")
}

func (m *machine) bytes(t *testing.T, addr uint32, n int) []byte {
	t.Helper()
	b, err := m.mem.Slice(addr, n)
	if err != nil {
		t.Fatalf("Slice(%#x, %d): %v", addr, n, err)
	}
	return b
}

func seq(from, n uint32) []uint32 {
	var r []uint32
	for i := uint32(0); i < n; i++ {
		r = append(r, from+i)
	}
	return r
}

func TestReadSegment(t *testing.T) {
	const va = 0x200000
	for _, test := range []struct {
		desc          string
		count, offset uint32
		wantSectors   []uint32
		wantWrites    []int64
	}{
		{
			desc:        "aligned",
			count:       1024,
			offset:      0,
			wantSectors: []uint32{1, 2},
			wantWrites:  []int64{va, va + 512},
		}, {
			desc:        "inside one sector",
			count:       10,
			offset:      100,
			wantSectors: []uint32{1},
			wantWrites:  []int64{va - 100},
		}, {
			desc:        "last byte of a sector",
			count:       1,
			offset:      511,
			wantSectors: []uint32{1},
			wantWrites:  []int64{va - 511},
		}, {
			desc:        "unaligned across sectors",
			count:       1000,
			offset:      600,
			wantSectors: []uint32{2, 3, 4},
			wantWrites:  []int64{va - 88, va + 424, va + 936},
		}, {
			desc:   "empty and aligned",
			count:  0,
			offset: 512,
		}, {
			desc:        "empty and unaligned still reads",
			count:       0,
			offset:      513,
			wantSectors: []uint32{2},
			wantWrites:  []int64{va - 1},
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			m := newMachine(testonly.Pattern(8192, 1), loader.Opts{})
			m.l.ReadSegment(va, test.count, test.offset)
			if diff := cmp.Diff(test.wantSectors, m.disk.Reads); diff != "" {
				t.Errorf("sectors read diff (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantWrites, m.mem.writes); diff != "" {
				t.Errorf("write addresses diff (-want +got):\n%s", diff)
			}
		})
	}
}

// TestReadSegmentCoverage checks, over a grid of ranges, that the sectors
// read are contiguous from offset/512+1, cover the requested bytes, land
// them at va, and spill no more than 511 bytes either side.
func TestReadSegmentCoverage(t *testing.T) {
	const va = 0x300000
	img := testonly.Pattern(16384, 3)
	for _, offset := range []uint32{0, 1, 100, 511, 512, 513, 1000, 4096, 5000} {
		for _, count := range []uint32{1, 2, 511, 512, 513, 2048, 3000} {
			t.Run(fmt.Sprintf("offset %d count %d", offset, count), func(t *testing.T) {
				m := newMachine(img, loader.Opts{})
				m.l.ReadSegment(va, count, offset)

				first := offset/512 + 1
				if diff := cmp.Diff(seq(first, uint32(len(m.disk.Reads))), m.disk.Reads); diff != "" {
					t.Fatalf("sectors not contiguous from %d (-want +got):\n%s", first, diff)
				}
				if got, want := m.mem.writes[0], int64(va)-int64(offset%512); got != want {
					t.Errorf("first write at %#x, want %#x", got, want)
				}
				lastByte := offset + count - 1
				if last := m.disk.Reads[len(m.disk.Reads)-1]; (last-1)*512+511 < lastByte {
					t.Errorf("last sector %d ends before image byte %d", last, lastByte)
				}
				writeEnd := m.mem.writes[len(m.mem.writes)-1] + 512
				if before := int64(va) - m.mem.writes[0]; before > 511 {
					t.Errorf("wrote %d bytes before va, want at most 511", before)
				}
				if after := writeEnd - int64(va+count); after > 511 {
					t.Errorf("wrote %d bytes past the end, want at most 511", after)
				}

				got := m.bytes(t, va, int(count))
				if diff := cmp.Diff(img[offset:offset+count], got); diff != "" {
					t.Errorf("memory diff (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestReadSegmentIdempotent(t *testing.T) {
	m := newMachine(testonly.Pattern(4096, 9), loader.Opts{})
	m.l.ReadSegment(0x400000, 1500, 700)
	first := append([]byte(nil), m.bytes(t, 0x400000-512, 3072)...)
	m.l.ReadSegment(0x400000, 1500, 700)
	if diff := cmp.Diff(first, m.bytes(t, 0x400000-512, 3072)); diff != "" {
		t.Errorf("second read changed memory (-first +second):\n%s", diff)
	}
}

func TestBootBadMagic(t *testing.T) {
	corrupt := testonly.ELF32(0x100000, testonly.Segment{Vaddr: 0x100000, Data: testonly.Pattern(1024, 2)})
	corrupt[0] = 0x7E

	for _, test := range []struct {
		desc string
		img  []byte
	}{
		{desc: "corrupt magic", img: corrupt},
		{desc: "empty disk", img: nil},
		{desc: "big endian magic", img: append([]byte("FLE\x7f"), make([]byte, 508)...)},
	} {
		t.Run(test.desc, func(t *testing.T) {
			m := newMachine(test.img, loader.Opts{})
			m.boot(t)

			if diff := cmp.Diff(seq(1, 8), m.disk.Reads); diff != "" {
				t.Errorf("sectors read diff (-want +got):\n%s", diff)
			}
			if len(m.cpu.calls) != 0 {
				t.Errorf("CPU called %#x, want no transfer", m.cpu.calls)
			}
			if !m.cpu.spun {
				t.Error("CPU did not spin")
			}
			want := []portWrite{{0x8A00, 0x8A00}, {0x8A00, 0x8E00}}
			if diff := cmp.Diff(want, m.ports.words); diff != "" {
				t.Errorf("debug port writes diff (-want +got):\n%s", diff)
			}
			if got := m.l.State(); got != loader.Halt {
				t.Errorf("State() = %v, want %v", got, loader.Halt)
			}
		})
	}
}

func TestBootLoadsKernel(t *testing.T) {
	img := testonly.ELF32(0xC0100010, testonly.Segment{
		Vaddr: 0x100000,
		Data:  testonly.Pattern(1024, 5),
	})
	m := newMachine(img, loader.Opts{})
	m.boot(t)

	if diff := cmp.Diff(img[:1024], m.bytes(t, 0x100000, 1024)); diff != "" {
		t.Errorf("kernel memory diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0x100010}, m.cpu.calls); diff != "" {
		t.Errorf("CPU calls diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(append(seq(1, 8), 1, 2), m.disk.Reads); diff != "" {
		t.Errorf("sectors read diff (-want +got):\n%s", diff)
	}
	if len(m.ports.words) != 0 {
		t.Errorf("debug port written on success: %v", m.ports.words)
	}
	if got := m.l.State(); got != loader.Transfer {
		t.Errorf("State() = %v, want %v", got, loader.Transfer)
	}
}

func TestBootMasksAddresses(t *testing.T) {
	data := testonly.Pattern(700, 6)
	img := testonly.ELF32(0x01100000, testonly.Segment{
		Vaddr:  0x01100000,
		Offset: 0x1000,
		Data:   data,
	})
	m := newMachine(img, loader.Opts{})
	m.boot(t)

	if diff := cmp.Diff(data, m.bytes(t, 0x00100000, len(data))); diff != "" {
		t.Errorf("memory at 0x100000 diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0x00100000}, m.cpu.calls); diff != "" {
		t.Errorf("CPU calls diff (-want +got):\n%s", diff)
	}
	if f := m.mem.Faults(); f.DroppedWrites != 0 {
		t.Errorf("%d bytes written outside memory", f.DroppedWrites)
	}
}

func TestBootMultipleSegments(t *testing.T) {
	text := testonly.Pattern(3000, 7)
	data := testonly.Pattern(600, 8)
	img := testonly.ELF32(0x100000,
		testonly.Segment{Vaddr: 0x100000, Offset: 0x1000, Data: text},
		testonly.Segment{Vaddr: 0x200000, Offset: 0x2000, Data: data, Memsz: 600},
	)
	// Mark the second header PT_NOTE: types are not inspected.
	binary.LittleEndian.PutUint32(img[52+32:], 4)

	m := newMachine(img, loader.Opts{})
	m.boot(t)

	if diff := cmp.Diff(text, m.bytes(t, 0x100000, len(text))); diff != "" {
		t.Errorf("text diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(data, m.bytes(t, 0x200000, len(data))); diff != "" {
		t.Errorf("data diff (-want +got):\n%s", diff)
	}
	want := append(seq(1, 8), append(seq(9, 6), 17, 18)...)
	if diff := cmp.Diff(want, m.disk.Reads); diff != "" {
		t.Errorf("sectors read diff (-want +got):\n%s", diff)
	}
}

func TestBootCustomScratch(t *testing.T) {
	img := testonly.ELF32(0x100000, testonly.Segment{Vaddr: 0x100000, Offset: 0x1000, Data: []byte{0xF4}})
	m := newMachine(img, loader.Opts{Scratch: 0x20000})
	m.boot(t)

	if got := m.bytes(t, 0x20000, 4); !bytes.Equal(got, []byte("\x7fELF")) {
		t.Errorf("scratch holds %q, want ELF header", got)
	}
	if got := m.bytes(t, loader.DefaultScratch, 4); bytes.Equal(got, []byte("\x7fELF")) {
		t.Error("default scratch written with custom scratch configured")
	}
	if diff := cmp.Diff([]uint32{0x100000}, m.cpu.calls); diff != "" {
		t.Errorf("CPU calls diff (-want +got):\n%s", diff)
	}
}

// A segment landing on the scratch area replaces the headers that have not
// been read yet; the loader carries on with whatever is there.
func TestBootSegmentOverwritesHeaders(t *testing.T) {
	img := testonly.ELF32(0x300000,
		testonly.Segment{Vaddr: loader.DefaultScratch, Offset: 0x1000, Data: make([]byte, 512)},
		testonly.Segment{Vaddr: 0x300000, Offset: 0x2000, Data: testonly.Pattern(512, 4)},
	)
	m := newMachine(img, loader.Opts{})
	m.boot(t)

	if got := m.bytes(t, 0x300000, 512); !bytes.Equal(got, make([]byte, 512)) {
		t.Error("second segment loaded from clobbered header")
	}
	// The entry point is re-read after loading, and is now zero.
	if diff := cmp.Diff([]uint32{0}, m.cpu.calls); diff != "" {
		t.Errorf("CPU calls diff (-want +got):\n%s", diff)
	}
}

func TestBootKernelReturns(t *testing.T) {
	img := testonly.ELF32(0x100000, testonly.Segment{Vaddr: 0x100000, Offset: 0x1000, Data: []byte{0xC3}})
	m := newMachine(img, loader.Opts{})
	m.cpu.kernelReturns = true
	m.boot(t)

	if diff := cmp.Diff([]uint32{0x100000}, m.cpu.calls); diff != "" {
		t.Errorf("CPU calls diff (-want +got):\n%s", diff)
	}
	if !m.cpu.spun {
		t.Error("CPU did not spin after the kernel returned")
	}
	if len(m.ports.words) != 2 {
		t.Errorf("debug port writes = %v, want halt signal", m.ports.words)
	}
}
