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

package emu

import (
	"runtime"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/google/bootmain/ata"
	"github.com/google/bootmain/loader"
	"github.com/google/bootmain/x86"
)

// DebugPort latches the words written to the Bochs/QEMU debug port.
type DebugPort struct {
	Words []uint16
}

// Bus is the machine's I/O port space. Ports with nothing behind them read
// as 0xFF and ignore writes.
type Bus struct {
	ide   *IDE
	debug *DebugPort

	// off is set once the machine is powered off; the CPU thread stops at
	// its next port access.
	off atomic.Bool
}

var _ x86.Ports = &Bus{}

// NewBus wires ide to the primary channel and debug to loader.DebugPort.
func NewBus(ide *IDE, debug *DebugPort) *Bus {
	return &Bus{ide: ide, debug: debug}
}

func (b *Bus) powerOff() {
	b.off.Store(true)
}

func (b *Bus) checkPower() {
	if b.off.Load() {
		runtime.Goexit()
	}
}

func isIDE(port uint16) bool {
	return port >= ata.PortData && port <= ata.PortStatus
}

// Inb implements x86.Ports.
func (b *Bus) Inb(port uint16) uint8 {
	b.checkPower()
	if isIDE(port) {
		return b.ide.inb(port)
	}
	glog.V(2).Infof("bus: inb %#x: open bus", port)
	return 0xFF
}

// Outb implements x86.Ports.
func (b *Bus) Outb(port uint16, v uint8) {
	b.checkPower()
	if isIDE(port) {
		b.ide.outb(port, v)
		return
	}
	glog.V(2).Infof("bus: outb %#x <- %#x: open bus", port, v)
}

// Inl implements x86.Ports.
func (b *Bus) Inl(port uint16) uint32 {
	b.checkPower()
	if isIDE(port) {
		return b.ide.inl(port)
	}
	glog.V(2).Infof("bus: inl %#x: open bus", port)
	return 0xFFFFFFFF
}

// Outw implements x86.Ports.
func (b *Bus) Outw(port uint16, v uint16) {
	b.checkPower()
	if port == loader.DebugPort {
		glog.V(1).Infof("bus: debug port <- %#04x", v)
		b.debug.Words = append(b.debug.Words, v)
		return
	}
	glog.V(2).Infof("bus: outw %#x <- %#x: open bus", port, v)
}

// CPU ends the boot thread when the loader jumps to the kernel or halts.
// Executing the kernel itself is out of scope.
type CPU struct {
	// Entry is the address passed to Call.
	Entry uint32
	// Called is set by Call.
	Called bool
	// Spinning is set by Spin.
	Spinning bool
}

var _ x86.CPU = &CPU{}

// Call implements x86.CPU. It does not return.
func (c *CPU) Call(entry uint32) {
	c.Entry, c.Called = entry, true
	runtime.Goexit()
}

// Spin implements x86.CPU. It does not return.
func (c *CPU) Spin() {
	c.Spinning = true
	runtime.Goexit()
}
