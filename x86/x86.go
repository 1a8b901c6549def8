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

// Package x86 describes the few hardware primitives the boot loader needs
// from a 32-bit x86 machine running in flat mode.
//
// On real hardware these are single instructions (inb, outb, inl, outw, an
// indirect call and a jump-to-self). Here they are interfaces so the loader
// can be driven either by a machine or by the emulator in package emu.
package x86

// Ports is the I/O port address space.
type Ports interface {
	// Inb reads a byte from port.
	Inb(port uint16) uint8
	// Outb writes a byte to port.
	Outb(port uint16, v uint8)
	// Inl reads a 32-bit word from port.
	Inl(port uint16) uint32
	// Outw writes a 16-bit word to port.
	Outw(port uint16, v uint16)
}

// CPU holds the control transfer primitives.
//
// Neither method returns under correct operation. A machine whose kernel
// does return from Call continues with whatever the caller does next.
type CPU interface {
	// Call jumps to entry as a no-argument function call.
	Call(entry uint32)
	// Spin loops forever doing nothing.
	Spin()
}
