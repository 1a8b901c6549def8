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

// Package ata reads sectors from the primary IDE channel using polled PIO.
package ata

import (
	"encoding/binary"

	"github.com/google/bootmain/x86"
)

// SectorSize is the number of bytes in a disk sector.
const SectorSize = 512

// Primary channel command block registers.
const (
	PortData     uint16 = 0x1F0
	PortError    uint16 = 0x1F1
	PortCount    uint16 = 0x1F2
	PortLBALow   uint16 = 0x1F3
	PortLBAMid   uint16 = 0x1F4
	PortLBAHigh  uint16 = 0x1F5
	PortDrive    uint16 = 0x1F6
	PortStatus   uint16 = 0x1F7
	PortCommand  uint16 = 0x1F7
	CmdReadSects uint8  = 0x20
)

// Status register bits.
const (
	StatusErr  uint8 = 0x01
	StatusDRQ  uint8 = 0x08
	StatusDSC  uint8 = 0x10
	StatusDRDY uint8 = 0x40
	StatusBSY  uint8 = 0x80

	// readyMask selects BSY and DRDY; the drive is ready when BSY is clear
	// and DRDY is set.
	readyMask = StatusBSY | StatusDRDY
)

// driveLBA selects the master drive in LBA mode; the low nibble carries
// LBA bits 24-27.
const driveLBA = 0xE0

// Drive is the master drive of the primary channel.
type Drive struct {
	ports x86.Ports
}

// NewDrive returns a Drive talking to the controller through p.
func NewDrive(p x86.Ports) *Drive {
	return &Drive{ports: p}
}

// WaitReady polls the status register until the drive reports ready.
//
// There is no timeout: a drive that never becomes ready keeps the caller
// here forever.
func (d *Drive) WaitReady() {
	for d.ports.Inb(PortStatus)&readyMask != StatusDRDY {
	}
}

// ReadSector reads sector secno into dst, which must hold at least
// SectorSize bytes. secno is a 28-bit LBA.
//
// Command failures are not detected.
func (d *Drive) ReadSector(dst []byte, secno uint32) {
	d.WaitReady()

	d.ports.Outb(PortCount, 1)
	d.ports.Outb(PortLBALow, uint8(secno))
	d.ports.Outb(PortLBAMid, uint8(secno>>8))
	d.ports.Outb(PortLBAHigh, uint8(secno>>16))
	d.ports.Outb(PortDrive, uint8((secno>>24)&0xF)|driveLBA)
	d.ports.Outb(PortCommand, CmdReadSects)

	d.WaitReady()

	for i := 0; i < SectorSize; i += 4 {
		binary.LittleEndian.PutUint32(dst[i:], d.ports.Inl(PortData))
	}
}
