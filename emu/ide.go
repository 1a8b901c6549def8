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
	"encoding/binary"
	"errors"
	"io"

	"github.com/golang/glog"
	"github.com/google/bootmain/ata"
)

// Error register bits.
const (
	errAbort uint8 = 0x04
	errUNC   uint8 = 0x40
)

// IDE emulates the master drive on the primary channel, backed by a disk
// image. Only READ SECTORS in LBA mode is implemented.
type IDE struct {
	disk io.ReaderAt

	// BusyPolls is how many status reads report BSY after each command.
	BusyPolls int

	count, lbaLow, lbaMid, lbaHigh, drive uint8
	errReg                                uint8
	status                                uint8
	busy                                  int

	// data holds the sectors of the last read command not yet transferred.
	data []byte

	// SectorsRead counts sectors latched by read commands.
	SectorsRead int
}

// NewIDE returns an idle drive over disk.
func NewIDE(disk io.ReaderAt) *IDE {
	return &IDE{
		disk:   disk,
		status: ata.StatusDRDY | ata.StatusDSC,
	}
}

// lba returns the 28-bit block address in the task file.
func (d *IDE) lba() uint32 {
	return uint32(d.drive&0x0F)<<24 | uint32(d.lbaHigh)<<16 | uint32(d.lbaMid)<<8 | uint32(d.lbaLow)
}

func (d *IDE) inb(port uint16) uint8 {
	switch port {
	case ata.PortStatus:
		if d.busy > 0 {
			d.busy--
			return ata.StatusBSY
		}
		return d.status
	case ata.PortError:
		return d.errReg
	case ata.PortCount:
		return d.count
	case ata.PortLBALow:
		return d.lbaLow
	case ata.PortLBAMid:
		return d.lbaMid
	case ata.PortLBAHigh:
		return d.lbaHigh
	case ata.PortDrive:
		return d.drive
	}
	return 0xFF
}

func (d *IDE) outb(port uint16, v uint8) {
	switch port {
	case ata.PortCount:
		d.count = v
	case ata.PortLBALow:
		d.lbaLow = v
	case ata.PortLBAMid:
		d.lbaMid = v
	case ata.PortLBAHigh:
		d.lbaHigh = v
	case ata.PortDrive:
		d.drive = v
	case ata.PortCommand:
		d.command(v)
	}
}

func (d *IDE) command(cmd uint8) {
	d.busy = d.BusyPolls
	d.errReg = 0
	d.status = ata.StatusDRDY | ata.StatusDSC
	d.data = d.data[:0]

	if cmd != ata.CmdReadSects || d.drive&0x40 == 0 {
		glog.Warningf("ide: unsupported command %#02x (drive/head %#02x)", cmd, d.drive)
		d.fail(errAbort)
		return
	}

	n := int(d.count)
	if n == 0 {
		n = 256
	}
	lba := d.lba()
	glog.V(2).Infof("ide: READ SECTORS lba=%d count=%d", lba, n)

	buf := make([]byte, n*ata.SectorSize)
	read, err := d.disk.ReadAt(buf, int64(lba)*ata.SectorSize)
	if err != nil && !errors.Is(err, io.EOF) {
		glog.Warningf("ide: reading lba %d: %v", lba, err)
		d.fail(errUNC)
		return
	}
	// Past the end of the image the drive reads zeros.
	clear(buf[read:])
	d.data = buf
	d.SectorsRead += n
	d.status |= ata.StatusDRQ
}

func (d *IDE) fail(e uint8) {
	d.errReg = e
	d.status |= ata.StatusErr
}

// inl transfers the next word of pending sector data.
func (d *IDE) inl(port uint16) uint32 {
	if port != ata.PortData || len(d.data) < 4 {
		glog.V(2).Infof("ide: 32-bit read of %#x with no data pending", port)
		return 0xFFFFFFFF
	}
	v := binary.LittleEndian.Uint32(d.data)
	d.data = d.data[4:]
	if len(d.data) == 0 {
		d.status &^= ata.StatusDRQ
	}
	return v
}
