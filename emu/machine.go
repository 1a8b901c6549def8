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

// Package emu is a minimal hosted PC for running the boot loader: physical
// memory, an IDE drive over a disk image, the debug port, and a CPU which
// stops once the loader hands over control.
package emu

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/google/bootmain/ata"
	"github.com/google/bootmain/loader"
	"github.com/google/bootmain/mem"
	"golang.org/x/sync/errgroup"
)

// ErrPoweredOff is returned by Run when the context ends before the loader
// reaches a terminal state.
var ErrPoweredOff = errors.New("machine powered off before boot finished")

// Opts configures a Machine.
type Opts struct {
	// MemSize is the amount of RAM in bytes. Zero selects mem.DefaultSize.
	MemSize int
	// Scratch is the ELF header address handed to the loader.
	Scratch uint32
	// BusyPolls is how many status reads the drive spends busy per command.
	BusyPolls int
}

// Outcome is how a boot ended.
type Outcome struct {
	// State is loader.Transfer or loader.Halt when boot finished.
	State loader.State
	// Entry is the kernel entry point, valid when State is loader.Transfer.
	Entry uint32
	// DebugWords holds the words written to the debug port.
	DebugWords []uint16
	// SectorsRead is the number of sectors the drive transferred.
	SectorsRead int
	// Faults counts memory accesses outside RAM.
	Faults mem.Faults
}

func (o Outcome) String() string {
	switch o.State {
	case loader.Transfer:
		return fmt.Sprintf("transferred to %#x after %d sector(s)", o.Entry, o.SectorsRead)
	case loader.Halt:
		return fmt.Sprintf("halted, debug port %#04x", o.DebugWords)
	}
	return fmt.Sprintf("stopped in %v", o.State)
}

// Machine is a PC with a boot disk attached.
type Machine struct {
	Mem    *mem.Arena
	IDE    *IDE
	Debug  *DebugPort
	Bus    *Bus
	CPU    *CPU
	Loader *loader.Loader
}

// New builds a machine booting from disk.
func New(disk io.ReaderAt, opts Opts) *Machine {
	size := opts.MemSize
	if size == 0 {
		size = mem.DefaultSize
	}
	m := &Machine{
		Mem:   mem.NewArena(size),
		IDE:   NewIDE(disk),
		Debug: &DebugPort{},
		CPU:   &CPU{},
	}
	m.IDE.BusyPolls = opts.BusyPolls
	m.Bus = NewBus(m.IDE, m.Debug)
	m.Loader = loader.New(ata.NewDrive(m.Bus), m.Mem, m.Bus, m.CPU, loader.Opts{Scratch: opts.Scratch})
	return m
}

// Run powers the machine on and waits for the loader to jump to the kernel
// or halt. If ctx is done first the machine is powered off and
// ErrPoweredOff is returned alongside the state reached.
//
// A Machine can only be run once.
func (m *Machine) Run(ctx context.Context) (Outcome, error) {
	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		// The CPU thread leaves through runtime.Goexit, which must not
		// unwind a group goroutine.
		go func() {
			defer close(done)
			m.Loader.Boot()
		}()
		<-done
		return nil
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-ctx.Done():
			glog.Infof("emu: powering off: %v", ctx.Err())
			m.Bus.powerOff()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	o := Outcome{
		State:       m.Loader.State(),
		Entry:       m.CPU.Entry,
		DebugWords:  m.Debug.Words,
		SectorsRead: m.IDE.SectorsRead,
		Faults:      m.Mem.Faults(),
	}
	if !m.CPU.Called && !m.CPU.Spinning {
		return o, fmt.Errorf("%w: %v", ErrPoweredOff, ctx.Err())
	}
	glog.Infof("emu: %v", o)
	return o, nil
}
