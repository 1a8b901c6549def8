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

// Package impl is the implementation of the bootemu tool.
package impl

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/bootmain/emu"
	"github.com/google/bootmain/loader"
	"github.com/google/bootmain/mem"
)

// EmulatorOpts encapsulates the parameters for running the emulator.
type EmulatorOpts struct {
	DiskPath  string
	MemSize   int
	Scratch   uint32
	BusyPolls int
}

// Result is the outcome of a boot.
type Result struct {
	emu.Outcome
}

// Transferred reports whether the loader handed control to the kernel.
func (r Result) Transferred() bool {
	return r.State == loader.Transfer
}

// Main boots the disk image at opts.DiskPath.
func Main(ctx context.Context, opts EmulatorOpts) (Result, error) {
	if opts.DiskPath == "" {
		return Result{}, errors.New("no disk image given")
	}
	f, err := os.Open(opts.DiskPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open disk image: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.Size()%512 != 0 {
		glog.Warningf("%q is %d bytes, not a whole number of sectors", opts.DiskPath, fi.Size())
	}

	glog.Infof("Booting %q with %d KiB of RAM", opts.DiskPath, opts.MemSize>>10)
	m := emu.New(f, emu.Opts{
		MemSize:   opts.MemSize,
		Scratch:   opts.Scratch,
		BusyPolls: opts.BusyPolls,
	})
	o, err := m.Run(ctx)
	if err != nil {
		return Result{o}, fmt.Errorf("boot did not finish: %w", err)
	}
	if o.Faults != (mem.Faults{}) {
		glog.Warningf("Loader touched memory outside RAM: %+v", o.Faults)
	}
	return Result{o}, nil
}
