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

// bootemu boots a disk image on an emulated PC and reports how the boot
// loader finished.
//
// Usage:
//   go run ./cmd/bootemu --logtostderr --disk=/tmp/kernel.img
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/google/bootmain/cmd/bootemu/impl"
)

var (
	disk      = flag.String("disk", "", "Path to the disk image to boot.")
	memMiB    = flag.Int("mem_mib", 16, "RAM size in MiB.")
	scratch   = flag.Uint("scratch", 0x10000, "Physical address the ELF header is read to.")
	busyPolls = flag.Int("busy_polls", 0, "Status polls the drive reports busy after each command.")
	timeout   = flag.Duration("timeout", 10*time.Second, "Power the machine off if boot has not finished by then.")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	o, err := impl.Main(ctx, impl.EmulatorOpts{
		DiskPath:  *disk,
		MemSize:   *memMiB << 20,
		Scratch:   uint32(*scratch),
		BusyPolls: *busyPolls,
	})
	if err != nil {
		glog.Exitf("bootemu: %v", err)
	}
	if !o.Transferred() {
		glog.Errorf("bootemu: %v", o)
		glog.Flush()
		os.Exit(1)
	}
	glog.Infof("bootemu: %v", o)
}
