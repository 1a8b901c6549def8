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

// mkdisk writes a boot disk image: boot code in sector 0 and an ELF kernel
// from sector 1.
//
// Usage:
//   go run ./cmd/mkdisk --logtostderr --kernel=bin/kernel --boot=bin/bootblock --out=/tmp/kernel.img
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/google/bootmain/cmd/mkdisk/impl"
)

var (
	kernel = flag.String("kernel", "", "Path to the ELF kernel.")
	boot   = flag.String("boot", "", "Path to the boot sector code, at most 510 bytes. Empty leaves sector 0 blank but signed.")
	out    = flag.String("out", "", "Path to write the disk image to.")
)

func main() {
	flag.Parse()

	if err := impl.Main(impl.MkdiskOpts{
		KernelPath: *kernel,
		BootPath:   *boot,
		OutPath:    *out,
	}); err != nil {
		glog.Exitf("mkdisk: %v", err)
	}
}
