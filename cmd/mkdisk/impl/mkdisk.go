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

// Package impl is the implementation of the mkdisk tool.
package impl

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/bootmain/diskimage"
)

// MkdiskOpts encapsulates the parameters for building a disk image.
type MkdiskOpts struct {
	KernelPath string
	BootPath   string
	OutPath    string
}

// Main builds the disk image described by opts.
func Main(opts MkdiskOpts) error {
	if opts.KernelPath == "" || opts.OutPath == "" {
		return errors.New("kernel and out paths are required")
	}
	kernel, err := os.ReadFile(opts.KernelPath)
	if err != nil {
		return fmt.Errorf("failed to read kernel: %w", err)
	}
	f, err := diskimage.CheckKernel(kernel)
	if err != nil {
		return err
	}
	glog.Infof("Kernel %q: entry %#x, %d program header(s)", opts.KernelPath, f.Entry, len(f.Progs))

	var boot []byte
	if opts.BootPath != "" {
		if boot, err = os.ReadFile(opts.BootPath); err != nil {
			return fmt.Errorf("failed to read boot sector: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := diskimage.Build(&buf, boot, kernel); err != nil {
		return err
	}
	if err := os.WriteFile(opts.OutPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write disk image: %w", err)
	}
	glog.Infof("Wrote %d sector(s) to %q", buf.Len()/512, opts.OutPath)
	return nil
}
