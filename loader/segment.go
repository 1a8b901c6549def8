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

package loader

import (
	"github.com/golang/glog"
	"github.com/google/bootmain/ata"
)

// ReadSegment reads count bytes starting at byte offset of the kernel image
// into memory at va.
//
// Whole sectors are read, so up to a sector's worth of bytes either side of
// [va, va+count) may be overwritten as well. Callers must load segments in
// increasing order for that to be harmless.
func (l *Loader) ReadSegment(va, count, offset uint32) {
	end := va + count

	// Round down to the start of the sector holding offset.
	va -= offset % ata.SectorSize

	// The kernel image starts at sector 1.
	secno := offset/ata.SectorSize + 1

	glog.V(2).Infof("loader: segment [%#x, %#x) from sector %d", va, end, secno)
	for ; va < end; va, secno = va+ata.SectorSize, secno+1 {
		l.disk.ReadSector(l.sect[:], secno)
		l.mem.WriteAt(l.sect[:], int64(va))
	}
}
