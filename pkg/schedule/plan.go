// Copyright 2025 walteh LLC
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

package schedule

import (
	"math"
)

const (
	// minThreads is the floor for the hardware hint; small machines still get
	// four workers since analysis is mostly I/O and parse bound.
	minThreads = 4
	// minFilesPerChunk keeps per-chunk setup cost amortized.
	minFilesPerChunk = 3
)

// 📐 Plan is a contiguous partition of the input files.
type Plan struct {
	Threads       int // effective worker count
	FilesPerChunk int
	Chunks        [][]string
}

// Threads computes the effective worker count. requested <= 0 means no
// user limit.
//
//	max(1, min(requested, max(4, hardware)))
func Threads(requested, hardware int) int {
	limit := max(minThreads, hardware)
	if requested > 0 {
		limit = min(requested, limit)
	}
	return max(1, limit)
}

// 🏭 NewPlan splits files into ceil(N / max(3, round(N/H))) contiguous
// chunks. The order of files inside and across chunks is preserved.
func NewPlan(files []string, requested, hardware int) *Plan {
	threads := Threads(requested, hardware)
	n := len(files)

	perChunk := max(minFilesPerChunk, int(math.Round(float64(n)/float64(threads))))
	plan := &Plan{Threads: threads, FilesPerChunk: perChunk}

	for start := 0; start < n; start += perChunk {
		end := min(start+perChunk, n)
		plan.Chunks = append(plan.Chunks, files[start:end:end])
	}
	return plan
}

// ChunkCount is the number of chunks the plan dispatches.
func (p *Plan) ChunkCount() int {
	return len(p.Chunks)
}
