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
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// 🔬 AnalyzeFunc analyzes one chunk of files. A non-zero status with
// diagnostics is a hard failure; a non-zero status without diagnostics is a
// soft failure that only adds to the exit status.
type AnalyzeFunc func(ctx context.Context, files []string) (status int, diagnostics string)

// 🚦 State tracks a Scheduler through one Run.
type State int

const (
	StateIdle State = iota
	StatePartitioned
	StateDispatched
	StateJoining
	StateSucceeded
	StateFailedHard
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePartitioned:
		return "partitioned"
	case StateDispatched:
		return "dispatched"
	case StateJoining:
		return "joining"
	case StateSucceeded:
		return "succeeded"
	case StateFailedHard:
		return "failed-hard"
	default:
		return "unknown"
	}
}

// 📊 ChunkResult is what one chunk reported.
type ChunkResult struct {
	Index       int
	Files       []string
	Status      int
	Diagnostics string
	Duration    time.Duration
}

// HardFailure reports whether the chunk failed with diagnostics.
func (r ChunkResult) HardFailure() bool {
	return r.Status != 0 && r.Diagnostics != ""
}

// Err is a *HardFailureError for a hard failure and nil otherwise.
func (r ChunkResult) Err() error {
	if !r.HardFailure() {
		return nil
	}
	return &HardFailureError{Chunk: r.Index, Files: r.Files, Status: r.Status, Diagnostics: r.Diagnostics}
}

// ❌ HardFailureError is returned after all chunks joined when any chunk
// failed with diagnostics. It carries the first such chunk in chunk order.
type HardFailureError struct {
	Chunk       int
	Files       []string
	Status      int
	Diagnostics string
}

func (e *HardFailureError) Error() string {
	return fmt.Sprintf("analysis of chunk %d (%d files) failed with status %d: %s",
		e.Chunk, len(e.Files), e.Status, strings.TrimSpace(e.Diagnostics))
}

// ⚙️ Scheduler fans files out to Analyze in balanced chunks.
type Scheduler struct {
	// Threads is the requested worker limit; <= 0 means no limit.
	Threads int
	// Hardware is the concurrency hint; 0 means runtime.NumCPU.
	Hardware int
	Analyze  AnalyzeFunc

	mu      sync.Mutex
	state   State
	results []ChunkResult
}

// 🏭 New creates a scheduler.
func New(analyze AnalyzeFunc, threads int) *Scheduler {
	return &Scheduler{Threads: threads, Analyze: analyze}
}

// State is the scheduler's current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(ctx context.Context, st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	zerolog.Ctx(ctx).Trace().Stringer("state", st).Msg("scheduler state")
}

// Results returns the per-chunk results of the last Run, in chunk order.
func (s *Scheduler) Results() []ChunkResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChunkResult(nil), s.results...)
}

// 🏃 Run analyzes all files. Every chunk but the last runs on its own
// goroutine, the last runs on the caller's. All chunks run to completion and
// are joined before the outcome is decided: a *HardFailureError for the first
// chunk that failed with diagnostics, otherwise the sum of chunk statuses.
func (s *Scheduler) Run(ctx context.Context, files []string) (int, error) {
	logger := zerolog.Ctx(ctx)

	hardware := s.Hardware
	if hardware <= 0 {
		hardware = runtime.NumCPU()
	}

	plan := NewPlan(files, s.Threads, hardware)
	s.setState(ctx, StatePartitioned)

	logger.Debug().
		Int("files", len(files)).
		Int("threads", plan.Threads).
		Int("files_per_chunk", plan.FilesPerChunk).
		Int("chunks", plan.ChunkCount()).
		Msg("partitioned input files")

	results := make([]ChunkResult, plan.ChunkCount())
	failed := false

	if plan.ChunkCount() > 0 {
		last := plan.ChunkCount() - 1

		// each goroutine owns results[i]; no lock needed. The group has no
		// context, so one chunk failing does not stop the others.
		var g errgroup.Group
		for i, chunk := range plan.Chunks[:last] {
			i, chunk := i, chunk
			g.Go(func() error {
				results[i] = s.runChunk(ctx, i, chunk)
				return results[i].Err()
			})
		}
		s.setState(ctx, StateDispatched)

		results[last] = s.runChunk(ctx, last, plan.Chunks[last])

		s.setState(ctx, StateJoining)
		// Wait returns whichever failure finished first; the reported one is
		// picked in chunk order below
		failed = g.Wait() != nil || results[last].HardFailure()
	}

	s.mu.Lock()
	s.results = results
	s.mu.Unlock()

	if failed {
		s.setState(ctx, StateFailedHard)
		for _, r := range results {
			if !r.HardFailure() {
				continue
			}
			logger.Error().
				Int("chunk", r.Index).
				Int("status", r.Status).
				Strs("files", r.Files).
				Msg("analysis failed")
			return r.Status, r.Err()
		}
	}

	total := 0
	for _, r := range results {
		total += r.Status
	}

	s.setState(ctx, StateSucceeded)
	return total, nil
}

// runChunk runs one chunk and turns a panic into a hard failure of that chunk.
func (s *Scheduler) runChunk(ctx context.Context, index int, files []string) (result ChunkResult) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()
	result = ChunkResult{Index: index, Files: files}

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			result.Status = 1
			result.Diagnostics = fmt.Sprintf("panic in analysis: %v\n%s", r, debug.Stack())
		}
		logger.Debug().
			Int("chunk", index).
			Int("files", len(files)).
			Int("status", result.Status).
			Dur("duration", result.Duration).
			Msg("chunk finished")
	}()

	result.Status, result.Diagnostics = s.Analyze(ctx, files)
	return result
}
