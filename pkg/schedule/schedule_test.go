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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func fileNames(n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("/src/f%02d.cc", i)
	}
	return files
}

func TestThreads(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		hardware  int
		want      int
	}{
		{name: "unlimited_uses_hardware", requested: 0, hardware: 16, want: 16},
		{name: "unlimited_small_machine", requested: -1, hardware: 2, want: 4},
		{name: "requested_below_hardware", requested: 2, hardware: 8, want: 2},
		{name: "requested_above_hardware", requested: 64, hardware: 8, want: 8},
		{name: "requested_above_floor_on_small_machine", requested: 6, hardware: 1, want: 4},
		{name: "single_thread", requested: 1, hardware: 32, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Threads(tt.requested, tt.hardware))
		})
	}
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name         string
		files        int
		requested    int
		hardware     int
		wantPerChunk int
		wantSizes    []int
	}{
		{name: "seven_files_two_threads", files: 7, requested: 2, hardware: 8, wantPerChunk: 4, wantSizes: []int{4, 3}},
		{name: "few_files_use_minimum_chunk", files: 5, requested: 0, hardware: 8, wantPerChunk: 3, wantSizes: []int{3, 2}},
		{name: "one_file", files: 1, requested: 0, hardware: 8, wantPerChunk: 3, wantSizes: []int{1}},
		{name: "no_files", files: 0, requested: 0, hardware: 8, wantPerChunk: 3, wantSizes: nil},
		{name: "even_split", files: 40, requested: 4, hardware: 4, wantPerChunk: 10, wantSizes: []int{10, 10, 10, 10}},
		{name: "rounding_down_adds_a_chunk", files: 41, requested: 4, hardware: 4, wantPerChunk: 10, wantSizes: []int{10, 10, 10, 10, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := fileNames(tt.files)
			plan := NewPlan(files, tt.requested, tt.hardware)

			assert.Equal(t, tt.wantPerChunk, plan.FilesPerChunk, "files per chunk")
			require.Equal(t, len(tt.wantSizes), plan.ChunkCount(), "chunk count")

			var flat []string
			for i, chunk := range plan.Chunks {
				assert.Len(t, chunk, tt.wantSizes[i], "chunk %d size", i)
				flat = append(flat, chunk...)
			}
			if tt.files > 0 {
				assert.Equal(t, files, flat, "chunks are contiguous and keep input order")
			}
		})
	}
}

func TestRunAnalyzesEveryFileOnce(t *testing.T) {
	ctx := testContext(t)
	files := fileNames(23)

	var (
		mu   sync.Mutex
		seen = map[string]int{}
	)
	s := New(func(ctx context.Context, chunk []string) (int, string) {
		mu.Lock()
		defer mu.Unlock()
		for _, f := range chunk {
			seen[f]++
		}
		return 0, ""
	}, 3)
	s.Hardware = 8

	status, err := s.Run(ctx, files)

	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Equal(t, StateSucceeded, s.State())
	require.Len(t, seen, len(files))
	for _, f := range files {
		assert.Equal(t, 1, seen[f], "%s analyzed once", f)
	}
	assert.Len(t, s.Results(), NewPlan(files, 3, 8).ChunkCount())
}

func TestRunSoftFailuresAreSummed(t *testing.T) {
	ctx := testContext(t)
	s := New(func(ctx context.Context, chunk []string) (int, string) {
		return len(chunk) % 2, ""
	}, 2)
	s.Hardware = 8

	// chunks of 4 and 3
	status, err := s.Run(ctx, fileNames(7))

	require.NoError(t, err, "soft failures are not errors")
	assert.Equal(t, 1, status)
	assert.Equal(t, StateSucceeded, s.State())
}

func TestRunHardFailureWaitsForAllChunks(t *testing.T) {
	ctx := testContext(t)
	files := fileNames(12)

	var calls atomic.Int32
	s := New(func(ctx context.Context, chunk []string) (int, string) {
		calls.Add(1)
		if chunk[0] == files[0] {
			return 2, "parse error in f00.cc"
		}
		if chunk[0] == files[6] {
			return 1, "second failure"
		}
		return 0, ""
	}, 4)
	s.Hardware = 4

	status, err := s.Run(ctx, files)

	require.Error(t, err)
	var herr *HardFailureError
	require.True(t, errors.As(err, &herr), "should be a HardFailureError")
	assert.Equal(t, 0, herr.Chunk, "the first failing chunk in chunk order is reported")
	assert.Equal(t, 2, herr.Status)
	assert.Equal(t, 2, status)
	assert.Contains(t, herr.Error(), "parse error in f00.cc")
	assert.Equal(t, int32(4), calls.Load(), "every chunk runs to completion")
	assert.Equal(t, StateFailedHard, s.State())
}

func TestRunReportsFirstFailureInChunkOrder(t *testing.T) {
	ctx := testContext(t)
	files := fileNames(9)

	// chunk 0 fails only after chunk 1 has already failed
	chunk1Done := make(chan struct{})
	s := New(func(ctx context.Context, chunk []string) (int, string) {
		switch chunk[0] {
		case files[0]:
			<-chunk1Done
			return 3, "late failure in f00.cc"
		case files[3]:
			defer close(chunk1Done)
			return 1, "early failure in f03.cc"
		}
		return 0, ""
	}, 3)
	s.Hardware = 3

	status, err := s.Run(ctx, files)

	var herr *HardFailureError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 0, herr.Chunk, "chunk order wins over completion order")
	assert.Equal(t, 3, status)
	assert.Contains(t, herr.Diagnostics, "late failure")
}

func TestRunLastChunkHardFailure(t *testing.T) {
	ctx := testContext(t)
	files := fileNames(9)

	s := New(func(ctx context.Context, chunk []string) (int, string) {
		if chunk[0] == files[6] {
			return 5, "failure on the calling goroutine"
		}
		return 0, ""
	}, 3)
	s.Hardware = 3

	status, err := s.Run(ctx, files)

	var herr *HardFailureError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 2, herr.Chunk)
	assert.Equal(t, 5, status)
	assert.Equal(t, StateFailedHard, s.State())
}

func TestChunkResultErr(t *testing.T) {
	assert.NoError(t, ChunkResult{Index: 1, Status: 2}.Err(), "soft failure")
	assert.NoError(t, ChunkResult{Index: 1, Diagnostics: "note"}.Err(), "diagnostics with a zero status")

	err := ChunkResult{Index: 1, Files: []string{"a.cc"}, Status: 2, Diagnostics: "boom"}.Err()
	var herr *HardFailureError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 1, herr.Chunk)
	assert.Equal(t, []string{"a.cc"}, herr.Files)
}

func TestRunPanicIsHardFailure(t *testing.T) {
	ctx := testContext(t)
	files := fileNames(9)

	s := New(func(ctx context.Context, chunk []string) (int, string) {
		if chunk[0] == files[3] {
			panic("matcher blew up")
		}
		return 0, ""
	}, 3)
	s.Hardware = 3

	_, err := s.Run(ctx, files)

	var herr *HardFailureError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 1, herr.Chunk)
	assert.Contains(t, herr.Diagnostics, "matcher blew up")
}

func TestRunNoFiles(t *testing.T) {
	calls := 0
	s := New(func(ctx context.Context, chunk []string) (int, string) {
		calls++
		return 0, ""
	}, 0)

	assert.Equal(t, StateIdle, s.State())
	status, err := s.Run(testContext(t), nil)

	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Zero(t, calls)
	assert.Equal(t, StateSucceeded, s.State())
}
