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

package status

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/xform/pkg/log"
	"gitlab.com/tozd/go/errors"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.New(zerolog.TestWriter{T: t})
	return New(dir, &logger), dir
}

func TestFileStatus(t *testing.T) {
	tests := []struct {
		status FileStatus
		name   string
		failed bool
	}{
		{StatusUnknown, "unknown", false},
		{StatusApplied, "applied", false},
		{StatusUnchanged, "unchanged", false},
		{StatusConflicted, "conflicted", true},
		{StatusStale, "stale", true},
		{StatusMissing, "missing", true},
		{StatusFailed, "failed", true},
		{StatusPreviewed, "previewed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.failed, tt.status.Failed())
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps_existing_mode", func(t *testing.T) {
		mgr, dir := newTestManager(t)
		path := filepath.Join(dir, "run.sh")
		require.NoError(t, os.WriteFile(path, []byte("echo old\n"), 0o755))

		require.NoError(t, mgr.WriteFileAtomic(ctx, path, []byte("echo new\n")))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "echo new\n", string(got))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm(), "mode should be preserved")
	})

	t.Run("relative_to_base_dir", func(t *testing.T) {
		mgr, dir := newTestManager(t)

		require.NoError(t, mgr.WriteFileAtomic(ctx, "new.txt", []byte("hello")))

		got, err := mgr.ReadFile(ctx, "new.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))

		exists, err := mgr.FileExists(ctx, filepath.Join(dir, "new.txt"))
		require.NoError(t, err)
		assert.True(t, exists, "absolute and relative paths name the same file")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp files left behind")
	})
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	mgr, dir := newTestManager(t)
	path := filepath.Join(dir, "a.cc")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o600))

	require.NoError(t, mgr.BackupFile(ctx, path))
	require.NoError(t, mgr.WriteFileAtomic(ctx, path, []byte("changed")))

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "original", string(backup))

	info, err := os.Stat(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "backup keeps the mode")

	require.NoError(t, mgr.RestoreFile(ctx, path))
	restored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(restored))

	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "backup removed after restore")

	err = mgr.RestoreFile(ctx, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup file does not exist")

	assert.NoError(t, mgr.BackupFile(ctx, filepath.Join(dir, "missing.cc")), "missing files are not backed up")
}

func TestReadFileMissing(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.ReadFile(context.Background(), "missing.cc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	exists, err := mgr.FileExists(context.Background(), "missing.cc")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTracking(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	files := []FileInfo{
		{Path: "/src/c.cc", Status: StatusConflicted, Edits: 1, Conflicts: 2},
		{Path: "/src/a.cc", Status: StatusApplied, Edits: 3},
		{Path: "/src/b.cc", Status: StatusUnchanged, Edits: 1},
		{Path: "/src/d.cc", Status: StatusStale, Edits: 1},
		{Path: "/src/e.cc", Status: StatusFailed, Error: errors.New("disk full")},
		{Path: "/src/f.cc", Status: StatusMissing},
	}

	var wg sync.WaitGroup
	for _, f := range files {
		wg.Add(1)
		go func(f FileInfo) {
			defer wg.Done()
			mgr.TrackFile(ctx, f)
		}(f)
	}
	wg.Wait()

	got, err := mgr.GetFileInfo(ctx, "/src/a.cc")
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, got.Status)

	_, err = mgr.GetFileInfo(ctx, "/src/nope.cc")
	assert.Error(t, err)

	list, err := mgr.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 6)
	for i, want := range []string{"/src/a.cc", "/src/b.cc", "/src/c.cc", "/src/d.cc", "/src/e.cc", "/src/f.cc"} {
		assert.Equal(t, want, list[i].Path, "files are sorted by path")
	}

	assert.Equal(t, log.Summary{
		Applied:    1,
		Unchanged:  1,
		Conflicted: 1,
		Stale:      1,
		Failed:     2,
		Edits:      6,
		Conflicts:  2,
	}, mgr.Summary())
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	mgr.StartOperation(ctx, 3)
	mgr.UpdateProgress(ctx, 2)
	assert.Equal(t, 3, mgr.total)
	assert.Equal(t, 2, mgr.processed)
	mgr.FinishOperation(ctx)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum([]byte("a")), Checksum([]byte("a")))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
	assert.Len(t, Checksum(nil), 64)
}
