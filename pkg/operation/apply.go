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

package operation

import (
	"bytes"
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/apply"
	"github.com/walteh/xform/pkg/log"
	"github.com/walteh/xform/pkg/merge"
	"github.com/walteh/xform/pkg/status"
	"github.com/walteh/xform/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// 📥 ApplyOperation applies an edit store to the files it names
type ApplyOperation struct {
	BaseOperation

	// Store is the edit store to read
	Store string
	// KeepStore leaves the store in place after a successful apply
	KeepStore bool
}

// 📊 ApplyResult is what an apply did
type ApplyResult struct {
	Changes      []*merge.AtomicFileChange
	Files        []status.FileInfo
	Diffs        map[string]string // dry run only
	Skipped      int               // malformed store documents
	StoreDeleted bool
}

// 🏭 NewApplyOperation creates an apply of the store at path
func NewApplyOperation(opts Options, path string) *ApplyOperation {
	return &ApplyOperation{
		BaseOperation: NewBaseOperation(opts),
		Store:         path,
	}
}

// 🏃 Execute runs the apply
func (op *ApplyOperation) Execute(ctx context.Context) error {
	_, err := op.Apply(ctx)
	return err
}

// 🏃 Apply collects, groups and merges the store's edits, then rewrites every
// clean file. Files with conflicts are left untouched and reported; the
// other files are still written before ErrConflicts is returned. The store
// is deleted only when every file was applied.
func (op *ApplyOperation) Apply(ctx context.Context) (*ApplyResult, error) {
	logger := zerolog.Ctx(ctx)

	contents, err := store.Collect(ctx, op.Store)
	if err != nil {
		return nil, errors.Errorf("collecting edits: %w", err)
	}

	result := &ApplyResult{Skipped: contents.Skipped, Diffs: map[string]string{}}
	if contents.Skipped > 0 {
		op.Console.Warningf("skipped %d malformed documents in %s", contents.Skipped, op.Store)
	}

	grouper := merge.NewGrouper(op.Config.BaseDir)
	sets := grouper.Group(ctx, contents.Replacements, contents.Diagnostics)
	changes, clean := merge.MergeAll(ctx, sets)
	result.Changes = changes

	edits := 0
	for _, c := range changes {
		edits += len(c.Edits)
	}

	op.Console.StartStoreOperation(ctx, log.StoreOperation{
		Store:  op.Store,
		Files:  len(changes),
		Edits:  edits,
		DryRun: op.DryRun,
	})
	op.StatusMgr.StartOperation(ctx, len(changes))

	for i, change := range changes {
		info, diff := op.applyFile(ctx, change)
		if diff != "" {
			result.Diffs[change.Path] = diff
			op.Console.Raw(diff)
		}
		op.StatusMgr.TrackFile(ctx, info)
		op.Console.LogFileOperation(ctx, fileOperation(info))
		result.Files = append(result.Files, info)
		op.StatusMgr.UpdateProgress(ctx, i+1)
	}

	op.StatusMgr.FinishOperation(ctx)
	op.Console.EndStoreOperation(ctx)
	op.Console.LogNewline()

	for _, c := range merge.Conflicts(changes) {
		op.Console.Error(c.String())
	}

	var conflicted, failed int
	for _, f := range result.Files {
		switch {
		case f.Status == status.StatusConflicted:
			conflicted++
		case f.Status.Failed():
			failed++
		}
	}

	logger.Info().
		Int("files", len(changes)).
		Int("edits", edits).
		Int("conflicted", conflicted).
		Int("failed", failed).
		Bool("dry_run", op.DryRun).
		Msg("apply finished")

	if !clean || conflicted > 0 {
		return result, errors.Errorf("%d of %d files have conflicting edits: %w", conflicted, len(changes), ErrConflicts)
	}
	if failed > 0 {
		return result, errors.Errorf("%d of %d files: %w", failed, len(changes), ErrFailedFiles)
	}

	if !op.DryRun && !op.KeepStore {
		if err := store.Delete(ctx, op.Store); err != nil {
			return result, errors.Errorf("removing edit store: %w", err)
		}
		result.StoreDeleted = true
	}

	return result, nil
}

// applyFile rewrites one file and reports its outcome. Nothing is written
// unless the change is clean, fits the current content and formats.
func (op *ApplyOperation) applyFile(ctx context.Context, change *merge.AtomicFileChange) (status.FileInfo, string) {
	info := status.FileInfo{
		Path:      change.Path,
		Edits:     len(change.Edits),
		Conflicts: len(change.Conflicts),
	}

	if !change.Clean() {
		info.Status = status.StatusConflicted
		return info, ""
	}

	content, err := op.Files.ReadFile(ctx, change.Path)
	if err != nil {
		info.Status = status.StatusFailed
		if errors.Is(err, os.ErrNotExist) {
			info.Status = status.StatusMissing
		}
		info.Error = err
		return info, ""
	}

	out, err := apply.ApplyChange(content, change)
	if err != nil {
		var stale *apply.ApplyError
		if errors.As(err, &stale) {
			info.Status = status.StatusStale
		} else {
			info.Status = status.StatusFailed
		}
		info.Error = err
		return info, ""
	}

	out, err = op.Formatter.Format(ctx, change.Path, out)
	if err != nil {
		info.Status = status.StatusFailed
		info.Error = err
		return info, ""
	}

	info.Checksum = status.Checksum(out)
	if bytes.Equal(out, content) {
		info.Status = status.StatusUnchanged
		return info, ""
	}

	if op.DryRun {
		info.Status = status.StatusPreviewed
		return info, UnifiedDiff(change.Path, content, out)
	}

	if op.Config.Backup {
		if err := op.Files.BackupFile(ctx, change.Path); err != nil {
			info.Status = status.StatusFailed
			info.Error = err
			return info, ""
		}
	}

	if err := op.Files.WriteFileAtomic(ctx, change.Path, out); err != nil {
		info.Status = status.StatusFailed
		info.Error = err
		if op.Config.Backup {
			// the write may have replaced the content before failing
			if rerr := op.Files.RestoreFile(ctx, change.Path); rerr != nil {
				zerolog.Ctx(ctx).Error().Err(rerr).Str("path", change.Path).Msg("restoring backup after failed write")
				info.Error = errors.Errorf("%w (restoring backup: %s)", err, rerr.Error())
			}
		}
		return info, ""
	}

	info.Status = status.StatusApplied
	return info, ""
}

func fileOperation(info status.FileInfo) log.FileOperation {
	return log.FileOperation{
		Path:         info.Path,
		Status:       info.Status.String(),
		Edits:        info.Edits,
		Conflicts:    info.Conflicts,
		IsChanged:    info.Status == status.StatusApplied || info.Status == status.StatusPreviewed,
		IsConflicted: info.Status == status.StatusConflicted,
		IsStale:      info.Status == status.StatusStale,
		IsFailed:     info.Status == status.StatusMissing || info.Status == status.StatusFailed,
	}
}
