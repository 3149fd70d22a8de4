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

package merge

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/replace"
)

// ⚔️ ConflictReport names an edit that was rejected and the already accepted
// edit it collided with.
type ConflictReport struct {
	Path     string
	Rejected replace.Replacement
	Existing replace.Replacement
}

func (c ConflictReport) String() string {
	return fmt.Sprintf("%s: edit [%d,%d) %q conflicts with accepted edit [%d,%d) %q",
		c.Path,
		c.Rejected.Offset, c.Rejected.End(), c.Rejected.Text,
		c.Existing.Offset, c.Existing.End(), c.Existing.Text)
}

// 📦 AtomicFileChange is the merge outcome for one file. Edits are sorted and
// pairwise non-overlapping. A file with any conflict is not written at all.
type AtomicFileChange struct {
	Path      string
	Edits     []replace.Replacement
	Conflicts []ConflictReport
}

// Clean reports whether the change may be applied.
func (c *AtomicFileChange) Clean() bool {
	return len(c.Conflicts) == 0
}

// 🔀 Merge accepts each candidate in order unless it overlaps an edit already
// accepted. Rejected edits are reported and logged; merging never stops early.
func Merge(ctx context.Context, set FileEditSet) *AtomicFileChange {
	logger := zerolog.Ctx(ctx)

	candidates := set.Replacements
	if !replace.IsSorted(candidates) {
		candidates = slices.Clone(candidates)
		replace.Sort(candidates)
	}

	change := &AtomicFileChange{
		Path:  set.Path,
		Edits: make([]replace.Replacement, 0, len(candidates)),
	}

	for _, c := range candidates {
		if existing, ok := findOverlap(change.Edits, c); ok {
			report := ConflictReport{Path: set.Path, Rejected: c, Existing: existing}
			change.Conflicts = append(change.Conflicts, report)
			logger.Error().
				Str("file", set.Path).
				Int("offset", c.Offset).
				Int("end", c.End()).
				Int("existing_offset", existing.Offset).
				Int("existing_end", existing.End()).
				Msg("conflicting replacement rejected")
			continue
		}
		change.Edits = append(change.Edits, c)
	}

	return change
}

// findOverlap scans accepted edits from the back. Their ends never decrease,
// so once an end lies before c.Offset nothing earlier can overlap c.
func findOverlap(accepted []replace.Replacement, c replace.Replacement) (replace.Replacement, bool) {
	for i := len(accepted) - 1; i >= 0; i-- {
		if accepted[i].End() < c.Offset {
			break
		}
		if replace.Overlaps(accepted[i], c) {
			return accepted[i], true
		}
	}
	return replace.Replacement{}, false
}

// 🔀 MergeAll merges every set. ok is false when any file had a conflict;
// the clean changes are still returned so they can be applied.
func MergeAll(ctx context.Context, sets []FileEditSet) ([]*AtomicFileChange, bool) {
	changes := make([]*AtomicFileChange, 0, len(sets))
	ok := true
	for _, set := range sets {
		change := Merge(ctx, set)
		if !change.Clean() {
			ok = false
		}
		changes = append(changes, change)
	}
	return changes, ok
}

// Conflicts flattens the reports of all changes in file order.
func Conflicts(changes []*AtomicFileChange) []ConflictReport {
	var out []ConflictReport
	for _, c := range changes {
		out = append(out, c.Conflicts...)
	}
	return out
}
