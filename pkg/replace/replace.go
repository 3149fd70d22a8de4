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

package replace

import (
	"cmp"
	"fmt"
	"slices"

	"gitlab.com/tozd/go/errors"
)

// ✏️ Replacement is a single proposed edit: replace Length bytes at Offset of
// FilePath with Text. Offsets always refer to the original, unedited content.
type Replacement struct {
	FilePath string // File the edit targets (any spelling, canonicalized later)
	Offset   int    // Byte offset into the original content
	Length   int    // Number of bytes removed, 0 for a pure insertion
	Text     string // Bytes inserted in place of the removed span
}

// End returns the exclusive end of the removed span.
func (r Replacement) End() int {
	return r.Offset + r.Length
}

// IsInsertion reports whether the edit removes nothing.
func (r Replacement) IsInsertion() bool {
	return r.Length == 0
}

// 🔍 Validate checks the value is usable at all
func (r Replacement) Validate() error {
	if r.FilePath == "" {
		return errors.New("replacement has no file path")
	}
	if r.Offset < 0 {
		return errors.Errorf("replacement for %s has negative offset %d", r.FilePath, r.Offset)
	}
	if r.Length < 0 {
		return errors.Errorf("replacement for %s has negative length %d", r.FilePath, r.Length)
	}
	return nil
}

func (r Replacement) String() string {
	return fmt.Sprintf("%s[%d,%d)=%q", r.FilePath, r.Offset, r.End(), r.Text)
}

// 📏 Compare orders replacements by offset, then length, then path, then text.
// An insertion sorts before a removal starting at the same offset.
func Compare(a, b Replacement) int {
	if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Length, b.Length); c != 0 {
		return c
	}
	if c := cmp.Compare(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	return cmp.Compare(a.Text, b.Text)
}

// Less is Compare(a, b) < 0.
func Less(a, b Replacement) bool {
	return Compare(a, b) < 0
}

// Sort stable-sorts edits in place by Compare.
func Sort(edits []Replacement) {
	slices.SortStableFunc(edits, Compare)
}

// IsSorted reports whether edits are already in Compare order.
func IsSorted(edits []Replacement) bool {
	return slices.IsSortedFunc(edits, Compare)
}

// ⚔️ Overlaps reports whether two edits touch the same bytes. Spans are
// half-open, so edits that merely abut never overlap.
//
//   - two insertions overlap only at the same offset
//   - an insertion at p overlaps [s,e) only when s < p < e
//   - two removals overlap when a.s < b.e and b.s < a.e
func Overlaps(a, b Replacement) bool {
	switch {
	case a.IsInsertion() && b.IsInsertion():
		return a.Offset == b.Offset
	case a.IsInsertion():
		return b.Offset < a.Offset && a.Offset < b.End()
	case b.IsInsertion():
		return a.Offset < b.Offset && b.Offset < a.End()
	default:
		return a.Offset < b.End() && b.Offset < a.End()
	}
}

// 📦 ReplacementBatch is the set of edits one analysis produced for one
// translation unit.
type ReplacementBatch struct {
	SourceFile   string
	Replacements []Replacement
}

// 🔧 Fix is one way to resolve a Diagnostic.
type Fix struct {
	Name         string
	Replacements []Replacement
}

// 🩺 Diagnostic is a finding with zero or more alternative fixes.
type Diagnostic struct {
	Name       string
	Message    string
	FilePath   string
	FileOffset int
	Fixes      []Fix
}

// FirstFix returns the replacements of the first fix, or nil when there is
// none. Later fixes are alternatives and are never applied.
func (d Diagnostic) FirstFix() []Replacement {
	if len(d.Fixes) == 0 {
		return nil
	}
	return d.Fixes[0].Replacements
}

// 📦 DiagnosticBatch groups the diagnostics of one translation unit.
type DiagnosticBatch struct {
	SourceFile  string
	Diagnostics []Diagnostic
}
