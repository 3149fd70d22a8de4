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

package apply

import (
	"bytes"
	"fmt"

	"github.com/walteh/xform/pkg/merge"
	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// ErrDirtyChange is returned when asked to apply a change that has conflicts.
var ErrDirtyChange = errors.Base("change has conflicts")

// ⚠️ ApplyError reports an edit that does not fit the content, which means the
// file changed after the edits were computed.
type ApplyError struct {
	Path   string
	Offset int
	Length int
	Size   int
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("stale file %s: edit [%d,%d) is outside content of %d bytes", e.Path, e.Offset, e.Offset+e.Length, e.Size)
}

// ✂️ Apply rewrites content with sorted, non-overlapping edits in one pass.
// Offsets refer to content as given; the input is not modified.
func Apply(content []byte, edits []replace.Replacement) ([]byte, error) {
	size := len(content)
	for _, e := range edits {
		size += len(e.Text) - e.Length
	}
	if size < 0 {
		size = 0
	}

	var out bytes.Buffer
	out.Grow(size)

	cursor := 0
	for i, e := range edits {
		if e.Offset < 0 || e.Length < 0 || e.End() > len(content) {
			return nil, &ApplyError{Path: e.FilePath, Offset: e.Offset, Length: e.Length, Size: len(content)}
		}
		if e.Offset < cursor {
			return nil, errors.Errorf("edit %d at offset %d of %s starts before the end of the previous edit at %d", i, e.Offset, e.FilePath, cursor)
		}
		if i > 0 && replace.Overlaps(edits[i-1], e) {
			return nil, errors.Errorf("edit %d of %s overlaps the previous edit", i, e.FilePath)
		}
		out.Write(content[cursor:e.Offset])
		out.WriteString(e.Text)
		cursor = e.End()
	}
	out.Write(content[cursor:])

	return out.Bytes(), nil
}

// 🎯 ApplyChange applies a clean merge result.
func ApplyChange(content []byte, change *merge.AtomicFileChange) ([]byte, error) {
	if !change.Clean() {
		return nil, errors.Errorf("applying %s: %w", change.Path, ErrDirtyChange)
	}
	out, err := Apply(content, change.Edits)
	if err != nil {
		var aerr *ApplyError
		if errors.As(err, &aerr) {
			aerr.Path = change.Path
			return nil, aerr
		}
		return nil, errors.Errorf("applying %s: %w", change.Path, err)
	}
	return out, nil
}
