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

package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// ✍️ Writer appends batches to a store. It is the one shared mutable resource
// of a parallel run: every append encodes a complete document first, then
// opens, writes and closes the file while holding the lock, so documents from
// different workers never interleave.
type Writer struct {
	path   string
	format Format

	mu      sync.Mutex
	batches int
}

// 🏭 NewWriter creates a writer for path. The file is not touched until the
// first append or Truncate.
func NewWriter(path string) (*Writer, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving store path: %w", err)
	}
	return &Writer{path: abs, format: format}, nil
}

// Path is the absolute store path.
func (w *Writer) Path() string {
	return w.path
}

// Batches is the number of documents this writer appended.
func (w *Writer) Batches() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batches
}

// 🧹 Truncate creates the store or empties an existing one.
func (w *Writer) Truncate(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return errors.Errorf("creating store directory: %w", err)
	}
	if err := os.WriteFile(w.path, nil, 0o644); err != nil {
		return errors.Errorf("truncating edit store: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("store", w.path).Msg("truncated edit store")
	return nil
}

// 📝 Append writes one replacement batch. Empty batches are not written.
func (w *Writer) Append(ctx context.Context, batch replace.ReplacementBatch) error {
	if len(batch.Replacements) == 0 {
		return nil
	}
	doc, err := replacementDocument(batch)
	if err != nil {
		return errors.Errorf("encoding batch for %s: %w", batch.SourceFile, err)
	}
	return w.appendDocument(ctx, doc)
}

// 📝 AppendDiagnostics writes one diagnostic batch. Empty batches are not written.
func (w *Writer) AppendDiagnostics(ctx context.Context, batch replace.DiagnosticBatch) error {
	if len(batch.Diagnostics) == 0 {
		return nil
	}
	doc, err := diagnosticDocument(batch)
	if err != nil {
		return errors.Errorf("encoding diagnostics for %s: %w", batch.SourceFile, err)
	}
	return w.appendDocument(ctx, doc)
}

func (w *Writer) appendDocument(ctx context.Context, doc *wireDocument) error {
	var (
		data []byte
		err  error
	)
	switch w.format {
	case FormatMsgpack:
		data, err = encodeMsgpackDocument(doc)
	default:
		data, err = encodeYAMLDocument(doc)
	}
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Errorf("opening edit store: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Errorf("appending to edit store: %w", err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing edit store: %w", err)
	}

	w.batches++
	zerolog.Ctx(ctx).Trace().
		Str("store", w.path).
		Str("source", doc.MainSourceFile).
		Int("bytes", len(data)).
		Msg("appended document")
	return nil
}

// 🗑️ Delete removes a consumed store. A store that is already gone is fine.
func Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Errorf("deleting edit store: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("store", path).Msg("deleted edit store")
	return nil
}
