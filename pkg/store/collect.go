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

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// 📚 Contents is everything a store held, in encounter order.
type Contents struct {
	Replacements []replace.ReplacementBatch
	Diagnostics  []replace.DiagnosticBatch
	Skipped      int // malformed documents that were dropped
}

// Empty reports whether the store produced no batches at all.
func (c *Contents) Empty() bool {
	return len(c.Replacements) == 0 && len(c.Diagnostics) == 0
}

// ReplacementCount is the number of plain replacements across all batches.
func (c *Contents) ReplacementCount() int {
	n := 0
	for _, b := range c.Replacements {
		n += len(b.Replacements)
	}
	return n
}

// 🎯 Collect reads every batch from the store at path. The extension picks
// the decoder; an unknown one is a *FormatError. An empty file yields empty
// Contents. Malformed documents are logged, counted in Skipped and dropped;
// the documents around them are still returned.
func Collect(ctx context.Context, path string) (*Contents, error) {
	logger := zerolog.Ctx(ctx)

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading edit store: %w", err)
	}

	contents := &Contents{}
	if len(data) == 0 {
		logger.Debug().Str("store", path).Msg("edit store is empty")
		return contents, nil
	}

	switch format {
	case FormatMsgpack:
		collectMsgpack(ctx, path, data, contents)
	default:
		collectYAML(ctx, path, data, contents)
	}

	logger.Debug().
		Str("store", path).
		Int("replacement_batches", len(contents.Replacements)).
		Int("diagnostic_batches", len(contents.Diagnostics)).
		Int("skipped", contents.Skipped).
		Msg("collected edit store")

	return contents, nil
}

var errUnterminated = errors.Base("document is missing its \"...\" terminator")

func collectYAML(ctx context.Context, path string, data []byte, contents *Contents) {
	logger := zerolog.Ctx(ctx)

	for i, chunk := range splitYAML(data) {
		doc, err := decodeYAMLDocument(chunk.data)
		if err == nil && !doc.empty() {
			if chunk.terminated {
				err = contents.add(doc)
			} else {
				// writers close every document with "..."; without it the
				// document may have been cut mid-append
				err = errors.Errorf("document at line %d: %w", chunk.line, errUnterminated)
			}
		}
		if err != nil {
			contents.Skipped++
			logger.Warn().
				Err(err).
				Str("store", path).
				Int("document", i).
				Int("line", chunk.line).
				Msg("skipping malformed document in edit store")
		}
	}
}

func collectMsgpack(ctx context.Context, path string, data []byte, contents *Contents) {
	logger := zerolog.Ctx(ctx)

	frames, err := splitMsgpack(data)
	for i, frame := range frames {
		doc, derr := decodeMsgpackDocument(frame.body)
		if derr == nil && !doc.empty() {
			derr = contents.add(doc)
		}
		if derr != nil {
			contents.Skipped++
			logger.Warn().
				Err(derr).
				Str("store", path).
				Int("document", i).
				Int("byte", frame.offset).
				Msg("skipping malformed document in edit store")
		}
	}

	if err != nil {
		contents.Skipped++
		logger.Warn().
			Err(err).
			Str("store", path).
			Int("document", len(frames)).
			Msg("skipping truncated tail of edit store")
	}
}
