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

package text

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// SimpleTextReplacer implements TextReplacer with literal matching
type SimpleTextReplacer struct{}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{}
}

// FindReplacements implements TextReplacer.FindReplacements. Each rule finds
// its own non-overlapping occurrences; spans from different rules may
// overlap and are left for the merger to reject.
func (r *SimpleTextReplacer) FindReplacements(ctx context.Context, path string, content []byte, rules []ReplacementRule) ([]Span, error) {
	var spans []Span
	for i, rule := range rules {
		// Skip empty rules
		if rule.FromText == "" {
			continue
		}

		ok, err := MatchFile(rule.FileFilterGlob, path)
		if err != nil {
			return nil, errors.Errorf("rule %d: %w", i, err)
		}
		if !ok {
			continue
		}

		from := []byte(rule.FromText)
		for start := 0; start <= len(content); {
			idx := bytes.Index(content[start:], from)
			if idx < 0 {
				break
			}
			spans = append(spans, Span{Offset: start + idx, Length: len(from), Text: rule.ToText})
			start += idx + len(from)
		}
	}

	slices.SortStableFunc(spans, func(a, b Span) int {
		return a.Offset - b.Offset
	})

	zerolog.Ctx(ctx).Trace().Str("file", path).Int("spans", len(spans)).Msg("literal rules matched")
	return spans, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from_text is required", i)
		}
		if rule.FileFilterGlob == "" {
			return errors.Errorf("rule %d: file_filter_glob is required", i)
		}
		if !doublestar.ValidatePattern(rule.FileFilterGlob) {
			return errors.Errorf("rule %d: invalid glob %q", i, rule.FileFilterGlob)
		}
	}
	return nil
}

// MatchFile reports whether path matches a doublestar glob. Patterns without
// a slash match the base name, so "*.go" applies in every directory.
func MatchFile(pattern, path string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return false, errors.Errorf("matching glob %q: %w", pattern, doublestar.ErrBadPattern)
	}
	name := filepath.ToSlash(path)
	if !strings.Contains(pattern, "/") {
		name = filepath.Base(path)
	}
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		return false, errors.Errorf("matching glob %q: %w", pattern, err)
	}
	return ok, nil
}
