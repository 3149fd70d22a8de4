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
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// 📂 FileEditSet is every candidate edit for one canonical file, sorted.
type FileEditSet struct {
	Path         string
	Replacements []replace.Replacement
}

// 🗂️ Grouper buckets replacements by the file they really touch. Different
// spellings of one file (relative, absolute, through a symlink) land in the
// same bucket.
type Grouper struct {
	// BaseDir resolves relative paths. Empty means the working directory.
	BaseDir string

	resolved map[string]string
	warned   map[string]struct{}
}

// 🏭 NewGrouper creates a grouper resolving relative paths against baseDir.
func NewGrouper(baseDir string) *Grouper {
	return &Grouper{BaseDir: baseDir}
}

// 🔍 Canonicalize returns the absolute, symlink-free path of an existing
// regular file.
func (g *Grouper) Canonicalize(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty file path")
	}
	if !filepath.IsAbs(path) && g.BaseDir != "" {
		path = filepath.Join(g.BaseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("making %s absolute: %w", path, err)
	}
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", abs, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", errors.Errorf("inspecting %s: %w", target, err)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Errorf("%s is not a regular file", target)
	}
	return target, nil
}

// resolve caches Canonicalize per spelling and warns once per spelling that
// cannot be resolved.
func (g *Grouper) resolve(ctx context.Context, path string) (string, bool) {
	if g.resolved == nil {
		g.resolved = make(map[string]string)
		g.warned = make(map[string]struct{})
	}
	if canonical, ok := g.resolved[path]; ok {
		return canonical, canonical != ""
	}

	canonical, err := g.Canonicalize(path)
	if err != nil {
		if _, done := g.warned[path]; !done {
			g.warned[path] = struct{}{}
			zerolog.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("dropping replacements for unresolvable file")
		}
		canonical = ""
	}
	g.resolved[path] = canonical
	return canonical, canonical != ""
}

type dedupKey struct {
	path   string
	offset int
	length int
	text   string
}

// 🎯 Group canonicalizes and buckets the replacements of all batches. Only
// the first fix of each diagnostic is used, and diagnostic replacements are
// deduplicated by value; plain batch replacements are kept as they are so
// duplicates among them surface as conflicts. The result is sorted by path
// and each set by replace.Compare, whatever the input order was.
func (g *Grouper) Group(ctx context.Context, batches []replace.ReplacementBatch, diagnostics []replace.DiagnosticBatch) []FileEditSet {
	logger := zerolog.Ctx(ctx)
	byFile := make(map[string][]replace.Replacement)
	dropped := 0

	for _, batch := range batches {
		for _, r := range batch.Replacements {
			canonical, ok := g.resolve(ctx, r.FilePath)
			if !ok {
				dropped++
				continue
			}
			r.FilePath = canonical
			byFile[canonical] = append(byFile[canonical], r)
		}
	}

	seen := make(map[dedupKey]struct{})
	duplicates := 0
	for _, batch := range diagnostics {
		for _, d := range batch.Diagnostics {
			for _, r := range d.FirstFix() {
				canonical, ok := g.resolve(ctx, r.FilePath)
				if !ok {
					dropped++
					continue
				}
				key := dedupKey{path: canonical, offset: r.Offset, length: r.Length, text: r.Text}
				if _, dup := seen[key]; dup {
					duplicates++
					continue
				}
				seen[key] = struct{}{}
				r.FilePath = canonical
				byFile[canonical] = append(byFile[canonical], r)
			}
		}
	}

	sets := make([]FileEditSet, 0, len(byFile))
	for path, edits := range byFile {
		replace.Sort(edits)
		sets = append(sets, FileEditSet{Path: path, Replacements: edits})
	}
	slices.SortFunc(sets, func(a, b FileEditSet) int {
		return strings.Compare(a.Path, b.Path)
	})

	logger.Debug().
		Int("files", len(sets)).
		Int("dropped", dropped).
		Int("duplicates", duplicates).
		Msg("grouped replacements")

	return sets
}
