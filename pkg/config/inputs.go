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

package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// rootPatterns anchors relative patterns that name a directory to root.
// Patterns without a slash are left alone and match base names anywhere.
func rootPatterns(root string, patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, rootPattern(root, p))
	}
	return out
}

func rootPattern(root, pattern string) string {
	pattern = filepath.ToSlash(pattern)
	if root == "" || !strings.Contains(pattern, "/") || strings.HasPrefix(pattern, "/") {
		return pattern
	}
	return filepath.ToSlash(filepath.Join(root, filepath.FromSlash(pattern)))
}

// 📂 ExpandInputs returns the absolute, deduplicated list of files to
// analyze: the literal input files in order, then every regular file
// matching an include glob in lexical order, minus anything matching an
// exclude glob. Literal files are kept even if they do not exist; analysis
// reports them.
func (cfg *Config) ExpandInputs(ctx context.Context) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Errorf("getting working directory: %w", err)
		}
		root = wd
	}

	var candidates []string
	for _, f := range cfg.InputFiles {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		candidates = append(candidates, filepath.Clean(f))
	}

	for _, pattern := range cfg.Include {
		matches, err := doublestar.FilepathGlob(filepath.FromSlash(rootPattern(root, anchor(pattern))), doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding include %q: %w", pattern, err)
		}
		slices.Sort(matches)
		logger.Debug().Str("pattern", pattern).Int("matches", len(matches)).Msg("expanded include glob")
		candidates = append(candidates, matches...)
	}

	excludes := rootPatterns(root, cfg.Exclude)
	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, f := range candidates {
		if seen[f] {
			continue
		}
		seen[f] = true

		excluded, err := matchesAny(excludes, f)
		if err != nil {
			return nil, err
		}
		if excluded {
			logger.Debug().Str("file", f).Msg("excluded input")
			continue
		}
		out = append(out, f)
	}

	return out, nil
}

// anchor turns a bare include like "*.cc" into "./*.cc" so it expands in
// the root directory rather than being treated as a base-name pattern.
func anchor(pattern string) string {
	if strings.Contains(filepath.ToSlash(pattern), "/") {
		return pattern
	}
	return "./" + pattern
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, p := range patterns {
		ok, err := text.MatchFile(p, path)
		if err != nil {
			return false, errors.Errorf("matching exclude: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
