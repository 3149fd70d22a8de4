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

package matcher

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/replace"
	"github.com/walteh/xform/pkg/text"
)

// BatchWriter is where the analyzer appends its results. *store.Writer
// implements it.
type BatchWriter interface {
	Append(ctx context.Context, batch replace.ReplacementBatch) error
}

// 🔬 Analyzer runs a set of matchers over chunks of files and appends one
// batch per file with matches.
type Analyzer struct {
	Registry *Registry
	Matchers []string            // matcher ids, in order
	Args     map[string][]string // per-matcher arguments
	Writer   BatchWriter
}

// Analyze has the schedule.AnalyzeFunc signature. Matchers are instantiated
// once for the chunk. An unreadable input file is a soft failure: it is
// logged and counted in the status without diagnostics. Matcher and store
// errors are hard failures and are returned as diagnostics.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (int, string) {
	logger := zerolog.Ctx(ctx)

	matchers := make([]Matcher, 0, len(a.Matchers))
	for _, id := range a.Matchers {
		m, err := a.Registry.Create(id, a.Args[id])
		if err != nil {
			return 1, err.Error()
		}
		matchers = append(matchers, m)
	}

	status := 0
	var diagnostics []string

	for _, file := range files {
		logger.Info().Str("file", file).Msg("processing file")

		content, err := os.ReadFile(file)
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("skipping unreadable file")
			status++
			continue
		}

		var found []replace.Replacement
		failed := false
		for _, m := range matchers {
			rs, err := m.Match(ctx, file, content)
			if err != nil {
				diagnostics = append(diagnostics, fmt.Sprintf("%s: matcher %s: %v", file, m.ID(), err))
				failed = true
				break
			}
			found = append(found, rs...)
		}
		if failed {
			status++
			continue
		}
		if len(found) == 0 {
			continue
		}

		replace.Sort(found)
		logReplacements(ctx, file, content, found)

		if err := a.Writer.Append(ctx, replace.ReplacementBatch{SourceFile: file, Replacements: found}); err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %v", file, err))
			status++
		}
	}

	return status, strings.Join(diagnostics, "\n")
}

// logReplacements logs each edit as path:line:col: "old" --> "new".
func logReplacements(ctx context.Context, file string, content []byte, rs []replace.Replacement) {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() > zerolog.InfoLevel {
		return
	}
	idx := text.NewLineIndex(content)
	for _, r := range rs {
		old := ""
		if r.End() <= len(content) {
			old = string(content[r.Offset:r.End()])
		}
		logger.Info().Msgf("Editing file %s:%s: %q --> %q", file, idx.Position(r.Offset), old, r.Text)
	}
}
