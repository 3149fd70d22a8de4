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
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/matcher"
	"github.com/walteh/xform/pkg/schedule"
	"github.com/walteh/xform/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// DefaultStoreName is the temporary store used when no output is given.
const DefaultStoreName = "xform_output" + store.Extension

// 🔬 TransformOperation runs matchers over the input files in parallel and
// records their edits in a store. Without an explicit output the store is
// temporary: it is applied right away and removed.
type TransformOperation struct {
	BaseOperation

	// Hardware overrides the detected CPU count; 0 detects it.
	Hardware int
}

// 📊 TransformResult is what a transform did
type TransformResult struct {
	Files     int    // files analyzed
	Status    int    // summed soft failure status
	Store     string // store written
	Temporary bool   // store was temporary
	Batches   int    // batches appended to the store
	Applied   *ApplyResult
}

// 🏭 NewTransformOperation creates a transform for the configured inputs
func NewTransformOperation(opts Options) *TransformOperation {
	return &TransformOperation{BaseOperation: NewBaseOperation(opts)}
}

// 🏃 Execute runs the transform
func (op *TransformOperation) Execute(ctx context.Context) error {
	result, err := op.Transform(ctx)
	if err != nil {
		return err
	}
	if result.Status != 0 {
		return &SoftFailureError{Status: result.Status}
	}
	return nil
}

// SoftFailureError reports input files that could not be analyzed. The rest
// of the run completed; Status is the sum the scheduler returned.
type SoftFailureError struct {
	Status int
}

func (e *SoftFailureError) Error() string {
	return plural(e.Status, "file") + " could not be analyzed"
}

// 🏃 Transform analyzes, stores and, for a temporary store, applies.
func (op *TransformOperation) Transform(ctx context.Context) (*TransformResult, error) {
	logger := zerolog.Ctx(ctx)
	cfg := op.Config

	if op.Registry == nil {
		return nil, errors.New("matcher registry is required")
	}

	files, err := cfg.ExpandInputs(ctx)
	if err != nil {
		return nil, errors.Errorf("expanding inputs: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files to analyze")
	}

	result := &TransformResult{Files: len(files), Store: cfg.Output}
	if result.Store == "" {
		dir := cfg.Root
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return nil, errors.Errorf("getting working directory: %w", err)
			}
		}
		result.Store = filepath.Join(dir, DefaultStoreName)
		result.Temporary = true
	}

	writer, err := store.NewWriter(result.Store)
	if err != nil {
		return nil, err
	}
	result.Store = writer.Path()
	if err := writer.Truncate(ctx); err != nil {
		return nil, errors.Errorf("preparing edit store: %w", err)
	}

	analyzer := &matcher.Analyzer{
		Registry: op.Registry,
		Matchers: cfg.Matchers,
		Args:     cfg.MatcherArgs,
		Writer:   writer,
	}
	sched := schedule.New(analyzer.Analyze, cfg.Threads)
	sched.Hardware = op.Hardware

	op.Console.Header("analyzing " + plural(len(files), "file") + " with " + strings.Join(cfg.Matchers, ", "))

	st, err := sched.Run(ctx, files)
	result.Status = st
	result.Batches = writer.Batches()
	if err != nil {
		var hard *schedule.HardFailureError
		if errors.As(err, &hard) {
			op.Console.Error(strings.TrimSpace(hard.Diagnostics))
		}
		if result.Temporary {
			if derr := store.Delete(ctx, result.Store); derr != nil {
				logger.Warn().Err(derr).Str("store", result.Store).Msg("removing temporary store")
			}
		}
		return result, errors.Errorf("analyzing files: %w", err)
	}
	if st != 0 {
		op.Console.Warningf("%s could not be analyzed", plural(st, "file"))
	}

	logger.Info().
		Int("files", len(files)).
		Int("batches", result.Batches).
		Int("status", st).
		Str("store", result.Store).
		Msg("analysis finished")

	if !result.Temporary {
		op.Console.Successf("wrote %s to %s", plural(result.Batches, "batch"), result.Store)
		op.Console.Infof("run 'xform apply %s' to apply them", result.Store)
		return result, nil
	}

	apply := NewApplyOperation(op.Options, result.Store)
	applied, err := apply.Apply(ctx)
	result.Applied = applied
	if err != nil {
		op.Console.Warningf("edits kept in %s", result.Store)
		return result, err
	}

	if op.DryRun {
		if err := store.Delete(ctx, result.Store); err != nil {
			return result, errors.Errorf("removing temporary store: %w", err)
		}
	}

	return result, nil
}

func plural(n int, noun string) string {
	switch {
	case n == 1:
		return "1 " + noun
	case strings.HasSuffix(noun, "ch"):
		return strconv.Itoa(n) + " " + noun + "es"
	default:
		return strconv.Itoa(n) + " " + noun + "s"
	}
}
