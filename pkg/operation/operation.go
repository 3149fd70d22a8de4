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
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/apply"
	"github.com/walteh/xform/pkg/config"
	"github.com/walteh/xform/pkg/log"
	"github.com/walteh/xform/pkg/matcher"
	"github.com/walteh/xform/pkg/status"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrConflicts is returned after every clean file was written when at
	// least one file had overlapping edits.
	ErrConflicts = errors.Base("conflicting edits")
	// ErrFailedFiles is returned when files were stale, missing or could
	// not be written.
	ErrFailedFiles = errors.Base("some files could not be updated")
)

// 🎯 Operation is a unit of work run by the CLI
type Operation interface {
	Execute(ctx context.Context) error
}

// 🔧 Options contains everything an operation needs
type Options struct {
	// Config holds the merged settings
	Config *config.Config
	// Registry holds the available matchers
	Registry *matcher.Registry
	// StatusMgr writes files and tracks outcomes
	StatusMgr *status.Manager
	// Files reads, writes and backs up files; StatusMgr when nil
	Files status.FileManager
	// Console prints per-file outcome lines
	Console *log.Logger
	// Formatter post-processes rewritten files
	Formatter apply.Formatter
	// DryRun shows diffs instead of writing files
	DryRun bool
}

// 🧱 BaseOperation carries the options with defaults filled in
type BaseOperation struct {
	Options
}

// 🏭 NewBaseOperation fills in defaults for unset options
func NewBaseOperation(opts Options) BaseOperation {
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}
	if opts.StatusMgr == nil {
		base := opts.Config.BaseDir
		if base == "" {
			base, _ = os.Getwd()
		}
		opts.StatusMgr = status.New(base, nil)
	}
	if opts.Files == nil {
		opts.Files = opts.StatusMgr
	}
	if opts.Console == nil {
		opts.Console = log.NewWithLogger(io.Discard, zerolog.Nop())
	}
	if opts.Formatter == nil {
		if opts.Config.Format {
			opts.Formatter = apply.GoFormatter{}
		} else {
			opts.Formatter = apply.NopFormatter{}
		}
	}
	return BaseOperation{Options: opts}
}
