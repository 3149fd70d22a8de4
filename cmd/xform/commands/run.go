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

package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xform/cmd/xform/opts"
	"github.com/walteh/xform/pkg/config"
	"github.com/walteh/xform/pkg/log"
	"github.com/walteh/xform/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates the run command
func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	cli := &config.Config{}
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Run matchers over source files and apply their edits",
		Long: `Run analyzes the input files with every selected matcher in parallel
chunks and appends the resulting edits to a store.

Without --output the store is temporary: it is applied straight away and
removed. With --output the store is kept and can be applied later with
'xform apply'.

Arguments for a matcher follow a --matcher-args-ID marker at the end of the
command line and run until the next marker:

  xform run -m rename src/a.cc --matcher-args-rename --old Foo --new Bar`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cli.InputFiles = args
			cfg, err := o.Merge(cmd, cli)
			if err != nil {
				return err
			}
			if err := cfg.ValidateRun(o.Registry); err != nil {
				return errors.Errorf("invalid arguments: %w", err)
			}

			op := operation.NewTransformOperation(operation.Options{
				Config:    cfg,
				Registry:  o.Registry,
				StatusMgr: o.StatusManager(ctx, cfg),
				Console:   log.FromContext(ctx),
				DryRun:    dryRun,
			})

			err = operation.NewRunner(zerolog.Ctx(ctx), true).Run(ctx, op)
			// nothing is tracked when the store was only written
			if summary := op.StatusMgr.Summary(); summary != zeroSummary {
				if serr := o.UserLogger.LogSummary(summary); serr != nil && err == nil {
					err = serr
				}
			}
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&cli.Matchers, "matcher", "m", nil, "matcher to run (repeatable)")
	cmd.Flags().IntVarP(&cli.Threads, "jobs", "j", 0, "number of parallel chunks (0 uses the hardware)")
	cmd.Flags().StringVarP(&cli.Output, "output", "o", "", "keep edits in this store (.yaml, .yml or .msgpack) instead of applying them")
	cmd.Flags().StringArrayVar(&cli.Include, "include", nil, "glob of input files to add (repeatable)")
	cmd.Flags().StringArrayVar(&cli.Exclude, "exclude", nil, "glob of input files to skip (repeatable)")
	addApplyFlags(cmd, cli, &dryRun)

	return cmd
}
