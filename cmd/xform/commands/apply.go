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

var zeroSummary log.Summary

// addApplyFlags adds the flags shared by run and apply
func addApplyFlags(cmd *cobra.Command, cli *config.Config, dryRun *bool) {
	cmd.Flags().BoolVar(dryRun, "dry-run", false, "print a diff of every change instead of writing files")
	cmd.Flags().BoolVar(&cli.Format, "format", false, "gofmt rewritten .go files")
	cmd.Flags().BoolVar(&cli.Backup, "backup", false, "keep a .bak copy of every rewritten file")
	cmd.Flags().StringVar(&cli.BaseDir, "base-dir", "", "directory relative paths in the store are resolved against")
}

// NewApplyCmd creates the apply command
func NewApplyCmd(o *opts.RootOpts) *cobra.Command {
	cli := &config.Config{}
	var dryRun, keep bool

	cmd := &cobra.Command{
		Use:   "apply STORE",
		Short: "Apply the edits of a store to the source files",
		Long: `Apply reads every batch in STORE, merges the edits of each file and rewrites
the files whose edits do not overlap. Files with conflicting edits are left
untouched and reported. The store is deleted once every file was applied,
unless --keep or --dry-run is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.Merge(cmd, cli)
			if err != nil {
				return err
			}
			if err := cfg.Validate(o.Registry); err != nil {
				return errors.Errorf("invalid arguments: %w", err)
			}

			op := operation.NewApplyOperation(operation.Options{
				Config:    cfg,
				Registry:  o.Registry,
				StatusMgr: o.StatusManager(ctx, cfg),
				Console:   log.FromContext(ctx),
				DryRun:    dryRun,
			}, args[0])
			op.KeepStore = keep

			err = operation.NewRunner(zerolog.Ctx(ctx), true).Run(ctx, op)
			if serr := o.UserLogger.LogSummary(op.StatusMgr.Summary()); serr != nil && err == nil {
				err = serr
			}
			return err
		},
	}

	addApplyFlags(cmd, cli, &dryRun)
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the store after a successful apply")

	return cmd
}
