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

package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xform/cmd/xform/commands"
	"github.com/walteh/xform/cmd/xform/opts"
	"github.com/walteh/xform/pkg/config"
	"github.com/walteh/xform/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// newRootCmd creates the xform command tree
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xform",
		Short: "Apply matcher generated edits to source files in parallel",
		Long: `xform runs text matchers over many source files, collects the edits they
propose in a store, merges the edits per file and rewrites every file whose
edits do not conflict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, o)
		},
	}

	addRootFlags(cmd, o)

	cmd.AddCommand(
		commands.NewRunCmd(o),
		commands.NewApplyCmd(o),
		commands.NewMatchersCmd(o),
		newVersionCmd(o),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "", "config file path (.yaml, .hcl, .json or .toml)")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&o.Quiet, "quiet", "q", false, "only print warnings and errors")
	cmd.PersistentFlags().StringVar(&o.LogFile, "log-file", "", "also write JSON logs to this file")
}

// setup loads the config file and installs the logger on the command's
// context. Quiet and the log file may come from either source.
func setup(cmd *cobra.Command, o *opts.RootOpts) error {
	ctx := cmd.Context()

	bootstrap := newLogger(o.Stderr, nil, o.Debug, o.Quiet)
	ctx = bootstrap.WithContext(ctx)

	if err := o.LoadConfig(ctx); err != nil {
		return err
	}

	settings, err := o.Merge(cmd, &config.Config{})
	if err != nil {
		return err
	}

	var file io.Writer
	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Errorf("opening log file: %w", err)
		}
		o.AddCloser(f)
		file = f
	}

	logger := newLogger(o.Stderr, file, o.Debug, settings.Quiet)
	ctx = logger.WithContext(ctx)

	console := o.Stdout
	if settings.Quiet {
		console = io.Discard
	}
	o.Console = log.NewWithLogger(console, logger)
	ctx = log.NewContext(ctx, o.Console)

	logger.Debug().
		Str("command", cmd.Name()).
		Str("config", o.FileConfig.Location()).
		Msg("starting xform")

	cmd.SetContext(ctx)
	return nil
}

// newLogger builds a console logger on stderr and, with file set, a JSON
// sink that always records debug events.
func newLogger(stderr, file io.Writer, debug, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}

	var console io.Writer = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	if file == nil {
		return zerolog.New(console).Level(level).With().Timestamp().Logger()
	}

	writer := zerolog.MultiLevelWriter(
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: console},
			Level:  level,
		},
		file,
	)
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
