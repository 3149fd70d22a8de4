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

package opts

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/xform/pkg/config"
	"github.com/walteh/xform/pkg/log"
	"github.com/walteh/xform/pkg/matcher"
	"github.com/walteh/xform/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigFiles are looked up in the working directory when --config
// is not given.
var DefaultConfigFiles = []string{
	".xform.yaml",
	".xform.yml",
	".xform.hcl",
	".xform.json",
	".xform.toml",
}

// flagNames maps config scalars to the flags that set them.
var flagNames = map[string]string{
	config.FieldThreads: "jobs",
	config.FieldOutput:  "output",
	config.FieldLogFile: "log-file",
	config.FieldQuiet:   "quiet",
	config.FieldBaseDir: "base-dir",
	config.FieldFormat:  "format",
	config.FieldBackup:  "backup",
}

// RootOpts contains shared options used by all commands
type RootOpts struct {
	// persistent flags
	ConfigFile string
	Debug      bool
	Quiet      bool
	LogFile    string

	// Registry holds the matchers known to this binary
	Registry *matcher.Registry
	// MatcherArgs are the --matcher-args-ID groups from the command line
	MatcherArgs map[string][]string
	// FileConfig is the loaded config file, nil when there is none
	FileConfig *config.Config

	Stdout     io.Writer
	Stderr     io.Writer
	Console    *log.Logger
	UserLogger *log.UserLogger

	closers []io.Closer
}

// LoadConfig loads --config, or the first default config file found in the
// working directory.
func (o *RootOpts) LoadConfig(ctx context.Context) error {
	path := o.ConfigFile
	if path == "" {
		for _, name := range DefaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path == "" {
		zerolog.Ctx(ctx).Debug().Msg("no config file")
		return nil
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	o.FileConfig = cfg
	return nil
}

// Merge combines the config file with the command line settings in cli. A
// scalar from the command line wins only when its flag was given.
func (o *RootOpts) Merge(cmd *cobra.Command, cli *config.Config) (*config.Config, error) {
	cli.Quiet = o.Quiet
	cli.LogFile = o.LogFile
	cli.MatcherArgs = o.MatcherArgs
	if cli.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Errorf("getting working directory: %w", err)
		}
		cli.Root = wd
	}

	return o.FileConfig.Merge(cli, func(field string) bool {
		name, ok := flagNames[field]
		return ok && cmd.Flags().Changed(name)
	}), nil
}

// StatusManager creates the file manager for a merged config.
func (o *RootOpts) StatusManager(ctx context.Context, cfg *config.Config) *status.Manager {
	base := cfg.BaseDir
	if base == "" {
		base = cfg.Root
	}
	return status.New(base, zerolog.Ctx(ctx))
}

// AddCloser registers something to close when the command finishes.
func (o *RootOpts) AddCloser(c io.Closer) {
	o.closers = append(o.closers, c)
}

// Close releases log files opened during setup. The first error wins.
func (o *RootOpts) Close() error {
	var first error
	for _, c := range o.closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Errorf("closing: %w", err)
		}
	}
	o.closers = nil
	return first
}
