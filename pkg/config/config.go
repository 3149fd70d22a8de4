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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/pkg/store"
	"github.com/walteh/xform/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

// 🗺️ Parsers is the list of supported config formats, tried in order.
var Parsers = []Parser{
	&YAMLParser{},
	&HCLParser{},
	&JSONParser{},
	&TOMLParser{},
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range Parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config holds the settings of a run or apply. A config file and the
// command line both produce one; Merge combines them.
type Config struct {
	Matchers    []string            `json:"matchers,omitempty" yaml:"matchers,omitempty" toml:"matchers" hcl:"matchers,optional"`
	InputFiles  []string            `json:"input_files,omitempty" yaml:"input_files,omitempty" toml:"input_files" hcl:"input_files,optional"`
	Include     []string            `json:"include,omitempty" yaml:"include,omitempty" toml:"include" hcl:"include,optional"`
	Exclude     []string            `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude" hcl:"exclude,optional"`
	Threads     int                 `json:"threads,omitempty" yaml:"threads,omitempty" toml:"threads" hcl:"threads,optional"`
	Output      string              `json:"output,omitempty" yaml:"output,omitempty" toml:"output" hcl:"output,optional"`
	LogFile     string              `json:"log_file,omitempty" yaml:"log_file,omitempty" toml:"log_file" hcl:"log_file,optional"`
	Quiet       bool                `json:"quiet,omitempty" yaml:"quiet,omitempty" toml:"quiet" hcl:"quiet,optional"`
	BaseDir     string              `json:"base_dir,omitempty" yaml:"base_dir,omitempty" toml:"base_dir" hcl:"base_dir,optional"`
	Format      bool                `json:"format,omitempty" yaml:"format,omitempty" toml:"format" hcl:"format,optional"`
	Backup      bool                `json:"backup,omitempty" yaml:"backup,omitempty" toml:"backup" hcl:"backup,optional"`
	MatcherArgs map[string][]string `json:"matcher_args,omitempty" yaml:"matcher_args,omitempty" toml:"matcher_args" hcl:"matcher_args,optional"`

	// Root is the directory relative paths and globs are evaluated
	// against. Load sets it to the config file's directory and resolves
	// the file's own paths, so after Merge it is the command line's.
	Root string `json:"-" yaml:"-" toml:"-"`

	location string
}

// Scalar field names, as accepted by Merge's changed callback.
const (
	FieldThreads = "threads"
	FieldOutput  = "output"
	FieldLogFile = "log_file"
	FieldQuiet   = "quiet"
	FieldBaseDir = "base_dir"
	FieldFormat  = "format"
	FieldBackup  = "backup"
)

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.location = abs
	cfg.Root = filepath.Dir(abs)
	cfg.resolvePaths()

	logger.Debug().
		Strs("matchers", cfg.Matchers).
		Int("input_files", len(cfg.InputFiles)).
		Msg("configuration loaded")

	return cfg, nil
}

// Location is the absolute path of the file the config was loaded from, or
// "" for a nil or command line config.
func (cfg *Config) Location() string {
	if cfg == nil {
		return ""
	}
	return cfg.location
}

// resolvePaths makes file settings absolute against Root.
func (cfg *Config) resolvePaths() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.Root, p)
	}
	for i, f := range cfg.InputFiles {
		cfg.InputFiles[i] = abs(f)
	}
	cfg.Output = abs(cfg.Output)
	cfg.LogFile = abs(cfg.LogFile)
	cfg.BaseDir = abs(cfg.BaseDir)
	for i, pattern := range cfg.Include {
		cfg.Include[i] = rootPattern(cfg.Root, anchor(pattern))
	}
	cfg.Exclude = rootPatterns(cfg.Root, cfg.Exclude)
}

// MatcherValidator checks that matcher ids exist. *matcher.Registry
// implements it.
type MatcherValidator interface {
	Validate(ids []string) error
}

// 🔍 Validate checks the settings shared by every command.
func (cfg *Config) Validate(matchers MatcherValidator) error {
	if cfg.Threads < 0 {
		return errors.Errorf("threads must be >= 0, got %d", cfg.Threads)
	}
	if cfg.Output != "" && !store.IsStorePath(cfg.Output) {
		return errors.Errorf("output %s: %w", cfg.Output, &store.FormatError{Path: cfg.Output, Ext: filepath.Ext(cfg.Output)})
	}
	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if _, err := text.MatchFile(pattern, ""); err != nil {
			return errors.Errorf("invalid glob: %w", err)
		}
	}
	if matchers != nil {
		if err := matchers.Validate(cfg.Matchers); err != nil {
			return err
		}
		for id := range cfg.MatcherArgs {
			if err := matchers.Validate([]string{id}); err != nil {
				return errors.Errorf("matcher_args: %w", err)
			}
		}
	}
	return nil
}

// ValidateRun additionally requires at least one matcher and one input.
func (cfg *Config) ValidateRun(matchers MatcherValidator) error {
	if len(cfg.Matchers) == 0 {
		return errors.New("no matchers specified")
	}
	if len(cfg.InputFiles) == 0 && len(cfg.Include) == 0 {
		return errors.New("no input files specified")
	}
	return cfg.Validate(matchers)
}

// 🔄 Merge combines a config file (the receiver, may be nil) with command
// line settings. Matchers, input files, globs and matcher arguments from the
// file are appended to the command line ones. A scalar comes from the
// command line when changed reports it as explicitly set, otherwise from the
// file.
func (cfg *Config) Merge(cli *Config, changed func(field string) bool) *Config {
	out := *cli
	out.MatcherArgs = map[string][]string{}
	for id, args := range cli.MatcherArgs {
		out.MatcherArgs[id] = append([]string{}, args...)
	}
	if cfg == nil {
		return &out
	}

	out.location = cfg.location
	out.Matchers = appendUnique(append([]string{}, cli.Matchers...), cfg.Matchers...)
	out.InputFiles = append(append([]string{}, cli.InputFiles...), cfg.InputFiles...)
	out.Include = append(append([]string{}, cli.Include...), cfg.Include...)
	out.Exclude = append(append([]string{}, cli.Exclude...), cfg.Exclude...)

	// file arguments first so a repeated command line flag wins
	for id, args := range cfg.MatcherArgs {
		out.MatcherArgs[id] = append(append([]string{}, args...), out.MatcherArgs[id]...)
	}

	if changed == nil {
		changed = func(string) bool { return false }
	}
	if !changed(FieldThreads) {
		out.Threads = cfg.Threads
	}
	if !changed(FieldOutput) {
		out.Output = cfg.Output
	}
	if !changed(FieldLogFile) {
		out.LogFile = cfg.LogFile
	}
	if !changed(FieldQuiet) {
		out.Quiet = cfg.Quiet
	}
	if !changed(FieldBaseDir) {
		out.BaseDir = cfg.BaseDir
	}
	if !changed(FieldFormat) {
		out.Format = cfg.Format
	}
	if !changed(FieldBackup) {
		out.Backup = cfg.Backup
	}

	return &out
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, d := range dst {
			if d == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}

// 📝 String returns a one-line summary of the config
func (cfg *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "matchers=%v inputs=%d", cfg.Matchers, len(cfg.InputFiles))
	if len(cfg.Include) > 0 {
		fmt.Fprintf(&b, " include=%v", cfg.Include)
	}
	if cfg.Output != "" {
		fmt.Fprintf(&b, " output=%s", cfg.Output)
	}
	fmt.Fprintf(&b, " threads=%d", cfg.Threads)
	return b.String()
}
