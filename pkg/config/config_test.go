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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/xform/pkg/store"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
}

// knownMatchers accepts a fixed set of ids.
type knownMatchers []string

func (k knownMatchers) Validate(ids []string) error {
	for _, id := range ids {
		if !slices.Contains(k, id) {
			return errors.Errorf("unknown matcher %q", id)
		}
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Setenv("XFORM_TEST_OUTPUT", "edits.yaml")

	tests := []struct {
		name        string
		file        string
		config      string
		errContains string
	}{
		{
			name: "yaml",
			file: "xform.yaml",
			config: `
matchers: [rename]
input_files: [src/a.cc, /abs/b.cc]
include: ["src/**/*.cc"]
exclude: ["*.h"]
threads: 4
output: edits.yaml
format: true
matcher_args:
  rename: ["--old", "Foo"]
`,
		},
		{
			name: "yml_extension",
			file: "xform.yml",
			config: `
matchers: [rename]
input_files: [src/a.cc, /abs/b.cc]
include: ["src/**/*.cc"]
exclude: ["*.h"]
threads: 4
output: edits.yaml
format: true
matcher_args: {rename: ["--old", "Foo"]}
`,
		},
		{
			name: "hcl",
			file: "xform.hcl",
			config: `
matchers    = ["rename"]
input_files = ["src/a.cc", "/abs/b.cc"]
include     = ["src/**/*.cc"]
exclude     = ["*.h"]
threads     = 4
output      = env.XFORM_TEST_OUTPUT
format      = true
matcher_args = {
  rename = ["--old", "Foo"]
}
`,
		},
		{
			name: "json",
			file: "xform.json",
			config: `{
  "matchers": ["rename"],
  "input_files": ["src/a.cc", "/abs/b.cc"],
  "include": ["src/**/*.cc"],
  "exclude": ["*.h"],
  "threads": 4,
  "output": "edits.yaml",
  "format": true,
  "matcher_args": {"rename": ["--old", "Foo"]}
}`,
		},
		{
			name: "toml",
			file: "xform.toml",
			config: `
matchers = ["rename"]
input_files = ["src/a.cc", "/abs/b.cc"]
include = ["src/**/*.cc"]
exclude = ["*.h"]
threads = 4
output = "edits.yaml"
format = true

[matcher_args]
rename = ["--old", "Foo"]
`,
		},
		{
			name:        "yaml_unknown_key",
			file:        "xform.yaml",
			config:      "matchers: [rename]\ndestination: /tmp\n",
			errContains: "parsing YAML",
		},
		{
			name:        "hcl_unknown_key",
			file:        "xform.hcl",
			config:      "destination = \"/tmp\"\n",
			errContains: "decoding HCL",
		},
		{
			name:        "json_unknown_key",
			file:        "xform.json",
			config:      `{"destination": "/tmp"}`,
			errContains: "parsing JSON",
		},
		{
			name:        "toml_unknown_key",
			file:        "xform.toml",
			config:      "destination = \"/tmp\"\n",
			errContains: "unknown keys",
		},
		{
			name:        "unsupported_extension",
			file:        "xform.ini",
			config:      "matchers=rename\n",
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o644), "writing config file should succeed")

			cfg, err := Load(testContext(t), path)
			if tt.errContains != "" {
				require.Error(t, err, "Load should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}
			require.NoError(t, err, "Load should succeed")

			assert.Equal(t, path, cfg.Location())
			assert.Equal(t, dir, cfg.Root)
			assert.Equal(t, []string{"rename"}, cfg.Matchers)
			assert.Equal(t, []string{filepath.Join(dir, "src/a.cc"), "/abs/b.cc"}, cfg.InputFiles, "relative inputs resolve against the config directory")
			assert.Equal(t, []string{filepath.ToSlash(filepath.Join(dir, "src/**/*.cc"))}, cfg.Include)
			assert.Equal(t, []string{"*.h"}, cfg.Exclude, "base-name patterns stay as they are")
			assert.Equal(t, 4, cfg.Threads)
			assert.Equal(t, filepath.Join(dir, "edits.yaml"), cfg.Output)
			assert.True(t, cfg.Format)
			assert.False(t, cfg.Backup)
			assert.Equal(t, map[string][]string{"rename": {"--old", "Foo"}}, cfg.MatcherArgs)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(testContext(t), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadEmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xform.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(testContext(t), path)
	require.NoError(t, err, "an empty file is an empty config")
	assert.Empty(t, cfg.Matchers)
}

func TestValidate(t *testing.T) {
	known := knownMatchers{"rename", "regex"}

	tests := []struct {
		name        string
		cfg         Config
		run         bool
		errContains string
		formatError bool
	}{
		{
			name: "valid_run",
			cfg:  Config{Matchers: []string{"rename"}, InputFiles: []string{"a.cc"}, Output: "edits.yaml"},
			run:  true,
		},
		{
			name: "include_is_an_input",
			cfg:  Config{Matchers: []string{"rename"}, Include: []string{"**/*.cc"}},
			run:  true,
		},
		{
			name:        "negative_threads",
			cfg:         Config{Threads: -1},
			errContains: "threads must be >= 0",
		},
		{
			name:        "bad_output_extension",
			cfg:         Config{Output: "edits.txt"},
			errContains: "edits.txt",
			formatError: true,
		},
		{
			name:        "bad_glob",
			cfg:         Config{Exclude: []string{"[abc"}},
			errContains: "invalid glob",
		},
		{
			name:        "unknown_matcher",
			cfg:         Config{Matchers: []string{"nope"}},
			errContains: `unknown matcher "nope"`,
		},
		{
			name:        "unknown_matcher_args",
			cfg:         Config{MatcherArgs: map[string][]string{"nope": {"--x"}}},
			errContains: "matcher_args",
		},
		{
			name:        "run_needs_matchers",
			cfg:         Config{InputFiles: []string{"a.cc"}},
			run:         true,
			errContains: "no matchers specified",
		},
		{
			name:        "run_needs_inputs",
			cfg:         Config{Matchers: []string{"rename"}},
			run:         true,
			errContains: "no input files specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.run {
				err = tt.cfg.ValidateRun(known)
			} else {
				err = tt.cfg.Validate(known)
			}
			if tt.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			if tt.formatError {
				var fe *store.FormatError
				assert.True(t, errors.As(err, &fe), "error should be a store format error")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	file := &Config{
		Matchers:    []string{"rename", "regex"},
		InputFiles:  []string{"/cfg/a.cc"},
		Include:     []string{"/cfg/src/**/*.cc"},
		Threads:     8,
		Output:      "/cfg/edits.yaml",
		Format:      true,
		Backup:      true,
		MatcherArgs: map[string][]string{"rename": {"--old", "Foo"}},
		Root:        "/cfg",
		location:    "/cfg/xform.yaml",
	}
	cli := &Config{
		Matchers:    []string{"rename"},
		InputFiles:  []string{"/wd/b.cc"},
		Threads:     2,
		Output:      "/wd/out.yaml",
		MatcherArgs: map[string][]string{"rename": {"--new", "Baz"}},
		Root:        "/wd",
	}

	t.Run("without_file", func(t *testing.T) {
		var none *Config
		got := none.Merge(cli, nil)
		assert.Equal(t, cli.Matchers, got.Matchers)
		assert.Equal(t, 2, got.Threads)
		assert.Equal(t, "/wd/out.yaml", got.Output)
	})

	t.Run("lists_append_and_file_scalars_win_when_unset", func(t *testing.T) {
		got := file.Merge(cli, func(string) bool { return false })

		assert.Equal(t, []string{"rename", "regex"}, got.Matchers, "matchers are appended without duplicates")
		assert.Equal(t, []string{"/wd/b.cc", "/cfg/a.cc"}, got.InputFiles)
		assert.Equal(t, []string{"/cfg/src/**/*.cc"}, got.Include)
		assert.Equal(t, 8, got.Threads)
		assert.Equal(t, "/cfg/edits.yaml", got.Output)
		assert.True(t, got.Format)
		assert.True(t, got.Backup)
		assert.Equal(t, []string{"--old", "Foo", "--new", "Baz"}, got.MatcherArgs["rename"])
		assert.Equal(t, "/wd", got.Root)
		assert.Equal(t, "/cfg/xform.yaml", got.Location())
	})

	t.Run("explicit_flags_override", func(t *testing.T) {
		got := file.Merge(cli, func(field string) bool {
			return field == FieldThreads || field == FieldOutput || field == FieldBackup
		})

		assert.Equal(t, 2, got.Threads)
		assert.Equal(t, "/wd/out.yaml", got.Output)
		assert.False(t, got.Backup)
		assert.True(t, got.Format, "format was not set on the command line")
	})

	t.Run("inputs_are_not_mutated", func(t *testing.T) {
		_ = file.Merge(cli, nil)
		assert.Equal(t, []string{"--new", "Baz"}, cli.MatcherArgs["rename"])
		assert.Equal(t, []string{"--old", "Foo"}, file.MatcherArgs["rename"])
	})
}

func TestExpandInputs(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"src/a.cc", "src/sub/b.cc", "src/c.h", "third_party/d.cc", "e.cc"} {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o644))
	}
	abs := func(f string) string { return filepath.Join(root, f) }

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "literal_files_keep_order_and_missing_files",
			cfg:  Config{InputFiles: []string{"src/c.h", "missing.cc", abs("e.cc")}},
			want: []string{abs("src/c.h"), abs("missing.cc"), abs("e.cc")},
		},
		{
			name: "recursive_include",
			cfg:  Config{Include: []string{"src/**/*.cc"}},
			want: []string{abs("src/a.cc"), abs("src/sub/b.cc")},
		},
		{
			name: "bare_include_is_rooted",
			cfg:  Config{Include: []string{"*.cc"}},
			want: []string{abs("e.cc")},
		},
		{
			name: "dedup_literal_and_glob",
			cfg:  Config{InputFiles: []string{"src/a.cc"}, Include: []string{"**/*.cc"}},
			want: []string{abs("src/a.cc"), abs("e.cc"), abs("src/sub/b.cc"), abs("third_party/d.cc")},
		},
		{
			name: "exclude_directory_and_base_name",
			cfg:  Config{Include: []string{"**/*.cc"}, Exclude: []string{"third_party/**", "b.cc"}},
			want: []string{abs("e.cc"), abs("src/a.cc")},
		},
		{
			name: "directories_are_not_inputs",
			cfg:  Config{Include: []string{"src/*"}},
			want: []string{abs("src/a.cc"), abs("src/c.h")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Root = root
			got, err := tt.cfg.ExpandInputs(testContext(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{Matchers: []string{"rename"}, InputFiles: []string{"a", "b"}, Output: "edits.yaml", Threads: 3}
	assert.Equal(t, "matchers=[rename] inputs=2 output=edits.yaml threads=3", cfg.String())
}
