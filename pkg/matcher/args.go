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
	"io"
	"strings"

	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
)

// ArgsPrefix starts a per-matcher argument section: everything after
// "--matcher-args-ID" up to the next such marker belongs to matcher ID.
const ArgsPrefix = "--matcher-args-"

// StripArgs splits argv at the first matcher argument marker. The first
// result is what the CLI parses itself.
func StripArgs(argv []string) (cli []string, matcherArgs []string) {
	for i, a := range argv {
		if strings.HasPrefix(a, ArgsPrefix) {
			return argv[:i:i], argv[i:]
		}
	}
	return argv, nil
}

// SplitArgs groups stripped matcher arguments by matcher id.
func SplitArgs(matcherArgs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	current := ""
	for _, a := range matcherArgs {
		if strings.HasPrefix(a, ArgsPrefix) {
			current = strings.TrimPrefix(a, ArgsPrefix)
			if current == "" {
				return nil, errors.Errorf("matcher argument marker %q has no matcher id", a)
			}
			if _, ok := out[current]; !ok {
				out[current] = []string{}
			}
			continue
		}
		if current == "" {
			return nil, errors.Errorf("argument %q appears before any %sID marker", a, ArgsPrefix)
		}
		out[current] = append(out[current], a)
	}
	return out, nil
}

// newFlagSet is the flag set every builtin parses its arguments with.
func newFlagSet(id string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(id, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags parses the arguments of matcher id. Positional arguments are
// rejected.
func parseFlags(id string, fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Errorf("parsing %s arguments: %w", id, err)
	}
	if fs.NArg() > 0 {
		return errors.Errorf("unexpected %s arguments: %v", id, fs.Args())
	}
	return nil
}
