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
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/walteh/xform/cmd/xform/opts"
	"github.com/walteh/xform/pkg/log"
	"github.com/walteh/xform/pkg/matcher"
	"github.com/walteh/xform/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// maxExitCode caps the soft failure count used as exit status.
const maxExitCode = 125

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the command line and returns the exit status.
func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	userLogger := log.NewUserLogger(stderr, zerolog.Nop())

	// matcher arguments look like flags, so they never reach cobra
	cliArgs, matcherArgv := matcher.StripArgs(argv)
	matcherArgs, err := matcher.SplitArgs(matcherArgv)
	if err != nil {
		userLogger.LogValidation(false, "Invalid matcher arguments", err)
		return 1
	}

	registry := matcher.NewRegistry()
	if err := matcher.RegisterBuiltins(registry); err != nil {
		userLogger.LogValidation(false, "Failed to initialize", err)
		return 1
	}

	o := &opts.RootOpts{
		Registry:    registry,
		MatcherArgs: matcherArgs,
		Stdout:      stdout,
		Stderr:      stderr,
		UserLogger:  log.NewUserLogger(stdout, zerolog.Nop()),
	}
	defer o.Close()

	rootCmd := newRootCmd(o)
	rootCmd.SetArgs(cliArgs)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err = rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil {
		var soft *operation.SoftFailureError
		if errors.As(err, &soft) {
			userLogger.LogValidation(false, "Some files were skipped", err)
		} else {
			userLogger.LogValidation(false, "Command failed", err)
		}
	}
	return code
}

// exitCode is 0 on success, the number of files that could not be analyzed
// after a soft failure, and 1 for everything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var soft *operation.SoftFailureError
	if errors.As(err, &soft) {
		return min(max(soft.Status, 1), maxExitCode)
	}
	return 1
}
