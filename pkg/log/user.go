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

package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📢 UserLogger prints validation results and summaries for people, and
// mirrors them to zerolog for debugging.
type UserLogger struct {
	out io.Writer
	log zerolog.Logger
	mu  sync.Mutex
}

// 🏭 NewUserLogger creates a user logger printing to out
func NewUserLogger(out io.Writer, log zerolog.Logger) *UserLogger {
	return &UserLogger{out: out, log: log}
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if valid {
		fmt.Fprint(u.out, pterm.Success.WithPrefix(pterm.Prefix{Text: "✅", Style: pterm.Success.Prefix.Style}).Sprintln(description))
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		fmt.Fprint(u.out, pterm.Error.WithPrefix(pterm.Prefix{Text: "❌", Style: pterm.Error.Prefix.Style}).Sprintln(description))
		fmt.Fprint(u.out, pterm.Error.Sprintln(err))
		u.log.Error().Err(err).Msg(description)
		return
	}
	fmt.Fprint(u.out, pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️", Style: pterm.Warning.Prefix.Style}).Sprintln(description))
	u.log.Warn().Msg(description)
}

// 📊 Summary is the per-outcome count of an apply
type Summary struct {
	Applied    int
	Unchanged  int
	Conflicted int
	Stale      int
	Failed     int
	Edits      int
	Conflicts  int
}

// 📊 LogSummary prints the outcome counts of an apply as a table
func (u *UserLogger) LogSummary(s Summary) error {
	rows := [][]string{
		{"outcome", "files"},
		{"applied", fmt.Sprint(s.Applied)},
		{"unchanged", fmt.Sprint(s.Unchanged)},
		{"conflicted", fmt.Sprint(s.Conflicted)},
		{"stale", fmt.Sprint(s.Stale)},
		{"failed", fmt.Sprint(s.Failed)},
	}
	if err := u.PrintTable(rows); err != nil {
		return err
	}

	u.log.Info().
		Int("applied", s.Applied).
		Int("unchanged", s.Unchanged).
		Int("conflicted", s.Conflicted).
		Int("stale", s.Stale).
		Int("failed", s.Failed).
		Int("edits", s.Edits).
		Int("conflicts", s.Conflicts).
		Msg("apply summary")
	return nil
}

// 📋 PrintTable renders rows as a table; the first row is the header
func (u *UserLogger) PrintTable(rows [][]string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		return errors.Errorf("rendering table: %w", err)
	}
	fmt.Fprintln(u.out, table)
	return nil
}
