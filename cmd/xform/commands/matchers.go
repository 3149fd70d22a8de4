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
	"github.com/spf13/cobra"
	"github.com/walteh/xform/cmd/xform/opts"
)

// NewMatchersCmd creates the matchers command
func NewMatchersCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "matchers",
		Short: "List the registered matchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{{"matcher", "description"}}
			for _, id := range o.Registry.IDs() {
				rows = append(rows, []string{id, o.Registry.Describe(id)})
			}
			return o.UserLogger.PrintTable(rows)
		},
	}
}
