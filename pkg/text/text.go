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

package text

import (
	"context"
)

// ReplacementRule defines a single literal text replacement
type ReplacementRule struct {
	// FromText is the text to replace
	FromText string `json:"from" yaml:"from" toml:"from" hcl:"from"`

	// ToText is the replacement text
	ToText string `json:"to" yaml:"to" toml:"to" hcl:"to"`

	// FileFilterGlob limits the rule to matching files. A pattern without a
	// slash is matched against the base name.
	FileFilterGlob string `json:"files" yaml:"files" toml:"files" hcl:"files"`
}

// Span is one proposed edit inside a single file's content
type Span struct {
	Offset int
	Length int
	Text   string
}

// End is the exclusive end of the replaced bytes
func (s Span) End() int {
	return s.Offset + s.Length
}

// TextReplacer finds replacement spans in file content
type TextReplacer interface {
	// FindReplacements returns the spans the rules propose for content.
	// Content is never modified; the spans are in content order.
	FindReplacements(ctx context.Context, path string, content []byte, rules []ReplacementRule) ([]Span, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
