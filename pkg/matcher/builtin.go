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
	"context"
	"regexp"

	"github.com/walteh/xform/pkg/replace"
	"github.com/walteh/xform/pkg/text"
	"gitlab.com/tozd/go/errors"
)

const (
	RenameID  = "rename"
	RegexID   = "regex"
	LiteralID = "literal"
)

// ✏️ Rename renames call sites of a function: every identifier Old directly
// followed by an opening parenthesis becomes New.
type Rename struct {
	Old string
	New string
	re  *regexp.Regexp
}

// NewRename parses --old (default Foo) and --new (default Bar).
func NewRename(args []string) (Matcher, error) {
	fs := newFlagSet(RenameID)
	oldName := fs.String("old", "Foo", "function name to match")
	newName := fs.String("new", "Bar", "function name to use instead")
	if err := parseFlags(RenameID, fs, args); err != nil {
		return nil, err
	}
	if !identifier.MatchString(*oldName) {
		return nil, errors.Errorf("--old %q is not an identifier", *oldName)
	}
	if !identifier.MatchString(*newName) {
		return nil, errors.Errorf("--new %q is not an identifier", *newName)
	}
	return &Rename{
		Old: *oldName,
		New: *newName,
		re:  regexp.MustCompile(`\b(` + regexp.QuoteMeta(*oldName) + `)\s*\(`),
	}, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (m *Rename) ID() string { return RenameID }

func (m *Rename) Match(ctx context.Context, path string, content []byte) ([]replace.Replacement, error) {
	var out []replace.Replacement
	for _, loc := range m.re.FindAllSubmatchIndex(content, -1) {
		out = append(out, replace.Replacement{FilePath: path, Offset: loc[2], Length: loc[3] - loc[2], Text: m.New})
	}
	return out, nil
}

// 🔣 Regex replaces every match of Pattern with Replace, expanding $1 style
// group references.
type Regex struct {
	Pattern *regexp.Regexp
	Replace string
}

// NewRegex parses --pattern (required) and --replace.
func NewRegex(args []string) (Matcher, error) {
	fs := newFlagSet(RegexID)
	pattern := fs.String("pattern", "", "regular expression to match")
	repl := fs.String("replace", "", "replacement template, $1 expands groups")
	if err := parseFlags(RegexID, fs, args); err != nil {
		return nil, err
	}
	if *pattern == "" {
		return nil, errors.New("--pattern is required")
	}
	re, err := regexp.Compile(*pattern)
	if err != nil {
		return nil, errors.Errorf("compiling --pattern: %w", err)
	}
	return &Regex{Pattern: re, Replace: *repl}, nil
}

func (m *Regex) ID() string { return RegexID }

func (m *Regex) Match(ctx context.Context, path string, content []byte) ([]replace.Replacement, error) {
	var out []replace.Replacement
	for _, loc := range m.Pattern.FindAllSubmatchIndex(content, -1) {
		expanded := m.Pattern.Expand(nil, []byte(m.Replace), content, loc)
		out = append(out, replace.Replacement{FilePath: path, Offset: loc[0], Length: loc[1] - loc[0], Text: string(expanded)})
	}
	return out, nil
}

// 📝 Literal replaces literal text in files matching a glob.
type Literal struct {
	Rules    []text.ReplacementRule
	replacer text.TextReplacer
}

// NewLiteral parses --from (required), --to and --files (default "*").
func NewLiteral(args []string) (Matcher, error) {
	fs := newFlagSet(LiteralID)
	from := fs.String("from", "", "text to replace")
	to := fs.String("to", "", "replacement text")
	files := fs.String("files", "*", "glob of files the rule applies to")
	if err := parseFlags(LiteralID, fs, args); err != nil {
		return nil, err
	}

	replacer := text.NewSimpleTextReplacer()
	rules := []text.ReplacementRule{{FromText: *from, ToText: *to, FileFilterGlob: *files}}
	if err := replacer.ValidateRules(rules); err != nil {
		return nil, err
	}
	return &Literal{Rules: rules, replacer: replacer}, nil
}

func (m *Literal) ID() string { return LiteralID }

func (m *Literal) Match(ctx context.Context, path string, content []byte) ([]replace.Replacement, error) {
	spans, err := m.replacer.FindReplacements(ctx, path, content, m.Rules)
	if err != nil {
		return nil, err
	}
	out := make([]replace.Replacement, 0, len(spans))
	for _, s := range spans {
		out = append(out, replace.Replacement{FilePath: path, Offset: s.Offset, Length: s.Length, Text: s.Text})
	}
	return out, nil
}
