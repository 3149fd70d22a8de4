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

package store

import (
	"fortio.org/safecast"
	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// wire types mirror the clang-style YAML field names; both encodings share them.

// wireReplacement fields are pointers so a document cut short, which may
// still be valid YAML, is told apart from one that sets a zero value.
type wireReplacement struct {
	FilePath        *string `yaml:"FilePath" msgpack:"FilePath"`
	Offset          *uint64 `yaml:"Offset" msgpack:"Offset"`
	Length          *uint64 `yaml:"Length" msgpack:"Length"`
	ReplacementText *string `yaml:"ReplacementText" msgpack:"ReplacementText"`
}

type wireFix struct {
	Name         string            `yaml:"Name,omitempty" msgpack:"Name,omitempty"`
	Replacements []wireReplacement `yaml:"Replacements" msgpack:"Replacements"`
}

type wireDiagnostic struct {
	DiagnosticName string    `yaml:"DiagnosticName" msgpack:"DiagnosticName"`
	Message        string    `yaml:"Message,omitempty" msgpack:"Message,omitempty"`
	FilePath       string    `yaml:"FilePath,omitempty" msgpack:"FilePath,omitempty"`
	FileOffset     uint64    `yaml:"FileOffset,omitempty" msgpack:"FileOffset,omitempty"`
	Fixes          []wireFix `yaml:"Fixes,omitempty" msgpack:"Fixes,omitempty"`
}

type wireDocument struct {
	MainSourceFile string            `yaml:"MainSourceFile" msgpack:"MainSourceFile"`
	Replacements   []wireReplacement `yaml:"Replacements,omitempty" msgpack:"Replacements,omitempty"`
	Diagnostics    []wireDiagnostic  `yaml:"Diagnostics,omitempty" msgpack:"Diagnostics,omitempty"`
}

func (d *wireDocument) empty() bool {
	return d.MainSourceFile == "" && len(d.Replacements) == 0 && len(d.Diagnostics) == 0
}

// errMissingField marks a replacement without one of its required keys.
var errMissingField = errors.Base("replacement is missing a required field")

func toReplacement(w wireReplacement) (replace.Replacement, error) {
	switch {
	case w.FilePath == nil:
		return replace.Replacement{}, errors.Errorf("FilePath: %w", errMissingField)
	case w.Offset == nil:
		return replace.Replacement{}, errors.Errorf("Offset of %s: %w", *w.FilePath, errMissingField)
	case w.Length == nil:
		return replace.Replacement{}, errors.Errorf("Length of %s: %w", *w.FilePath, errMissingField)
	case w.ReplacementText == nil:
		return replace.Replacement{}, errors.Errorf("ReplacementText of %s: %w", *w.FilePath, errMissingField)
	}

	offset, err := safecast.Conv[int](*w.Offset)
	if err != nil {
		return replace.Replacement{}, errors.Errorf("offset %d of %s: %w", *w.Offset, *w.FilePath, err)
	}
	length, err := safecast.Conv[int](*w.Length)
	if err != nil {
		return replace.Replacement{}, errors.Errorf("length %d of %s: %w", *w.Length, *w.FilePath, err)
	}
	r := replace.Replacement{FilePath: *w.FilePath, Offset: offset, Length: length, Text: *w.ReplacementText}
	if err := r.Validate(); err != nil {
		return replace.Replacement{}, err
	}
	return r, nil
}

func toReplacements(ws []wireReplacement) ([]replace.Replacement, error) {
	out := make([]replace.Replacement, 0, len(ws))
	for _, w := range ws {
		r, err := toReplacement(w)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func fromReplacements(rs []replace.Replacement) ([]wireReplacement, error) {
	out := make([]wireReplacement, 0, len(rs))
	for _, r := range rs {
		r := r
		if err := r.Validate(); err != nil {
			return nil, err
		}
		offset, err := safecast.Conv[uint64](r.Offset)
		if err != nil {
			return nil, errors.Errorf("offset of %s: %w", r.FilePath, err)
		}
		length, err := safecast.Conv[uint64](r.Length)
		if err != nil {
			return nil, errors.Errorf("length of %s: %w", r.FilePath, err)
		}
		out = append(out, wireReplacement{
			FilePath:        &r.FilePath,
			Offset:          &offset,
			Length:          &length,
			ReplacementText: &r.Text,
		})
	}
	return out, nil
}

// add converts one wire document and appends the batches it carries. Nothing
// is appended when any part of the document is invalid.
func (c *Contents) add(d *wireDocument) error {
	var rbatch *replace.ReplacementBatch
	if len(d.Replacements) > 0 {
		rs, err := toReplacements(d.Replacements)
		if err != nil {
			return err
		}
		rbatch = &replace.ReplacementBatch{SourceFile: d.MainSourceFile, Replacements: rs}
	}

	var dbatch *replace.DiagnosticBatch
	if len(d.Diagnostics) > 0 {
		dbatch = &replace.DiagnosticBatch{SourceFile: d.MainSourceFile}
		for _, wd := range d.Diagnostics {
			offset, err := safecast.Conv[int](wd.FileOffset)
			if err != nil {
				return errors.Errorf("diagnostic %s offset: %w", wd.DiagnosticName, err)
			}
			diag := replace.Diagnostic{
				Name:       wd.DiagnosticName,
				Message:    wd.Message,
				FilePath:   wd.FilePath,
				FileOffset: offset,
			}
			for _, wf := range wd.Fixes {
				rs, err := toReplacements(wf.Replacements)
				if err != nil {
					return errors.Errorf("diagnostic %s fix %q: %w", wd.DiagnosticName, wf.Name, err)
				}
				diag.Fixes = append(diag.Fixes, replace.Fix{Name: wf.Name, Replacements: rs})
			}
			dbatch.Diagnostics = append(dbatch.Diagnostics, diag)
		}
	}

	if rbatch != nil {
		c.Replacements = append(c.Replacements, *rbatch)
	}
	if dbatch != nil {
		c.Diagnostics = append(c.Diagnostics, *dbatch)
	}
	return nil
}

func replacementDocument(batch replace.ReplacementBatch) (*wireDocument, error) {
	rs, err := fromReplacements(batch.Replacements)
	if err != nil {
		return nil, err
	}
	return &wireDocument{MainSourceFile: batch.SourceFile, Replacements: rs}, nil
}

func diagnosticDocument(batch replace.DiagnosticBatch) (*wireDocument, error) {
	doc := &wireDocument{MainSourceFile: batch.SourceFile}
	for _, d := range batch.Diagnostics {
		offset, err := safecast.Conv[uint64](d.FileOffset)
		if err != nil {
			return nil, errors.Errorf("diagnostic %s offset: %w", d.Name, err)
		}
		wd := wireDiagnostic{DiagnosticName: d.Name, Message: d.Message, FilePath: d.FilePath, FileOffset: offset}
		for _, f := range d.Fixes {
			rs, err := fromReplacements(f.Replacements)
			if err != nil {
				return nil, errors.Errorf("diagnostic %s fix %q: %w", d.Name, f.Name, err)
			}
			wd.Fixes = append(wd.Fixes, wireFix{Name: f.Name, Replacements: rs})
		}
		doc.Diagnostics = append(doc.Diagnostics, wd)
	}
	return doc, nil
}
