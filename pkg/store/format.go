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
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// Extension is the text store extension and the default for new stores.
	Extension = ".yaml"
	// ShortExtension is read and written exactly like Extension.
	ShortExtension = ".yml"
	// BinaryExtension selects the length-prefixed msgpack encoding.
	BinaryExtension = ".msgpack"
)

// 📄 Format is the on-disk encoding of a store.
type Format int

const (
	FormatYAML    Format = iota // multi-document YAML
	FormatMsgpack               // uvarint-framed msgpack documents
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ❌ FormatError reports a store whose extension is not a known encoding.
type FormatError struct {
	Path string
	Ext  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported edit store %s: extension %q is not %s, %s or %s", e.Path, e.Ext, Extension, ShortExtension, BinaryExtension)
}

// 🔍 FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case Extension, ShortExtension:
		return FormatYAML, nil
	case BinaryExtension:
		return FormatMsgpack, nil
	default:
		return 0, &FormatError{Path: path, Ext: ext}
	}
}

// IsStorePath reports whether path carries a store extension.
func IsStorePath(path string) bool {
	_, err := FormatForPath(path)
	return err == nil
}
