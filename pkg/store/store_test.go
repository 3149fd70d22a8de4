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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func writeStore(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing store fixture")
	return path
}

const twoDocuments = `---
MainSourceFile: /src/a.cc
Replacements:
  - FilePath: /src/a.cc
    Offset: 10
    Length: 5
    ReplacementText: Bar
...
---
MainSourceFile: /src/b.cc
Replacements:
  - FilePath: /src/b.cc
    Offset: 0
    Length: 0
    ReplacementText: "// header\n"
  - FilePath: /src/a.cc
    Offset: 20
    Length: 3
    ReplacementText: ""
...
`

func TestCollect(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		wantErr     bool
		errContains string
		check       func(t *testing.T, c *Contents)
	}{
		{
			name:    "empty_file",
			file:    "empty.yaml",
			content: "",
			check: func(t *testing.T, c *Contents) {
				assert.True(t, c.Empty(), "empty store should produce no batches")
				assert.Zero(t, c.Skipped)
			},
		},
		{
			name:    "multiple_documents_in_order",
			file:    "edits.yaml",
			content: twoDocuments,
			check: func(t *testing.T, c *Contents) {
				require.Len(t, c.Replacements, 2, "both documents should be collected")
				assert.Equal(t, "/src/a.cc", c.Replacements[0].SourceFile)
				assert.Equal(t, "/src/b.cc", c.Replacements[1].SourceFile)
				assert.Equal(t, replace.Replacement{FilePath: "/src/a.cc", Offset: 10, Length: 5, Text: "Bar"}, c.Replacements[0].Replacements[0])
				assert.Equal(t, "// header\n", c.Replacements[1].Replacements[0].Text)
				assert.Equal(t, 3, c.ReplacementCount())
			},
		},
		{
			name: "truncated_second_document_is_skipped",
			file: "edits.yaml",
			content: `---
MainSourceFile: /src/a.cc
Replacements:
  - FilePath: /src/a.cc
    Offset: 10
    Length: 5
    ReplacementText: Bar
...
---
MainSourceFile: /src/b.cc
Replacements:
  - FilePath: /src/b.cc
    Offs`,
			check: func(t *testing.T, c *Contents) {
				require.Len(t, c.Replacements, 1, "only the complete document survives")
				assert.Equal(t, "/src/a.cc", c.Replacements[0].SourceFile)
				assert.Equal(t, 1, c.Skipped)
			},
		},
		{
			name: "cut_after_replacement_text_key",
			file: "edits.yaml",
			content: `---
MainSourceFile: /src/a.cc
Replacements:
  - FilePath: /src/a.cc
    Offset: 10
    Length: 5
    ReplacementText: Bar
...
---
MainSourceFile: /src/b.cc
Replacements:
  - FilePath: /src/b.cc
    Offset: 4
    Length: 2
    ReplacementText:`,
			check: func(t *testing.T, c *Contents) {
				require.Len(t, c.Replacements, 1, "the cut document must not turn into a deletion")
				assert.Equal(t, "/src/a.cc", c.Replacements[0].SourceFile)
				assert.Equal(t, 1, c.Skipped)
			},
		},
		{
			name: "cut_after_file_path",
			file: "edits.yaml",
			content: `---
MainSourceFile: /src/b.cc
Replacements:
  - FilePath: /src/b.cc
`,
			check: func(t *testing.T, c *Contents) {
				assert.True(t, c.Empty(), "a zero offset and length must not be assumed")
				assert.Equal(t, 1, c.Skipped)
			},
		},
		{
			name: "terminated_document_missing_keys",
			file: "edits.yaml",
			content: `---
MainSourceFile: /src/a.cc
Replacements:
  - {FilePath: /src/a.cc, Offset: 1, Length: 1}
...
---
MainSourceFile: /src/b.cc
Replacements:
  - {FilePath: /src/b.cc, Offset: 1, ReplacementText: x}
...
---
MainSourceFile: /src/c.cc
Replacements:
  - {FilePath: /src/c.cc, Offset: 0, Length: 0, ReplacementText: ""}
...
`,
			check: func(t *testing.T, c *Contents) {
				require.Len(t, c.Replacements, 1, "an explicit empty text is still present")
				assert.Equal(t, "/src/c.cc", c.Replacements[0].SourceFile)
				assert.Equal(t, 2, c.Skipped)
			},
		},
		{
			name: "malformed_document_in_the_middle",
			file: "edits.yaml",
			content: `---
MainSourceFile: /src/a.cc
Replacements: [{FilePath: /src/a.cc, Offset: 1, Length: 1, ReplacementText: x}]
...
---
MainSourceFile: /src/b.cc
Unexpected: true
...
---
MainSourceFile: /src/c.cc
Replacements: [{FilePath: /src/c.cc, Offset: -4, Length: 1, ReplacementText: x}]
...
---
MainSourceFile: /src/d.cc
Replacements: [{FilePath: /src/d.cc, Offset: 2, Length: 0, ReplacementText: y}]
...
`,
			check: func(t *testing.T, c *Contents) {
				require.Len(t, c.Replacements, 2)
				assert.Equal(t, "/src/a.cc", c.Replacements[0].SourceFile)
				assert.Equal(t, "/src/d.cc", c.Replacements[1].SourceFile)
				assert.Equal(t, 2, c.Skipped, "unknown key and negative offset are both malformed")
			},
		},
		{
			name: "diagnostics_document",
			file: "edits.yaml",
			content: `---
MainSourceFile: /src/a.cc
Diagnostics:
  - DiagnosticName: rename
    Message: call to Foo
    FilePath: /src/a.cc
    FileOffset: 12
    Fixes:
      - Name: primary
        Replacements:
          - {FilePath: /src/a.cc, Offset: 12, Length: 3, ReplacementText: Bar}
      - Name: alternative
        Replacements:
          - {FilePath: /src/a.cc, Offset: 12, Length: 3, ReplacementText: Baz}
...
`,
			check: func(t *testing.T, c *Contents) {
				assert.Empty(t, c.Replacements)
				require.Len(t, c.Diagnostics, 1)
				require.Len(t, c.Diagnostics[0].Diagnostics, 1)
				d := c.Diagnostics[0].Diagnostics[0]
				assert.Equal(t, "rename", d.Name)
				assert.Equal(t, 12, d.FileOffset)
				assert.Len(t, d.Fixes, 2)
				assert.Equal(t, "Bar", d.FirstFix()[0].Text)
			},
		},
		{
			name:    "comments_only",
			file:    "edits.yaml",
			content: "# nothing here\n---\n...\n",
			check: func(t *testing.T, c *Contents) {
				assert.True(t, c.Empty())
				assert.Zero(t, c.Skipped)
			},
		},
		{
			name:        "wrong_extension",
			file:        "edits.json",
			content:     "{}",
			wantErr:     true,
			errContains: "unsupported edit store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			path := writeStore(t, tt.file, tt.content)

			c, err := Collect(ctx, path)
			if tt.wantErr {
				require.Error(t, err, "Collect should fail")
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err, "Collect should succeed")
			tt.check(t, c)
		})
	}
}

func TestCollectFormatError(t *testing.T) {
	_, err := Collect(testContext(t), "/nowhere/edits.txt")
	require.Error(t, err)

	var ferr *FormatError
	require.True(t, errors.As(err, &ferr), "error should be a FormatError")
	assert.Equal(t, ".txt", ferr.Ext)
}

func TestCollectMissingFile(t *testing.T) {
	_, err := Collect(testContext(t), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading edit store")
}

func TestWriterRoundTrip(t *testing.T) {
	for _, ext := range []string{Extension, BinaryExtension} {
		t.Run(ext[1:], func(t *testing.T) {
			ctx := testContext(t)
			w, err := NewWriter(filepath.Join(t.TempDir(), "out"+ext))
			require.NoError(t, err)
			require.NoError(t, w.Truncate(ctx))

			require.NoError(t, w.Append(ctx, replace.ReplacementBatch{
				SourceFile:   "/src/a.cc",
				Replacements: []replace.Replacement{{FilePath: "/src/a.cc", Offset: 3, Length: 2, Text: "multi\nline: text"}},
			}))
			require.NoError(t, w.Append(ctx, replace.ReplacementBatch{SourceFile: "/src/empty.cc"}), "empty batch is a no-op")
			require.NoError(t, w.AppendDiagnostics(ctx, replace.DiagnosticBatch{
				SourceFile: "/src/b.cc",
				Diagnostics: []replace.Diagnostic{{
					Name:       "rename",
					FilePath:   "/src/b.cc",
					FileOffset: 7,
					Fixes:      []replace.Fix{{Name: "fix", Replacements: []replace.Replacement{{FilePath: "/src/b.cc", Offset: 7, Length: 1, Text: "y"}}}},
				}},
			}))
			assert.Equal(t, 2, w.Batches())

			c, err := Collect(ctx, w.Path())
			require.NoError(t, err)
			require.Len(t, c.Replacements, 1)
			assert.Equal(t, "multi\nline: text", c.Replacements[0].Replacements[0].Text)
			require.Len(t, c.Diagnostics, 1)
			assert.Equal(t, 7, c.Diagnostics[0].Diagnostics[0].FirstFix()[0].Offset)
			assert.Zero(t, c.Skipped)
		})
	}
}

func TestWriterRejectsInvalidReplacement(t *testing.T) {
	ctx := testContext(t)
	w, err := NewWriter(filepath.Join(t.TempDir(), "out.yaml"))
	require.NoError(t, err)

	err = w.Append(ctx, replace.ReplacementBatch{
		SourceFile:   "/src/a.cc",
		Replacements: []replace.Replacement{{FilePath: "/src/a.cc", Offset: -1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative offset")
}

func TestNewWriterFormatError(t *testing.T) {
	_, err := NewWriter("edits.txt")
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr), "only .yaml, .yml and .msgpack are stores")
	assert.Equal(t, ".txt", ferr.Ext)
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "edits.yaml", want: FormatYAML},
		{path: "edits.yml", want: FormatYAML},
		{path: "EDITS.YML", want: FormatYAML},
		{path: "edits.msgpack", want: FormatMsgpack},
		{path: "edits.json", wantErr: true},
		{path: "edits", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if tt.wantErr {
				var ferr *FormatError
				require.True(t, errors.As(err, &ferr))
				assert.False(t, IsStorePath(tt.path))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsStorePath(tt.path))
		})
	}
}

func TestCollectShortExtension(t *testing.T) {
	ctx := testContext(t)
	path := writeStore(t, "edits.yml", twoDocuments)

	c, err := Collect(ctx, path)
	require.NoError(t, err)
	assert.Len(t, c.Replacements, 2)
	assert.Zero(t, c.Skipped)
}

func TestWriterConcurrentAppend(t *testing.T) {
	for _, ext := range []string{Extension, BinaryExtension} {
		t.Run(ext[1:], func(t *testing.T) {
			ctx := testContext(t)
			w, err := NewWriter(filepath.Join(t.TempDir(), "out"+ext))
			require.NoError(t, err)

			const workers, perWorker = 8, 25
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(worker int) {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						file := fmt.Sprintf("/src/w%d_%d.cc", worker, j)
						assert.NoError(t, w.Append(ctx, replace.ReplacementBatch{
							SourceFile:   file,
							Replacements: []replace.Replacement{{FilePath: file, Offset: j, Length: 1, Text: "x"}},
						}))
					}
				}(i)
			}
			wg.Wait()

			c, err := Collect(ctx, w.Path())
			require.NoError(t, err)
			assert.Len(t, c.Replacements, workers*perWorker, "no document may be lost or torn")
			assert.Zero(t, c.Skipped)
		})
	}
}

func TestCollectMsgpackCorruptFrames(t *testing.T) {
	ctx := testContext(t)

	good := func(file string) []byte {
		doc, err := replacementDocument(replace.ReplacementBatch{
			SourceFile:   file,
			Replacements: []replace.Replacement{{FilePath: file, Offset: 1, Length: 1, Text: "z"}},
		})
		require.NoError(t, err)
		data, err := encodeMsgpackDocument(doc)
		require.NoError(t, err)
		return data
	}

	var data []byte
	data = append(data, good("/src/a.cc")...)
	data = append(data, 0x03, 0xc1, 0xc1, 0xc1) // a 3 byte body of reserved msgpack codes
	data = append(data, good("/src/b.cc")...)
	tail := good("/src/c.cc")
	data = append(data, tail[:len(tail)-2]...)

	path := filepath.Join(t.TempDir(), "edits.msgpack")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := Collect(ctx, path)
	require.NoError(t, err)
	require.Len(t, c.Replacements, 2)
	assert.Equal(t, "/src/a.cc", c.Replacements[0].SourceFile)
	assert.Equal(t, "/src/b.cc", c.Replacements[1].SourceFile)
	assert.Equal(t, 2, c.Skipped, "the corrupt body and the truncated tail")
}

func TestDelete(t *testing.T) {
	ctx := testContext(t)
	path := writeStore(t, "edits.yaml", twoDocuments)

	require.NoError(t, Delete(ctx, path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "store should be gone")

	require.NoError(t, Delete(ctx, path), "deleting twice is fine")
}

func TestSplitYAML(t *testing.T) {
	chunks := splitYAML([]byte("a: 1\n---\nb: 2\n...\n--- {c: 3}\n"))
	require.Len(t, chunks, 3)
	assert.Equal(t, "a: 1\n", string(chunks[0].data))
	assert.Equal(t, 1, chunks[0].line)
	assert.Equal(t, "b: 2\n", string(chunks[1].data))
	assert.Equal(t, 3, chunks[1].line)
	assert.Equal(t, " {c: 3}\n", string(chunks[2].data))
	assert.Equal(t, 5, chunks[2].line)

	assert.False(t, chunks[0].terminated, "closed by the next ---")
	assert.True(t, chunks[1].terminated)
	assert.False(t, chunks[2].terminated, "ended by end of input")
}

func TestCollectMsgpackMissingField(t *testing.T) {
	ctx := testContext(t)

	path, text, zero := "/src/a.cc", "Bar", uint64(0)
	complete, err := encodeMsgpackDocument(&wireDocument{
		MainSourceFile: path,
		Replacements:   []wireReplacement{{FilePath: &path, Offset: &zero, Length: &zero, ReplacementText: &text}},
	})
	require.NoError(t, err)
	missing, err := encodeMsgpackDocument(&wireDocument{
		MainSourceFile: path,
		Replacements:   []wireReplacement{{FilePath: &path, Offset: &zero, Length: &zero}},
	})
	require.NoError(t, err)

	store := writeStore(t, "edits.msgpack", string(append(missing, complete...)))
	c, err := Collect(ctx, store)
	require.NoError(t, err)
	require.Len(t, c.Replacements, 1)
	assert.Equal(t, "Bar", c.Replacements[0].Replacements[0].Text)
	assert.Equal(t, 1, c.Skipped, "the frame without ReplacementText")
}

func TestToReplacementMissingField(t *testing.T) {
	path, n := "/src/a.cc", uint64(3)
	_, err := toReplacement(wireReplacement{FilePath: &path, Offset: &n, ReplacementText: &path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingField))
	assert.Contains(t, err.Error(), "Length of /src/a.cc")
}
