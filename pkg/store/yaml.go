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
	"bytes"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// yamlChunk is the raw text of one document and the line it starts on.
// terminated is set when a "..." line closed it.
type yamlChunk struct {
	line       int
	data       []byte
	terminated bool
}

// splitYAML cuts a multi-document stream on "---" and "..." marker lines.
// Decoding each chunk on its own keeps one broken document from hiding the
// documents after it.
func splitYAML(data []byte) []yamlChunk {
	var (
		chunks  []yamlChunk
		current bytes.Buffer
		start   = 1
	)

	flush := func(terminated bool) {
		if strings.TrimSpace(current.String()) != "" {
			chunks = append(chunks, yamlChunk{line: start, data: bytes.Clone(current.Bytes()), terminated: terminated})
		}
		current.Reset()
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	for i, line := range lines {
		trimmed := strings.TrimRight(string(line), " \t\r\n")
		switch {
		case trimmed == "---" || strings.HasPrefix(trimmed, "--- "):
			flush(false)
			start = i + 2
			// "--- {inline: doc}" keeps its content
			if rest := strings.TrimPrefix(trimmed, "---"); strings.TrimSpace(rest) != "" {
				start = i + 1
				current.WriteString(rest + "\n")
			}
		case trimmed == "...":
			flush(true)
			start = i + 2
		default:
			current.Write(line)
		}
	}
	flush(false)

	return chunks
}

// decodeYAMLDocument strictly decodes one chunk. A chunk holding only
// comments decodes to an empty document.
func decodeYAMLDocument(data []byte) (*wireDocument, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc wireDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, errors.Errorf("decoding yaml document: %w", err)
	}
	return &doc, nil
}

// encodeYAMLDocument renders one complete, terminated document.
func encodeYAMLDocument(doc *wireDocument) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Errorf("encoding yaml document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("closing yaml encoder: %w", err)
	}

	buf.WriteString("...\n")
	return buf.Bytes(), nil
}
