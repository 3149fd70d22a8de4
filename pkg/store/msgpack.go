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
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"
	"gitlab.com/tozd/go/errors"
)

// 📦 Binary stores are a sequence of frames: uvarint(len(body)) then body.
// The prefix lets the reader step over a body that fails to decode.

// msgpackFrame is one framed document and its byte offset in the store.
type msgpackFrame struct {
	offset int
	body   []byte
}

// errTruncatedFrame marks a final frame cut short by an interrupted write.
var errTruncatedFrame = errors.New("truncated frame")

// splitMsgpack walks the frames of a binary store. It stops at the first
// frame whose header or body runs past the end of data and returns the
// frames read so far along with errTruncatedFrame.
func splitMsgpack(data []byte) ([]msgpackFrame, error) {
	var frames []msgpackFrame
	pos := 0
	for pos < len(data) {
		size, n := binary.Uvarint(data[pos:])
		if n <= 0 {
			return frames, errors.Errorf("frame header at byte %d: %w", pos, errTruncatedFrame)
		}
		bodyStart := pos + n
		if size > uint64(len(data)-bodyStart) {
			return frames, errors.Errorf("frame at byte %d wants %d bytes: %w", pos, size, errTruncatedFrame)
		}
		bodyEnd := bodyStart + int(size)
		frames = append(frames, msgpackFrame{offset: pos, body: data[bodyStart:bodyEnd]})
		pos = bodyEnd
	}
	return frames, nil
}

func decodeMsgpackDocument(body []byte) (*wireDocument, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields(true)

	var doc wireDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Errorf("decoding msgpack document: %w", err)
	}
	return &doc, nil
}

func encodeMsgpackDocument(doc *wireDocument) ([]byte, error) {
	var body bytes.Buffer
	enc := msgpack.NewEncoder(&body)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Errorf("encoding msgpack document: %w", err)
	}

	frame := binary.AppendUvarint(nil, uint64(body.Len()))
	return append(frame, body.Bytes()...), nil
}
