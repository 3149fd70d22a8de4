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

package apply

import (
	"context"
	"go/format"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Formatter post-processes rewritten content before it is written.
type Formatter interface {
	Format(ctx context.Context, path string, content []byte) ([]byte, error)
}

// GoFormatter runs gofmt on .go files and leaves everything else alone.
type GoFormatter struct{}

func (GoFormatter) Format(ctx context.Context, path string, content []byte) ([]byte, error) {
	if filepath.Ext(path) != ".go" {
		return content, nil
	}
	out, err := format.Source(content)
	if err != nil {
		return nil, errors.Errorf("formatting %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Trace().Str("file", path).Msg("formatted")
	return out, nil
}

// NopFormatter returns content unchanged.
type NopFormatter struct{}

func (NopFormatter) Format(_ context.Context, _ string, content []byte) ([]byte, error) {
	return content, nil
}
