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
	"slices"
	"sync"

	"github.com/walteh/xform/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrUnknownMatcher   = errors.Base("unknown matcher")
	ErrDuplicateMatcher = errors.Base("matcher already registered")
)

// 🔎 Matcher proposes replacements for one file. A matcher instance is
// created per chunk and reused for every file of that chunk, never shared
// between goroutines.
type Matcher interface {
	ID() string
	Match(ctx context.Context, path string, content []byte) ([]replace.Replacement, error)
}

// Factory builds a matcher from its command line arguments.
type Factory func(args []string) (Matcher, error)

type entry struct {
	description string
	factory     Factory
}

// 📚 Registry maps matcher ids to factories. It is built explicitly at
// startup and passed to whoever needs it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// 🏭 NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a factory under id.
func (r *Registry) Register(id, description string, factory Factory) error {
	if id == "" {
		return errors.New("matcher id is empty")
	}
	if factory == nil {
		return errors.Errorf("matcher %s has no factory", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return errors.Errorf("registering %s: %w", id, ErrDuplicateMatcher)
	}
	r.entries[id] = entry{description: description, factory: factory}
	return nil
}

// Create instantiates the matcher registered as id.
func (r *Registry) Create(id string, args []string) (Matcher, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Errorf("creating %s: %w", id, ErrUnknownMatcher)
	}
	m, err := e.factory(args)
	if err != nil {
		return nil, errors.Errorf("creating matcher %s: %w", id, err)
	}
	return m, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// Describe returns the one-line description of id.
func (r *Registry) Describe(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id].description
}

// IDs returns all registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks every id is registered.
func (r *Registry) Validate(ids []string) error {
	for _, id := range ids {
		if !r.Has(id) {
			return errors.Errorf("%q: %w (available: %v)", id, ErrUnknownMatcher, r.IDs())
		}
	}
	return nil
}

// 🧰 RegisterBuiltins registers the matchers shipped with xform.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		id, description string
		factory         Factory
	}{
		{RenameID, "rename call sites of a function (--old, --new)", NewRename},
		{RegexID, "replace regular expression matches (--pattern, --replace)", NewRegex},
		{LiteralID, "replace literal text in matching files (--from, --to, --files)", NewLiteral},
	}
	for _, b := range builtins {
		if err := r.Register(b.id, b.description, b.factory); err != nil {
			return err
		}
	}
	return nil
}
