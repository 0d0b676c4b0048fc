// Package registry assigns dense numeric ids to person nicknames.
//
// The id↔nickname mapping is bijective and append-only for the duration
// of a run: ids start at 0, are handed out in first-mention order, and
// are never reused. Nicknames are compared byte-exact.
package registry

import (
	"errors"
	"fmt"

	"github.com/quirinpa/sem/pkg/model"
)

// ErrKnownNick is returned by Intern for an already-registered nickname.
var ErrKnownNick = errors.New("nickname already registered")

// Registry maps nicknames to dense PersonIDs and back.
type Registry struct {
	ids   map[string]model.PersonID
	names []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{ids: make(map[string]model.PersonID)}
}

// Intern registers a new nickname and returns its freshly allocated id.
// Interning a known nickname is an error; callers that merely want the
// id of an existing person use Lookup.
func (r *Registry) Intern(nick string) (model.PersonID, error) {
	if err := model.CheckNick(nick); err != nil {
		return 0, err
	}
	if _, ok := r.ids[nick]; ok {
		return 0, fmt.Errorf("%w: %q", ErrKnownNick, nick)
	}
	id := model.PersonID(len(r.names))
	r.ids[nick] = id
	r.names = append(r.names, nick)
	return id, nil
}

// Lookup returns the id of a known nickname.
func (r *Registry) Lookup(nick string) (model.PersonID, bool) {
	id, ok := r.ids[nick]
	return id, ok
}

// NameOf returns the nickname for an id. The mapping is total over ids
// the registry handed out; an unknown id means the engine corrupted its
// state, so NameOf panics rather than returning an error.
func (r *Registry) NameOf(id model.PersonID) string {
	if id < 0 || int(id) >= len(r.names) {
		panic(fmt.Sprintf("registry: unknown person id %d", id))
	}
	return r.names[id]
}

// Len returns the number of registered persons.
func (r *Registry) Len() int { return len(r.names) }

// Each calls fn for every person in id order.
func (r *Registry) Each(fn func(model.PersonID, string)) {
	for i, name := range r.names {
		fn(model.PersonID(i), name)
	}
}
