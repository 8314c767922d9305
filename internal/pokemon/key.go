package pokemon

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidKey indicates an identifier that can never match a Pokémon.
var ErrInvalidKey = eris.New("pokemon id must be positive and name must not be empty")

// Key identifies a Pokémon either by upstream id or by name.
type Key struct {
	id   int
	name string
}

// ByID builds an id key.
func ByID(id int) Key {
	return Key{id: id}
}

// ByName builds a name key. Names are matched in lowercase, the form the upstream uses.
func ByName(name string) Key {
	return Key{name: strings.ToLower(strings.TrimSpace(name))}
}

// ParseKey treats all-digit input as an id and anything else as a name.
func ParseKey(raw string) Key {
	trimmed := strings.TrimSpace(raw)
	if id, err := strconv.Atoi(trimmed); err == nil {
		return ByID(id)
	}
	return ByName(trimmed)
}

// IsID reports whether the key addresses a numeric id.
func (k Key) IsID() bool {
	return k.name == ""
}

// ID returns the numeric id; only meaningful when IsID is true.
func (k Key) ID() int {
	return k.id
}

// Name returns the normalised name; empty for id keys.
func (k Key) Name() string {
	return k.name
}

// String renders the key as the upstream path segment.
func (k Key) String() string {
	if k.IsID() {
		return strconv.Itoa(k.id)
	}
	return k.name
}

// Validate rejects non-positive ids.
func (k Key) Validate() error {
	if k.IsID() && k.id <= 0 {
		return eris.Wrapf(ErrInvalidKey, "invalid key %q", k.String())
	}
	return nil
}

func (k Key) flightKey() string {
	if k.IsID() {
		return "id:" + strconv.Itoa(k.id)
	}
	return "name:" + k.name
}
