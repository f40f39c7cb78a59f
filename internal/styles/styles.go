// package styles provides the static visual style catalog for slide rendering.
//
// Each style pairs display metadata with a directive string injected into every
// render prompt for decks using that style. The catalog is embedded, parsed once
// at startup, and never mutated.
package styles

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/mkbridge/slidekit/internal/shared"
)

//go:embed styles.toml
var catalogData []byte

// Definition is one entry in the style catalog.
type Definition struct {
	ID          string `toml:"id" json:"id"`
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description"`
	Directive   string `toml:"directive" json:"-"`
}

type catalogFile struct {
	Styles []Definition `toml:"styles"`
}

var catalog []Definition

func init() {
	var file catalogFile
	if err := toml.Unmarshal(catalogData, &file); err != nil {
		panic(fmt.Sprintf("failed to parse embedded style catalog: %v", err))
	}
	if len(file.Styles) == 0 {
		panic("embedded style catalog is empty")
	}
	catalog = file.Styles
}

// All returns the catalog in declaration order. Callers must not modify entries.
func All() []Definition {
	return catalog
}

// Lookup resolves a style id to its definition.
func Lookup(id string) (*Definition, error) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrStyleNotFound, id)
}

// Default returns the id of the first catalog entry.
func Default() string {
	return catalog[0].ID
}
