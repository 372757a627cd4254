// Package flows ships the built-in wizard catalog: mood check-in, thought
// record, self-care picker, peer-support intake and journal reflection.
package flows

import (
	"embed"
	"io/fs"

	"github.com/aretw0/stepwise/pkg/adapters/yamlflow"
)

//go:embed catalog/*.yaml
var catalog embed.FS

// FS returns the catalog as a flat file system of <id>.yaml files.
func FS() fs.FS {
	sub, err := fs.Sub(catalog, "catalog")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}

// Loader returns a ports.FlowLoader over the built-in catalog.
func Loader() *yamlflow.Loader {
	return yamlflow.New(FS())
}
