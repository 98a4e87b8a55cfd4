package infra_catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"gopkg.in/yaml.v3"
)

var ErrCatalogLoad = errors.New("catalog load failed")

//go:embed recipes.yaml
var defaultRecipes []byte

// Load reads the catalog file at path. An empty path selects the built-in
// catalog. JSON files are accepted too.
func Load(path string) (*model.Catalog, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}
	defer f.Close()

	return Decode(f)
}

func Default() (*model.Catalog, error) {
	return Decode(bytes.NewReader(defaultRecipes))
}

func Decode(r io.Reader) (*model.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var recipes []model.Recipe
	if err := dec.Decode(&recipes); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewCatalog(nil), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}

	for i, rc := range recipes {
		if rc.ID == "" {
			return nil, fmt.Errorf("%w: recipe #%d has no id", ErrCatalogLoad, i+1)
		}
		if rc.Name == "" {
			return nil, fmt.Errorf("%w: recipe %s has no name", ErrCatalogLoad, rc.ID)
		}
	}

	return model.NewCatalog(recipes), nil
}
