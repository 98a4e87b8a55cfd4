package model

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

var ErrRecipeNotFound = errors.New("recipe not found")

const JokerCategory = "joker"

const searchBaseURL = "https://www.google.com/search?q="

type RecipeID = string

type Recipe struct {
	ID          RecipeID `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	ImageRef    string   `json:"image_url" yaml:"image_url"`
	Tags        []string `json:"tags" yaml:"tags"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	SearchQuery string   `json:"search_query" yaml:"search_query"`
}

// Joker recipes are only dealt once both identities ran out of regular cards.
func (r Recipe) IsFallback() bool {
	return r.Category == JokerCategory
}

func (r Recipe) SearchURL() string {
	q := r.SearchQuery
	if q == "" {
		q = r.Name
	}
	return searchBaseURL + url.QueryEscape(q)
}

type Catalog struct {
	Regular  []Recipe
	Fallback []Recipe

	byID map[RecipeID]Recipe
}

// NewCatalog splits recipes into regular and fallback decks keeping
// input order. Later duplicates of an id are dropped.
func NewCatalog(recipes []Recipe) *Catalog {
	c := &Catalog{
		Regular:  make([]Recipe, 0, len(recipes)),
		Fallback: make([]Recipe, 0),
		byID:     make(map[RecipeID]Recipe, len(recipes)),
	}
	for _, r := range recipes {
		if _, dup := c.byID[r.ID]; dup {
			continue
		}
		c.byID[r.ID] = r
		if r.IsFallback() {
			c.Fallback = append(c.Fallback, r)
		} else {
			c.Regular = append(c.Regular, r)
		}
	}
	return c
}

func (c *Catalog) ByID(id RecipeID) (Recipe, bool) {
	r, ok := c.byID[id]
	return r, ok
}

func (c *Catalog) Get(id RecipeID) (Recipe, error) {
	r, ok := c.byID[id]
	if !ok {
		return Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
	}
	return r, nil
}

func (c *Catalog) RegularIDs() []RecipeID {
	ids := make([]RecipeID, 0, len(c.Regular))
	for _, r := range c.Regular {
		ids = append(ids, r.ID)
	}
	return ids
}

func (c *Catalog) All() []Recipe {
	return slices.Concat(c.Regular, c.Fallback)
}

// Resolve maps ids to recipes, skipping ids the catalog does not know.
func (c *Catalog) Resolve(ids []RecipeID) []Recipe {
	out := make([]Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
