package model

import "slices"

type IDSet map[RecipeID]struct{}

func NewIDSet(ids ...RecipeID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id RecipeID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id RecipeID) {
	s[id] = struct{}{}
}

func (s IDSet) Len() int {
	return len(s)
}

func (s IDSet) Sorted() []RecipeID {
	ids := make([]RecipeID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
