package progress

import "github.com/KentaroHashi12/Futarigohan/internal/model"

// DeckSize caps the regular phase: a user who swiped this many recipes is
// done with the regular deck even when the catalog is larger.
const DeckSize = 10

type Progress struct {
	User     model.UserID `json:"user"`
	Swiped   int          `json:"swiped"`
	Liked    int          `json:"liked"`
	Finished bool         `json:"finished"`
}

// latest collapses records sharing a (user, recipe) key, keeping the most
// recent one. Backings enforce the key already; this only guards reads.
func latest(log model.Snapshot) map[string]model.SwipeRecord {
	out := make(map[string]model.SwipeRecord, len(log))
	for _, rec := range log {
		if prev, ok := out[rec.Key()]; ok && prev.Timestamp > rec.Timestamp {
			continue
		}
		out[rec.Key()] = rec
	}
	return out
}

func SwipedIDs(log model.Snapshot, user model.UserID) model.IDSet {
	ids := model.NewIDSet()
	for _, rec := range log {
		if rec.UserID == user {
			ids.Add(rec.RecipeID)
		}
	}
	return ids
}

func LikedBy(log model.Snapshot, user model.UserID) model.IDSet {
	ids := model.NewIDSet()
	for _, rec := range latest(log) {
		if rec.UserID == user && rec.Direction == model.Like {
			ids.Add(rec.RecipeID)
		}
	}
	return ids
}

func Matches(log model.Snapshot) model.IDSet {
	a := LikedBy(log, model.UserA)
	b := LikedBy(log, model.UserB)

	out := model.NewIDSet()
	for id := range a {
		if b.Has(id) {
			out.Add(id)
		}
	}
	return out
}

func HasFinishedRegular(log model.Snapshot, user model.UserID, regularIDs []model.RecipeID) bool {
	swiped := SwipedIDs(log, user)
	if swiped.Len() >= DeckSize {
		return true
	}
	for _, id := range regularIDs {
		if !swiped.Has(id) {
			return false
		}
	}
	return true
}

func Summarize(log model.Snapshot, user model.UserID, regularIDs []model.RecipeID) Progress {
	return Progress{
		User:     user,
		Swiped:   SwipedIDs(log, user).Len(),
		Liked:    LikedBy(log, user).Len(),
		Finished: HasFinishedRegular(log, user, regularIDs),
	}
}
