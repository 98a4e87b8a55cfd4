package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidUser      = errors.New("invalid user")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidRecord    = errors.New("invalid swipe record")
)

type UserID string

const (
	UserA UserID = "A"
	UserB UserID = "B"
)

var Users = []UserID{UserA, UserB}

func (u UserID) Partner() UserID {
	if u == UserA {
		return UserB
	}
	return UserA
}

func (u UserID) Valid() bool {
	return u == UserA || u == UserB
}

// Accepts legacy "userA"/"userB" spellings as well.
func ParseUserID(s string) (UserID, error) {
	switch strings.TrimPrefix(strings.TrimSpace(s), "user") {
	case "A", "a":
		return UserA, nil
	case "B", "b":
		return UserB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUser, s)
}

type Direction string

const (
	Like Direction = "like"
	Pass Direction = "pass"
)

func (d Direction) Valid() bool {
	return d == Like || d == Pass
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "right":
		return Like, nil
	case "pass", "left", "nope":
		return Pass, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

type SwipeRecord struct {
	UserID    UserID    `json:"userId"`
	RecipeID  RecipeID  `json:"recipeId"`
	Direction Direction `json:"direction"`
	// Unix milliseconds
	Timestamp int64 `json:"timestamp"`
}

func (r SwipeRecord) Key() string {
	return string(r.UserID) + ":" + r.RecipeID
}

type Snapshot = []SwipeRecord

// ParseSwipeRecord validates raw persisted fields.
func ParseSwipeRecord(user, recipeID, dir string, ts int64) (SwipeRecord, error) {
	u, err := ParseUserID(user)
	if err != nil {
		return SwipeRecord{}, err
	}
	d, err := ParseDirection(dir)
	if err != nil {
		return SwipeRecord{}, err
	}
	if recipeID == "" {
		return SwipeRecord{}, fmt.Errorf("%w: empty recipe id", ErrInvalidRecord)
	}
	return SwipeRecord{UserID: u, RecipeID: recipeID, Direction: d, Timestamp: ts}, nil
}
