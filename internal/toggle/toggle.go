// Package toggle holds the vote and favourite state machines. The state of a
// (image, user) pair is derived from row presence by the caller; the
// transition functions only say what the next state is and which row
// operation moves the store there.
package toggle

import "errors"

var (
	ErrInvalidCommand   = errors.New("invalid command")
	ErrNotVoted         = errors.New("user has not voted")
	ErrAlreadyFavourite = errors.New("image already in favourites")
	ErrNotFavourite     = errors.New("image is not in favourites")
)

// Effect is the row operation a transition requires.
type Effect int

const (
	None Effect = iota
	Create
	Update
	Delete
)

func (e Effect) String() string {
	switch e {
	case None:
		return "none"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}
