package toggle

import "fmt"

type FavouriteState int

const (
	FavouriteAbsent FavouriteState = iota
	FavouritePresent
)

func (s FavouriteState) String() string {
	if s == FavouritePresent {
		return "present"
	}
	return "absent"
}

func FavouriteStateOf(exists bool) FavouriteState {
	if exists {
		return FavouritePresent
	}
	return FavouriteAbsent
}

type FavouriteCommand string

const (
	FavouriteCmdAdd    FavouriteCommand = "add"
	FavouriteCmdRemove FavouriteCommand = "remove"
)

func ParseFavouriteCommand(s string) (FavouriteCommand, error) {
	switch c := FavouriteCommand(s); c {
	case FavouriteCmdAdd, FavouriteCmdRemove:
		return c, nil
	}
	return "", fmt.Errorf("%w: type not in ('add', 'remove')", ErrInvalidCommand)
}

// NextFavourite applies cmd to cur. Unlike votes, repeating a command is an
// error rather than a no-op.
func NextFavourite(cur FavouriteState, cmd FavouriteCommand) (FavouriteState, Effect, error) {
	switch cmd {
	case FavouriteCmdAdd:
		if cur == FavouritePresent {
			return cur, None, ErrAlreadyFavourite
		}
		return FavouritePresent, Create, nil
	case FavouriteCmdRemove:
		if cur == FavouriteAbsent {
			return cur, None, ErrNotFavourite
		}
		return FavouriteAbsent, Delete, nil
	default:
		return cur, None, fmt.Errorf("%w: %q", ErrInvalidCommand, string(cmd))
	}
}
