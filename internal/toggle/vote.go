package toggle

import "fmt"

type VoteState int

const (
	VoteAbsent VoteState = iota
	VoteUp
	VoteDown
)

func (s VoteState) String() string {
	switch s {
	case VoteAbsent:
		return "absent"
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "unknown"
	}
}

// Upvote reports the value stored in the vote row for s.
func (s VoteState) Upvote() bool { return s == VoteUp }

// VoteStateOf maps an existing vote row (or its absence) onto a state.
func VoteStateOf(exists, upvote bool) VoteState {
	switch {
	case !exists:
		return VoteAbsent
	case upvote:
		return VoteUp
	default:
		return VoteDown
	}
}

type VoteCommand string

const (
	VoteCmdUp   VoteCommand = "up"
	VoteCmdDown VoteCommand = "down"
	VoteCmdUndo VoteCommand = "undo"
)

func ParseVoteCommand(s string) (VoteCommand, error) {
	switch c := VoteCommand(s); c {
	case VoteCmdUp, VoteCmdDown, VoteCmdUndo:
		return c, nil
	}
	return "", fmt.Errorf("%w: type not in ('up', 'down', 'undo')", ErrInvalidCommand)
}

// NextVote applies cmd to cur. Repeating the current direction is a no-op;
// undo without a vote fails with ErrNotVoted and leaves the state unchanged.
func NextVote(cur VoteState, cmd VoteCommand) (VoteState, Effect, error) {
	switch cmd {
	case VoteCmdUp, VoteCmdDown:
		next := VoteUp
		if cmd == VoteCmdDown {
			next = VoteDown
		}
		switch cur {
		case VoteAbsent:
			return next, Create, nil
		case next:
			return cur, None, nil
		default:
			return next, Update, nil
		}
	case VoteCmdUndo:
		if cur == VoteAbsent {
			return cur, None, ErrNotVoted
		}
		return VoteAbsent, Delete, nil
	default:
		return cur, None, fmt.Errorf("%w: %q", ErrInvalidCommand, string(cmd))
	}
}
