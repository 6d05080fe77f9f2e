package game

import "errors"

// Kind classifies an error for callers that must decide how to surface it
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindBusy
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindBusy:
		return "busy"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a typed rejection. Rejections never touch the stored session.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var (
	ErrGameNotFound   = &Error{Kind: KindNotFound, Msg: "game not found"}
	ErrPlayerNotFound = &Error{Kind: KindNotFound, Msg: "player not found"}
	ErrTargetNotFound = &Error{Kind: KindNotFound, Msg: "no such player"}

	ErrNotHost          = &Error{Kind: KindForbidden, Msg: "only the host can do that"}
	ErrWrongPhase       = &Error{Kind: KindForbidden, Msg: "not allowed in the current phase"}
	ErrNotActive        = &Error{Kind: KindForbidden, Msg: "player has left the game"}
	ErrNotEnoughPlayers = &Error{Kind: KindForbidden, Msg: "not enough players to start"}
	ErrCannotKickHost   = &Error{Kind: KindForbidden, Msg: "the host cannot be kicked"}

	ErrGameFull       = &Error{Kind: KindConflict, Msg: "game is full"}
	ErrNameTaken      = &Error{Kind: KindConflict, Msg: "name is already taken"}
	ErrInvalidName    = &Error{Kind: KindConflict, Msg: "name is empty or too long"}
	ErrSelfVote       = &Error{Kind: KindConflict, Msg: "you cannot vote for yourself"}
	ErrTargetInactive = &Error{Kind: KindConflict, Msg: "that player has left the game"}

	ErrBusy = &Error{Kind: KindBusy, Msg: "game is busy, try again"}
)

// Unavailable wraps a store or channel failure
func Unavailable(msg string, cause error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Cause: cause}
}

// KindOf returns the kind of err, KindInternal for untyped errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
