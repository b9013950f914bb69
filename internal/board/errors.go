package board

import "errors"

// Sentinel errors. Callers wrap them with context via fmt.Errorf("%w: ...").
var (
	// ErrInvalidPosition reports a position violating a structural invariant.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrIllegalMove reports a move that is not legal in the current position.
	ErrIllegalMove = errors.New("illegal move")
	// ErrUnderflowUndo reports an undo with no move left in the history.
	ErrUnderflowUndo = errors.New("undo with empty history")
	// ErrEncodingMismatch reports encoded data that does not decode to a valid position.
	ErrEncodingMismatch = errors.New("encoding mismatch")
)
