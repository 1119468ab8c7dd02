package playback

import "errors"

// ErrSessionClosed is returned by operations on a torn-down session.
var ErrSessionClosed = errors.New("session closed")

// PreconditionError reports an operation invoked from a state that does
// not allow it: play without chunks or a voice, pause while not playing,
// navigation outside the document.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}
