package session

import "errors"

// ErrInitialization wraps any failure occurring before a session reaches
// Ready. The caller must surface it; the user is never shown a session
// with half-initialized data.
var ErrInitialization = errors.New("session initialization failed")

// ErrNotReady is returned when an operation requires a Ready session.
var ErrNotReady = errors.New("session not ready")

// ErrActiveSession is returned when logging in over an existing session.
var ErrActiveSession = errors.New("session already active")
