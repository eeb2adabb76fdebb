package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned by Prompter.Ask when every attempt was
	// rejected by the guard.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
)
