package domain

import "errors"

var (
	// ErrGameNotFound is returned when no active session matches a join code.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameLocked is returned when the session exists but refuses new joins.
	ErrGameLocked = errors.New("game is locked")
	// ErrNameTaken is returned when the requested name is already held in the session.
	ErrNameTaken = errors.New("name already in use")
	// ErrNameBanned is returned when the requested name is on the session's ban list.
	ErrNameBanned = errors.New("name is banned from this game")
	// ErrParticipantNotFound is returned when a connection acts without a participant record.
	ErrParticipantNotFound = errors.New("participant not found in game")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotAllowed is returned for requests that fail a role or state guard.
	ErrNotAllowed = errors.New("request not allowed")
)
