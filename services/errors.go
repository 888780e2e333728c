package services

import "errors"

// Sentinel errors surfaced by the services. Handlers map these onto HTTP
// status codes with errors.Is; everything else is a 500.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrHabitNotFound          = errors.New("habit not found")
	ErrTeamNotFound           = errors.New("team not found")
	ErrCongratulationNotFound = errors.New("congratulation not found")

	// ErrTrackingExists is the losing side of a concurrent toggle: the
	// uniqueness constraint on (habit_id, user_id, date) rejected the insert.
	ErrTrackingExists = errors.New("tracking already exists for this date")

	ErrFutureDate    = errors.New("tracking date must not be in the future")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyInTeam = errors.New("user is already in a team")
	ErrNotInTeam     = errors.New("user is not in this team")
)
