package domain

import (
	"fmt"

	"quiz-portal-client/internal/errors"
)

var (
	// ErrInvalidQuizData is returned when a quiz cannot be started with the given content.
	ErrInvalidQuizData = errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid quiz data"))
	// ErrIllegalTransition is returned when an intent is not allowed in the current state.
	ErrIllegalTransition = errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("illegal transition"))
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New(errors.CodeNotFound, errors.WithMessagef("quiz not found"), errors.WithKind("quiz"))
	// ErrResultNotFound indicates an unknown result ID.
	ErrResultNotFound = errors.New(errors.CodeNotFound, errors.WithMessagef("result not found"), errors.WithKind("result"))
	// ErrParticipantNotFound is returned when credentials match no participant.
	ErrParticipantNotFound = errors.New(errors.CodeNotFound, errors.WithMessagef("participant not found"), errors.WithKind("participant"))
	// ErrAlreadySubmitted is returned by the portal for a second submission of the same quiz.
	ErrAlreadySubmitted = errors.New(errors.CodeAlreadyExists, errors.WithMessagef("quiz already submitted"))
	// ErrUnauthenticated indicates a missing, expired or rejected token.
	ErrUnauthenticated = errors.New(errors.CodeUnauthenticated, errors.WithMessagef("unauthenticated"))
)

// InvalidQuizData reports why a quiz was rejected at start.
func InvalidQuizData(format string, args ...any) error {
	return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid quiz data: %s", fmt.Sprintf(format, args...)))
}

// IllegalTransition reports an intent that the current state forbids.
func IllegalTransition(intent string, state State) error {
	return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("%s not allowed in state %s", intent, state))
}
