package common

import (
	"errors"
	"fmt"
)

type UserVisibleError struct {
	Code    int
	Message string
}

func (e *UserVisibleError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.Code, e.Message)
}

func NewUserVisibleError(code int, message string) *UserVisibleError {
	return &UserVisibleError{
		Code:    code,
		Message: message,
	}
}

func WrapErrorForResponse(err error, message string) error {
	var e *UserVisibleError
	if errors.As(err, &e) {
		return &UserVisibleError{
			Code:    e.Code,
			Message: fmt.Sprintf("%s: %s", message, e.Message),
		}
	}
	var qe *QuerySyntaxError
	if errors.As(err, &qe) {
		return &UserVisibleError{
			Code:    422,
			Message: fmt.Sprintf("%s: %s", message, qe.Error()),
		}
	}
	return err
}

// QuerySyntaxError reports a structured query which the fulltext engine
// could not parse. It is shown to the user as a warning next to the search
// input, never turned into an empty result list.
type QuerySyntaxError struct {
	Query string
	Err   error
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("incorrect query syntax %q: %v", e.Query, e.Err)
}

func (e *QuerySyntaxError) Unwrap() error {
	return e.Err
}

// IsQuerySyntaxError reports whether err, or anything it wraps, is a
// *QuerySyntaxError.
func IsQuerySyntaxError(err error) bool {
	var qe *QuerySyntaxError
	return errors.As(err, &qe)
}

var (
	// ErrDataSourceUnavailable wraps failures to open a database or a
	// fulltext index.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	ErrRegexFuzzyConflict = errors.New("regex and fuzzy search cannot be combined")

	ErrUnknownSearchArea = errors.New("unknown search area")
)
