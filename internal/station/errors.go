package station

import "fmt"

// SearchUnavailableError is returned when candidate stations could not be
// loaded. It separates "the search failed" from "nothing is nearby".
type SearchUnavailableError struct {
	Err error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("station search unavailable: %v", e.Err)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Err
}

func NewSearchUnavailableError(err error) *SearchUnavailableError {
	return &SearchUnavailableError{Err: err}
}
