package research

import "errors"

var (
	ErrNotFound = errors.New("report not found")
	ErrBadInput = errors.New("invalid input")
)

const malformedResponseMessage = "The AI returned a response that could not be understood. Try again."

// UpstreamError wraps a failure of one of the dependencies this service
// leans on (suggest relays, the target page fetch, the AI provider) so
// the API layer can answer with a gateway status and Message as the body.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(message string, err error) *UpstreamError {
	return &UpstreamError{Message: message, Err: err}
}
