package ollama

import "errors"

// UnavailableError wraps a failure to reach the Ollama server (connection
// refused, timeout, non-2xx status).
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// InvalidResponseError wraps a response the server returned successfully but
// whose payload is malformed (missing embedding or response field).
type InvalidResponseError struct {
	Err error
}

func (e *InvalidResponseError) Error() string {
	return e.Err.Error()
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if any error in the chain is an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsInvalidResponse returns true if any error in the chain is an
// InvalidResponseError.
func IsInvalidResponse(err error) bool {
	var ie *InvalidResponseError
	return errors.As(err, &ie)
}
