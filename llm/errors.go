package llm

import (
	"errors"
	"fmt"
)

// APIError wraps a failure of the remote generation call: transport
// errors, quota errors, anything the provider's API returned. Callers
// can distinguish this class from unexpected local errors without
// importing SDK error types.
type APIError struct {
	Provider string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API call failed: %v", e.Provider, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err is (or wraps) a remote API failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
