package api

import "fmt"

// APIError is any non-2xx response that is not an authentication failure.
// Message carries the server-provided `error` or `detail` field when the
// response body was parseable JSON.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// AuthRefreshError reports a failed token refresh: the refresh endpoint
// rejected the call or the network failed during it.
type AuthRefreshError struct {
	Status int
	Err    error
}

func (e *AuthRefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("token refresh rejected with status %d", e.Status)
}

func (e *AuthRefreshError) Unwrap() error { return e.Err }

// AuthenticationRequiredError is terminal for the current session: the
// credentials have been cleared and the caller must route to a login flow.
type AuthenticationRequiredError struct {
	Err error
}

func (e *AuthenticationRequiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication required: %v", e.Err)
	}
	return "authentication required"
}

func (e *AuthenticationRequiredError) Unwrap() error { return e.Err }
