// Package errs shapes the errors the node's API handlers return to
// callers, separating what a client may see from what only the logs
// should carry.
package errs

import "errors"

// Response is the payload the node returns for any failed API call.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted carries an error whose message is safe to hand back to the
// caller, along with the HTTP status it maps to. Anything else is
// masked as a 500.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps an expected handler failure, such as a rejected
// block submission or an unknown hash, with its HTTP status code.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
