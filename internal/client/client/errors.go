package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means there is no usable session. Read paths
	// degrade to empty data; write paths surface it.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNetworkUnreachable means the request never reached the server.
	ErrNetworkUnreachable = errors.New("network unreachable")
	// ErrRemoteRequestFailed means the server answered with a non-success
	// status or the exchange broke after the request was sent.
	ErrRemoteRequestFailed = errors.New("remote request failed")
	// ErrMalformedResponse means the body did not have an accepted shape.
	ErrMalformedResponse = errors.New("malformed response")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")

	ErrCreateFailed = errors.New("create trip failed")
	ErrUpdateFailed = errors.New("update trip failed")
	ErrDeleteFailed = errors.New("delete trip failed")
	ErrUploadFailed = errors.New("upload image failed")
)

// StatusError carries the HTTP status of a failed remote call.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrRemoteRequestFailed
}
