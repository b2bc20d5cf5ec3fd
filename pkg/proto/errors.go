package proto

import (
	"errors"
)

var (
	// ErrNoSession is returned when the caller has no identity session.
	ErrNoSession = errors.New("no session")
	// ErrUnauthorizedRole is returned when the caller's role is insufficient.
	ErrUnauthorizedRole = errors.New("unauthorized role")
	// ErrLookupFailure is returned when the directory store lookup fails.
	ErrLookupFailure = errors.New("privileged user lookup failed")
	// ErrStaleMarker is returned when an admin marker is expired or malformed.
	ErrStaleMarker = errors.New("stale admin marker")
	// ErrInvalidCredentials is returned when sign-in credentials don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("email already taken")
	// ErrUserNotFound is returned when a privileged user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrIdentityNotFound is returned when an identity is not found.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrCommitteeNotFound is returned when a committee is not found.
	ErrCommitteeNotFound = errors.New("committee not found")
	// ErrCommitteeExist is returned when a committee name is taken.
	ErrCommitteeExist = errors.New("committee already exists")
	// ErrApplicationNotFound is returned when an application is not found.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrApplicationExist is returned when an email already has an application.
	ErrApplicationExist = errors.New("application already exists")
	// ErrPaperNotFound is returned when a paper is not found.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrInvalidInput is returned when a request is missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)
