package domain

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidRoom      = errors.New("invalid room")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrNotJoined        = errors.New("connection is not joined to a room")
	ErrUsernameTaken    = errors.New("username taken")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotOwner         = errors.New("not the resource owner")
	ErrOwnerNotFound    = errors.New("resource owner not found")
	ErrOwnerOffline     = errors.New("resource owner offline")
	ErrResourceExists   = errors.New("resource already exists")
	ErrPersistFailed    = errors.New("persist failed")
	ErrRateLimited      = errors.New("rate limited")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrInvalidRoom, "InvalidRoom"},
	{ErrInvalidUsername, "InvalidUsername"},
	{ErrNotJoined, "NotJoined"},
	{ErrUsernameTaken, "UsernameTaken"},
	{ErrPermissionDenied, "PermissionDenied"},
	{ErrNotOwner, "NotOwner"},
	{ErrOwnerNotFound, "OwnerNotFound"},
	{ErrOwnerOffline, "OwnerOffline"},
	{ErrResourceExists, "ResourceExists"},
	{ErrPersistFailed, "PersistFailed"},
	{ErrRateLimited, "RateLimited"},
	{ErrInvalidRequest, "InvalidRequest"},
}

// Reason maps an error to the stable wire reason reported in acks.
// Unknown errors map to InvalidRequest.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "InvalidRequest"
}
