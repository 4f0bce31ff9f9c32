package models

import "errors"

var (
	ErrUnauthenticated = errors.New("no authenticated customer identity")
	ErrNoCustomer      = errors.New("authenticated identity has no customer profile")
	ErrNoRequest       = errors.New("requested service request does not exist")
	ErrInvalidSource   = errors.New("unknown request source")
	ErrNotCancellable  = errors.New("only active requests can be cancelled")
	ErrPrimaryFetch    = errors.New("could not load service requests")
)
