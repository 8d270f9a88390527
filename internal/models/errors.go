package models

import "errors"

var (
	// ErrNotFound is returned by stores when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores when a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
)
