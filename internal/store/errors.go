package store

import "errors"

// ErrDuplicateKey is returned by Persist when a batch collides with an
// external id already stored.
var ErrDuplicateKey = errors.New("already exists")
