package storage

import "errors"

var (
	ErrDBConnection   = errors.New("database connection error")
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrWrite          = errors.New("write error")
	ErrRead           = errors.New("read error")
)
