package store

import "errors"

// Sentinel errors for store operations.
var (
	ErrIndexNotFound = errors.New("store: index not found")
	ErrIndexExists   = errors.New("store: index already exists")
)

// Op constants map to driver command names for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHSet        = "HSET"
	OpPing        = "PING"
	OpUpsert      = "UPSERT"
	OpQuery       = "QUERY"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
