package db

import "errors"

var (
	ErrClosed    = errors.New("storage: database is closed")
	ErrNotFound  = errors.New("storage: key not found")
	ErrBatchDone = errors.New("storage: batch already committed or closed")
)
