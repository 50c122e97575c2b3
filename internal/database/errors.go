package database

import "errors"

var (
	// ErrNotFound означает, что заявка с таким идентификатором не существует
	ErrNotFound = errors.New("booking not found")
)
