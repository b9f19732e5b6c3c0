package domain

import "errors"

var (
	ErrNotFound        = errors.New("bug not found")
	ErrBusy            = errors.New("request already in progress")
	ErrAlreadyAssigned = errors.New("bug is already assigned to this member")
	ErrNoDeleteDialog  = errors.New("delete has not been requested")
	ErrNotEditing      = errors.New("bug is not being edited")
	ErrClosed          = errors.New("bug view has been closed")
	ErrEmptyTitle      = errors.New("title is required")
)
