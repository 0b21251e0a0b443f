package storage

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrVerificationExists   = errors.New("verification already exists")
)
