package engine

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrSelfLoop        = errors.New("link source and target are the same node")
	ErrDuplicateLink   = errors.New("nodes are already connected")
	ErrDuplicateID     = errors.New("id already in use")
	ErrInvalidSettings = errors.New("invalid settings")
)
