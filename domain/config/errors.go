package config

import "errors"

var (
	ErrEmptyPalette      = errors.New("domain config: palette must have at least one color")
	ErrInvalidEdgeWeight = errors.New("domain config: default edge weight must be >= 1")
	ErrInvalidExpandCap  = errors.New("domain config: auto-expand caps must be non-negative")
)
