// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-evpool.

package api

import "github.com/brickingsoft/errors"

// Common errors used across the library.
var (
	ErrInvalidParam      = errors.Define("invalid pool parameter")
	ErrResourceExhausted = errors.Define("resource exhausted")
	ErrPoolBusy          = errors.Define("pool busy")
	ErrInvalidHandle     = errors.Define("invalid handle")
	ErrStaleHandle       = errors.Define("stale handle")
)

// Metadata keys attached to contextual errors.
const (
	ErrMetaPkgKey   = "pkg"
	ErrMetaOpKey    = "op"
	ErrMetaPoolKey  = "pool"
	ErrMetaFieldKey = "field"
	ErrMetaIndexKey = "index"
	ErrMetaSlotKey  = "slot"
)

// IsInvalidParam reports whether err is or wraps ErrInvalidParam.
func IsInvalidParam(err error) bool {
	return errors.Is(err, ErrInvalidParam)
}

// IsResourceExhausted reports whether err is or wraps ErrResourceExhausted.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}

// IsPoolBusy reports whether err is or wraps ErrPoolBusy.
func IsPoolBusy(err error) bool {
	return errors.Is(err, ErrPoolBusy)
}

// IsInvalidHandle reports whether err is or wraps ErrInvalidHandle.
func IsInvalidHandle(err error) bool {
	return errors.Is(err, ErrInvalidHandle)
}

// IsStaleHandle reports whether err is or wraps ErrStaleHandle.
func IsStaleHandle(err error) bool {
	return errors.Is(err, ErrStaleHandle)
}
