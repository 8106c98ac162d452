package store

import "errors"

// Sentinel errors returned by store lookups. Services translate these into
// domain errors at their boundary.
var (
	ErrEntitlementNotFound = errors.New("entitlement record not found")
	ErrUserNotFound        = errors.New("user record not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrBookmarkNotFound    = errors.New("bookmark not found")
	ErrSessionNotFound     = errors.New("playback session not found")
	ErrLibraryFull         = errors.New("library is at capacity")
	ErrBookmarkLimit       = errors.New("bookmark limit reached")
)
