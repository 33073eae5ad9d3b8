package domain

import "errors"

var ErrInvalidLatitude = errors.New("latitude must be between -90 and 90")
var ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
var ErrInvalidRadius = errors.New("radius must be between 1 and 100 km")
var ErrMissingIdentifier = errors.New("missing icao24 parameter")

// ErrUpstreamUnavailable covers connection failures, timeouts, and non-2xx
// answers from a third-party API. A 404 is not an error: it is an absent
// result.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

// ErrAuthFailure means a third party rejected our credentials (401/403).
// The affected source is disabled for the rest of the session; retrying
// without fixed credentials is pointless.
var ErrAuthFailure = errors.New("upstream rejected credentials")

var ErrRateLimited = errors.New("upstream rate limit exceeded")

var ErrDisplayUnavailable = errors.New("display not configured or unreachable")
